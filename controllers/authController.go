package controllers

import (
	"errors"
	"strings"
	"time"

	"makerchecker-backend/middlewares"
	"makerchecker-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type RegistrationInput struct {
	FirstName       string `json:"first_name" validate:"required,max=100"`
	LastName        string `json:"last_name" validate:"required,max=100"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthController registers users and issues tokens. Users are the actors
// that make and check requests.
type AuthController struct {
	db     *gorm.DB
	secret string
}

func NewAuthController(db *gorm.DB, secret string) *AuthController {
	return &AuthController{db: db, secret: secret}
}

func (ctl *AuthController) Register(c *fiber.Ctx) error {
	var data RegistrationInput
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}
	email := strings.ToLower(strings.TrimSpace(data.Email))

	var count int64
	if err := ctl.db.WithContext(c.UserContext()).Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "email already exists",
		})
	}

	user := models.User{
		FirstName: strings.TrimSpace(data.FirstName),
		LastName:  strings.TrimSpace(data.LastName),
		Email:     email,
	}
	if err := user.SetPassword(data.Password); err != nil {
		return err
	}
	if err := ctl.db.WithContext(c.UserContext()).Create(&user).Error; err != nil {
		c.Status(fiber.StatusBadRequest)
		return c.JSON(fiber.Map{
			"message": "Could not create User",
		})
	}

	return c.Status(fiber.StatusCreated).JSON(user)
}

func (ctl *AuthController) Login(c *fiber.Ctx) error {
	var data LoginInput
	if err := middlewares.BindAndValidate(c, &data); err != nil {
		return err
	}

	var user models.User
	err := ctl.db.WithContext(c.UserContext()).Where("email = ?", strings.ToLower(strings.TrimSpace(data.Email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid credentials"})
		}
		return err
	}

	if err := user.ComparePassword(data.Password); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid credentials"})
	}

	token, err := middlewares.GenerateJWT(ctl.secret, user.Id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user": fiber.Map{
			"id":    user.Id,
			"name":  user.FirstName + " " + user.LastName,
			"email": user.Email,
		},
	})
}

func (ctl *AuthController) Logout(c *fiber.Ctx) error {
	cookie := fiber.Cookie{
		Name:     "jwt",
		Value:    "",
		Expires:  time.Now().Add(-time.Hour),
		HTTPOnly: true,
	}
	c.Cookie(&cookie)
	return c.JSON(fiber.Map{
		"message": "success",
	})
}
