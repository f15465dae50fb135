package controllers

import (
	"github.com/gofiber/fiber/v2"

	"makerchecker-backend/database"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/middlewares"
	"makerchecker-backend/models"
	"makerchecker-backend/utils"
)

type CustomerInput struct {
	CompanyName  string `json:"company_name" validate:"required"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	Country      string `json:"country" validate:"required"`
	Zip          string `json:"zip" validate:"required"`
	Homepage     string `json:"homepage"`
	UID          string `json:"uid"`
	Email        string `json:"email" validate:"required,email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
	Salutation   string `json:"salutation"`
	Title        string `json:"title"`
	Active       bool   `json:"active"`
}

type CustomerUpdateInput struct {
	CompanyName  *string `json:"company_name" validate:"omitempty,min=1"`
	Address      *string `json:"address" validate:"omitempty,min=1"`
	City         *string `json:"city" validate:"omitempty,min=1"`
	Country      *string `json:"country" validate:"omitempty,min=1"`
	Zip          *string `json:"zip" validate:"omitempty,min=1"`
	Homepage     *string `json:"homepage"`
	UID          *string `json:"uid"`
	Email        *string `json:"email" validate:"omitempty,email"`
	FirstName    *string `json:"first_name"`
	LastName     *string `json:"last_name"`
	PhoneNumber  *string `json:"phone_number"`
	MobileNumber *string `json:"mobile_number"`
	Salutation   *string `json:"salutation"`
	Title        *string `json:"title"`
	Active       *bool   `json:"active"`
}

type CustomerController struct {
	subjectController[models.Customer]
}

func NewCustomerController(customers *database.Entity[models.Customer], manager *makerchecker.Manager) *CustomerController {
	return &CustomerController{subjectController[models.Customer]{
		subject: models.CustomerMorph,
		entity:  customers,
		manager: manager,
	}}
}

// Create proposes a new customer, unique by company name and email among pending proposals.
func (ctl *CustomerController) Create(c *fiber.Ctx) error {
	var in CustomerInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	return ctl.proposeCreate(c, utils.FieldsFromDTO(&in), "company_name", "email")
}

func (ctl *CustomerController) Update(c *fiber.Ctx) error {
	var in CustomerUpdateInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)
	return ctl.proposeUpdate(c, utils.UpdatesFromPtrDTO(&in, nil))
}
