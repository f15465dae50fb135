package controllers

import (
	"github.com/gofiber/fiber/v2"

	"makerchecker-backend/database"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/middlewares"
	"makerchecker-backend/models"
	"makerchecker-backend/utils"
)

type SupplierInput struct {
	CompanyName  string `json:"company_name" validate:"required"`
	Address      string `json:"address" validate:"required"`
	City         string `json:"city" validate:"required"`
	Country      string `json:"country" validate:"required"`
	Zip          string `json:"zip" validate:"required"`
	Homepage     string `json:"homepage"`
	UID          string `json:"uid"`
	Email        string `json:"email" validate:"required,email"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
}

type SupplierUpdateInput struct {
	CompanyName  *string `json:"company_name" validate:"omitempty,min=1"`
	Address      *string `json:"address" validate:"omitempty,min=1"`
	City         *string `json:"city" validate:"omitempty,min=1"`
	Country      *string `json:"country" validate:"omitempty,min=1"`
	Zip          *string `json:"zip" validate:"omitempty,min=1"`
	Homepage     *string `json:"homepage"`
	UID          *string `json:"uid"`
	Email        *string `json:"email" validate:"omitempty,email"`
	PhoneNumber  *string `json:"phone_number"`
	MobileNumber *string `json:"mobile_number"`
}

type SupplierController struct {
	subjectController[models.Supplier]
}

func NewSupplierController(suppliers *database.Entity[models.Supplier], manager *makerchecker.Manager) *SupplierController {
	return &SupplierController{subjectController[models.Supplier]{
		subject: models.SupplierMorph,
		entity:  suppliers,
		manager: manager,
	}}
}

func (ctl *SupplierController) Create(c *fiber.Ctx) error {
	var in SupplierInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	return ctl.proposeCreate(c, utils.FieldsFromDTO(&in), "company_name")
}

func (ctl *SupplierController) Update(c *fiber.Ctx) error {
	var in SupplierUpdateInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)
	return ctl.proposeUpdate(c, utils.UpdatesFromPtrDTO(&in, nil))
}
