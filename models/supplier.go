package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const SupplierMorph = "suppliers"

type Supplier struct {
	Id           string `json:"id" gorm:"primaryKey"`
	CompanyName  string `json:"company_name" gorm:"not null;unique" validate:"required"`
	Address      string `json:"address" gorm:"not null" validate:"required"`
	City         string `json:"city" gorm:"not null" validate:"required"`
	Country      string `json:"country" gorm:"not null" validate:"required"`
	Zip          string `json:"zip" gorm:"not null" validate:"required"`
	Homepage     string `json:"homepage" gorm:"null"`
	UID          string `json:"uid" gorm:"null"`
	Email        string `json:"email" gorm:"unique;not null" validate:"required,email"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
}

func (supplier *Supplier) BeforeCreate(tx *gorm.DB) (err error) {
	supplier.Id = uuid.NewString()
	return
}

func (supplier Supplier) MorphType() string { return SupplierMorph }
func (supplier Supplier) MorphKey() string  { return supplier.Id }
