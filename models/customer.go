package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const CustomerMorph = "customers"

type Customer struct {
	Id           string `json:"id" gorm:"primaryKey"`
	CompanyName  string `json:"company_name" gorm:"not null;unique" validate:"required"`
	Address      string `json:"address" gorm:"not null" validate:"required"`
	City         string `json:"city" gorm:"not null" validate:"required"`
	Country      string `json:"country" gorm:"not null" validate:"required"`
	Zip          string `json:"zip" gorm:"not null" validate:"required"`
	Homepage     string `json:"homepage" gorm:"null"`
	UID          string `json:"uid" gorm:"null"`
	Email        string `json:"email" gorm:"unique;not null" validate:"required,email"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PhoneNumber  string `json:"phone_number"`
	MobileNumber string `json:"mobile_number"`
	Salutation   string `json:"salutation"`
	Title        string `json:"title"`
	Active       bool   `json:"active"`
}

func (customer *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	customer.Id = uuid.NewString()
	return
}

func (customer Customer) MorphType() string { return CustomerMorph }
func (customer Customer) MorphKey() string  { return customer.Id }
