package models

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const ArticleMorph = "articles"

type Article struct {
	Id          string  `json:"id" gorm:"primaryKey"`
	Title       string  `json:"title" gorm:"not null" validate:"required,max=255"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:numeric(12,2)" validate:"gte=0"`
	Active      bool    `json:"active"`
}

func (article *Article) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	article.Id = uuid.NewString()
	return
}

func (article Article) MorphType() string { return ArticleMorph }
func (article Article) MorphKey() string  { return article.Id }
