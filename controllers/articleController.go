package controllers

import (
	"github.com/gofiber/fiber/v2"

	"makerchecker-backend/database"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/middlewares"
	"makerchecker-backend/models"
	"makerchecker-backend/utils"
)

type ArticleInput struct {
	Title       string  `json:"title" validate:"required,max=255"`
	Description string  `json:"description"`
	UnitPrice   float64 `json:"unit_price" validate:"gte=0"`
	Active      bool    `json:"active"`
}

type ArticleUpdateInput struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string  `json:"description"`
	UnitPrice   *float64 `json:"unit_price" validate:"omitempty,gte=0"`
	Active      *bool    `json:"active"`
}

type ArticleController struct {
	subjectController[models.Article]
}

func NewArticleController(articles *database.Entity[models.Article], manager *makerchecker.Manager) *ArticleController {
	return &ArticleController{subjectController[models.Article]{
		subject: models.ArticleMorph,
		entity:  articles,
		manager: manager,
	}}
}

// Create proposes a new article. Two pending proposals with the same title are duplicates.
func (ctl *ArticleController) Create(c *fiber.Ctx) error {
	var in ArticleInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizeDTO(&in)
	return ctl.proposeCreate(c, utils.FieldsFromDTO(&in), "title")
}

func (ctl *ArticleController) Update(c *fiber.Ctx) error {
	var in ArticleUpdateInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	utils.NormalizePtrDTO(&in)
	return ctl.proposeUpdate(c, utils.UpdatesFromPtrDTO(&in, nil))
}
