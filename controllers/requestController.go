package controllers

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"makerchecker-backend/database"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/middlewares"
	"makerchecker-backend/models"
	"makerchecker-backend/utils"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// RequestInput proposes any request type against a registered subject or executable.
type RequestInput struct {
	Type        models.RequestType     `json:"type" validate:"required,oneof=create update delete execute"`
	SubjectType string                 `json:"subject_type" validate:"required_unless=Type execute,max=64"`
	SubjectID   string                 `json:"subject_id" validate:"required_if=Type update,required_if=Type delete,max=64"`
	Executable  string                 `json:"executable" validate:"required_if=Type execute,max=128"`
	Payload     map[string]any         `json:"payload"`
	UniqueBy    []string               `json:"unique_by"`
	Description string                 `json:"description" validate:"max=255"`
	Hooks       map[models.Hook]string `json:"hooks"`
}

// CheckInput is the optional body of approve and reject.
type CheckInput struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

type RequestController struct {
	manager *makerchecker.Manager
	store   *database.RequestStore
}

func NewRequestController(manager *makerchecker.Manager, store *database.RequestStore) *RequestController {
	return &RequestController{manager: manager, store: store}
}

func (ctl *RequestController) Create(c *fiber.Ctx) error {
	var in RequestInput
	if err := middlewares.BindAndValidate(c, &in); err != nil {
		return err
	}
	maker, err := currentUser(c)
	if err != nil {
		return err
	}

	b := ctl.manager.Request().MadeBy(maker).Description(in.Description)
	switch in.Type {
	case models.TypeCreate:
		b.ToCreate(in.SubjectType, in.Payload)
	case models.TypeUpdate:
		b.ToUpdate(models.Ref{Type: in.SubjectType, Key: in.SubjectID}, in.Payload)
	case models.TypeDelete:
		b.ToDelete(models.Ref{Type: in.SubjectType, Key: in.SubjectID})
	case models.TypeExecute:
		b.ToExecute(in.Executable, in.Payload)
	}
	if in.UniqueBy != nil {
		b.UniqueBy(in.UniqueBy...)
	}
	for kind, name := range in.Hooks {
		b.Hook(kind, name)
	}

	return finalize(c, b)
}

// Index lists requests, newest first. Supports ?status=, ?type=, ?mine=true, ?limit= and ?offset=.
func (ctl *RequestController) Index(c *fiber.Ctx) error {
	filter := database.RequestFilter{
		Status: models.RequestStatus(c.Query("status")),
		Type:   models.RequestType(c.Query("type")),
		Limit:  pageSize(c),
		Offset: utils.ParseIntDefault(c.Query("offset"), 0),
	}
	if c.QueryBool("mine") {
		maker, err := currentUser(c)
		if err != nil {
			return err
		}
		actor := models.ActorOf(maker)
		filter.Maker = &actor
	}

	requests, err := ctl.store.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	return c.JSON(requests)
}

func (ctl *RequestController) Show(c *fiber.Ctx) error {
	req, err := ctl.store.FindByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return c.JSON(req)
}

func (ctl *RequestController) Approve(c *fiber.Ctx) error {
	return ctl.check(c, ctl.manager.Approve)
}

func (ctl *RequestController) Reject(c *fiber.Ctx) error {
	return ctl.check(c, ctl.manager.Reject)
}

type checkFunc func(ctx context.Context, req *models.Request, checker models.Morph, remarks string) (*models.Request, error)

func (ctl *RequestController) check(c *fiber.Ctx, fn checkFunc) error {
	var in CheckInput
	if len(c.Body()) > 0 {
		if err := middlewares.BindAndValidate(c, &in); err != nil {
			return err
		}
	}
	checker, err := currentUser(c)
	if err != nil {
		return err
	}

	req, err := ctl.store.FindByCode(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}

	checked, err := fn(c.UserContext(), req, checker, strings.TrimSpace(in.Remarks))
	if err != nil {
		// The request is already recorded as failed; return it with the error.
		if errors.Is(err, makerchecker.ErrRequestProcessingFailed) && checked != nil {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "request processing failed",
				"request": checked,
			})
		}
		return err
	}
	return c.JSON(checked)
}

func currentUser(c *fiber.Ctx) (models.Ref, error) {
	userID, _ := c.Locals("userID").(string)
	if userID == "" {
		return models.Ref{}, fiber.NewError(fiber.StatusUnauthorized, "auth context missing")
	}
	return models.Ref{Type: models.UserMorph, Key: userID}, nil
}

func finalize(c *fiber.Ctx, b *makerchecker.RequestBuilder) error {
	req, err := b.Finalize(c.UserContext())
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(req)
}

func pageSize(c *fiber.Ctx) int {
	n := utils.ParseIntDefault(c.Query("limit"), defaultPageSize)
	switch {
	case n == 0:
		return defaultPageSize
	case n > maxPageSize:
		return maxPageSize
	}
	return n
}
