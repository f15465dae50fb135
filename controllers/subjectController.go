package controllers

import (
	"github.com/gofiber/fiber/v2"

	"makerchecker-backend/database"
	"makerchecker-backend/makerchecker"
	"makerchecker-backend/models"
	"makerchecker-backend/utils"
)

// subjectController serves reads of one registered subject table and turns
// writes into maker-checker requests. Rows only change once a request is approved.
type subjectController[T models.Morph] struct {
	subject string
	entity  *database.Entity[T]
	manager *makerchecker.Manager
}

func (s subjectController[T]) Index(c *fiber.Ctx) error {
	rows, err := s.entity.List(c.UserContext(), pageSize(c), utils.ParseIntDefault(c.Query("offset"), 0))
	if err != nil {
		return err
	}
	return c.JSON(rows)
}

func (s subjectController[T]) Show(c *fiber.Ctx) error {
	row, err := s.entity.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(row)
}

// Delete proposes removing the row.
func (s subjectController[T]) Delete(c *fiber.Ctx) error {
	maker, err := currentUser(c)
	if err != nil {
		return err
	}
	row, err := s.entity.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return finalize(c, s.manager.RequestToDelete(*row).MadeBy(maker))
}

func (s subjectController[T]) proposeCreate(c *fiber.Ctx, payload map[string]any, uniqueBy ...string) error {
	maker, err := currentUser(c)
	if err != nil {
		return err
	}
	b := s.manager.RequestToCreate(s.subject, payload).MadeBy(maker)
	if len(uniqueBy) > 0 {
		b.UniqueBy(uniqueBy...)
	}
	return finalize(c, b)
}

func (s subjectController[T]) proposeUpdate(c *fiber.Ctx, changes map[string]any) error {
	if len(changes) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no changes provided")
	}
	maker, err := currentUser(c)
	if err != nil {
		return err
	}
	row, err := s.entity.Find(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return finalize(c, s.manager.RequestToUpdate(*row, changes).MadeBy(maker))
}
