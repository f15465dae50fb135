package middlewares

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"makerchecker-backend/makerchecker"
)

// ErrorHandler centralizes error responses and keeps messages sanitized.
func ErrorHandler(log logrus.FieldLogger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		// 1) Fiber errors (use their status code + message)
		var fe *fiber.Error
		if errors.As(err, &fe) {
			return c.Status(fe.Code).JSON(fiber.Map{"message": fe.Message})
		}

		// 2) Validation errors (422 + per-field info)
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			out := make(map[string]string, len(ve))
			for _, fe := range ve {
				out[fe.Field()] = fe.Tag()
			}
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"message": "validation failed",
				"errors":  out,
			})
		}

		// 3) Engine errors
		var me *makerchecker.Error
		if errors.As(err, &me) {
			status := StatusFor(me)
			if status >= fiber.StatusInternalServerError {
				log.WithError(err).WithField("path", c.Path()).Error("request lifecycle error")
				return c.Status(status).JSON(fiber.Map{"message": "internal server error"})
			}
			return c.Status(status).JSON(fiber.Map{
				"message": me.Msg,
				"kind":    me.Kind,
			})
		}

		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "not found"})
		}

		// 4) Unknown errors (500)
		log.WithError(err).WithField("path", c.Path()).Error("internal error")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "internal server error",
		})
	}
}

// StatusFor maps an engine error to an HTTP status.
func StatusFor(err *makerchecker.Error) int {
	switch err.Kind {
	case makerchecker.KindDuplicateRequest, makerchecker.KindRequestNotCheckable:
		return fiber.StatusConflict
	case makerchecker.KindActorNotPermitted, makerchecker.KindCheckerNotPermitted:
		return fiber.StatusForbidden
	case makerchecker.KindRequestProcessingFailed:
		return fiber.StatusUnprocessableEntity
	case makerchecker.KindRequestNotInitiated:
		if err.Err != nil {
			return fiber.StatusInternalServerError
		}
		return fiber.StatusBadRequest
	case makerchecker.KindRequestTypeAlreadySet,
		makerchecker.KindInvalidHook,
		makerchecker.KindUnresolvableAction,
		makerchecker.KindInvalidRequestModel,
		makerchecker.KindExpirationNotConfigured:
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
