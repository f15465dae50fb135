package middlewares

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"makerchecker-backend/makerchecker"
)

func TestStatusFor(t *testing.T) {
	cases := map[makerchecker.Kind]int{
		makerchecker.KindDuplicateRequest:        http.StatusConflict,
		makerchecker.KindRequestNotCheckable:     http.StatusConflict,
		makerchecker.KindActorNotPermitted:       http.StatusForbidden,
		makerchecker.KindCheckerNotPermitted:     http.StatusForbidden,
		makerchecker.KindRequestProcessingFailed: http.StatusUnprocessableEntity,
		makerchecker.KindRequestNotInitiated:     http.StatusBadRequest,
		makerchecker.KindRequestTypeAlreadySet:   http.StatusBadRequest,
		makerchecker.KindInvalidHook:             http.StatusBadRequest,
		makerchecker.KindUnresolvableAction:      http.StatusBadRequest,
		makerchecker.KindInvalidRequestModel:     http.StatusBadRequest,
		makerchecker.Kind("unknown"):             http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(&makerchecker.Error{Kind: kind}), kind)
	}

	storeFailure := &makerchecker.Error{Kind: makerchecker.KindRequestNotInitiated, Err: errors.New("disk full")}
	assert.Equal(t, http.StatusInternalServerError, StatusFor(storeFailure))
}

func serveError(t *testing.T, err error) (int, map[string]any, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(log)})
	app.Get("/", func(*fiber.Ctx) error { return err })

	resp, e := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, e)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body, hook
}

func TestErrorHandler(t *testing.T) {
	t.Run("fiber error", func(t *testing.T) {
		status, body, _ := serveError(t, fiber.NewError(fiber.StatusTeapot, "short and stout"))
		assert.Equal(t, fiber.StatusTeapot, status)
		assert.Equal(t, "short and stout", body["message"])
	})

	t.Run("validation", func(t *testing.T) {
		err := Validator().Struct(struct {
			Title string `validate:"required"`
		}{})
		status, body, _ := serveError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, status)
		assert.Equal(t, map[string]any{"Title": "required"}, body["errors"])
	})

	t.Run("engine error", func(t *testing.T) {
		err := &makerchecker.Error{Kind: makerchecker.KindDuplicateRequest, Msg: "already pending"}
		status, body, hook := serveError(t, err)
		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "already pending", body["message"])
		assert.Equal(t, "duplicate_request", body["kind"])
		assert.Empty(t, hook.AllEntries())
	})

	t.Run("engine error hides internals", func(t *testing.T) {
		err := &makerchecker.Error{Kind: makerchecker.KindRequestNotInitiated, Msg: "insert failed", Err: errors.New("dsn secret")}
		status, body, hook := serveError(t, err)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "internal server error", body["message"])
		require.NotNil(t, hook.LastEntry())
		assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	})

	t.Run("not found", func(t *testing.T) {
		status, _, _ := serveError(t, gorm.ErrRecordNotFound)
		assert.Equal(t, http.StatusNotFound, status)
	})

	t.Run("unknown", func(t *testing.T) {
		status, body, hook := serveError(t, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "internal server error", body["message"])
		assert.Len(t, hook.AllEntries(), 1)
	})
}
