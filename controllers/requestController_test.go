package controllers

import (
	"io"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageSize(t *testing.T) {
	app := fiber.New()
	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString(strconv.Itoa(pageSize(c)))
	})

	for query, want := range map[string]int{
		"":           defaultPageSize,
		"?limit=0":   defaultPageSize,
		"?limit=-3":  defaultPageSize,
		"?limit=abc": defaultPageSize,
		"?limit=10":  10,
		"?limit=200": maxPageSize,
		"?limit=999": maxPageSize,
	} {
		resp, err := app.Test(httptest.NewRequest("GET", "/"+query, nil))
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, strconv.Itoa(want), string(body), query)
	}
}
