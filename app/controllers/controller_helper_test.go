package controllers

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirstHeaderValue(t *testing.T) {
	app := fiber.New()
	var got string
	app.Get("/", func(c *fiber.Ctx) error {
		got = firstHeaderValue(c, "X-Razorpay-Signature", "X-Signature")
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Signature", "fallback")
	_, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "fallback", got)

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Razorpay-Signature", "primary")
	req.Header.Set("X-Signature", "fallback")
	_, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "primary", got)

	req = httptest.NewRequest("GET", "/", nil)
	_, err = app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}
