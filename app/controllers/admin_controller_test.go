package controllers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleInvalidatePlanCache(t *testing.T) {
	calls := 0
	orig := invalidatePlanCache
	invalidatePlanCache = func() error { calls++; return nil }
	t.Cleanup(func() { invalidatePlanCache = orig })

	app := fiber.New()
	app.Post("/admin/plans/invalidate-cache", HandleInvalidatePlanCache)

	req := httptest.NewRequest(http.MethodPost, "/admin/plans/invalidate-cache", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, calls)
}

func TestHandleInvalidatePlanCache_Error(t *testing.T) {
	orig := invalidatePlanCache
	invalidatePlanCache = func() error { return errors.New("cache unavailable") }
	t.Cleanup(func() { invalidatePlanCache = orig })

	app := fiber.New()
	app.Post("/admin/plans/invalidate-cache", HandleInvalidatePlanCache)

	req := httptest.NewRequest(http.MethodPost, "/admin/plans/invalidate-cache", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
