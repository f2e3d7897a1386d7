package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/velorahq/velora/internal/pkg/metrics/counter"
)

// HandleBillingStats returns webhook delivery and payment counters for
// operators.
func HandleBillingStats(c *fiber.Ctx) error {
	events, err := counter.WebhookEventCounts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load counters"})
	}
	captured, refunded, _ := counter.PaymentCounts()

	return c.JSON(fiber.Map{
		"webhook_events": events,
		"payments": fiber.Map{
			"captured": captured,
			"refunded": refunded,
		},
	})
}

// HandleInvalidatePlanCache drops the cached plan catalog after catalog
// edits.
func HandleInvalidatePlanCache(c *fiber.Ctx) error {
	if err := invalidatePlanCache(); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to invalidate plan cache"})
	}
	return c.JSON(fiber.Map{"success": true})
}
