package controllers

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/metrics/counter"
)

// Counter increments go through vars so tests can observe them without a
// Redis instance.
var (
	addWebhookEvent    = counter.AddWebhookEvent
	addPaymentCaptured = counter.AddPaymentCaptured
	addPaymentRefunded = counter.AddPaymentRefunded
)

// HandleGatewayWebhook receives gateway event deliveries. The body must stay
// raw for signature verification; parsing happens after the HMAC check.
func HandleGatewayWebhook(c *fiber.Ctx) error {
	body := c.Body()
	signature := firstHeaderValue(c, "X-Razorpay-Signature", "X-Signature")
	eventID := firstHeaderValue(c, "X-Razorpay-Event-Id", "X-Event-Id")

	err := getBillingService().HandleWebhook(c.UserContext(), body, signature, eventID)
	switch {
	case err == nil:
		recordEventMetrics(peekEventName(body))
		return c.JSON(fiber.Map{"status": "ok"})
	case errors.Is(err, billing.ErrSecretNotConfigured):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Webhook verification is not configured"})
	case errors.Is(err, billing.ErrSignatureMismatch):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Webhook signature verification failed"})
	default:
		// Parse failures of an authenticated body.
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Malformed webhook payload"})
	}
}

// recordEventMetrics updates delivery and payment counters for an accepted
// webhook. Counter failures are logged, never surfaced to the gateway.
func recordEventMetrics(name string) {
	if name == "" {
		return
	}
	if err := addWebhookEvent(name); err != nil {
		log.Printf("webhook counter increment failed: %v", err)
	}
	switch name {
	case billing.EventPaymentCaptured, billing.EventSubscriptionCharged:
		if err := addPaymentCaptured(); err != nil {
			log.Printf("payment counter increment failed: %v", err)
		}
	case billing.EventRefundCreated:
		if err := addPaymentRefunded(); err != nil {
			log.Printf("refund counter increment failed: %v", err)
		}
	}
}

func peekEventName(body []byte) string {
	var envelope struct {
		Event string `json:"event"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return ""
	}
	return envelope.Event
}
