package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/usercontext"
)

// HandleCurrentSubscription returns the authenticated user's newest
// subscription.
func HandleCurrentSubscription(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	sub, err := getBillingService().CurrentSubscription(c.UserContext(), userCtx.UserID)
	if err != nil {
		return subscriptionErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"subscription": sub})
}

// HandleCancelSubscription flags the current subscription to lapse at the
// end of the paid period. Access continues until then.
func HandleCancelSubscription(c *fiber.Ctx) error {
	return setCancelFlag(c, true)
}

// HandleResumeSubscription clears a pending end-of-period cancellation.
func HandleResumeSubscription(c *fiber.Ctx) error {
	return setCancelFlag(c, false)
}

func setCancelFlag(c *fiber.Ctx, cancel bool) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	sub, err := getBillingService().SetCancelAtPeriodEnd(c.UserContext(), userCtx.UserID, cancel)
	if err != nil {
		return subscriptionErrorResponse(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "subscription": sub})
}

func subscriptionErrorResponse(c *fiber.Ctx, err error) error {
	if errors.Is(err, billing.ErrSubscriptionNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "No subscription found"})
	}
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load subscription"})
}
