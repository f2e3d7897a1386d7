package controllers

import (
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/gateway"
	"github.com/velorahq/velora/internal/pkg/mail"
	"github.com/velorahq/velora/internal/pkg/usercontext"
)

var validate = validator.New()

type createOrderRequest struct {
	PlanID   string `json:"planId" validate:"required"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// HandleCreateOrder registers a gateway order for a plan purchase and
// returns the fields the checkout widget needs.
func HandleCreateOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var req createOrderRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "planId is required"})
	}

	res, err := getBillingService().CreateOrder(c.UserContext(), userCtx.UserID, req.PlanID, req.Currency, req.Receipt)
	if err != nil {
		return orderErrorResponse(c, err)
	}
	return c.JSON(res)
}

// HandleGetOrder reconstructs checkout data for an already-created order.
func HandleGetOrder(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	orderID := c.Params("orderId")
	if orderID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "orderId is required"})
	}

	res, err := getBillingService().DescribeOrder(c.UserContext(), userCtx.UserID, orderID)
	if err != nil {
		return orderErrorResponse(c, err)
	}
	return c.JSON(res)
}

// HandleVerifyPayment checks the gateway signature for a completed checkout
// and activates the purchased subscription.
func HandleVerifyPayment(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing or invalid authentication"})
	}

	var in billing.VerifyInput
	if err := c.BodyParser(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if err := validate.Struct(&in); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "paymentId, orderId, signature and planId are required"})
	}

	res, err := getBillingService().VerifyAndActivate(c.UserContext(), userCtx.UserID, in)
	if err != nil {
		return verifyErrorResponse(c, err)
	}

	// Checkout captures count alongside webhook-reported ones.
	if cerr := addPaymentCaptured(); cerr != nil {
		log.Printf("payment counter increment failed: %v", cerr)
	}

	if userCtx.Email != "" {
		// Receipt delivery is best-effort and must not delay the response.
		go func(to, invoiceNumber, currency string, amount int64) {
			_ = mail.SendPaymentReceipt(to, invoiceNumber, currency, amount)
		}(userCtx.Email, res.InvoiceNumber, res.Payment.Currency, res.Payment.Amount)
	}

	return c.JSON(fiber.Map{
		"success":      true,
		"subscription": res.Subscription,
		"payment":      res.Payment,
	})
}

func orderErrorResponse(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, billing.ErrPlanNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	case errors.Is(err, billing.ErrUserNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "User not found"})
	case errors.Is(err, billing.ErrOrderNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
	case errors.Is(err, billing.ErrInvalidCurrency):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Unsupported currency"})
	case errors.Is(err, gateway.ErrNotConfigured):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Payment gateway is not configured"})
	case errors.Is(err, gateway.ErrTimeout):
		return c.Status(fiber.StatusGatewayTimeout).JSON(fiber.Map{"error": "gateway_timeout", "message": "Payment gateway timed out"})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "Payment gateway request failed"})
	}
}

func verifyErrorResponse(c *fiber.Ctx, err error) error {
	var wf *billing.WriteFailure
	switch {
	case errors.Is(err, billing.ErrSecretNotConfigured):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Payment verification is not configured"})
	case errors.Is(err, billing.ErrSignatureMismatch):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Payment signature verification failed"})
	case errors.Is(err, billing.ErrPaymentNotCaptured):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Payment is not captured"})
	case errors.Is(err, billing.ErrPlanNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
	case errors.As(err, &wf):
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to record " + wf.Step})
	default:
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "bad_gateway", "message": "Payment verification failed"})
	}
}
