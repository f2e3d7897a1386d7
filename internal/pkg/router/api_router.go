package router

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/velorahq/velora/app/controllers"
	"github.com/velorahq/velora/internal/pkg/jwtauth"
	"github.com/velorahq/velora/internal/pkg/middleware"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max: 120,
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	requireAuth := middleware.RequireAuth(jwtauth.NewManagerFromEnv())

	v1 := api.Group("/v1")
	v1.Get("/plans", controllers.HandleListPlans)

	payments := v1.Group("/payments")
	payments.Post("/create-order", requireAuth, controllers.HandleCreateOrder)
	payments.Get("/order/:orderId", requireAuth, controllers.HandleGetOrder)
	payments.Post("/verify-payment", requireAuth, controllers.HandleVerifyPayment)
	// Webhooks authenticate by HMAC signature, not bearer token.
	payments.Post("/webhooks", controllers.HandleGatewayWebhook)

	subscriptions := v1.Group("/subscriptions", requireAuth)
	subscriptions.Get("/current", controllers.HandleCurrentSubscription)
	subscriptions.Post("/cancel", controllers.HandleCancelSubscription)
	subscriptions.Post("/resume", controllers.HandleResumeSubscription)

	admin := v1.Group("/admin", requireAuth, middleware.RequireAdmin)
	admin.Get("/billing-stats", controllers.HandleBillingStats)
	admin.Post("/plans/invalidate-cache", controllers.HandleInvalidatePlanCache)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
