package controllers

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/velorahq/velora/app/models"
	"github.com/velorahq/velora/internal/pkg/cache"
)

const (
	plansCacheKey = "billing:plans:active"
	plansCacheTTL = 5 * time.Minute
)

// invalidatePlanCache drops the cached catalog so plan edits show up before
// the TTL expires. Var so tests can observe the call.
var invalidatePlanCache = func() error {
	return cache.Delete(plansCacheKey)
}

type planView struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Interval string   `json:"interval"`
	Price    int64    `json:"price"`
	PriceUSD *int64   `json:"priceUsd,omitempty"`
	Currency string   `json:"currency"`
	Features []string `json:"features"`
}

// HandleListPlans returns the active plan catalog. The catalog changes
// rarely, so responses are served from Redis when possible; cache failures
// fall through to the database.
func HandleListPlans(c *fiber.Ctx) error {
	if cached, err := cache.Get(plansCacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	plans, err := getBillingService().ListPlans(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}

	views := make([]planView, 0, len(plans))
	for _, p := range plans {
		views = append(views, planView{
			ID:       p.ID,
			Name:     p.Name,
			Interval: p.Interval,
			Price:    p.Price,
			PriceUSD: p.PriceUSD,
			Currency: models.CurrencyINR,
			Features: p.FeatureList(),
		})
	}
	payload := fiber.Map{"plans": views}

	if raw, err := json.Marshal(payload); err == nil {
		if err := cache.Set(plansCacheKey, string(raw), plansCacheTTL); err != nil {
			log.Printf("plan catalog cache write failed: %v", err)
		}
	}
	return c.JSON(payload)
}
