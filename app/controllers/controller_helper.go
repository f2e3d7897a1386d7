package controllers

import (
	"strings"
	"sync"

	"github.com/gofiber/fiber/v2"

	"github.com/velorahq/velora/internal/pkg/billing"
	"github.com/velorahq/velora/internal/pkg/database"
)

var (
	billingService     *billing.Service
	billingServiceOnce sync.Once
)

// SetBillingService injects the billing service. Tests and main wiring use
// this; handlers fall back to a service built from the global DB handle.
func SetBillingService(svc *billing.Service) {
	billingService = svc
}

func getBillingService() *billing.Service {
	if billingService == nil {
		billingServiceOnce.Do(func() {
			billingService = billing.NewServiceFromDB(database.GetDB())
		})
	}
	return billingService
}

// firstHeaderValue returns the first non-empty value among the given header
// names. Gateways differ in which header spelling they send.
func firstHeaderValue(c *fiber.Ctx, names ...string) string {
	for _, name := range names {
		if v := strings.TrimSpace(c.Get(name)); v != "" {
			return v
		}
	}
	return ""
}
