package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/velorahq/velora/internal/pkg/jwtauth"
	"github.com/velorahq/velora/internal/pkg/usercontext"
)

// RequireAuth authenticates requests carrying a bearer token and stores the
// resolved identity in Locals. API routes get JSON 401 instead of redirects.
func RequireAuth(manager *jwtauth.Manager) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := extractBearerToken(c)
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "Missing bearer token"})
		}

		claims, err := manager.VerifyToken(token)
		if err != nil {
			msg := "Invalid token"
			if errors.Is(err, jwtauth.ErrExpiredToken) {
				msg = "Token expired"
			}
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": msg})
		}

		c.Locals(usercontext.ContextKey, usercontext.UserContext{
			UserID:     claims.UserID,
			Email:      claims.Email,
			Role:       claims.Role,
			IsLoggedIn: true,
		})
		c.Locals(usercontext.KeyUserID, claims.UserID)
		return c.Next()
	}
}

// RequireAdmin gates a route on the admin role. It must run after RequireAuth.
func RequireAdmin(c *fiber.Ctx) error {
	if !usercontext.IsAdmin(c) {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "Admin role required"})
	}
	return c.Next()
}

func extractBearerToken(c *fiber.Ctx) string {
	header := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
