package middleware

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-academic-api/internal/utils"
)

// RoleLookup resolves a user's role from the role-assignment table.
type RoleLookup interface {
	GetRole(ctx context.Context, userID uint) (string, error)
}

// ResolveRole loads the caller's role and stores it as user_role. A user without a role row
// gets an empty role, which RequireRole rejects.
func ResolveRole(roles RoleLookup, logger zerolog.Logger) fiber.Handler {
	log := logger.With().Str("component", "role_resolver").Logger()

	return func(c *fiber.Ctx) error {
		userID, ok := c.Locals("user_id").(uint)
		if !ok || userID == 0 {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		role, err := roles.GetRole(c.UserContext(), userID)
		if err != nil {
			log.Error().Err(err).Uint("user_id", userID).Str("correlation_id", GetCorrelationID(c)).Msg("role lookup failed")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to resolve user role")
		}

		c.Locals("user_role", strings.ToLower(strings.TrimSpace(role)))
		return c.Next()
	}
}

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		normalized := strings.ToLower(strings.TrimSpace(role))
		if normalized != "" {
			allowed[normalized] = struct{}{}
		}
	}

	return func(c *fiber.Ctx) error {
		if _, ok := c.Locals("user_id").(uint); !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "authentication required")
		}

		role, _ := c.Locals("user_role").(string)
		if _, ok := allowed[strings.ToLower(strings.TrimSpace(role))]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}
		return c.Next()
	}
}
