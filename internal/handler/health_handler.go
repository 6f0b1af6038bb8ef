package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/gema-academic-api/internal/config"
	"github.com/noah-isme/gema-academic-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status       string            `json:"status"`
	Timestamp    time.Time         `json:"timestamp"`
	Service      string            `json:"service"`
	Environment  string            `json:"environment"`
	Model        string            `json:"model,omitempty"`
	Dependencies map[string]string `json:"dependencies,omitempty"`
}

// DependencyCheck probes one backing service.
type DependencyCheck func(ctx context.Context) error

// HealthCheck reports liveness plus the state of each named dependency.
// Any failing dependency turns the response into a 503.
func HealthCheck(cfg config.Config, checks map[string]DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Model:       cfg.AI.Model,
		}

		status := fiber.StatusOK
		if len(checks) > 0 {
			ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
			defer cancel()

			payload.Dependencies = make(map[string]string, len(checks))
			for name, check := range checks {
				if err := check(ctx); err != nil {
					payload.Dependencies[name] = "down"
					payload.Status = "degraded"
					status = fiber.StatusServiceUnavailable
					continue
				}
				payload.Dependencies[name] = "up"
			}
		}

		if status != fiber.StatusOK {
			return utils.SendSuccessWithStatus(c, status, "service degraded", payload)
		}
		return utils.SendSuccess(c, "service healthy", payload)
	}
}
