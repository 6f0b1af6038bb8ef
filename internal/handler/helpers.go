package handler

import (
	"errors"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gema-academic-api/internal/middleware"
	"github.com/noah-isme/gema-academic-api/internal/pipeline"
	"github.com/noah-isme/gema-academic-api/internal/utils"
)

func userIDFromContext(c *fiber.Ctx) uint {
	if v := c.Locals("user_id"); v != nil {
		if id, ok := v.(uint); ok {
			return id
		}
		if id, ok := v.(int); ok {
			if id < 0 {
				return 0
			}
			return uint(id)
		}
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if role, ok := c.Locals("user_role").(string); ok {
		return role
	}
	return ""
}

// actorFromContext builds the verified caller from what the auth middlewares stored.
func actorFromContext(c *fiber.Ctx) pipeline.Actor {
	return pipeline.Actor{
		UserID: userIDFromContext(c),
		Role:   userRoleFromContext(c),
	}
}

func requestLogger(base zerolog.Logger, c *fiber.Ctx) *zerolog.Logger {
	logger := middleware.RequestLogger(c, base)
	return &logger
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	parsed, err := strconv.ParseUint(strings.TrimSpace(c.Params(name)), 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func validationMessage(err error) (string, bool) {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return "", false
	}

	parts := make([]string, 0, len(validationErrors))
	for _, fieldErr := range validationErrors {
		parts = append(parts, strings.ToLower(fieldErr.Field())+" failed "+fieldErr.Tag()+" validation")
	}
	return strings.Join(parts, "; "), true
}

// sendPipelineError writes a failed run. Only the caller-safe message leaves the process.
func sendPipelineError(c *fiber.Ctx, err error) (bool, error) {
	var failure *pipeline.Error
	if !errors.As(err, &failure) {
		return false, nil
	}
	return true, utils.SendError(c, failure.Status(), failure.Message)
}
