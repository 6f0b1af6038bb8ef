package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestErrorHandlerNormalizesErrors(t *testing.T) {
	logger := zerolog.Nop()
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(logger)})
	Register(app, Config{Logger: &logger})
	app.Get("/api/v1/boom", func(c *fiber.Ctx) error {
		return errors.New("secret detail")
	})
	app.Get("/api/v1/gone", func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "not here")
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/boom", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	body := readBody(t, resp)
	require.Contains(t, body, `"error":"internal server error"`)
	require.NotContains(t, body, "secret detail")
	require.NotEmpty(t, resp.Header.Get("X-Correlation-ID"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/gone", nil)
	req.Header.Set("X-Correlation-ID", "corr-1")
	resp, err = app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	require.Equal(t, "corr-1", resp.Header.Get("X-Correlation-ID"))
	require.Contains(t, readBody(t, resp), `"error":"not here"`)
}

func TestLatencyBucket(t *testing.T) {
	require.Equal(t, "<=50ms", latencyBucket(0))
	require.Equal(t, ">15s", latencyBucket(20e9))
}
