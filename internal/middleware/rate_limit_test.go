package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func newRedisStorage(t *testing.T) (*RedisStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStorage(client, "limiter:"), mr
}

func TestRedisStorageRoundTrip(t *testing.T) {
	storage, mr := newRedisStorage(t)

	value, err := storage.Get("missing")
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, storage.Set("a", []byte("1"), time.Minute))
	require.NoError(t, storage.Set("b", []byte("2"), 0))
	require.True(t, mr.Exists("limiter:a"))

	value, err = storage.Get("a")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), value)

	mr.FastForward(2 * time.Minute)
	value, err = storage.Get("a")
	require.NoError(t, err)
	require.Nil(t, value)

	require.NoError(t, storage.Delete("b"))
	require.False(t, mr.Exists("limiter:b"))

	require.NoError(t, storage.Set("c", []byte("3"), 0))
	require.NoError(t, mr.Set("unrelated", "keep"))
	require.NoError(t, storage.Reset())
	require.False(t, mr.Exists("limiter:c"))
	require.True(t, mr.Exists("unrelated"))
	require.NoError(t, storage.Close())
}

func TestRateLimitRejectsAfterMax(t *testing.T) {
	storage, _ := newRedisStorage(t)

	app := fiber.New()
	app.Use(withLocals(9, "faculty"))
	app.Use(RateLimit("ai", 2, time.Minute, storage))
	app.Get("/resource", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resource", nil))
		require.NoError(t, err)
		require.Equal(t, fiber.StatusOK, resp.StatusCode)
	}

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/resource", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	require.Contains(t, readBody(t, resp), RateLimitMessage)
}
