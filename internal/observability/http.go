package observability

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsHandler exposes the scrape endpoint for the API, pipeline and gateway collectors.
func MetricsHandler() fiber.Handler {
	return MetricsHandlerFor(prometheus.DefaultGatherer)
}

// MetricsHandlerFor serves a specific gatherer, mainly for tests with an isolated registry.
func MetricsHandlerFor(gatherer prometheus.Gatherer) fiber.Handler {
	RegisterMetrics()
	return adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
}
