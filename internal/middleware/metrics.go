package middleware

import (
	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// InitMetrics creates the Prometheus middleware for the given service name.
// Each server instance gets its own registry so repeated construction (tests,
// embedded use) never trips duplicate-collector registration.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return fiberprometheus.NewWithRegistry(registry, serviceName, "http", "", nil)
}

// MetricsMiddleware wraps the Prometheus middleware as a fiber.Handler.
func MetricsMiddleware(prom *fiberprometheus.FiberPrometheus) fiber.Handler {
	return prom.Middleware
}
