package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"tone_server/pkg/metrics"
)

// Check probes one dependency.
type Check func(ctx context.Context) error

// StatsFunc reports a snapshot for the metrics endpoint.
type StatsFunc func() any

type HealthHandler struct {
	checks map[string]Check
	stats  map[string]StatsFunc
}

func NewHealthHandler() *HealthHandler {
	return &HealthHandler{
		checks: make(map[string]Check),
		stats:  make(map[string]StatsFunc),
	}
}

// WithCheck adds a readiness probe.
func (h *HealthHandler) WithCheck(name string, check Check) *HealthHandler {
	h.checks[name] = check
	return h
}

// WithStats adds a section to /metrics.
func (h *HealthHandler) WithStats(name string, fn StatsFunc) *HealthHandler {
	h.stats[name] = fn
	return h
}

func (h *HealthHandler) Register(app *fiber.App) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
	app.Get("/metrics", h.Metrics)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.checks))
	allHealthy := true

	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks[name] = "healthy"
		}
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Metrics returns per-route latency plus every registered stats section.
func (h *HealthHandler) Metrics(c *fiber.Ctx) error {
	latency := make(map[string]any)
	for route, s := range metrics.GetAllLatencyStats() {
		latency[route] = s.ToMap()
	}

	body := fiber.Map{
		"latency":   latency,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for name, fn := range h.stats {
		body[name] = fn()
	}
	return c.JSON(body)
}
