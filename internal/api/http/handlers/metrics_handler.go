package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zaphub/ticket-lifecycle/internal/observability"
)

// MetricsHandler exposes the engine's in-memory counters.
type MetricsHandler struct {
	metrics *observability.Metrics
}

// NewMetricsHandler returns a new handler instance.
func NewMetricsHandler(metrics *observability.Metrics) *MetricsHandler {
	return &MetricsHandler{metrics: metrics}
}

// Snapshot dumps request, error and engine counters.
func (h *MetricsHandler) Snapshot(c *fiber.Ctx) error {
	requests, errors, engine := h.metrics.Snapshot()
	return c.JSON(fiber.Map{
		"requests": requests,
		"errors":   errors,
		"engine":   engine,
	})
}
