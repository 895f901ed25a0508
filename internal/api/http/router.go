package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zaphub/ticket-lifecycle/internal/api/http/handlers"
	"github.com/zaphub/ticket-lifecycle/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Metrics        *handlers.MetricsHandler
	Auth           *handlers.AuthHandler
	Settings       *handlers.SettingsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Metrics.Snapshot)

	app.Post("/auth/login", cfg.Auth.Login)

	settings := app.Group("/settings", cfg.AuthMiddleware.Handle, auth.RequireAdmin())
	settings.Get("/", cfg.Settings.List)
	settings.Put("/:key", cfg.Settings.Update)
}
