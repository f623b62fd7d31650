package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/asset-health-service/internal/api/http/handlers"
	"github.com/spec-kit/asset-health-service/internal/auth"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Issues         *handlers.IssuesHandler
	AssetHealth    *handlers.AssetHealthHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes. Issue submission and lookup stay
// public; mutating health operations require an operator token.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/operator/login", cfg.Auth.OperatorLogin)

	app.Post("/issues", cfg.Issues.CreateIssue)
	app.Get("/issues/:key", cfg.Issues.GetIssue)

	assetHealth := app.Group("/asset-health")
	assetHealth.Get("/summary", cfg.AssetHealth.Summary)
	assetHealth.Get("/maintenance", cfg.AssetHealth.MaintenanceList)

	operator := assetHealth.Group("", cfg.AuthMiddleware.RequireOperator)
	operator.Post("/check-all", cfg.AssetHealth.CheckAll)
	operator.Patch("/:assetID/maintenance", cfg.AssetHealth.CompleteMaintenance)
	operator.Get("/:assetID/issues", cfg.AssetHealth.AssetIssues)
}
