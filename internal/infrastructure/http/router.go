package http

import (
	"github.com/labstack/echo/v4"

	"github.com/quillpress/blog-api/internal/infrastructure/http/handlers"
)

// RegisterProbes mounts the liveness and readiness endpoints on e. They sit
// outside the /api group and need no authentication.
func RegisterProbes(e *echo.Echo, checks ...handlers.DependencyCheck) {
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(checks...)

	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthDepsHandler.Readiness)
}
