package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// RegisterRoutes registers all offer search API routes.
// Public endpoints live under /api/v1; /internal/v1 serves the booking step.
func RegisterRoutes(e *echo.Echo, h *OfferHandler) {
	e.GET("/health", h.Health)

	api := e.Group("/api/v1")
	flights := api.Group("/flights")
	flights.POST("/search", h.SearchOffers)
	flights.GET("/calendar", h.Calendar)

	internal := e.Group("/internal/v1")
	internal.GET("/routing/:session/:offer", h.RoutingDecision)
}

// RegisterSwagger serves the generated API documentation.
func RegisterSwagger(e *echo.Echo) {
	e.GET("/swagger/*", echoSwagger.WrapHandler)
}

// RegisterMetrics exposes a Prometheus handler at path.
func RegisterMetrics(e *echo.Echo, path string, handler http.Handler) {
	e.GET(path, echo.WrapHandler(handler))
}
