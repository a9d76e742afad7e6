package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/house-rental-booking/internal/handler"
)

// RegisterRoutes registers the operational endpoints: a health check for
// load balancers and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo, health echo.HandlerFunc) {
	e.GET("/healthz", health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterPublic registers unauthenticated house endpoints.  The calendar
// goes through cache, which may be a pass-through when Redis is off.
func RegisterPublic(e *echo.Echo, h *handler.BookingHandler, cache echo.MiddlewareFunc) {
	e.GET("/v1/houses/:id/quote", h.Quote)
	e.GET("/v1/houses/:id/calendar", h.Calendar, cache)
}
