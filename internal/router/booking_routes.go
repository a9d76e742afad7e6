package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/handler"
	"github.com/iliyamo/house-rental-booking/internal/middleware"
	"github.com/iliyamo/house-rental-booking/internal/model"
)

// RegisterBookings registers the authenticated booking endpoints under
// /v1.  Every route requires a valid JWT; the role checks below only
// gate who may attempt an action.  Whether the caller is the tenant or
// the owner of a particular booking is decided by the service.
func RegisterBookings(e *echo.Echo, h *handler.BookingHandler, jwtSecret string, limiter echo.MiddlewareFunc) {
	g := e.Group("/v1", middleware.JWTAuth(jwtSecret))

	tenant := middleware.RequireRole(model.RoleTenant)
	anyone := middleware.RequireRole(model.RoleTenant, model.RoleLandlord)
	landlord := middleware.RequireRole(model.RoleLandlord)

	// ---- Tenant ----
	g.POST("/houses/:id/bookings", h.Create, tenant, limiter)

	// ---- Either party ----
	g.GET("/my-bookings", h.ListMine, anyone)
	g.GET("/my-bookings/stats", h.Stats, anyone)
	g.GET("/bookings/:id", h.Get, anyone)
	g.POST("/bookings/:id/cancel", h.Transition(booking.StatusCancelled), anyone)

	// ---- Landlord ----
	g.POST("/bookings/:id/approve", h.Transition(booking.StatusApproved), landlord)
	g.POST("/bookings/:id/reject", h.Transition(booking.StatusRejected), landlord)
	g.POST("/bookings/:id/activate", h.Transition(booking.StatusActive), landlord)
	g.POST("/bookings/:id/complete", h.Transition(booking.StatusCompleted), landlord)
	g.GET("/owner/houses/:id/bookings", h.ListForHouse, landlord)
}
