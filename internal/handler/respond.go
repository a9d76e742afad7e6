package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/repository"
	"github.com/iliyamo/house-rental-booking/internal/service"
)

// bookingResponse is the wire form of a booking.  Dates are YYYY-MM-DD
// and money is a fixed two-decimal string.
type bookingResponse struct {
	ID              string    `json:"id"`
	HouseID         uint64    `json:"house_id"`
	TenantID        uint64    `json:"tenant_id"`
	StartDate       string    `json:"start_date"`
	EndDate         string    `json:"end_date"`
	Days            int64     `json:"days"`
	TotalAmount     string    `json:"total_amount"`
	Status          string    `json:"status"`
	Notes           string    `json:"notes,omitempty"`
	RejectionReason string    `json:"rejection_reason,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toResponse(b booking.Booking) bookingResponse {
	return bookingResponse{
		ID:              b.ID.String(),
		HouseID:         b.HouseID,
		TenantID:        b.TenantID,
		StartDate:       b.Period.Start.Format(booking.DateLayout),
		EndDate:         b.Period.End.Format(booking.DateLayout),
		Days:            b.Period.Days(),
		TotalAmount:     b.TotalAmount.StringFixed(2),
		Status:          string(b.Status),
		Notes:           b.Notes,
		RejectionReason: b.RejectionReason,
		CreatedAt:       b.CreatedAt,
		UpdatedAt:       b.UpdatedAt,
	}
}

func toResponses(bs []booking.Booking) []bookingResponse {
	out := make([]bookingResponse, 0, len(bs))
	for _, b := range bs {
		out = append(out, toResponse(b))
	}
	return out
}

type calendarEntry struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Status    string `json:"status"`
}

func toCalendar(rs []service.OccupiedRange) []calendarEntry {
	out := make([]calendarEntry, 0, len(rs))
	for _, r := range rs {
		out = append(out, calendarEntry{
			StartDate: r.Period.Start.Format(booking.DateLayout),
			EndDate:   r.Period.End.Format(booking.DateLayout),
			Status:    string(r.Status),
		})
	}
	return out
}

// writeError maps engine errors to HTTP responses.  Anything unknown is
// a 500 with a generic message; the detail goes to the log only.
func writeError(c echo.Context, log logrus.FieldLogger, err error) error {
	var (
		ve *booking.ValidationError
		ce *booking.ConflictError
		te *booking.InvalidTransitionError
	)
	switch {
	case errors.As(err, &ve):
		body := echo.Map{"error": ve.Error()}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		return c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &ce):
		ids := make([]string, 0, len(ce.BookingIDs))
		for _, id := range ce.BookingIDs {
			ids = append(ids, id.String())
		}
		return c.JSON(http.StatusConflict, echo.Map{"error": "house is not available for the selected dates", "conflicts": ids})
	case errors.As(err, &te):
		return c.JSON(http.StatusConflict, echo.Map{"error": te.Error()})
	case errors.Is(err, booking.ErrUnauthorized):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	case errors.Is(err, booking.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrStaleBooking):
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking was modified concurrently, retry"})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "request timed out"})
	default:
		log.WithError(err).WithFields(logrus.Fields{"method": c.Request().Method, "route": c.Path()}).Error("request failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}
