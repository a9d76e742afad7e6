package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/model"
	"github.com/iliyamo/house-rental-booking/internal/service"
)

// Bookings is the part of service.BookingService the HTTP layer uses.
type Bookings interface {
	Quote(ctx context.Context, houseID uint64, start, end time.Time) (booking.PriceQuote, error)
	CreateBooking(ctx context.Context, in service.CreateBookingInput) (booking.Booking, error)
	ChangeStatus(ctx context.Context, in service.ChangeStatusInput) (booking.Booking, error)
	Get(ctx context.Context, id uuid.UUID, userID uint64) (booking.Booking, error)
	ListForTenant(ctx context.Context, tenantID uint64) ([]booking.Booking, error)
	ListForOwner(ctx context.Context, ownerID uint64) ([]booking.Booking, error)
	ListForHouse(ctx context.Context, houseID, ownerID uint64) ([]booking.Booking, error)
	Calendar(ctx context.Context, houseID uint64) ([]service.OccupiedRange, error)
	Stats(ctx context.Context, userID uint64) (service.Stats, error)
}

// BookingHandler serves the booking endpoints.  Authentication and role
// checks happen in middleware; per-booking authorization (is this user
// the tenant or the owner?) happens in the service.
type BookingHandler struct {
	svc     Bookings
	log     logrus.FieldLogger
	timeout time.Duration
}

// NewBookingHandler panics on a nil service.  timeout bounds the storage
// work of each request; zero means no extra bound.
func NewBookingHandler(svc Bookings, log logrus.FieldLogger, timeout time.Duration) *BookingHandler {
	if svc == nil {
		panic("nil service passed to NewBookingHandler")
	}
	return &BookingHandler{svc: svc, log: log.WithField("component", "booking-handler"), timeout: timeout}
}

func (h *BookingHandler) ctx(c echo.Context) (context.Context, context.CancelFunc) {
	if h.timeout <= 0 {
		return context.WithCancel(c.Request().Context())
	}
	return context.WithTimeout(c.Request().Context(), h.timeout)
}

func parseDates(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := booking.ParseDay(startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, &booking.ValidationError{Field: "start_date", Message: "must be YYYY-MM-DD"}
	}
	end, err := booking.ParseDay(endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, &booking.ValidationError{Field: "end_date", Message: "must be YYYY-MM-DD"}
	}
	return start, end, nil
}

// Quote handles GET /v1/houses/:id/quote?start_date=&end_date=.
func (h *BookingHandler) Quote(c echo.Context) error {
	houseID, ok := parseUintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid house id"})
	}
	start, end, err := parseDates(c.QueryParam("start_date"), c.QueryParam("end_date"))
	if err != nil {
		return writeError(c, h.log, err)
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	q, err := h.svc.Quote(ctx, houseID, start, end)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"house_id":        houseID,
		"start_date":      q.Period.Start.Format(booking.DateLayout),
		"end_date":        q.Period.End.Format(booking.DateLayout),
		"days":            q.Days,
		"price_per_month": q.PricePerMonth.StringFixed(2),
		"total_amount":    q.Total.StringFixed(2),
	})
}

// Calendar handles GET /v1/houses/:id/calendar.
func (h *BookingHandler) Calendar(c echo.Context) error {
	houseID, ok := parseUintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid house id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	rs, err := h.svc.Calendar(ctx, houseID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"house_id": houseID, "occupied": toCalendar(rs)})
}

type createBookingRequest struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Notes     string `json:"notes"`
}

// Create handles POST /v1/houses/:id/bookings.
func (h *BookingHandler) Create(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	houseID, ok := parseUintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid house id"})
	}
	var body createBookingRequest
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	start, end, err := parseDates(body.StartDate, body.EndDate)
	if err != nil {
		return writeError(c, h.log, err)
	}

	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.svc.CreateBooking(ctx, service.CreateBookingInput{
		TenantID: userID,
		HouseID:  houseID,
		Start:    start,
		End:      end,
		Notes:    body.Notes,
	})
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusCreated, toResponse(b))
}

// ListMine handles GET /v1/my-bookings.  Tenants see the bookings they
// made; landlords see bookings on their houses.
func (h *BookingHandler) ListMine(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()

	var bs []booking.Booking
	if getRole(c) == model.RoleLandlord {
		bs, err = h.svc.ListForOwner(ctx, userID)
	} else {
		bs, err = h.svc.ListForTenant(ctx, userID)
	}
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": toResponses(bs)})
}

// Stats handles GET /v1/my-bookings/stats.
func (h *BookingHandler) Stats(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	st, err := h.svc.Stats(ctx, userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"bookings_as_tenant": st.BookingsAsTenant,
		"pending_as_owner":   st.PendingAsOwner,
	})
}

// Get handles GET /v1/bookings/:id.
func (h *BookingHandler) Get(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	b, err := h.svc.Get(ctx, id, userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, toResponse(b))
}

// ListForHouse handles GET /v1/owner/houses/:id/bookings.
func (h *BookingHandler) ListForHouse(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	houseID, ok := parseUintParam(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid house id"})
	}
	ctx, cancel := h.ctx(c)
	defer cancel()
	bs, err := h.svc.ListForHouse(ctx, houseID, userID)
	if err != nil {
		return writeError(c, h.log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": toResponses(bs)})
}

type rejectRequest struct {
	RejectionReason string `json:"rejection_reason"`
}

// Transition returns the handler for POST /v1/bookings/:id/<action>,
// moving the booking to target.  Only a reject reads a body.
func (h *BookingHandler) Transition(target booking.Status) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, err := getUserID(c)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		id, err := uuid.Parse(c.Param("id"))
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
		}
		var body rejectRequest
		if target == booking.StatusRejected {
			if err := c.Bind(&body); err != nil {
				return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
			}
		}

		ctx, cancel := h.ctx(c)
		defer cancel()
		b, err := h.svc.ChangeStatus(ctx, service.ChangeStatusInput{
			BookingID:       id,
			UserID:          userID,
			Target:          target,
			RejectionReason: body.RejectionReason,
		})
		if err != nil {
			return writeError(c, h.log, err)
		}
		return c.JSON(http.StatusOK, toResponse(b))
	}
}
