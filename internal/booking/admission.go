package booking

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AdmissionRequest carries everything Admit needs.  House facts
// (OwnerID, PricePerMonth) come from the house lookup.
type AdmissionRequest struct {
	ID            uuid.UUID
	HouseID       uint64
	OwnerID       uint64
	PricePerMonth decimal.Decimal
	TenantID      uint64
	Start         time.Time
	End           time.Time
	Notes         string
	Now           time.Time
}

// Admit runs the create-booking pipeline (validation, pricing, conflict
// check) and returns the new PENDING booking.  existing must be the
// house's bookings as read under the per-house lock.
func Admit(req AdmissionRequest, existing []Booking) (Booking, error) {
	if req.TenantID == 0 {
		return Booking{}, &ValidationError{Field: "tenant_id", Message: "required"}
	}
	if req.TenantID == req.OwnerID {
		return Booking{}, &ValidationError{Field: "tenant_id", Message: "owners cannot book their own house"}
	}
	notes := strings.TrimSpace(req.Notes)
	if len([]rune(notes)) > MaxNotesLength {
		return Booking{}, &ValidationError{Field: "notes", Message: "must not exceed 1000 characters"}
	}

	quote, err := Quote(req.PricePerMonth, req.Start, req.End)
	if err != nil {
		return Booking{}, err
	}
	if !quote.Period.Start.After(Day(req.Now)) {
		return Booking{}, &ValidationError{Field: "start_date", Message: "must be in the future"}
	}
	if !quote.Total.IsPositive() {
		return Booking{}, &ValidationError{Field: "total_amount", Message: "must be greater than 0"}
	}
	if quote.Total.GreaterThan(MaxTotalAmount) {
		return Booking{}, &ValidationError{Field: "total_amount", Message: "must not exceed " + MaxTotalAmount.StringFixed(2)}
	}

	if err := CheckAvailability(req.HouseID, quote.Period, existing); err != nil {
		return Booking{}, err
	}

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := req.Now.UTC()
	return Booking{
		ID:          id,
		HouseID:     req.HouseID,
		TenantID:    req.TenantID,
		Period:      quote.Period,
		TotalAmount: quote.Total,
		Status:      StatusPending,
		Notes:       notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
