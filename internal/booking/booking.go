// Package booking is the admission and lifecycle engine for house
// bookings.  It holds no I/O: callers supply the house facts and the
// existing bookings, and persist whatever value the engine returns.
package booking

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Booking is one tenant's claim on a house for a date range.  It is a
// value: every engine function that changes a booking returns a new
// Booking and leaves its argument untouched.
type Booking struct {
	ID              uuid.UUID
	HouseID         uint64
	TenantID        uint64
	Period          DateRange
	TotalAmount     decimal.Decimal
	Status          Status
	RejectionReason string // set only when Status == StatusRejected
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Occupying reports whether the booking blocks other bookings from
// overlapping its range.
func (b Booking) Occupying() bool { return b.Status.Occupying() }

// Limits carried over from the persisted column sizes.
const (
	MaxNotesLength           = 1000
	MaxRejectionReasonLength = 500
)
