// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

import (
	"time"

	"github.com/iliyamo/house-rental-booking/internal/booking"
)

// StatusChangedQueue is the durable queue carrying BookingStatusChangedEvent.
const StatusChangedQueue = "booking.status_changed"

// BookingStatusChangedEvent is published after a booking is created or
// changes status, once the change is committed.  From is empty for a
// newly admitted booking.  It carries enough for notification and
// payment consumers to act without reading the bookings table.
type BookingStatusChangedEvent struct {
	BookingID       string `json:"booking_id"`
	HouseID         uint64 `json:"house_id"`
	TenantID        uint64 `json:"tenant_id"`
	OwnerID         uint64 `json:"owner_id"`
	From            string `json:"from,omitempty"`
	To              string `json:"to"`
	Actor           string `json:"actor"`
	RejectionReason string `json:"rejection_reason,omitempty"`
	TotalAmount     string `json:"total_amount"`
	StartDate       string `json:"start_date"`
	EndDate         string `json:"end_date"`
	ChangedAt       string `json:"changed_at"`
}

// NewStatusChangedEvent builds the event for b having moved from `from`
// (empty on admission) to its current status.
func NewStatusChangedEvent(b booking.Booking, ownerID uint64, from booking.Status, actor booking.Actor) BookingStatusChangedEvent {
	return BookingStatusChangedEvent{
		BookingID:       b.ID.String(),
		HouseID:         b.HouseID,
		TenantID:        b.TenantID,
		OwnerID:         ownerID,
		From:            string(from),
		To:              string(b.Status),
		Actor:           string(actor),
		RejectionReason: b.RejectionReason,
		TotalAmount:     b.TotalAmount.StringFixed(2),
		StartDate:       b.Period.Start.Format(booking.DateLayout),
		EndDate:         b.Period.End.Format(booking.DateLayout),
		ChangedAt:       b.UpdatedAt.UTC().Format(time.RFC3339),
	}
}
