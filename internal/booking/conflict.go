package booking

import (
	"github.com/google/uuid"
)

// CheckAvailability reports whether r is free on houseID given the
// house's existing bookings.  Only occupying bookings of the same house
// count; PENDING requests never block each other.  The returned
// *ConflictError lists every colliding booking in input order.
//
// The result is only as fresh as existing: callers must hold the
// per-house lock between reading existing and persisting.
func CheckAvailability(houseID uint64, r DateRange, existing []Booking) error {
	var ids []uuid.UUID
	for _, b := range existing {
		if b.HouseID != houseID || !b.Occupying() {
			continue
		}
		if b.Period.Overlaps(r) {
			ids = append(ids, b.ID)
		}
	}
	if len(ids) > 0 {
		return &ConflictError{HouseID: houseID, BookingIDs: ids}
	}
	return nil
}

// Without returns existing minus the booking with the given id.  It is
// used when re-checking a booking against its own house.
func Without(existing []Booking, id uuid.UUID) []Booking {
	out := make([]Booking, 0, len(existing))
	for _, b := range existing {
		if b.ID != id {
			out = append(out, b)
		}
	}
	return out
}
