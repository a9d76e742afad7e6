// Package repository persists houses and bookings.  Two stores satisfy
// the booking service: BookingRepo on MySQL and MemoryStore for tests
// and single-process runs.  Both serialize admission and transitions
// per house so the conflict check and the write see the same data.
package repository

import "errors"

// ErrStaleBooking is returned when a booking's status changed between
// the read and the compare-and-swap update.  Callers may reload and
// retry; the engine never retries on its own.
var ErrStaleBooking = errors.New("booking was modified concurrently")
