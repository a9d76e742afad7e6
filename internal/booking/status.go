package booking

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a booking.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusRejected  Status = "REJECTED"
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
	StatusCancelled Status = "CANCELLED"
)

// AllStatuses lists every status in lifecycle order.
var AllStatuses = []Status{
	StatusPending, StatusApproved, StatusRejected, StatusActive, StatusCompleted, StatusCancelled,
}

// OccupyingStatuses are the statuses that block overlapping bookings.
var OccupyingStatuses = []Status{StatusApproved, StatusActive}

// IsValid reports whether s is a known status.
func (s Status) IsValid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Occupying reports whether s is in the occupying set.
func (s Status) Occupying() bool {
	return s == StatusApproved || s == StatusActive
}

// IsTerminal reports whether no transition leaves s.
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether the table has an edge s -> target,
// regardless of actor or preconditions.
func (s Status) CanTransitionTo(target Status) bool {
	_, ok := transitions[s][target]
	return ok
}

func (s Status) String() string { return string(s) }

// ParseStatus converts a case-insensitive name into a Status.
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToUpper(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("unknown status %q", v)}
	}
	return s, nil
}
