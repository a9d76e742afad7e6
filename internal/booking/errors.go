package booking

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Sentinel values identify the error kind.  Handlers and callers should
// compare with errors.Is; the concrete types below carry the details.
var (
	ErrValidation        = errors.New("validation failed")
	ErrConflict          = errors.New("booking conflict")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrNotFound          = errors.New("not found")

	// ErrInvalidRange is wrapped by the ValidationError returned for an
	// end date that is not after the start date.
	ErrInvalidRange = errors.New("end date must be after start date")
)

// ValidationError reports malformed input: a bad date range, a
// non-positive price or a missing rejection reason.
type ValidationError struct {
	Field   string
	Message string
	Err     error // optional, more specific cause
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Message
	}
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.Err }

func invalidRange(field string) error {
	return &ValidationError{Field: field, Message: ErrInvalidRange.Error(), Err: ErrInvalidRange}
}

// ConflictError is returned when the requested range overlaps one or more
// occupying bookings.  BookingIDs lists every colliding booking.
type ConflictError struct {
	HouseID    uint64
	BookingIDs []uuid.UUID
}

func (e *ConflictError) Error() string {
	ids := make([]string, 0, len(e.BookingIDs))
	for _, id := range e.BookingIDs {
		ids = append(ids, id.String())
	}
	return fmt.Sprintf("house %d is not available for the selected dates (conflicts: %s)", e.HouseID, strings.Join(ids, ", "))
}

func (e *ConflictError) Is(target error) bool { return target == ErrConflict }

// InvalidTransitionError is returned for a status change that is not in
// the transition table, or whose time precondition is not met yet.
type InvalidTransitionError struct {
	From   Status
	To     Status
	Reason string
}

func (e *InvalidTransitionError) Error() string {
	msg := fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *InvalidTransitionError) Is(target error) bool { return target == ErrInvalidTransition }

// UnauthorizedError is returned when the resolved actor may not trigger
// the requested transition or read the booking.
type UnauthorizedError struct {
	Actor  Actor
	Action string
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("actor %s may not %s", e.Actor, e.Action)
}

func (e *UnauthorizedError) Is(target error) bool { return target == ErrUnauthorized }

// NotFoundError reports a missing booking or house.
type NotFoundError struct {
	Kind string // "booking" or "house"
	ID   string
}

func (e *NotFoundError) Error() string { return fmt.Sprintf("%s %s not found", e.Kind, e.ID) }

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// HouseNotFound builds the NotFoundError for a house id.
func HouseNotFound(id uint64) error {
	return &NotFoundError{Kind: "house", ID: fmt.Sprint(id)}
}

// BookingNotFound builds the NotFoundError for a booking id.
func BookingNotFound(id uuid.UUID) error {
	return &NotFoundError{Kind: "booking", ID: id.String()}
}
