package booking

import (
	"strings"
	"time"
)

// guard is a precondition checked after the actor.  A non-empty return
// value rejects the transition with that reason.
type guard func(b Booking, today time.Time) string

type rule struct {
	actors []Actor
	guard  guard
}

func (r rule) allows(a Actor) bool {
	for _, v := range r.actors {
		if v == a {
			return true
		}
	}
	return false
}

var (
	ownerOnly     = []Actor{ActorOwner}
	tenantOrOwner = []Actor{ActorTenant, ActorOwner}
	systemOrOwner = []Actor{ActorSystem, ActorOwner}
)

func startReached(b Booking, today time.Time) string {
	if today.Before(b.Period.Start) {
		return "start date " + b.Period.Start.Format(DateLayout) + " not reached"
	}
	return ""
}

func endReached(b Booking, today time.Time) string {
	if today.Before(b.Period.End) {
		return "end date " + b.Period.End.Format(DateLayout) + " not reached"
	}
	return ""
}

// transitions is the complete lifecycle table.  Statuses without an
// entry are terminal.
var transitions = map[Status]map[Status]rule{
	StatusPending: {
		StatusApproved:  {actors: ownerOnly},
		StatusRejected:  {actors: ownerOnly},
		StatusCancelled: {actors: tenantOrOwner},
	},
	StatusApproved: {
		StatusActive:    {actors: systemOrOwner, guard: startReached},
		StatusCancelled: {actors: tenantOrOwner},
	},
	StatusActive: {
		StatusCompleted: {actors: systemOrOwner, guard: endReached},
	},
}

// TransitionRequest describes a requested status change.
type TransitionRequest struct {
	Target          Status
	Actor           Actor
	RejectionReason string
	Now             time.Time
}

// Transition applies req to b and returns the updated booking.  b is
// never modified; on error the zero Booking is returned.
//
// Checks run in order: table edge, actor, rejection reason, time
// precondition.
func Transition(b Booking, req TransitionRequest) (Booking, error) {
	r, ok := transitions[b.Status][req.Target]
	if !ok {
		return Booking{}, &InvalidTransitionError{From: b.Status, To: req.Target}
	}
	if !r.allows(req.Actor) {
		return Booking{}, &UnauthorizedError{Actor: req.Actor, Action: "move a booking from " + b.Status.String() + " to " + req.Target.String()}
	}

	reason := strings.TrimSpace(req.RejectionReason)
	if req.Target == StatusRejected {
		if reason == "" {
			return Booking{}, &ValidationError{Field: "rejection_reason", Message: "required when rejecting a booking"}
		}
		if len([]rune(reason)) > MaxRejectionReasonLength {
			return Booking{}, &ValidationError{Field: "rejection_reason", Message: "must not exceed 500 characters"}
		}
	} else {
		reason = ""
	}

	if r.guard != nil {
		if why := r.guard(b, Day(req.Now)); why != "" {
			return Booking{}, &InvalidTransitionError{From: b.Status, To: req.Target, Reason: why}
		}
	}

	next := b
	next.Status = req.Target
	next.RejectionReason = reason
	next.UpdatedAt = req.Now.UTC()
	return next, nil
}
