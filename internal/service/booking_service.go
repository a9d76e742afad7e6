// Package service coordinates the booking engine with storage, locking,
// events and metrics.  Every public method takes a context and returns
// the engine's typed errors unchanged so handlers can map them.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/metrics"
	"github.com/iliyamo/house-rental-booking/internal/model"
	"github.com/iliyamo/house-rental-booking/internal/queue"
	"github.com/iliyamo/house-rental-booking/internal/repository"
)

// Store is the persistence the service needs.  Admit and Update must run
// their callback and the write under a per-house lock, handing the
// callback the house's occupying bookings as read under that lock.
type Store interface {
	GetHouse(ctx context.Context, id uint64) (model.House, error)
	GetBooking(ctx context.Context, id uuid.UUID) (booking.Booking, error)
	Admit(ctx context.Context, houseID uint64, decide func(house model.House, occupying []booking.Booking) (booking.Booking, error)) (booking.Booking, error)
	Update(ctx context.Context, id uuid.UUID, apply func(current booking.Booking, house model.House, occupying []booking.Booking) (booking.Booking, error)) (booking.Booking, error)
	ListOccupying(ctx context.Context, houseID uint64) ([]booking.Booking, error)
	ListByTenant(ctx context.Context, tenantID uint64) ([]booking.Booking, error)
	ListByOwner(ctx context.Context, ownerID uint64) ([]booking.Booking, error)
	ListByHouse(ctx context.Context, houseID uint64) ([]booking.Booking, error)
	ListDueForActivation(ctx context.Context, today time.Time) ([]booking.Booking, error)
	ListDueForCompletion(ctx context.Context, today time.Time) ([]booking.Booking, error)
	CountByTenant(ctx context.Context, tenantID uint64) (int, error)
	CountPendingByOwner(ctx context.Context, ownerID uint64) (int, error)
}

// HouseLocker serializes work on one house across processes.  The
// returned func releases the lock.
type HouseLocker interface {
	LockHouse(ctx context.Context, houseID uint64) (func(), error)
}

// BookingService is safe for concurrent use.
type BookingService struct {
	store  Store
	locker HouseLocker
	events EventPublisher
	log    logrus.FieldLogger
	now    func() time.Time
}

// Option configures a BookingService.
type Option func(*BookingService)

// WithLocker adds a cross-process house lock in front of the store.
func WithLocker(l HouseLocker) Option { return func(s *BookingService) { s.locker = l } }

// WithPublisher sets where status-change events go.
func WithPublisher(p EventPublisher) Option { return func(s *BookingService) { s.events = p } }

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option { return func(s *BookingService) { s.now = now } }

// NewBookingService builds a service over store.  Without options events
// are dropped and only the store's own locking applies.
func NewBookingService(store Store, log logrus.FieldLogger, opts ...Option) *BookingService {
	if store == nil {
		panic("nil store passed to NewBookingService")
	}
	s := &BookingService{
		store:  store,
		events: NopPublisher{},
		log:    log.WithField("component", "booking-service"),
		now:    time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// CreateBookingInput is a tenant's booking request.
type CreateBookingInput struct {
	TenantID uint64
	HouseID  uint64
	Start    time.Time
	End      time.Time
	Notes    string
}

// ChangeStatusInput is a user-initiated status change.  The caller's
// role on the booking is resolved from UserID.
type ChangeStatusInput struct {
	BookingID       uuid.UUID
	UserID          uint64
	Target          booking.Status
	RejectionReason string
}

// OccupiedRange is one blocked range on a house calendar.
type OccupiedRange struct {
	Period booking.DateRange
	Status booking.Status
}

// Stats summarises a user's bookings in both roles.
type Stats struct {
	BookingsAsTenant int
	PendingAsOwner   int
}

func (s *BookingService) lockHouse(ctx context.Context, houseID uint64) (func(), error) {
	if s.locker == nil {
		return func() {}, nil
	}
	return s.locker.LockHouse(ctx, houseID)
}

// Quote prices a stay without creating anything.
func (s *BookingService) Quote(ctx context.Context, houseID uint64, start, end time.Time) (booking.PriceQuote, error) {
	h, err := s.store.GetHouse(ctx, houseID)
	if err != nil {
		return booking.PriceQuote{}, err
	}
	return booking.Quote(h.PricePerMonth, start, end)
}

// CreateBooking admits a new PENDING booking.  Validation, pricing and
// the conflict check all run against data read under the house lock.
func (s *BookingService) CreateBooking(ctx context.Context, in CreateBookingInput) (booking.Booking, error) {
	log := s.log.WithFields(logrus.Fields{"house_id": in.HouseID, "tenant_id": in.TenantID})

	unlock, err := s.lockHouse(ctx, in.HouseID)
	if err != nil {
		metrics.AdmissionsRefused.WithLabelValues("lock").Inc()
		return booking.Booking{}, err
	}
	defer unlock()

	now := s.now()
	var ownerID uint64
	b, err := s.store.Admit(ctx, in.HouseID, func(h model.House, occupying []booking.Booking) (booking.Booking, error) {
		ownerID = h.OwnerID
		return booking.Admit(booking.AdmissionRequest{
			HouseID:       h.ID,
			OwnerID:       h.OwnerID,
			PricePerMonth: h.PricePerMonth,
			TenantID:      in.TenantID,
			Start:         in.Start,
			End:           in.End,
			Notes:         in.Notes,
			Now:           now,
		}, occupying)
	})
	if err != nil {
		metrics.AdmissionsRefused.WithLabelValues(errorKind(err)).Inc()
		log.WithError(err).Info("booking refused")
		return booking.Booking{}, err
	}

	metrics.BookingsAdmitted.Inc()
	log.WithFields(logrus.Fields{
		"booking_id": b.ID,
		"period":     b.Period.String(),
		"total":      b.TotalAmount.StringFixed(2),
	}).Info("booking created")
	s.publish(ctx, queue.NewStatusChangedEvent(b, ownerID, "", booking.ActorTenant))
	return b, nil
}

// ChangeStatus applies a user-requested transition.
func (s *BookingService) ChangeStatus(ctx context.Context, in ChangeStatusInput) (booking.Booking, error) {
	return s.transition(ctx, in.BookingID, in.Target, in.RejectionReason, func(cur booking.Booking, h model.House) booking.Actor {
		return booking.ResolveActor(in.UserID, cur, h.OwnerID)
	})
}

// transition runs the lifecycle controller inside Store.Update.  A
// target that occupies the house is checked again against the house's
// other occupying bookings, so of several overlapping PENDING requests
// only the first approved succeeds.
func (s *BookingService) transition(ctx context.Context, id uuid.UUID, target booking.Status, reason string, actorFor func(booking.Booking, model.House) booking.Actor) (booking.Booking, error) {
	log := s.log.WithFields(logrus.Fields{"booking_id": id, "to": target})

	before, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	unlock, err := s.lockHouse(ctx, before.HouseID)
	if err != nil {
		metrics.TransitionsRefused.WithLabelValues(string(target), "lock").Inc()
		return booking.Booking{}, err
	}
	defer unlock()

	var (
		from    booking.Status
		actor   booking.Actor
		ownerID uint64
	)
	now := s.now()
	next, err := s.store.Update(ctx, id, func(cur booking.Booking, h model.House, occupying []booking.Booking) (booking.Booking, error) {
		from, ownerID = cur.Status, h.OwnerID
		actor = actorFor(cur, h)
		n, err := booking.Transition(cur, booking.TransitionRequest{
			Target:          target,
			Actor:           actor,
			RejectionReason: reason,
			Now:             now,
		})
		if err != nil {
			return booking.Booking{}, err
		}
		if n.Occupying() {
			if err := booking.CheckAvailability(n.HouseID, n.Period, booking.Without(occupying, n.ID)); err != nil {
				return booking.Booking{}, err
			}
		}
		return n, nil
	})
	if err != nil {
		metrics.TransitionsRefused.WithLabelValues(string(target), errorKind(err)).Inc()
		log.WithError(err).Info("status change refused")
		return booking.Booking{}, err
	}

	metrics.Transitions.WithLabelValues(string(from), string(next.Status), string(actor)).Inc()
	log.WithFields(logrus.Fields{"house_id": next.HouseID, "from": from, "actor": actor}).Info("booking status changed")
	s.publish(ctx, queue.NewStatusChangedEvent(next, ownerID, from, actor))
	return next, nil
}

// publish sends ev on a context detached from the request so a client
// disconnect does not drop an event for a committed change.
func (s *BookingService) publish(ctx context.Context, ev queue.BookingStatusChangedEvent) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 3*time.Second)
	defer cancel()
	if err := s.events.Publish(ctx, ev); err != nil {
		metrics.EventsPublished.WithLabelValues("error").Inc()
		s.log.WithError(err).WithFields(logrus.Fields{"booking_id": ev.BookingID, "to": ev.To}).Warn("publish status event failed")
		return
	}
	metrics.EventsPublished.WithLabelValues("ok").Inc()
}

// Get returns a booking to its tenant or to the owner of its house.
func (s *BookingService) Get(ctx context.Context, id uuid.UUID, userID uint64) (booking.Booking, error) {
	b, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	h, err := s.store.GetHouse(ctx, b.HouseID)
	if err != nil {
		return booking.Booking{}, err
	}
	if a := booking.ResolveActor(userID, b, h.OwnerID); a == booking.ActorNone {
		return booking.Booking{}, &booking.UnauthorizedError{Actor: a, Action: "read this booking"}
	}
	return b, nil
}

// ListForTenant returns the bookings a tenant made, newest first.
func (s *BookingService) ListForTenant(ctx context.Context, tenantID uint64) ([]booking.Booking, error) {
	return s.store.ListByTenant(ctx, tenantID)
}

// ListForOwner returns bookings on all of an owner's houses, newest first.
func (s *BookingService) ListForOwner(ctx context.Context, ownerID uint64) ([]booking.Booking, error) {
	return s.store.ListByOwner(ctx, ownerID)
}

// ListForHouse returns every booking of a house.  Only the house owner
// may list them.
func (s *BookingService) ListForHouse(ctx context.Context, houseID, ownerID uint64) ([]booking.Booking, error) {
	h, err := s.store.GetHouse(ctx, houseID)
	if err != nil {
		return nil, err
	}
	if h.OwnerID != ownerID {
		return nil, &booking.UnauthorizedError{Actor: booking.ActorNone, Action: "list bookings of this house"}
	}
	return s.store.ListByHouse(ctx, houseID)
}

// Calendar returns the ranges currently blocked on a house.  Booking ids
// and tenants are left out; the calendar is public.
func (s *BookingService) Calendar(ctx context.Context, houseID uint64) ([]OccupiedRange, error) {
	if _, err := s.store.GetHouse(ctx, houseID); err != nil {
		return nil, err
	}
	bs, err := s.store.ListOccupying(ctx, houseID)
	if err != nil {
		return nil, err
	}
	out := make([]OccupiedRange, 0, len(bs))
	for _, b := range bs {
		out = append(out, OccupiedRange{Period: b.Period, Status: b.Status})
	}
	return out, nil
}

// Stats counts a user's bookings as tenant and the requests pending on
// houses they own.
func (s *BookingService) Stats(ctx context.Context, userID uint64) (Stats, error) {
	asTenant, err := s.store.CountByTenant(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	pending, err := s.store.CountPendingByOwner(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return Stats{BookingsAsTenant: asTenant, PendingAsOwner: pending}, nil
}

// errorKind is the metrics label for an error.
func errorKind(err error) string {
	switch {
	case errors.Is(err, booking.ErrConflict):
		return "conflict"
	case errors.Is(err, booking.ErrValidation):
		return "validation"
	case errors.Is(err, booking.ErrInvalidTransition):
		return "invalid_transition"
	case errors.Is(err, booking.ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, booking.ErrNotFound):
		return "not_found"
	case errors.Is(err, repository.ErrStaleBooking):
		return "stale"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "internal"
	}
}
