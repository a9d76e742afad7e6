package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/model"
)

// MemoryStore keeps houses and bookings in process memory.  A mutex per
// house plays the role of the MySQL house row lock; mu only guards the
// maps themselves.
type MemoryStore struct {
	mu         sync.RWMutex
	houses     map[uint64]model.House
	bookings   map[uuid.UUID]booking.Booking
	houseLocks map[uint64]*sync.Mutex
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		houses:     make(map[uint64]model.House),
		bookings:   make(map[uuid.UUID]booking.Booking),
		houseLocks: make(map[uint64]*sync.Mutex),
	}
}

// PutHouse inserts or replaces a house.  Houses come from elsewhere in
// production; tests and the memory driver seed them through here.
func (s *MemoryStore) PutHouse(h model.House) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.houses[h.ID] = h
}

func (s *MemoryStore) houseLock(id uint64) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.houseLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.houseLocks[id] = l
	}
	return l
}

// GetHouse returns the house with the given id.
func (s *MemoryStore) GetHouse(_ context.Context, id uint64) (model.House, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.houses[id]
	if !ok {
		return model.House{}, booking.HouseNotFound(id)
	}
	return h, nil
}

// GetBooking returns the booking with the given id.
func (s *MemoryStore) GetBooking(_ context.Context, id uuid.UUID) (booking.Booking, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.bookings[id]
	if !ok {
		return booking.Booking{}, booking.BookingNotFound(id)
	}
	return b, nil
}

// Admit holds the house mutex across reading the occupying bookings,
// calling decide and storing the result.
func (s *MemoryStore) Admit(ctx context.Context, houseID uint64, decide func(house model.House, occupying []booking.Booking) (booking.Booking, error)) (booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return booking.Booking{}, err
	}
	l := s.houseLock(houseID)
	l.Lock()
	defer l.Unlock()

	house, err := s.GetHouse(ctx, houseID)
	if err != nil {
		return booking.Booking{}, err
	}
	b, err := decide(house, s.occupying(houseID))
	if err != nil {
		return booking.Booking{}, err
	}

	s.mu.Lock()
	s.bookings[b.ID] = b
	s.mu.Unlock()
	return b, nil
}

// Update holds the house mutex across the read, apply and write.  The
// status is compared again before writing so the semantics match the
// MySQL compare-and-swap.
func (s *MemoryStore) Update(ctx context.Context, id uuid.UUID, apply func(current booking.Booking, house model.House, occupying []booking.Booking) (booking.Booking, error)) (booking.Booking, error) {
	if err := ctx.Err(); err != nil {
		return booking.Booking{}, err
	}
	before, err := s.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	l := s.houseLock(before.HouseID)
	l.Lock()
	defer l.Unlock()

	current, err := s.GetBooking(ctx, id)
	if err != nil {
		return booking.Booking{}, err
	}
	house, err := s.GetHouse(ctx, current.HouseID)
	if err != nil {
		return booking.Booking{}, err
	}
	next, err := apply(current, house, s.occupying(current.HouseID))
	if err != nil {
		return booking.Booking{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bookings[id].Status != current.Status {
		return booking.Booking{}, ErrStaleBooking
	}
	s.bookings[id] = next
	return next, nil
}

func (s *MemoryStore) occupying(houseID uint64) []booking.Booking {
	return s.filter(func(b booking.Booking) bool { return b.HouseID == houseID && b.Occupying() }, byStart)
}

func (s *MemoryStore) filter(keep func(booking.Booking) bool, less func(a, b booking.Booking) bool) []booking.Booking {
	s.mu.RLock()
	var out []booking.Booking
	for _, b := range s.bookings {
		if keep(b) {
			out = append(out, b)
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func byStart(a, b booking.Booking) bool {
	if !a.Period.Start.Equal(b.Period.Start) {
		return a.Period.Start.Before(b.Period.Start)
	}
	return a.CreatedAt.Before(b.CreatedAt)
}

func newestFirst(a, b booking.Booking) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

// ListOccupying returns the APPROVED and ACTIVE bookings of a house.
func (s *MemoryStore) ListOccupying(_ context.Context, houseID uint64) ([]booking.Booking, error) {
	return s.occupying(houseID), nil
}

// ListByTenant returns a tenant's bookings, newest first.
func (s *MemoryStore) ListByTenant(_ context.Context, tenantID uint64) ([]booking.Booking, error) {
	return s.filter(func(b booking.Booking) bool { return b.TenantID == tenantID }, newestFirst), nil
}

// ListByOwner returns bookings on every house of an owner, newest first.
func (s *MemoryStore) ListByOwner(_ context.Context, ownerID uint64) ([]booking.Booking, error) {
	owned := s.ownedHouses(ownerID)
	return s.filter(func(b booking.Booking) bool { return owned[b.HouseID] }, newestFirst), nil
}

// ListByHouse returns every booking of a house ordered by start date.
func (s *MemoryStore) ListByHouse(_ context.Context, houseID uint64) ([]booking.Booking, error) {
	return s.filter(func(b booking.Booking) bool { return b.HouseID == houseID }, byStart), nil
}

// ListDueForActivation returns APPROVED bookings starting on or before today.
func (s *MemoryStore) ListDueForActivation(_ context.Context, today time.Time) ([]booking.Booking, error) {
	d := booking.Day(today)
	return s.filter(func(b booking.Booking) bool {
		return b.Status == booking.StatusApproved && !b.Period.Start.After(d)
	}, byStart), nil
}

// ListDueForCompletion returns ACTIVE bookings ending on or before today.
func (s *MemoryStore) ListDueForCompletion(_ context.Context, today time.Time) ([]booking.Booking, error) {
	d := booking.Day(today)
	return s.filter(func(b booking.Booking) bool {
		return b.Status == booking.StatusActive && !b.Period.End.After(d)
	}, byStart), nil
}

// CountByTenant returns how many bookings a tenant has made.
func (s *MemoryStore) CountByTenant(ctx context.Context, tenantID uint64) (int, error) {
	bs, _ := s.ListByTenant(ctx, tenantID)
	return len(bs), nil
}

// CountPendingByOwner returns how many PENDING requests wait on an
// owner's houses.
func (s *MemoryStore) CountPendingByOwner(_ context.Context, ownerID uint64) (int, error) {
	owned := s.ownedHouses(ownerID)
	bs := s.filter(func(b booking.Booking) bool {
		return owned[b.HouseID] && b.Status == booking.StatusPending
	}, byStart)
	return len(bs), nil
}

func (s *MemoryStore) ownedHouses(ownerID uint64) map[uint64]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owned := make(map[uint64]bool)
	for id, h := range s.houses {
		if h.OwnerID == ownerID {
			owned[id] = true
		}
	}
	return owned
}
