package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/model"
)

func seedBooking(t *testing.T, s *MemoryStore, houseID uint64, status booking.Status, start, end string, created time.Time) booking.Booking {
	t.Helper()
	from, _ := booking.ParseDay(start)
	to, _ := booking.ParseDay(end)
	b := booking.Booking{
		ID: uuid.New(), HouseID: houseID, TenantID: 20,
		Period:      booking.DateRange{Start: from, End: to},
		TotalAmount: decimal.NewFromInt(100),
		Status:      status,
		CreatedAt:   created,
		UpdatedAt:   created,
	}
	if _, err := s.Admit(context.Background(), houseID, func(model.House, []booking.Booking) (booking.Booking, error) {
		return b, nil
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return b
}

func newSeededStore() *MemoryStore {
	s := NewMemoryStore()
	s.PutHouse(model.House{ID: 1, OwnerID: 10, PricePerMonth: decimal.NewFromInt(900)})
	s.PutHouse(model.House{ID: 2, OwnerID: 11, PricePerMonth: decimal.NewFromInt(900)})
	return s
}

func TestMemoryStore_AdmitUnknownHouse(t *testing.T) {
	s := newSeededStore()
	_, err := s.Admit(context.Background(), 404, func(model.House, []booking.Booking) (booking.Booking, error) {
		t.Error("decide called for an unknown house")
		return booking.Booking{}, nil
	})
	if !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_AdmitPassesOccupyingOnly(t *testing.T) {
	s := newSeededStore()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	approved := seedBooking(t, s, 1, booking.StatusApproved, "2024-06-01", "2024-06-10", base)
	seedBooking(t, s, 1, booking.StatusPending, "2024-06-01", "2024-06-10", base)
	seedBooking(t, s, 2, booking.StatusActive, "2024-06-01", "2024-06-10", base)

	_, _ = s.Admit(context.Background(), 1, func(h model.House, occupying []booking.Booking) (booking.Booking, error) {
		if len(occupying) != 1 || occupying[0].ID != approved.ID {
			t.Errorf("occupying = %v, want only %s", occupying, approved.ID)
		}
		return booking.Booking{}, errors.New("stop")
	})
}

func TestMemoryStore_UpdateLeavesStoreOnError(t *testing.T) {
	s := newSeededStore()
	b := seedBooking(t, s, 1, booking.StatusPending, "2024-06-01", "2024-06-10", time.Now())

	_, err := s.Update(context.Background(), b.ID, func(cur booking.Booking, _ model.House, _ []booking.Booking) (booking.Booking, error) {
		return booking.Transition(cur, booking.TransitionRequest{Target: booking.StatusApproved, Actor: booking.ActorTenant, Now: time.Now()})
	})
	if !errors.Is(err, booking.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	got, _ := s.GetBooking(context.Background(), b.ID)
	if got.Status != booking.StatusPending {
		t.Errorf("Status = %s, want PENDING", got.Status)
	}
}

func TestMemoryStore_ListsAndCounts(t *testing.T) {
	s := newSeededStore()
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	older := seedBooking(t, s, 1, booking.StatusPending, "2024-07-01", "2024-07-10", base)
	newer := seedBooking(t, s, 1, booking.StatusApproved, "2024-06-01", "2024-06-10", base.Add(time.Hour))
	active := seedBooking(t, s, 2, booking.StatusActive, "2024-05-01", "2024-05-20", base)

	byTenant, _ := s.ListByTenant(ctx, 20)
	if len(byTenant) != 3 || byTenant[0].ID != newer.ID {
		t.Errorf("ListByTenant first = %v, want newest %s", byTenant, newer.ID)
	}
	byHouse, _ := s.ListByHouse(ctx, 1)
	if len(byHouse) != 2 || byHouse[0].ID != newer.ID || byHouse[1].ID != older.ID {
		t.Errorf("ListByHouse not ordered by start date: %v", byHouse)
	}
	byOwner, _ := s.ListByOwner(ctx, 11)
	if len(byOwner) != 1 || byOwner[0].ID != active.ID {
		t.Errorf("ListByOwner(11) = %v", byOwner)
	}

	today, _ := booking.ParseDay("2024-06-01")
	due, _ := s.ListDueForActivation(ctx, today)
	if len(due) != 1 || due[0].ID != newer.ID {
		t.Errorf("ListDueForActivation = %v, want %s", due, newer.ID)
	}
	done, _ := s.ListDueForCompletion(ctx, today)
	if len(done) != 1 || done[0].ID != active.ID {
		t.Errorf("ListDueForCompletion = %v, want %s", done, active.ID)
	}

	if n, _ := s.CountByTenant(ctx, 20); n != 3 {
		t.Errorf("CountByTenant = %d, want 3", n)
	}
	if n, _ := s.CountPendingByOwner(ctx, 10); n != 1 {
		t.Errorf("CountPendingByOwner = %d, want 1", n)
	}
}
