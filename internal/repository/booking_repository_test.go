package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/model"
)

var bookingCols = []string{"id", "house_id", "tenant_id", "start_date", "end_date", "total_amount", "status", "notes", "rejection_reason", "created_at", "updated_at"}

func newMockRepo(t *testing.T) (*BookingRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewBookingRepo(db), mock
}

func houseRows() *sqlmock.Rows {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return sqlmock.NewRows([]string{"id", "owner_id", "price_per_month", "created_at", "updated_at"}).
		AddRow(1, 10, "900.00", now, now)
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestBookingRepo_GetHouseNotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("FROM houses WHERE id = ?")).WithArgs(7).WillReturnRows(sqlmock.NewRows(nil))

	_, err := repo.GetHouse(context.Background(), 7)
	if !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookingRepo_GetBooking(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(q("FROM bookings WHERE id = ?")).WithArgs(id.String()).WillReturnRows(
		sqlmock.NewRows(bookingCols).AddRow(id.String(), 1, 20,
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			"270.00", "REJECTED", nil, "dates taken", created, created))

	b, err := repo.GetBooking(context.Background(), id)
	if err != nil {
		t.Fatalf("GetBooking() error: %v", err)
	}
	if b.ID != id || b.Status != booking.StatusRejected || b.RejectionReason != "dates taken" || b.Notes != "" {
		t.Errorf("GetBooking() = %+v", b)
	}
	if !b.TotalAmount.Equal(decimal.RequireFromString("270")) {
		t.Errorf("TotalAmount = %s, want 270", b.TotalAmount)
	}
	if b.Period.Days() != 9 {
		t.Errorf("Period = %s, want 9 days", b.Period)
	}
}

func TestBookingRepo_AdmitInsertsUnderHouseLock(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM houses WHERE id = ? FOR UPDATE")).WithArgs(1).WillReturnRows(houseRows())
	mock.ExpectQuery(q("status IN ('APPROVED', 'ACTIVE')")).WithArgs(1).WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectExec(q("INSERT INTO bookings")).
		WithArgs(id.String(), 1, 20, "2024-06-01", "2024-06-10", "270.00", "PENDING", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := repo.Admit(context.Background(), 1, func(h model.House, occupying []booking.Booking) (booking.Booking, error) {
		if h.OwnerID != 10 || !h.PricePerMonth.Equal(decimal.NewFromInt(900)) {
			t.Errorf("house = %+v", h)
		}
		if len(occupying) != 0 {
			t.Errorf("occupying = %v, want none", occupying)
		}
		start, _ := booking.ParseDay("2024-06-01")
		end, _ := booking.ParseDay("2024-06-10")
		return booking.Booking{
			ID: id, HouseID: 1, TenantID: 20,
			Period:      booking.DateRange{Start: start, End: end},
			TotalAmount: decimal.NewFromInt(270),
			Status:      booking.StatusPending,
		}, nil
	})
	if err != nil {
		t.Fatalf("Admit() error: %v", err)
	}
	if got.ID != id {
		t.Errorf("Admit() id = %s, want %s", got.ID, id)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookingRepo_AdmitRollsBackOnDecisionError(t *testing.T) {
	repo, mock := newMockRepo(t)
	refused := &booking.ConflictError{HouseID: 1}

	mock.ExpectBegin()
	mock.ExpectQuery(q("FOR UPDATE")).WillReturnRows(houseRows())
	mock.ExpectQuery(q("status IN ('APPROVED', 'ACTIVE')")).WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectRollback()

	_, err := repo.Admit(context.Background(), 1, func(model.House, []booking.Booking) (booking.Booking, error) {
		return booking.Booking{}, refused
	})
	if !errors.Is(err, booking.ErrConflict) {
		t.Errorf("err = %v, want ErrConflict", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookingRepo_UpdateStaleStatus(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(q("SELECT house_id FROM bookings WHERE id = ?")).WithArgs(id.String()).
		WillReturnRows(sqlmock.NewRows([]string{"house_id"}).AddRow(1))
	mock.ExpectBegin()
	mock.ExpectQuery(q("FROM houses WHERE id = ? FOR UPDATE")).WillReturnRows(houseRows())
	mock.ExpectQuery(q("FROM bookings WHERE id = ? FOR UPDATE")).WillReturnRows(
		sqlmock.NewRows(bookingCols).AddRow(id.String(), 1, 20,
			time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC),
			"270.00", "PENDING", "quiet", nil, now, now))
	mock.ExpectQuery(q("status IN ('APPROVED', 'ACTIVE')")).WillReturnRows(sqlmock.NewRows(bookingCols))
	mock.ExpectExec(q("UPDATE bookings SET status = ?, rejection_reason = ?, updated_at = ? WHERE id = ? AND status = ?")).
		WithArgs("APPROVED", sqlmock.AnyArg(), sqlmock.AnyArg(), id.String(), "PENDING").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.Update(context.Background(), id, func(cur booking.Booking, _ model.House, _ []booking.Booking) (booking.Booking, error) {
		if cur.Notes != "quiet" {
			t.Errorf("Notes = %q", cur.Notes)
		}
		return booking.Transition(cur, booking.TransitionRequest{Target: booking.StatusApproved, Actor: booking.ActorOwner, Now: now})
	})
	if !errors.Is(err, ErrStaleBooking) {
		t.Errorf("err = %v, want ErrStaleBooking", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestBookingRepo_UpdateUnknownBooking(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	mock.ExpectQuery(q("SELECT house_id FROM bookings")).WillReturnRows(sqlmock.NewRows([]string{"house_id"}))

	_, err := repo.Update(context.Background(), id, func(booking.Booking, model.House, []booking.Booking) (booking.Booking, error) {
		t.Error("apply called for a missing booking")
		return booking.Booking{}, nil
	})
	if !errors.Is(err, booking.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBookingRepo_CountPendingByOwner(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(q("JOIN houses h ON h.id = b.house_id WHERE h.owner_id = ? AND b.status = 'PENDING'")).
		WithArgs(10).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountPendingByOwner(context.Background(), 10)
	if err != nil || n != 3 {
		t.Errorf("CountPendingByOwner() = %d, %v; want 3", n, err)
	}
}
