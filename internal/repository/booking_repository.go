package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/model"
)

// BookingRepo stores bookings in MySQL.  Dates are DATE columns holding
// the half-open [start_date, end_date) range; timestamps are UTC.
type BookingRepo struct {
	db     *sql.DB
	houses *HouseRepo
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo {
	return &BookingRepo{db: db, houses: NewHouseRepo(db)}
}

const bookingColumns = `id, house_id, tenant_id, start_date, end_date, total_amount, status, notes, rejection_reason, created_at, updated_at`

func scanBooking(row rowScanner) (booking.Booking, error) {
	var (
		b      booking.Booking
		status string
		notes  sql.NullString
		reason sql.NullString
	)
	err := row.Scan(&b.ID, &b.HouseID, &b.TenantID, &b.Period.Start, &b.Period.End,
		&b.TotalAmount, &status, &notes, &reason, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return booking.Booking{}, err
	}
	b.Status = booking.Status(status)
	b.Notes = notes.String
	b.RejectionReason = reason.String
	b.Period.Start = booking.Day(b.Period.Start)
	b.Period.End = booking.Day(b.Period.End)
	return b, nil
}

func scanBookings(rows *sql.Rows) ([]booking.Booking, error) {
	defer rows.Close()
	var out []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// GetHouse returns the house with the given id.
func (r *BookingRepo) GetHouse(ctx context.Context, id uint64) (model.House, error) {
	return r.houses.GetByID(ctx, id)
}

// GetBooking returns the booking with the given id or a
// *booking.NotFoundError.
func (r *BookingRepo) GetBooking(ctx context.Context, id uuid.UUID) (booking.Booking, error) {
	b, err := scanBooking(r.db.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Booking{}, booking.BookingNotFound(id)
	}
	if err != nil {
		return booking.Booking{}, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// Admit locks the house row, hands the house and its occupying bookings
// to decide, and inserts whatever booking decide returns, all in one
// transaction.  An error from decide rolls back without writing.
func (r *BookingRepo) Admit(ctx context.Context, houseID uint64, decide func(house model.House, occupying []booking.Booking) (booking.Booking, error)) (booking.Booking, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("begin admission: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	house, err := r.houses.LockTx(ctx, tx, houseID)
	if err != nil {
		return booking.Booking{}, err
	}
	occupying, err := r.listOccupyingTx(ctx, tx, houseID)
	if err != nil {
		return booking.Booking{}, err
	}
	b, err := decide(house, occupying)
	if err != nil {
		return booking.Booking{}, err
	}
	if err := r.insertTx(ctx, tx, b); err != nil {
		return booking.Booking{}, err
	}
	if err := tx.Commit(); err != nil {
		return booking.Booking{}, fmt.Errorf("commit admission: %w", err)
	}
	committed = true
	return b, nil
}

func (r *BookingRepo) insertTx(ctx context.Context, tx *sql.Tx, b booking.Booking) error {
	const q = `INSERT INTO bookings (` + bookingColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := tx.ExecContext(ctx, q,
		b.ID.String(), b.HouseID, b.TenantID,
		b.Period.Start.Format(booking.DateLayout), b.Period.End.Format(booking.DateLayout),
		b.TotalAmount.StringFixed(2), string(b.Status),
		nullString(b.Notes), nullString(b.RejectionReason),
		b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert booking %s: %w", b.ID, err)
	}
	return nil
}

// Update applies a status change to one booking.  Lock order is house
// row, then booking row, matching Admit.  The write is a
// compare-and-swap on the status read under the lock; when it matches
// no row ErrStaleBooking is returned.
func (r *BookingRepo) Update(ctx context.Context, id uuid.UUID, apply func(current booking.Booking, house model.House, occupying []booking.Booking) (booking.Booking, error)) (booking.Booking, error) {
	// house_id never changes, so it is safe to read before locking.
	var houseID uint64
	err := r.db.QueryRowContext(ctx, `SELECT house_id FROM bookings WHERE id = ?`, id.String()).Scan(&houseID)
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Booking{}, booking.BookingNotFound(id)
	}
	if err != nil {
		return booking.Booking{}, fmt.Errorf("get booking %s: %w", id, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return booking.Booking{}, fmt.Errorf("begin transition: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	house, err := r.houses.LockTx(ctx, tx, houseID)
	if err != nil {
		return booking.Booking{}, err
	}
	current, err := scanBooking(tx.QueryRowContext(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id = ? FOR UPDATE`, id.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return booking.Booking{}, booking.BookingNotFound(id)
	}
	if err != nil {
		return booking.Booking{}, fmt.Errorf("lock booking %s: %w", id, err)
	}
	occupying, err := r.listOccupyingTx(ctx, tx, houseID)
	if err != nil {
		return booking.Booking{}, err
	}

	next, err := apply(current, house, occupying)
	if err != nil {
		return booking.Booking{}, err
	}

	const q = `UPDATE bookings SET status = ?, rejection_reason = ?, updated_at = ? WHERE id = ? AND status = ?`
	res, err := tx.ExecContext(ctx, q, string(next.Status), nullString(next.RejectionReason), next.UpdatedAt, id.String(), string(current.Status))
	if err != nil {
		return booking.Booking{}, fmt.Errorf("update booking %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return booking.Booking{}, fmt.Errorf("update booking %s: %w", id, err)
	}
	if n == 0 {
		return booking.Booking{}, ErrStaleBooking
	}
	if err := tx.Commit(); err != nil {
		return booking.Booking{}, fmt.Errorf("commit transition: %w", err)
	}
	committed = true
	return next, nil
}

func (r *BookingRepo) listOccupyingTx(ctx context.Context, tx *sql.Tx, houseID uint64) ([]booking.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE house_id = ? AND status IN ('APPROVED', 'ACTIVE') ORDER BY start_date`
	rows, err := tx.QueryContext(ctx, q, houseID)
	if err != nil {
		return nil, fmt.Errorf("list occupying bookings for house %d: %w", houseID, err)
	}
	return scanBookings(rows)
}

func (r *BookingRepo) list(ctx context.Context, what string, q string, args ...any) ([]booking.Booking, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	out, err := scanBookings(rows)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	return out, nil
}

// ListOccupying returns the APPROVED and ACTIVE bookings of a house
// ordered by start date.  Outside a transaction the result is only a
// snapshot; the calendar endpoint is its only caller.
func (r *BookingRepo) ListOccupying(ctx context.Context, houseID uint64) ([]booking.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE house_id = ? AND status IN ('APPROVED', 'ACTIVE') ORDER BY start_date`
	return r.list(ctx, "occupying bookings", q, houseID)
}

// ListByTenant returns a tenant's bookings, newest first.
func (r *BookingRepo) ListByTenant(ctx context.Context, tenantID uint64) ([]booking.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE tenant_id = ? ORDER BY created_at DESC`
	return r.list(ctx, "tenant bookings", q, tenantID)
}

// ListByOwner returns bookings on every house of an owner, newest first.
func (r *BookingRepo) ListByOwner(ctx context.Context, ownerID uint64) ([]booking.Booking, error) {
	const q = `SELECT b.id, b.house_id, b.tenant_id, b.start_date, b.end_date, b.total_amount, b.status, b.notes, b.rejection_reason, b.created_at, b.updated_at
        FROM bookings b
        JOIN houses h ON h.id = b.house_id
        WHERE h.owner_id = ?
        ORDER BY b.created_at DESC`
	return r.list(ctx, "owner bookings", q, ownerID)
}

// ListByHouse returns every booking of a house ordered by start date.
func (r *BookingRepo) ListByHouse(ctx context.Context, houseID uint64) ([]booking.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE house_id = ? ORDER BY start_date, created_at`
	return r.list(ctx, "house bookings", q, houseID)
}

// ListDueForActivation returns APPROVED bookings whose start date is on
// or before today.
func (r *BookingRepo) ListDueForActivation(ctx context.Context, today time.Time) ([]booking.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'APPROVED' AND start_date <= ? ORDER BY start_date`
	return r.list(ctx, "bookings due for activation", q, booking.Day(today).Format(booking.DateLayout))
}

// ListDueForCompletion returns ACTIVE bookings whose end date is on or
// before today.
func (r *BookingRepo) ListDueForCompletion(ctx context.Context, today time.Time) ([]booking.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE status = 'ACTIVE' AND end_date <= ? ORDER BY end_date`
	return r.list(ctx, "bookings due for completion", q, booking.Day(today).Format(booking.DateLayout))
}

// CountByTenant returns how many bookings a tenant has made.
func (r *BookingRepo) CountByTenant(ctx context.Context, tenantID uint64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE tenant_id = ?`, tenantID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count tenant bookings: %w", err)
	}
	return n, nil
}

// CountPendingByOwner returns how many PENDING requests wait on an
// owner's houses.
func (r *BookingRepo) CountPendingByOwner(ctx context.Context, ownerID uint64) (int, error) {
	const q = `SELECT COUNT(*) FROM bookings b JOIN houses h ON h.id = b.house_id WHERE h.owner_id = ? AND b.status = 'PENDING'`
	var n int
	if err := r.db.QueryRowContext(ctx, q, ownerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count pending owner bookings: %w", err)
	}
	return n, nil
}
