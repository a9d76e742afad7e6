package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/house-rental-booking/internal/booking"
	"github.com/iliyamo/house-rental-booking/internal/model"
)

// HouseRepo reads houses.  The houses table is owned by the listings
// service; this repository never writes to it.
type HouseRepo struct {
	db *sql.DB
}

// NewHouseRepo returns a new HouseRepo bound to the given database.
func NewHouseRepo(db *sql.DB) *HouseRepo { return &HouseRepo{db: db} }

const houseColumns = `id, owner_id, price_per_month, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHouse(row rowScanner) (model.House, error) {
	var h model.House
	err := row.Scan(&h.ID, &h.OwnerID, &h.PricePerMonth, &h.CreatedAt, &h.UpdatedAt)
	return h, err
}

// GetByID returns the house with the given id or a *booking.NotFoundError.
func (r *HouseRepo) GetByID(ctx context.Context, id uint64) (model.House, error) {
	h, err := scanHouse(r.db.QueryRowContext(ctx, `SELECT `+houseColumns+` FROM houses WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.House{}, booking.HouseNotFound(id)
	}
	if err != nil {
		return model.House{}, fmt.Errorf("get house %d: %w", id, err)
	}
	return h, nil
}

// LockTx reads the house with SELECT ... FOR UPDATE inside tx.  Holding
// this row lock is what serializes admissions and transitions on one
// house; it is released when tx commits or rolls back.
func (r *HouseRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (model.House, error) {
	h, err := scanHouse(tx.QueryRowContext(ctx, `SELECT `+houseColumns+` FROM houses WHERE id = ? FOR UPDATE`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.House{}, booking.HouseNotFound(id)
	}
	if err != nil {
		return model.House{}, fmt.Errorf("lock house %d: %w", id, err)
	}
	return h, nil
}
