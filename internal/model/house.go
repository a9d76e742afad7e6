package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// House is a rentable property as stored in the `houses` table.  Houses
// are managed outside the booking engine; this service only reads the
// owner and the monthly price.
//
// Fields:
//  ID            – primary key identifier.
//  OwnerID       – the landlord who receives booking requests.
//  PricePerMonth – monthly rent, 2 decimal places.
//  CreatedAt     – creation timestamp.
//  UpdatedAt     – last update timestamp.
type House struct {
	ID            uint64          // houses.id
	OwnerID       uint64          // houses.owner_id
	PricePerMonth decimal.Decimal // houses.price_per_month
	CreatedAt     time.Time       // houses.created_at
	UpdatedAt     time.Time       // houses.updated_at
}
