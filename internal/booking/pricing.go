package booking

import (
	"time"

	"github.com/shopspring/decimal"
)

// DaysPerMonth is the flat month length used for proration.  Calendar
// month lengths are deliberately not used; callers needing them adjust
// the result themselves.
const DaysPerMonth = 30

var daysPerMonth = decimal.NewFromInt(DaysPerMonth)

// MaxTotalAmount is the largest total the bookings.total_amount
// DECIMAL(10,2) column can hold.
var MaxTotalAmount = decimal.RequireFromString("99999999.99")

// PriceQuote is the breakdown behind a computed total.
type PriceQuote struct {
	Period        DateRange
	Days          int64
	PricePerMonth decimal.Decimal
	Total         decimal.Decimal
}

// ComputeTotal prorates a monthly rate over [start, end):
// pricePerMonth * days / 30, rounded half-up to cents.
func ComputeTotal(pricePerMonth decimal.Decimal, start, end time.Time) (decimal.Decimal, error) {
	q, err := Quote(pricePerMonth, start, end)
	if err != nil {
		return decimal.Decimal{}, err
	}
	return q.Total, nil
}

// Quote is ComputeTotal with the intermediate values kept.
func Quote(pricePerMonth decimal.Decimal, start, end time.Time) (PriceQuote, error) {
	if !pricePerMonth.IsPositive() {
		return PriceQuote{}, &ValidationError{Field: "price_per_month", Message: "must be greater than 0"}
	}
	r, err := NewDateRange(start, end)
	if err != nil {
		return PriceQuote{}, err
	}
	days := r.Days()
	// DivRound rounds half away from zero; the dividend is positive here
	// so that is half-up.
	total := pricePerMonth.Mul(decimal.NewFromInt(days)).DivRound(daysPerMonth, 2)
	return PriceQuote{
		Period:        r,
		Days:          days,
		PricePerMonth: pricePerMonth,
		Total:         total,
	}, nil
}
