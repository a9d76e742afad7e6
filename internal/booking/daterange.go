package booking

import (
	"time"
)

// DateLayout is the wire and storage format for booking dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

// DateRange is the half-open day range [Start, End).  Both ends are
// calendar days at midnight UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Day truncates t to its calendar day at midnight UTC.  The calendar
// date is taken in t's own location so "2024-06-01T23:00-05:00" stays
// on June 1st.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC day.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// NewDateRange normalizes start and end to days and validates that the
// range is non-empty.
func NewDateRange(start, end time.Time) (DateRange, error) {
	r := DateRange{Start: Day(start), End: Day(end)}
	if !r.End.After(r.Start) {
		return DateRange{}, invalidRange("end_date")
	}
	return r, nil
}

// Days is the number of whole days in the range, counting the start day
// and excluding the end day.  Both ends are UTC midnights so the
// difference in Unix seconds is an exact multiple of a day; time.Duration
// would saturate for ranges longer than about 292 years.
func (r DateRange) Days() int64 {
	return (r.End.Unix() - r.Start.Unix()) / secondsPerDay
}

// Overlaps applies the half-open rule: ranges that only touch at a
// boundary do not overlap.
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

func (r DateRange) String() string {
	return "[" + r.Start.Format(DateLayout) + ", " + r.End.Format(DateLayout) + ")"
}
