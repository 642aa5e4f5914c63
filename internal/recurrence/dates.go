package recurrence

import (
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
)

// AddMonthsClamped adds n calendar months to t, keeping the day of month and
// time of day. When the target month is shorter than t's day of month, the
// result lands on the last day of the target month.
func AddMonthsClamped(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	total := int(m) - 1 + n
	year := y + floorDiv(total, 12)
	month := time.Month(total-floorDiv(total, 12)*12 + 1)
	if last := daysIn(year, month); d > last {
		d = last
	}
	return time.Date(year, month, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// Step returns the n-th occurrence after anchor (n >= 1) under rule.
// Every occurrence is computed from the anchor itself, so clamping in a short
// month never carries over into later months. ok is false for rules that do
// not recur.
func Step(anchor time.Time, rule domain.RecurrenceType, n int) (time.Time, bool) {
	switch rule {
	case domain.RecurrenceWeekly:
		return anchor.AddDate(0, 0, 7*n), true
	case domain.RecurrenceMonthly:
		return AddMonthsClamped(anchor, n), true
	case domain.RecurrenceQuarterly:
		return AddMonthsClamped(anchor, 3*n), true
	case domain.RecurrenceYearly:
		// Feb 29 falls back to Feb 28 in non-leap years.
		return AddMonthsClamped(anchor, 12*n), true
	case domain.RecurrenceNone:
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}

// IsLeapYear reports whether year has a February 29.
func IsLeapYear(year int) bool {
	return daysIn(year, time.February) == 29
}
