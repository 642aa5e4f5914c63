package recurrence

import (
	"testing"
	"time"

	"github.com/alexanderramin/cadence/internal/domain"
	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d, hh, mm int) time.Time {
	return time.Date(y, m, d, hh, mm, 0, 0, time.UTC)
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		name string
		in   time.Time
		n    int
		want time.Time
	}{
		{"jan31 to leap feb", date(2024, 1, 31, 9, 0), 1, date(2024, 2, 29, 9, 0)},
		{"jan31 to non-leap feb", date(2023, 1, 31, 9, 0), 1, date(2023, 2, 28, 9, 0)},
		{"jan31 plus two", date(2024, 1, 31, 9, 0), 2, date(2024, 3, 31, 9, 0)},
		{"mar31 to apr30", date(2024, 3, 31, 9, 0), 1, date(2024, 4, 30, 9, 0)},
		{"crosses year", date(2024, 10, 31, 9, 0), 4, date(2025, 2, 28, 9, 0)},
		{"mid month", date(2024, 5, 15, 14, 30), 7, date(2024, 12, 15, 14, 30)},
		{"backwards into leap feb", date(2024, 3, 31, 9, 0), -1, date(2024, 2, 29, 9, 0)},
		{"backwards across year", date(2024, 1, 15, 9, 0), -1, date(2023, 12, 15, 9, 0)},
		{"zero", date(2024, 1, 31, 9, 0), 0, date(2024, 1, 31, 9, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, AddMonthsClamped(tc.in, tc.n))
		})
	}
}

func TestAddMonthsClamped_PreservesLocationAndClock(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	in := time.Date(2024, 8, 31, 23, 45, 12, 500, loc)
	got := AddMonthsClamped(in, 1)

	assert.Equal(t, time.Date(2024, 9, 30, 23, 45, 12, 500, loc), got)
	assert.Equal(t, loc, got.Location())
}

func TestStep_Weekly(t *testing.T) {
	anchor := date(2024, 12, 26, 8, 0)
	got, ok := Step(anchor, domain.RecurrenceWeekly, 1)
	assert.True(t, ok)
	assert.Equal(t, date(2025, 1, 2, 8, 0), got)

	got, _ = Step(anchor, domain.RecurrenceWeekly, 10)
	assert.Equal(t, anchor.AddDate(0, 0, 70), got)
}

func TestStep_MonthlyComputesFromAnchor(t *testing.T) {
	anchor := date(2024, 1, 31, 9, 0)
	want := []time.Time{
		date(2024, 2, 29, 9, 0),
		date(2024, 3, 31, 9, 0),
		date(2024, 4, 30, 9, 0),
		date(2024, 5, 31, 9, 0),
	}
	for i, w := range want {
		got, ok := Step(anchor, domain.RecurrenceMonthly, i+1)
		assert.True(t, ok)
		assert.Equal(t, w, got, "n=%d", i+1)
	}
}

func TestStep_Quarterly(t *testing.T) {
	anchor := date(2024, 11, 30, 10, 0)
	got, _ := Step(anchor, domain.RecurrenceQuarterly, 1)
	assert.Equal(t, date(2025, 2, 28, 10, 0), got)
	got, _ = Step(anchor, domain.RecurrenceQuarterly, 2)
	assert.Equal(t, date(2025, 5, 30, 10, 0), got)
	got, _ = Step(anchor, domain.RecurrenceQuarterly, 4)
	assert.Equal(t, date(2025, 11, 30, 10, 0), got)
}

func TestStep_YearlyLeapDay(t *testing.T) {
	anchor := date(2024, 2, 29, 8, 0)
	got, _ := Step(anchor, domain.RecurrenceYearly, 1)
	assert.Equal(t, date(2025, 2, 28, 8, 0), got)
	got, _ = Step(anchor, domain.RecurrenceYearly, 3)
	assert.Equal(t, date(2027, 2, 28, 8, 0), got)
	got, _ = Step(anchor, domain.RecurrenceYearly, 4)
	assert.Equal(t, date(2028, 2, 29, 8, 0), got)
}

func TestStep_NonRecurring(t *testing.T) {
	anchor := date(2024, 1, 1, 0, 0)
	_, ok := Step(anchor, domain.RecurrenceNone, 1)
	assert.False(t, ok)
	_, ok = Step(anchor, domain.RecurrenceType("daily"), 1)
	assert.False(t, ok)
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, IsLeapYear(2024))
	assert.True(t, IsLeapYear(2000))
	assert.False(t, IsLeapYear(1900))
	assert.False(t, IsLeapYear(2025))
}
