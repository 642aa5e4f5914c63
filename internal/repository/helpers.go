package repository

import (
	"database/sql"
	"sort"
	"time"
)

// timeLayout is the storage format for every timestamp column. Values are
// written in UTC so that string comparison orders them and the occurrence
// unique index compares instants.
const timeLayout = time.RFC3339

// parseNullableTime parses a sql.NullString into a *time.Time.
// Returns nil if the value is NULL, empty, or fails to parse.
func parseNullableTime(s sql.NullString) *time.Time {
	if !s.Valid || s.String == "" {
		return nil
	}
	t, err := time.Parse(timeLayout, s.String)
	if err != nil {
		return nil
	}
	return &t
}

// nullableTimeToString converts a *time.Time to a value suitable for SQLite
// storage, or SQL NULL for nil.
func nullableTimeToString(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullableString(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

// boolToInt converts a Go bool to an integer (0 or 1) for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// intToBool converts a SQLite integer (0 or 1) to a Go bool.
func intToBool(i int) bool {
	return i != 0
}

// dueLess orders by due date, undated last, then by ID.
func dueLess(aDue *time.Time, aID string, bDue *time.Time, bID string) bool {
	switch {
	case aDue == nil && bDue == nil:
		return aID < bID
	case aDue == nil:
		return false
	case bDue == nil:
		return true
	case !aDue.Equal(*bDue):
		return aDue.Before(*bDue)
	default:
		return aID < bID
	}
}

func sortByDue[T any](items []T, due func(T) (*time.Time, string)) {
	sort.SliceStable(items, func(i, j int) bool {
		ad, aid := due(items[i])
		bd, bid := due(items[j])
		return dueLess(ad, aid, bd, bid)
	})
}
