package importer

import (
	"fmt"
	"strings"
	"time"
)

// dueLayouts are tried in order. Layouts without a zone are read in the
// caller's location.
var dueLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseDueDate parses s with the first matching layout. loc applies to
// values without an explicit offset; nil means UTC.
func ParseDueDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	v := strings.TrimSpace(s)
	for _, layout := range dueLayouts {
		if t, err := time.ParseInLocation(layout, v, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date format %q (expected YYYY-MM-DD, YYYY-MM-DDTHH:MM or RFC3339)", s)
}
