package utils

import (
	"fmt"  // Error formatting
	"time" // Date parsing
)

// dateLayouts are tried in order when reading caller supplied dates
var dateLayouts = []string{
	time.RFC3339Nano,      // 2024-01-01T10:00:00.000Z
	"2006-01-02T15:04:05", // 2024-01-01T10:00:00
	"2006-01-02",          // 2024-01-01
}

// ParseDate reads a date in one of the accepted layouts. Values without an offset are UTC.
func ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", s)
}

// EndOfDay returns the last representable instant of t's calendar day in t's location
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
