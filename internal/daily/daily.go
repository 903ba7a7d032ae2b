// Package daily holds the calendar arithmetic shared by the server, the
// state machine and the CLI. Every day boundary is a UTC date.
package daily

import (
	"time"
)

const layout = "2006-01-02"

// DateKey returns YYYY-MM-DD in UTC.
func DateKey(t time.Time) string {
	return t.UTC().Format(layout)
}

// Salt returns the obfuscation salt for the UTC date of t. Server and
// client derive the same value independently, and it rotates at midnight UTC.
func Salt(t time.Time) string {
	return "fft-" + DateKey(t)
}

// ParseKey parses a YYYY-MM-DD key as midnight UTC.
func ParseKey(key string) (time.Time, error) {
	return time.ParseInLocation(layout, key, time.UTC)
}

// DaysBetween returns the whole number of calendar days from key a to key b.
// ok is false when either key is malformed.
func DaysBetween(a, b string) (days int, ok bool) {
	ta, err := ParseKey(a)
	if err != nil {
		return 0, false
	}
	tb, err := ParseKey(b)
	if err != nil {
		return 0, false
	}
	return int(tb.Sub(ta).Hours() / 24), true
}

// EndOfDay returns the instant the UTC date of t ends.
func EndOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, time.UTC)
}
