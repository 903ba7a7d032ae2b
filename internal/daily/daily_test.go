package daily

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaltStableWithinUTCDay(t *testing.T) {
	morning := time.Date(2025, 6, 1, 0, 0, 1, 0, time.UTC)
	night := time.Date(2025, 6, 1, 23, 59, 59, 0, time.UTC)
	assert.Equal(t, "fft-2025-06-01", Salt(morning))
	assert.Equal(t, Salt(morning), Salt(night))
	assert.NotEqual(t, Salt(night), Salt(night.Add(2*time.Second)))
}

func TestSaltUsesUTC(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	local := time.Date(2025, 6, 2, 8, 0, 0, 0, tokyo) // 2025-06-01 23:00 UTC
	assert.Equal(t, "fft-2025-06-01", Salt(local))
}

func TestDaysBetween(t *testing.T) {
	cases := []struct {
		a, b string
		want int
	}{
		{"2025-03-01", "2025-03-01", 0},
		{"2025-02-28", "2025-03-01", 1},
		{"2024-02-28", "2024-03-01", 2},
		{"2025-03-04", "2025-03-01", -3},
		{"2024-12-31", "2025-01-01", 1},
	}
	for _, tc := range cases {
		got, ok := DaysBetween(tc.a, tc.b)
		require.True(t, ok)
		assert.Equal(t, tc.want, got, "%s → %s", tc.a, tc.b)
	}
	_, ok := DaysBetween("yesterday", "2025-01-01")
	assert.False(t, ok)
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(time.Date(2025, 12, 31, 18, 30, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), got)
}
