package countdown

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemaining(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		remaining time.Duration
		label     string
		ended     bool
	}{
		{name: "days_hours_minutes", remaining: 90061 * time.Second, label: "1d 1h 1m"},
		{name: "hours_minutes_seconds", remaining: 3661 * time.Second, label: "1h 1m 1s"},
		{name: "minutes_seconds", remaining: 61 * time.Second, label: "1m 1s"},
		{name: "seconds_only", remaining: 5 * time.Second, label: "5s"},
		{name: "zero_units_inside_days", remaining: 48 * time.Hour, label: "2d 0h 0m"},
		{name: "exact_hour", remaining: time.Hour, label: "1h 0m 0s"},
		{name: "sub_second_truncates", remaining: 1500 * time.Millisecond, label: "1s"},
		{name: "under_one_second", remaining: 300 * time.Millisecond, label: "0s"},
		{name: "exactly_now", remaining: 0, label: EndedLabel, ended: true},
		{name: "past", remaining: -time.Minute, label: EndedLabel, ended: true},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := Remaining(now, now.Add(tc.remaining))
			require.Equal(t, tc.label, got.Label)
			require.Equal(t, tc.ended, got.Ended)
		})
	}
}
