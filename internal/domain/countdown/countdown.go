// Package countdown derives the remaining-time label shown on an auction.
package countdown

import (
	"fmt"
	"time"
)

// EndedLabel is shown once the end time has passed.
const EndedLabel = "Auction Ended"

// Countdown is the displayed state at one instant
type Countdown struct {
	Label  string
	Ended  bool
	Remain time.Duration
}

// Remaining is a pure function of now and the auction end. Sub-second
// remainders are truncated.
func Remaining(now, end time.Time) Countdown {
	if !now.Before(end) {
		return Countdown{Label: EndedLabel, Ended: true}
	}

	diff := end.Sub(now)
	total := int64(diff / time.Second)

	days := total / 86400
	hours := (total % 86400) / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	var label string
	switch {
	case days > 0:
		label = fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		label = fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		label = fmt.Sprintf("%dm %ds", minutes, seconds)
	default:
		label = fmt.Sprintf("%ds", seconds)
	}

	return Countdown{Label: label, Remain: diff}
}
