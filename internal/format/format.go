// Package format renders distances and durations for display.
// Both functions expect non-negative input.
package format

import (
	"fmt"
	"math"
)

// Distance renders meters. Under a kilometer the value is shown in 10 m bands,
// otherwise in kilometers with one decimal.
func Distance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%d m", int(math.Floor(meters/10))*10)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

// Duration renders seconds as abbreviated hours and minutes, e.g. "1h 5m".
// Anything under a minute is "0m".
func Duration(seconds float64) string {
	if seconds < 60 {
		return "0m"
	}
	total := int(seconds)
	hours := total / 3600
	minutes := (total % 3600) / 60

	switch {
	case hours == 0:
		return fmt.Sprintf("%dm", minutes)
	case minutes == 0:
		return fmt.Sprintf("%dh", hours)
	default:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
}
