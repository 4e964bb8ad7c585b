// ABOUTME: Duration formatting for CLI output
// ABOUTME: Renders playlist lengths as clock time and the signed offset from the target

package main

import (
	"fmt"
	"time"
)

// formatDuration renders d as h:mm:ss, or m:ss below an hour, rounded to the second
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "-" + formatDuration(-d)
	}

	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)

	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}

	return fmt.Sprintf("%d:%02d", m, s)
}

// formatOffset renders total - target with an explicit sign: "+0:12" is over, "-1:05" is under
func formatOffset(total, target time.Duration) string {
	diff := total - target
	if diff < 0 {
		return formatDuration(diff)
	}

	return "+" + formatDuration(diff)
}

// formatPercent renders total as a share of target, "n/a" for a zero target
func formatPercent(total, target time.Duration) string {
	if target <= 0 {
		return "n/a"
	}

	return fmt.Sprintf("%.1f%%", float64(total)/float64(target)*100)
}
