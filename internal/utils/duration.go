package utils

import (
	"fmt"
	"regexp"
	"strconv"
)

// The video API reports durations as the ISO-8601 subset PT[nH][nM][nS],
// every component optional (e.g. "PT1H2M3S", "PT5M", "PT30S").
var isoDurationPattern = regexp.MustCompile(`^PT(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)

// ParseISODuration converts an ISO-8601 duration string to total seconds.
// Malformed or empty input yields 0.
func ParseISODuration(raw string) int64 {
	m := isoDurationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 0
	}

	var total int64
	if m[1] != "" {
		h, _ := strconv.ParseInt(m[1], 10, 64)
		total += h * 3600
	}
	if m[2] != "" {
		min, _ := strconv.ParseInt(m[2], 10, 64)
		total += min * 60
	}
	if m[3] != "" {
		s, _ := strconv.ParseInt(m[3], 10, 64)
		total += s
	}

	return total
}

// FormatISODuration converts an ISO-8601 duration string to a display string:
// "H:MM:SS" when hours are present, "M:SS" otherwise. Malformed input yields
// "0:00". Never fails.
func FormatISODuration(raw string) string {
	return FormatSeconds(ParseISODuration(raw))
}

// FormatSeconds renders a second count as "H:MM:SS" or "M:SS".
func FormatSeconds(total int64) string {
	if total < 0 {
		total = 0
	}

	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
