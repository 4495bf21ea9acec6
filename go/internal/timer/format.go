package timer

import (
	"fmt"
	"strconv"
	"strings"
)

// InvalidDuration is the sentinel ParseMmSs returns for malformed text.
// Callers keep the previous value when they see it.
const InvalidDuration int64 = -1

const maxMinuteDigits = 9

// FormatMmSs renders ms as zero-padded mm:ss. Minutes are unbounded.
func FormatMmSs(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	secs := ms / 1000
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// ParseMmSs parses "m:ss", "mm:ss" or a bare number of seconds into
// milliseconds. Malformed input yields InvalidDuration.
func ParseMmSs(text string) int64 {
	text = strings.TrimSpace(text)
	if text == "" {
		return InvalidDuration
	}

	minPart, secPart, found := strings.Cut(text, ":")
	if !found {
		secs, ok := parseDigits(text)
		if !ok || len(text) > maxMinuteDigits {
			return InvalidDuration
		}
		return secs * 1000
	}

	mins, ok := parseDigits(minPart)
	if !ok || len(minPart) > maxMinuteDigits {
		return InvalidDuration
	}
	if len(secPart) == 0 || len(secPart) > 2 {
		return InvalidDuration
	}
	secs, ok := parseDigits(secPart)
	if !ok || secs > 59 {
		return InvalidDuration
	}
	return (mins*60 + secs) * 1000
}

// parseDigits accepts only ASCII digits, so signs and spaces are rejected.
func parseDigits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
