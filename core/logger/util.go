package logger

import (
	"strings"
	"time"
)

// Status renders err as the "status" attribute value.
func Status(err error) string {
	if err == nil {
		return "ok"
	}
	return "fail"
}

// Took is RoundMS(time.Since(start)).
func Took(start time.Time) time.Duration { return RoundMS(time.Since(start)) }

// RoundMS drops sub-millisecond noise; negative durations become zero.
func RoundMS(d time.Duration) time.Duration {
	return max(d, 0).Round(time.Millisecond)
}

// Preview joins at most limit values and reports whether some were left out.
func Preview(values []string, limit int) (string, bool) {
	n := min(max(limit, 0), len(values))
	return strings.Join(values[:n], ", "), n < len(values)
}

// MaskCard keeps the issuer prefix and the last four digits of a card
// number. Short inputs are masked entirely.
func MaskCard(number string) string {
	const head, tail = 6, 4
	if len(number) < head+tail {
		return strings.Repeat("*", len(number))
	}
	return number[:head] + strings.Repeat("*", len(number)-head-tail) + number[len(number)-tail:]
}
