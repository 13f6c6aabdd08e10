// Package card decides whether an inbound message is a card number worth looking up.
package card

import (
	"strings"
	"unicode"
)

// Kind is the classification of a message.
type Kind int

const (
	// KindIgnored marks text that is not a card number.
	KindIgnored Kind = iota
	// KindCandidate marks exactly sixteen ASCII digits after whitespace removal.
	KindCandidate
)

func (k Kind) String() string {
	if k == KindCandidate {
		return "candidate"
	}
	return "ignored"
}

// Length is the number of digits a card candidate has.
const Length = 16

// Normalize removes every whitespace rune from text.
func Normalize(text string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
}

// Classify normalizes text and reports whether it is a card candidate.
// The normalized value is returned for both kinds.
func Classify(text string) (string, Kind) {
	n := Normalize(text)
	if len(n) != Length {
		return n, KindIgnored
	}
	for i := 0; i < len(n); i++ {
		if n[i] < '0' || n[i] > '9' {
			return n, KindIgnored
		}
	}
	return n, KindCandidate
}
