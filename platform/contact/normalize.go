// Package contact provides phone and email canonicalization.
// This is part of the platform layer and contains no business logic.
package contact

import (
	"strings"
	"unicode"

	"github.com/nyaruka/phonenumbers"
)

const (
	defaultRegion = "US"
	suffixLength  = 7
)

// NormalizePhone strips every non-digit character. "(734) 555-0001" and
// "734-555-0001" both become "7345550001".
func NormalizePhone(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for _, r := range input {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeEmail trims surrounding whitespace and lowercases the address.
func NormalizeEmail(input string) string {
	return strings.ToLower(strings.TrimFunc(input, unicode.IsSpace))
}

// PhoneSuffix returns the last seven digits of a normalized phone number, or
// "" when fewer than seven digits are present.
func PhoneSuffix(normalized string) string {
	if len(normalized) < suffixLength {
		return ""
	}
	return normalized[len(normalized)-suffixLength:]
}

// FormatE164 renders a stored digits-only number for display. Numbers that do
// not parse as valid North American numbers are returned unchanged.
func FormatE164(digits string) string {
	if digits == "" {
		return ""
	}
	number, err := phonenumbers.Parse(digits, defaultRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return digits
	}
	return phonenumbers.Format(number, phonenumbers.E164)
}
