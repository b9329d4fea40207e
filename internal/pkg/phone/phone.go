// Package phone canonicalizes user-supplied phone numbers into the global
// format used as the identity lookup key.
//
// The rules are deliberately lenient: input is never rejected, only prefixed.
package phone

import "strings"

// DefaultCountryCode is prepended to bare national numbers.
const DefaultCountryCode = "91"

const (
	nationalLength      = 10
	withCountryCodeSize = len(DefaultCountryCode) + nationalLength
)

// Normalize returns the canonical "+<country><number>" form of raw.
//
// Rules are applied in order: numbers already starting with "+" are returned
// unchanged, 10-character numbers get "+91", 12-character numbers starting
// with "91" get "+", anything else gets "+" as a best effort.
func Normalize(raw string) string {
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "+"):
		return raw
	case len(raw) == nationalLength:
		return "+" + DefaultCountryCode + raw
	case strings.HasPrefix(raw, DefaultCountryCode) && len(raw) == withCountryCodeSize:
		return "+" + raw
	default:
		return "+" + raw
	}
}
