// Package uid generates identifiers: UUID strings for accounts and request
// correlation, and snowflake numbers for row keys.
package uid

// StringID generates string identifiers.
type StringID interface {
	Generate() string
}

// NumberID generates numeric identifiers.
type NumberID interface {
	Generate() int64
}
