// Package validator validates request structs through struct tags.
//
// Failures come back as V10ValidationError, a map from the JSON field name to
// a human readable message, which the router renders under "error".
package validator
