// Package otp generates the numeric one-time codes sent to phones.
//
// Codes are drawn from crypto/rand. The default generator produces 6-digit
// codes in the range 100000–999999, so a code never starts with zero.
package otp
