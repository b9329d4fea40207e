// Package clock abstracts the wall clock.
//
// Business code depends on Clocker rather than calling time.Now so tests can
// drive expiry windows with a Frozen clock.
package clock
