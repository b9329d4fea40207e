package entity

import "time"

// OTP is the active one-time code of a phone. Code holds the digest, never the plaintext.
type OTP struct {
	Phone     string
	Code      string
	CreatedAt time.Time
}

// Expired reports whether the record is older than window at now.
func (o OTP) Expired(now time.Time, window time.Duration) bool {
	return now.Sub(o.CreatedAt) > window
}
