package sms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// SMS sends a text message to a phone number.
type SMS interface {
	Send(ctx context.Context, phone, text string) error
}

// Kind classifies a delivery failure.
type Kind string

const (
	KindConfig    Kind = "CONFIG"
	KindNetwork   Kind = "NETWORK"
	KindTimeout   Kind = "TIMEOUT"
	KindRateLimit Kind = "RATE_LIMIT"
	KindProvider  Kind = "PROVIDER"
)

// Error describes a failed send.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Cause      error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("sms %s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("sms %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// IsTimeout reports whether err is a send that ran out of time.
func IsTimeout(err error) bool {
	var serr *Error
	return errors.As(err, &serr) && serr.Kind == KindTimeout
}

// Log is an SMS that only logs. Useful when no gateway credentials exist.
type Log struct{}

// Send logs the destination and message length.
func (Log) Send(ctx context.Context, phone, text string) error {
	slog.InfoContext(ctx, "sms not delivered, log driver active", "phone", phone, "length", len(text))
	return nil
}
