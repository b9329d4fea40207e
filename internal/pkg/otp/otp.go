package otp

import (
	"crypto/rand"
	"errors"
	"io"
	"math/big"
	"strconv"
)

const (
	// MinSixDigit is the smallest code produced by NewSixDigit.
	MinSixDigit int64 = 100000
	// MaxSixDigit is the largest code produced by NewSixDigit.
	MaxSixDigit int64 = 999999
)

// ErrInvalidRange is returned when the lower bound is above the upper bound.
var ErrInvalidRange = errors.New("otp: invalid code range")

// Generator produces one-time codes.
type Generator interface {
	// Generate returns a fresh code.
	Generate() (string, error)
}

// Numeric draws codes uniformly from an inclusive integer range.
type Numeric struct {
	min    int64
	span   *big.Int
	reader io.Reader
}

// NewNumeric builds a generator over [minCode, maxCode].
func NewNumeric(minCode, maxCode int64) (*Numeric, error) {
	if minCode < 0 || maxCode < minCode {
		return nil, ErrInvalidRange
	}

	return &Numeric{
		min:    minCode,
		span:   big.NewInt(maxCode - minCode + 1),
		reader: rand.Reader,
	}, nil
}

// NewSixDigit returns a generator over 100000–999999.
func NewSixDigit() *Numeric {
	return &Numeric{
		min:    MinSixDigit,
		span:   big.NewInt(MaxSixDigit - MinSixDigit + 1),
		reader: rand.Reader,
	}
}

// Generate returns a decimal code within the configured range.
func (n *Numeric) Generate() (string, error) {
	v, err := rand.Int(n.reader, n.span)
	if err != nil {
		return "", err
	}

	return strconv.FormatInt(n.min+v.Int64(), 10), nil
}
