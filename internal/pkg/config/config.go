// Package config reads runtime settings from a YAML file, with environment
// variables (optionally loaded from a .env file) taking precedence.
package config

import (
	"io"
	"time"
)

// Config retrieves typed configuration values by dotted key.
// Missing keys yield the zero value of the requested type.
type Config interface {
	io.Closer

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetFloat64(key string) float64

	// GetSecond reads an integer number of seconds.
	GetSecond(key string) time.Duration
	// GetMinute reads an integer number of minutes.
	GetMinute(key string) time.Duration

	// GetArray reads a comma separated list ("a, b,,c" yields [a b c]).
	// A YAML sequence is accepted too.
	GetArray(key string) []string
}
