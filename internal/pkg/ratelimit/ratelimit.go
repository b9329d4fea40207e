// Package ratelimit counts requests per key within fixed windows.
package ratelimit

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// Decision is the outcome of one hit.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Limiter records a hit for key and reports whether it is within the rate.
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Ulule adapts ulule/limiter.
type Ulule struct {
	lim *limiter.Limiter
}

// NewMemory builds an in-process limiter for a rate such as "5-M".
func NewMemory(rate, prefix string) (*Ulule, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	store := memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix, CleanUpInterval: time.Minute})
	return &Ulule{lim: limiter.New(store, r)}, nil
}

// NewRedis builds a limiter shared by every replica through Redis.
func NewRedis(client *redis.Client, rate, prefix string) (*Ulule, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	store, err := sredis.NewStoreWithOptions(client, limiter.StoreOptions{Prefix: prefix})
	if err != nil {
		return nil, err
	}
	return &Ulule{lim: limiter.New(store, r)}, nil
}

// Allow counts one hit for key.
func (u *Ulule) Allow(ctx context.Context, key string) (Decision, error) {
	lc, err := u.lim.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lc.Reached,
		Limit:     lc.Limit,
		Remaining: lc.Remaining,
		ResetAt:   time.Unix(lc.Reset, 0),
	}, nil
}

// Unlimited allows everything. Used when no rate is configured.
type Unlimited struct{}

// Allow always allows.
func (Unlimited) Allow(context.Context, string) (Decision, error) {
	return Decision{Allowed: true}, nil
}
