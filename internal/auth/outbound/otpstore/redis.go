package otpstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/auth/entity"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
)

const (
	redisKeyPrefix    = "otp:"
	redisFieldCode    = "code"
	redisFieldCreated = "created_at"
)

// Redis stores each record as a hash at otp:<phone> with a retention TTL.
type Redis struct {
	client    redis.Cmdable
	clock     clocker
	retention time.Duration
	ins       instrument.Instrumentation
}

func NewRedis(client redis.Cmdable, clock clocker, retention time.Duration, ins instrument.Instrumentation) *Redis {
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Redis{client: client, clock: clock, retention: retention, ins: ins}
}

// Retention is how long a record is kept after it is written.
func (r *Redis) Retention() time.Duration {
	return r.retention
}

func (r *Redis) Put(ctx context.Context, phone, code string) (err error) {
	ctx, span := startSpan(ctx, r.ins, "Redis.Put")
	defer func() { endSpan(span, err) }()

	key := redisKeyPrefix + phone

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.HSet(ctx, key, redisFieldCode, code, redisFieldCreated, r.clock.Now().UnixNano())
	pipe.Expire(ctx, key, r.retention)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Get(ctx context.Context, phone string) (_ *entity.OTP, err error) {
	ctx, span := startSpan(ctx, r.ins, "Redis.Get")
	defer func() { endSpan(span, err) }()

	fields, err := r.client.HGetAll(ctx, redisKeyPrefix+phone).Result()
	if err != nil {
		return nil, err
	}

	code, ok := fields[redisFieldCode]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	nanos, err := strconv.ParseInt(fields[redisFieldCreated], 10, 64)
	if err != nil {
		return nil, err
	}

	return &entity.OTP{Phone: phone, Code: code, CreatedAt: time.Unix(0, nanos)}, nil
}

func (r *Redis) Delete(ctx context.Context, phone string) (err error) {
	ctx, span := startSpan(ctx, r.ins, "Redis.Delete")
	defer func() { endSpan(span, err) }()

	return r.client.Del(ctx, redisKeyPrefix+phone).Err()
}
