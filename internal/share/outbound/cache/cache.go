package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/otpgate/internal/pkg/goerror"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/share/entity"
)

const (
	keyPrefix  = "share:video:"
	defaultTTL = 10 * time.Minute
)

// Cache keeps share metadata as JSON strings under share:video:<id>.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
	ins    instrument.Instrumentation
}

func NewCache(client redis.Cmdable, ttl time.Duration, ins instrument.Instrumentation) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl, ins: ins}
}

func (c *Cache) GetVideo(ctx context.Context, id string) (*entity.Video, error) {
	ctx, span := c.ins.Tracer("share.outbound.cache").Start(ctx, "GetVideo")
	defer span.End()

	raw, err := c.client.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, goerror.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var v entity.Video
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}

	return &v, nil
}

func (c *Cache) SetVideo(ctx context.Context, v entity.Video) error {
	ctx, span := c.ins.Tracer("share.outbound.cache").Start(ctx, "SetVideo")
	defer span.End()

	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}

	return c.client.Set(ctx, keyPrefix+v.ID, raw, c.ttl).Err()
}
