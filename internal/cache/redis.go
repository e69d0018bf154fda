package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// versionTTL keeps idle counters around far longer than any list entry, so a
// counter can only lapse once every entry it guarded has expired.
const versionTTL = 24 * time.Hour

type Redis struct {
	rdb    redis.Cmdable
	ttl    time.Duration
	prefix string
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	if ttl <= 0 {
		ttl = 5 * time.Second
	}

	return &Redis{rdb: rdb, ttl: ttl, prefix: "noteflow:"}
}

func (c *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := c.rdb.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}

	return b, true, nil
}

func (c *Redis) Set(ctx context.Context, key string, val []byte) error {
	return c.rdb.Set(ctx, c.prefix+key, val, c.ttl).Err()
}

func (c *Redis) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, c.prefix+key).Err()
}

func (c *Redis) Version(ctx context.Context, key string) (int64, error) {
	v, err := c.rdb.Get(ctx, c.prefix+key).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	return v, nil
}

// Bump is INCR plus a refreshed expiry in one MULTI, so every replica
// sharing the server sees the new version at once.
func (c *Redis) Bump(ctx context.Context, key string) (int64, error) {
	var incr *redis.IntCmd

	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, c.prefix+key)
		pipe.Expire(ctx, c.prefix+key, versionTTL)
		return nil
	})
	if err != nil {
		return 0, err
	}

	return incr.Val(), nil
}
