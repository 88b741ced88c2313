package storage

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oakline/storefront/internal/utils"
)

// Redis stores the token server side under a per-device key, so the browser
// only ever holds an opaque device id.
type Redis struct {
	rdb redis.Cmdable
	key string
	ttl time.Duration
}

// NewRedis returns storage for deviceID.  ttl is used when the token carries
// no readable expiry; zero keeps such tokens until deleted.
func NewRedis(rdb redis.Cmdable, prefix, deviceID string, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, key: prefix + ":" + deviceID + ":" + TokenKey, ttl: ttl}
}

// Key returns the redis key the token lives under.
func (r *Redis) Key() string { return r.key }

func (r *Redis) Load(ctx context.Context) (string, error) {
	v, err := r.rdb.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// Save writes the token with a TTL matching its exp claim when it has one.
// An already expired token is rejected with ErrExpired.
func (r *Redis) Save(ctx context.Context, token string) error {
	ttl := r.ttl
	if exp, err := utils.ExpiresAt(token); err == nil {
		ttl = time.Until(exp)
		if ttl <= 0 {
			return ErrExpired
		}
	}
	return r.rdb.Set(ctx, r.key, token, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context) error {
	return r.rdb.Del(ctx, r.key).Err()
}
