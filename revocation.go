package authcore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const revocationKeyPrefix = "arv"

// RevocationCache records access tokens that must be rejected before their
// natural expiry. The store must be shared by every service instance: a
// process-local cache would let a token logged out on one instance remain
// valid on another. Entries disappear at TTL expiry and never need explicit
// deletion, because an expired token already fails signature verification.
type RevocationCache interface {
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, bool, error)
}

type redisRevocationCache struct {
	redis  *redis.Client
	prefix string
}

// NewRedisRevocationCache returns a RevocationCache backed by the given
// Redis client.
func NewRedisRevocationCache(client *redis.Client) RevocationCache {
	return &redisRevocationCache{redis: client, prefix: revocationKeyPrefix}
}

func (c *redisRevocationCache) key(k string) string {
	return c.prefix + ":" + k
}

func (c *redisRevocationCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		// The token is already past its own expiry; nothing to record.
		return nil
	}
	if err := c.redis.Set(ctx, c.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return nil
}

func (c *redisRevocationCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := c.redis.Get(ctx, c.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRevocationUnavailable, err)
	}
	return val, true, nil
}
