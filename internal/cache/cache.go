// Package cache is a small JSON read-through cache over Redis. A Cache built
// with a nil client is valid and never hits.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores JSON values and tracks every key it writes in a set so a
// whole group can be dropped at once.
type Cache struct {
	client redis.UniversalClient
	ttl    time.Duration
	prefix string
}

func New(client redis.UniversalClient, prefix string, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl, prefix: prefix}
}

// Enabled reports whether a Redis client is configured.
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) key(k string) string { return c.prefix + ":" + k }
func (c *Cache) setKey() string      { return c.prefix + ":keys" }

// Get decodes the value at key into dest. found is false on a miss or when disabled.
func (c *Cache) Get(ctx context.Context, key string, dest any) (found bool, err error) {
	if !c.Enabled() {
		return false, nil
	}
	val, err := c.client.Get(ctx, c.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, fmt.Errorf("cache decode %s: %w", key, err)
	}
	return true, nil
}

// Set stores v at key with the cache TTL.
func (c *Cache) Set(ctx context.Context, key string, v any) error {
	if !c.Enabled() {
		return nil
	}
	body, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	full := c.key(key)
	_, err = c.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, full, body, c.ttl)
		p.SAdd(ctx, c.setKey(), full)
		return nil
	})
	if err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// InvalidateAll removes every key this cache has written.
func (c *Cache) InvalidateAll(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	members, err := c.client.SMembers(ctx, c.setKey()).Result()
	if err != nil {
		return fmt.Errorf("cache list keys: %w", err)
	}
	keys := append(members, c.setKey())
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache invalidate: %w", err)
	}
	return nil
}

// GetOrLoad returns the cached value for key, or calls load and caches its result.
// Cache failures fall through to load and are returned alongside its value as cacheErr.
func GetOrLoad[T any](ctx context.Context, c *Cache, key string, load func(context.Context) (T, error)) (val T, cacheErr error, err error) {
	found, cacheErr := c.Get(ctx, key, &val)
	if found {
		return val, nil, nil
	}
	val, err = load(ctx)
	if err != nil {
		return val, cacheErr, err
	}
	if setErr := c.Set(ctx, key, val); setErr != nil {
		cacheErr = setErr
	}
	return val, cacheErr, nil
}
