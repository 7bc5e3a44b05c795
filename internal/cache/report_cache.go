// Package cache keeps report results in Redis. Entries are namespaced by a
// generation counter; bumping the counter invalidates every cached report at
// once without scanning keys.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "ledger:reports"

type ReportCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, prefix: defaultPrefix, ttl: ttl}
}

// Connect dials Redis and verifies the connection with a PING.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (c *ReportCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	fullKey, err := c.key(ctx, key)
	if err != nil {
		return false, err
	}
	raw, err := c.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *ReportCache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	fullKey, err := c.key(ctx, key)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return c.client.Set(ctx, fullKey, raw, c.ttl).Err()
}

// Invalidate moves the cache to a new generation.
func (c *ReportCache) Invalidate(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Incr(ctx, c.generationKey()).Err()
}

func (c *ReportCache) key(ctx context.Context, key string) (string, error) {
	gen, err := c.client.Get(ctx, c.generationKey()).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:g%d:%s", c.prefix, gen, key), nil
}

func (c *ReportCache) generationKey() string {
	return c.prefix + ":generation"
}
