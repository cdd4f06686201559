package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/earnings-tracker/ledger-api/internal/core/ports"
)

// StatsCache stores computed dashboard views in Redis.
// Key format: <prefix>:ver:<owner_id> for versions; entry keys are supplied
// by the caller and already embed the version they were computed at.
type StatsCache struct {
	client *redis.Client
	prefix string
}

// NewStatsCache creates a StatsCache wrapping the given Redis client.
func NewStatsCache(client *redis.Client, prefix string) *StatsCache {
	if prefix == "" {
		prefix = "ledger"
	}
	return &StatsCache{client: client, prefix: prefix}
}

// Version returns the current cache generation of an owner; 0 is the
// unrestricted scope.
func (c *StatsCache) Version(ctx context.Context, ownerID int64) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("stats cache version: %w", err)
	}
	return v, nil
}

// Bump invalidates every cached view of ownerID together with the
// unrestricted scope, which includes that owner's rows.
func (c *StatsCache) Bump(ctx context.Context, ownerID int64) error {
	pipe := c.client.TxPipeline()
	pipe.Incr(ctx, c.versionKey(ownerID))
	if ownerID != 0 {
		pipe.Incr(ctx, c.versionKey(0))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("stats cache bump: %w", err)
	}
	return nil
}

func (c *StatsCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := c.client.Get(ctx, c.entryKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stats cache get: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("stats cache decode: %w", err)
	}
	return true, nil
}

// Set stores value for ttl. Stale generations are never read again and simply
// expire.
func (c *StatsCache) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("stats cache encode: %w", err)
	}
	return c.client.Set(ctx, c.entryKey(key), raw, ttl).Err()
}

// Ping reports whether Redis is reachable.
func (c *StatsCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *StatsCache) versionKey(ownerID int64) string {
	return fmt.Sprintf("%s:ver:%d", c.prefix, ownerID)
}

func (c *StatsCache) entryKey(key string) string {
	return c.prefix + ":" + key
}

var _ ports.StatsCache = (*StatsCache)(nil)
