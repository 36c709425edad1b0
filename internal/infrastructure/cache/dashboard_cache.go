package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	dashboardPrefix     = "tiller:dashboard:"
	defaultDashboardTTL = 60 * time.Second
	scanBatch           = 200
)

// RedisDashboardCache stores dashboard widget results as JSON with a short TTL
type RedisDashboardCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisDashboardCache creates a dashboard cache; a non-positive ttl
// falls back to one minute
func NewRedisDashboardCache(client redis.UniversalClient, ttl time.Duration) *RedisDashboardCache {
	if ttl <= 0 {
		ttl = defaultDashboardTTL
	}
	return &RedisDashboardCache{client: client, ttl: ttl}
}

// Get decodes the cached value of key into dest
func (c *RedisDashboardCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	data, err := c.client.Get(ctx, dashboardPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key
func (c *RedisDashboardCache) Set(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, dashboardPrefix+key, data, c.ttl).Err()
}

// Invalidate drops every cached widget
func (c *RedisDashboardCache) Invalidate(ctx context.Context) error {
	var cursor uint64
	for {
		keys, next, err := c.client.Scan(ctx, cursor, dashboardPrefix+"*", scanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		if next == 0 {
			return nil
		}
		cursor = next
	}
}
