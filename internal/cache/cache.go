package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"vacancyhub/internal/middleware"
	"vacancyhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON cache-aside helper over one Redis client. A nil *Cache or a
// nil client passes every read straight through to the loader.
type Cache struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) enabled() bool { return c != nil && c.rdb != nil }

// Aside fills dest from key, or runs fetch and stores dest on a miss. Redis
// failures never fail the read; only fetch errors are returned.
func (c *Cache) Aside(ctx context.Context, key string, dest any, ttl time.Duration, fetch func() error) error {
	if !c.enabled() {
		return fetch()
	}

	switch raw, err := c.rdb.Get(ctx, key).Bytes(); {
	case err == nil:
		if json.Unmarshal(raw, dest) == nil {
			observability.CacheLookups.WithLabelValues("hit").Inc()
			return nil
		}
		// Undecodable entry, usually a schema change. Treat as a miss.
		c.rdb.Del(ctx, key)
		observability.CacheLookups.WithLabelValues("miss").Inc()
	case errors.Is(err, redis.Nil):
		observability.CacheLookups.WithLabelValues("miss").Inc()
	default:
		observability.CacheLookups.WithLabelValues("error").Inc()
		c.warn(ctx, "cache read failed", key, err)
	}

	if err := fetch(); err != nil {
		return err
	}
	if payload, err := json.Marshal(dest); err == nil {
		if err := c.rdb.Set(ctx, key, payload, ttl).Err(); err != nil {
			c.warn(ctx, "cache write failed", key, err)
		}
	}
	return nil
}

func (c *Cache) Invalidate(ctx context.Context, keys ...string) {
	if c.enabled() && len(keys) > 0 {
		if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
			c.warn(ctx, "cache delete failed", keys[0], err)
		}
	}
}

// InvalidatePattern removes every key matching pattern using SCAN.
func (c *Cache) InvalidatePattern(ctx context.Context, pattern string) {
	if !c.enabled() {
		return
	}
	var keys []string
	iter := c.rdb.Scan(ctx, 0, pattern, 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		c.warn(ctx, "cache scan failed", pattern, err)
		return
	}
	c.Invalidate(ctx, keys...)
}

// InvalidateChannels drops every cached channel lookup.
func (c *Cache) InvalidateChannels(ctx context.Context) {
	c.InvalidatePattern(ctx, channelResolvePattern)
}

func (c *Cache) warn(ctx context.Context, msg, key string, err error) {
	middleware.Logger.WarnContext(ctx, msg, slog.String("key", key), slog.String("error", err.Error()))
}
