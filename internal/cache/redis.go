// Package cache wraps Redis for cache-aside reads and shared client setup.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"vacancyhub/internal/middleware"
	"vacancyhub/internal/observability"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 5 * time.Second

// errorHook counts failed commands. redis.Nil is a miss, not a failure.
type errorHook struct{}

func (errorHook) DialHook(next redis.DialHook) redis.DialHook { return next }

func (errorHook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		err := next(ctx, cmd)
		countFailure(cmd.Name(), err)
		return err
	}
}

func (errorHook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		err := next(ctx, cmds)
		countFailure("pipeline", err)
		return err
	}
}

func countFailure(name string, err error) {
	if err != nil && !errors.Is(err, redis.Nil) {
		observability.RedisErrors.WithLabelValues(name).Inc()
	}
}

// NewClient builds an instrumented client from a redis:// URL or a bare host:port.
// It does not dial.
func NewClient(addr string) (*redis.Client, error) {
	opts := &redis.Options{Addr: addr}
	if strings.Contains(addr, "://") {
		parsed, err := redis.ParseURL(addr)
		if err != nil {
			return nil, err
		}
		opts = parsed
	}
	c := redis.NewClient(opts)
	c.AddHook(errorHook{})
	return c, nil
}

// Connect returns a pinged client for addr, or nil when addr is empty, invalid
// or unreachable. Callers treat nil as "run without Redis".
func Connect(ctx context.Context, addr string) *redis.Client {
	log := middleware.Logger.With("component", "redis")
	if addr == "" {
		log.WarnContext(ctx, "REDIS_URL not set, running without cache and feed fan-out")
		return nil
	}

	c, err := NewClient(addr)
	if err != nil {
		log.WarnContext(ctx, "invalid REDIS_URL, running without Redis", slog.String("error", err.Error()))
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := c.Ping(ctx).Err(); err != nil {
		log.WarnContext(ctx, "redis unreachable, running without Redis", slog.String("error", err.Error()))
		_ = c.Close()
		return nil
	}

	log.InfoContext(ctx, "redis connected", slog.String("addr", c.Options().Addr))
	return c
}
