package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/errors"
)

// RedisFixedWindow is a fixed-window limiter shared across processes via
// Redis. When no client is configured it degrades to the in-process
// FixedWindow, so callers can wire it unconditionally.
type RedisFixedWindow struct {
	client    *redis.Client
	keyPrefix string
	fallback  *FixedWindow
	clock     clock.Clock
}

// NewRedisFixedWindow creates a distributed fixed window limiter. client may
// be nil, in which case every check runs against the local fallback.
func NewRedisFixedWindow(client *redis.Client, keyPrefix string, clk clock.Clock) *RedisFixedWindow {
	if keyPrefix == "" {
		keyPrefix = "mintshield:ratelimit:"
	}
	if clk == nil {
		clk = clock.New()
	}
	return &RedisFixedWindow{
		client:    client,
		keyPrefix: keyPrefix,
		fallback:  NewFixedWindow(clk),
		clock:     clk,
	}
}

// Allow increments the shared counter for identifier's current window and
// admits the request while the count stays within limit.
func (rl *RedisFixedWindow) Allow(ctx context.Context, identifier string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, errors.NewInvalidArgumentError("fixed window limit and window must be positive")
	}

	if rl.client == nil {
		return rl.fallback.Allow(identifier, limit, window)
	}

	now := rl.clock.Now()
	windowStart := now.Truncate(window)
	resetTime := windowStart.Add(window)
	key := fmt.Sprintf("%s%s:%d", rl.keyPrefix, identifier, windowStart.Unix())

	pipe := rl.client.Pipeline()
	incrCmd := pipe.Incr(ctx, key)
	pipe.ExpireAt(ctx, key, resetTime)

	if _, err := pipe.Exec(ctx); err != nil {
		// Redis outage falls back to the local counter rather than
		// failing open
		return rl.fallback.Allow(identifier, limit, window)
	}

	return int(incrCmd.Val()) <= limit, nil
}
