package ratelimit

import (
	"sync"
	"time"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/errors"
)

type bucket struct {
	tokens     float64
	lastRefill time.Time
}

// TokenBucket admits requests while a continuously refilled per-identifier
// token pool is non-empty. Refill is lazy, computed at check time.
type TokenBucket struct {
	mutex   sync.Mutex
	buckets map[string]*bucket
	clock   clock.Clock
}

// NewTokenBucket creates a token bucket limiter.
func NewTokenBucket(clk clock.Clock) *TokenBucket {
	if clk == nil {
		clk = clock.New()
	}
	return &TokenBucket{
		buckets: make(map[string]*bucket),
		clock:   clk,
	}
}

// Allow consumes one token for identifier if available. capacity and
// refillRate must be positive; malformed parameters deny with an
// invalid-argument error.
func (tb *TokenBucket) Allow(identifier string, capacity float64, refillRate float64) (bool, error) {
	if capacity <= 0 || refillRate <= 0 {
		return false, errors.NewInvalidArgumentError("token bucket capacity and refill rate must be positive")
	}

	now := tb.clock.Now()

	tb.mutex.Lock()
	defer tb.mutex.Unlock()

	b, ok := tb.buckets[identifier]
	if !ok {
		b = &bucket{tokens: capacity, lastRefill: now}
		tb.buckets[identifier] = b
	}

	// Lazy refill, capped at capacity
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens += elapsed * refillRate
	if b.tokens > capacity {
		b.tokens = capacity
	}
	b.lastRefill = now

	if b.tokens >= 1 {
		b.tokens--
		return true, nil
	}

	return false, nil
}
