package ratelimit

import (
	"sync"
	"time"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/errors"
)

type windowKey struct {
	identifier  string
	windowStart int64
}

// FixedWindow rate limits over discrete, non-overlapping time buckets
// aligned to window boundaries. Counters for windows older than the
// previous one are evicted lazily on each call so memory stays bounded
// without a cleanup goroutine.
type FixedWindow struct {
	mutex    sync.Mutex
	counters map[windowKey]int
	clock    clock.Clock
}

// NewFixedWindow creates a fixed window limiter.
func NewFixedWindow(clk clock.Clock) *FixedWindow {
	if clk == nil {
		clk = clock.New()
	}
	return &FixedWindow{
		counters: make(map[windowKey]int),
		clock:    clk,
	}
}

// Allow increments the counter for identifier's current window and admits
// the request while the count stays within limit.
func (fw *FixedWindow) Allow(identifier string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, errors.NewInvalidArgumentError("fixed window limit and window must be positive")
	}

	now := fw.clock.Now().Unix()
	windowSecs := int64(window.Seconds())
	if windowSecs <= 0 {
		return false, errors.NewInvalidArgumentError("fixed window must be at least one second")
	}
	windowStart := (now / windowSecs) * windowSecs

	key := windowKey{identifier: identifier, windowStart: windowStart}

	fw.mutex.Lock()
	defer fw.mutex.Unlock()

	fw.counters[key]++
	allowed := fw.counters[key] <= limit

	fw.evictStale(windowStart, windowSecs)

	return allowed, nil
}

// evictStale drops counters older than the previous window. Called with the
// mutex held; cost is amortized across calls.
func (fw *FixedWindow) evictStale(currentStart, windowSecs int64) {
	for key := range fw.counters {
		if key.windowStart < currentStart-windowSecs {
			delete(fw.counters, key)
		}
	}
}
