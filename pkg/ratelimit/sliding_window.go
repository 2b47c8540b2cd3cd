package ratelimit

import (
	"sync"
	"time"

	"github.com/mintshield/mintshield/pkg/clock"
	"github.com/mintshield/mintshield/pkg/errors"
)

// SlidingWindow rate limits over a continuously moving interval, tracked as
// a log of request timestamps per identifier. Entries older than the window
// are purged on every call for that identifier, which bounds memory for
// active identifiers.
type SlidingWindow struct {
	mutex   sync.Mutex
	windows map[string][]time.Time
	clock   clock.Clock
}

// NewSlidingWindow creates a sliding window limiter.
func NewSlidingWindow(clk clock.Clock) *SlidingWindow {
	if clk == nil {
		clk = clock.New()
	}
	return &SlidingWindow{
		windows: make(map[string][]time.Time),
		clock:   clk,
	}
}

// Allow admits the request if fewer than limit requests were recorded for
// identifier within the trailing window.
func (sw *SlidingWindow) Allow(identifier string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 || window <= 0 {
		return false, errors.NewInvalidArgumentError("sliding window limit and window must be positive")
	}

	now := sw.clock.Now()
	cutoff := now.Add(-window)

	sw.mutex.Lock()
	defer sw.mutex.Unlock()

	timestamps := sw.windows[identifier]

	// Drop entries older than the window. Timestamps are appended in order,
	// so the retained suffix starts at the first one past the cutoff.
	keep := 0
	for keep < len(timestamps) && !timestamps[keep].After(cutoff) {
		keep++
	}
	timestamps = timestamps[keep:]

	if len(timestamps) >= limit {
		sw.windows[identifier] = timestamps
		return false, nil
	}

	sw.windows[identifier] = append(timestamps, now)
	return true, nil
}
