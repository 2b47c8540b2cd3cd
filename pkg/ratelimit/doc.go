// Package ratelimit provides three independent admission-control
// strategies, each keyed by an arbitrary identifier string:
//
//   - TokenBucket: a continuously refilled per-identifier token pool,
//     refilled lazily at check time.
//   - SlidingWindow: a log of request timestamps over a moving interval.
//   - FixedWindow: counters over discrete windows aligned to boundary
//     multiples of the window size, with lazy eviction of stale windows.
//
// Denial is a boolean outcome, not an error; the only error condition is
// malformed configuration (non-positive capacity, limit, window or refill
// rate), which denies and returns an invalid-argument error.
//
// RedisFixedWindow shares fixed-window counters across processes and falls
// back to the in-process implementation when Redis is unavailable.
package ratelimit
