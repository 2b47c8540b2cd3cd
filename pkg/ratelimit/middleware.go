package ratelimit

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mintshield/mintshield/pkg/logging"
)

// Limiter is the admission-control surface shared by the three strategies
// once their parameters are bound.
type Limiter interface {
	Allow(identifier string) (bool, error)
}

// LimiterFunc adapts a function to the Limiter interface.
type LimiterFunc func(identifier string) (bool, error)

func (f LimiterFunc) Allow(identifier string) (bool, error) {
	return f(identifier)
}

// BindTokenBucket fixes a token bucket's parameters into a Limiter.
func BindTokenBucket(tb *TokenBucket, capacity, refillRate float64) Limiter {
	return LimiterFunc(func(identifier string) (bool, error) {
		return tb.Allow(identifier, capacity, refillRate)
	})
}

// BindSlidingWindow fixes a sliding window's parameters into a Limiter.
func BindSlidingWindow(sw *SlidingWindow, limit int, window time.Duration) Limiter {
	return LimiterFunc(func(identifier string) (bool, error) {
		return sw.Allow(identifier, limit, window)
	})
}

// BindFixedWindow fixes a fixed window's parameters into a Limiter.
func BindFixedWindow(fw *FixedWindow, limit int, window time.Duration) Limiter {
	return LimiterFunc(func(identifier string) (bool, error) {
		return fw.Allow(identifier, limit, window)
	})
}

// BindRedisFixedWindow fixes a distributed fixed window's parameters into a
// Limiter. Checks run against a background context since the middleware has
// no request deadline to propagate.
func BindRedisFixedWindow(rl *RedisFixedWindow, limit int, window time.Duration) Limiter {
	return LimiterFunc(func(identifier string) (bool, error) {
		return rl.Allow(context.Background(), identifier, limit, window)
	})
}

// Middleware returns a gin middleware that admits or rejects requests via
// the limiter, keyed by client IP. Denied requests get a 429; a malformed
// limiter configuration is logged and also denies.
func Middleware(limiter Limiter, logger *logging.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = logging.GetLogger()
	}

	return func(c *gin.Context) {
		identifier := c.ClientIP()

		allowed, err := limiter.Allow(identifier)
		if err != nil {
			logger.Error("Rate limiter check failed",
				"identifier", identifier,
				"path", c.Request.URL.Path,
				"error", err.Error(),
			)
		}

		if !allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
