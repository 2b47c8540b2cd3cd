package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// RecordAPICall records request count, outcome and timing for one HTTP
// exchange.
func (c *Collector) RecordAPICall(endpoint, method string, statusCode int, duration time.Duration) {
	tags := Tags{
		"endpoint":    endpoint,
		"method":      method,
		"status_code": strconv.Itoa(statusCode),
	}

	c.Inc("api.requests", tags)
	c.RecordTiming("api.request", duration, tags)

	if statusCode >= 200 && statusCode < 300 {
		c.Inc("api.success", tags)
	} else {
		c.Inc("api.error", tags)
	}
}

// HTTPMiddleware returns a gin middleware that reports every request into
// the collector.
func HTTPMiddleware(collector *Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}

		collector.RecordAPICall(path, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
