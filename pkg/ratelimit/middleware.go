package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"easymo/pkg/metrics"
)

type Config struct {
	MaxRequests int
	Window      time.Duration
}

// Middleware applies the fixed-window limiter keyed by client IP. The store
// is owned by the caller so the webhook handler can share it for
// per-sender limiting after the payload is parsed.
func Middleware(store *Store, cfg Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.ClientIP()
		if key == "" {
			key = c.RemoteIP()
		}

		if store.Check(key, cfg.MaxRequests, cfg.Window) {
			metrics.RateLimitRequestsTotal.WithLabelValues("limited").Inc()
			c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
			c.Header("X-RateLimit-Remaining", "0")
			c.Header("Retry-After", strconv.Itoa(int(cfg.Window.Seconds())))
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":      "rate limit exceeded",
				"error_code": "RATE_LIMITED",
			})
			c.Abort()
			return
		}

		metrics.RateLimitRequestsTotal.WithLabelValues("allowed").Inc()
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Next()
	}
}
