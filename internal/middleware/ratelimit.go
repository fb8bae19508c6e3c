package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/studyhub/studyhub-server/pkg/errors"
	"github.com/studyhub/studyhub-server/pkg/logger"
	"github.com/studyhub/studyhub-server/pkg/metrics"
	"github.com/studyhub/studyhub-server/pkg/response"
)

// RateLimitConfig describes a fixed-window limiter.
type RateLimitConfig struct {
	Name        string
	Store       RateStore
	MaxRequests int
	Window      time.Duration
}

// RateLimit returns a middleware that limits requests per (clientIP, route) within a fixed window.
// When the store fails the request is let through and the failure is logged.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	store := cfg.Store
	if store == nil {
		store = NewMemoryRateStore()
	}
	name := cfg.Name
	if name == "" {
		name = "default"
	}

	return func(c *gin.Context) {
		if cfg.MaxRequests <= 0 || cfg.Window <= 0 {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		key := name + "|" + c.ClientIP() + "|" + route

		count, resetIn, err := store.Increment(c.Request.Context(), key, cfg.Window)
		if err != nil {
			logger.WithModule("ratelimit").Warn("rate store unavailable",
				zap.String("limiter", name),
				zap.Error(err),
			)
			c.Next()
			return
		}

		remaining := cfg.MaxRequests - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if count > cfg.MaxRequests {
			metrics.RateLimited.WithLabelValues(name).Inc()
			c.Header("Retry-After", strconv.Itoa(int(resetIn.Seconds())+1))
			response.Abort(c, errors.ErrRateLimit)
			return
		}

		c.Next()
	}
}
