package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub/studyhub-server/pkg/metrics"
)

const unmatchedRoute = "unmatched"

// Metrics observes request latency labelled by route template, so
// /api/groups/:id is one series however many groups exist. Paths listed in
// skip (typically the metrics endpoint itself) are not observed.
func Metrics(skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, path := range skip {
		skipped[path] = struct{}{}
	}

	return func(c *gin.Context) {
		if _, ok := skipped[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		metrics.RequestsInFlight.Inc()
		start := time.Now()
		defer func() {
			metrics.RequestsInFlight.Dec()

			route := c.FullPath()
			if route == "" {
				route = unmatchedRoute
			}
			metrics.APILatency.
				WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).
				Observe(time.Since(start).Seconds())
		}()

		c.Next()
	}
}
