package middleware

import (
	"strconv"
	"time"

	"github.com/campusmarket/marketplace-service/internal/platform/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records per-route latency and error counts. The route label
// uses the gin route template, not the raw path, to keep cardinality
// bounded.
func Metrics(m *metrics.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.HTTPLatency.WithLabelValues(route).Observe(time.Since(start).Seconds())
		if status := c.Writer.Status(); status >= 400 {
			m.HTTPErrorsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
		}
	}
}
