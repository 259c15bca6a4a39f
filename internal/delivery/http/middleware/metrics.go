package middleware

import (
	"time"

	"cricket-club-backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics records request duration by route template.
func HTTPMetrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.ObserveHTTP(path, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}
