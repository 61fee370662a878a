package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/service"
)

// Metrics times every request and feeds the Prometheus collectors. The
// scrape endpoint itself is excluded to keep its cardinality out.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
