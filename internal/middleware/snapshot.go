package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/service"
)

// InvalidateSnapshot drops the cached dashboard snapshot after a
// successful mutation on a ledger-bearing route group. Best effort: a
// failed invalidation never fails the request, the snapshot just goes
// stale until its TTL expires.
func InvalidateSnapshot(dashboards *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if dashboards == nil {
			return
		}
		if c.Request.Method == http.MethodGet {
			return
		}
		if c.Writer.Status() >= http.StatusBadRequest {
			return
		}
		dashboards.Invalidate(c.Request.Context())
	}
}
