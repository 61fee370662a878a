package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aku-labs/academy-api/internal/middleware"
	"github.com/aku-labs/academy-api/internal/models"
	"github.com/aku-labs/academy-api/pkg/response"
)

type dashboardProvider interface {
	Snapshot(ctx context.Context) (*models.DashboardSnapshot, bool, error)
}

// DashboardHandler exposes the admin dashboard snapshot.
type DashboardHandler struct {
	dashboard dashboardProvider
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboard dashboardProvider) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard}
}

// Snapshot godoc
// @Summary Get the dashboard snapshot
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Snapshot(c *gin.Context) {
	snapshot, hit, err := h.dashboard.Snapshot(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, snapshot, nil, middleware.ExtractMeta(c))
}
