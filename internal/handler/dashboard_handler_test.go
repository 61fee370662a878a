package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/aku-labs/academy-api/internal/models"
	appErrors "github.com/aku-labs/academy-api/pkg/errors"
)

type fakeDashboardSrv struct {
	snapshot *models.DashboardSnapshot
	hit      bool
	err      error
}

func (f *fakeDashboardSrv) Snapshot(context.Context) (*models.DashboardSnapshot, bool, error) {
	return f.snapshot, f.hit, f.err
}

func TestDashboardHandlerSnapshot(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{
		snapshot: &models.DashboardSnapshot{ActiveStudents: 12, AttendanceThisWeek: 7},
		hit:      true,
	})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Snapshot(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]interface{} `json:"data"`
		Meta map[string]interface{} `json:"meta"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, float64(12), envelope.Data["active_students"])
	assert.Equal(t, float64(7), envelope.Data["attendance_this_week"])
	assert.Equal(t, true, envelope.Meta["cache_hit"])
}

func TestDashboardHandlerSnapshotError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewDashboardHandler(&fakeDashboardSrv{err: appErrors.ErrInternal})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/dashboard", nil)

	handler.Snapshot(c)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
