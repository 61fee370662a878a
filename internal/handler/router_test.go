package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

// Feature-gated handlers stay nil when their feature is disabled; their
// routes must not be mounted at all, or the first request would hit a
// nil receiver.
func TestRegisterRoutesSkipsDisabledFeatures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterRoutes(r, "", nil, nil, Handlers{})

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/reports/download/some-token"},
		{http.MethodPost, "/api/v1/reports"},
		{http.MethodGet, "/api/v1/dashboard"},
		{http.MethodPost, "/api/v1/imports/students"},
		{http.MethodGet, "/metrics"},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(tc.method, tc.path, nil)
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s should not be mounted", tc.method, tc.path)
	}
}
