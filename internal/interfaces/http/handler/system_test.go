package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSystemHandler_Info(t *testing.T) {
	h := NewSystemHandler("1.2.3", nil)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	h.Info(c)

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decode(t, w)
	data := resp.Data.(map[string]any)
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
}

func TestSystemHandler_Health(t *testing.T) {
	ok := HealthCheckFunc(func(context.Context) error { return nil })
	down := HealthCheckFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		checks map[string]HealthChecker
		status int
		deps   map[string]string
	}{
		{"no dependencies", nil, http.StatusOK, map[string]string{}},
		{"all up", map[string]HealthChecker{"database": ok, "redis": ok}, http.StatusOK,
			map[string]string{"database": "ok", "redis": "ok"}},
		{"redis down", map[string]HealthChecker{"database": ok, "redis": down}, http.StatusServiceUnavailable,
			map[string]string{"database": "ok", "redis": "error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/health", NewSystemHandler("dev", tt.checks).Health)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.status, w.Code)
			var resp HealthResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.deps, resp.Dependencies)
		})
	}
}

func TestSystemHandler_Ping(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	NewSystemHandler("dev", nil).Ping(c)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pong")
}
