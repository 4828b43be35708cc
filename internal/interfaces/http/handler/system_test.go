package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shopledger/backend/tests/testutil"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }
func (p stubPinger) Driver() string             { return "sqlite" }

func serveSystem(h *SystemHandler, path string) *httptest.ResponseRecorder {
	router := gin.New()
	router.GET("/health", h.Health)
	router.GET("/system/info", h.GetSystemInfo)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy database", func(t *testing.T) {
		w := serveSystem(NewSystemHandler("shopledger", "test", stubPinger{}), "/health")

		require.Equal(t, http.StatusOK, w.Code)
		body := testutil.JSONResponse(t, w)
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, "ok", body["database"])
		assert.Equal(t, "sqlite", body["driver"])
	})

	t.Run("database down", func(t *testing.T) {
		w := serveSystem(NewSystemHandler("shopledger", "test", stubPinger{err: errors.New("connection refused")}), "/health")

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		body := testutil.JSONResponse(t, w)
		assert.Equal(t, "unhealthy", body["status"])
		assert.Equal(t, "error", body["database"])
	})

	t.Run("no database", func(t *testing.T) {
		w := serveSystem(NewSystemHandler("shopledger", "test", nil), "/health")

		require.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, testutil.JSONResponse(t, w), "database")
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	w := serveSystem(NewSystemHandler("shopledger", "1.2.3", nil), "/system/info")

	require.Equal(t, http.StatusOK, w.Code)
	data := testutil.ResponseData[map[string]any](t, w)
	assert.Equal(t, "shopledger", data["name"])
	assert.Equal(t, "1.2.3", data["version"])
	assert.NotEmpty(t, data["go_version"])
	assert.NotEmpty(t, data["uptime"])
}
