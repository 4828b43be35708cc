package middleware

import (
	"net/http"
	"net/http/httptest"
	"runtime/pprof"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestProfilingWithConfig_Disabled(t *testing.T) {
	router := gin.New()
	router.Use(ProfilingWithConfig(ProfilingConfig{Enabled: false}))

	called := false
	router.GET("/test", func(c *gin.Context) {
		called = true
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/test", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
}

func TestProfilingWithConfig_Labels(t *testing.T) {
	router := gin.New()
	router.Use(ProfilingWithConfig(DefaultProfilingConfig()))

	var route, controller, method string
	router.GET("/api/v1/inventories/:id/movements", func(c *gin.Context) {
		ctx := c.Request.Context()
		route, _ = pprof.Label(ctx, "route")
		controller, _ = pprof.Label(ctx, "controller")
		method, _ = pprof.Label(ctx, "method")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/inventories/42/movements", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "/api/v1/inventories/:id/movements", route)
	assert.Equal(t, "inventories", controller)
	assert.Equal(t, http.MethodGet, method)
}

func TestProfilingWithConfig_SkipPaths(t *testing.T) {
	router := gin.New()
	router.Use(ProfilingWithConfig(DefaultProfilingConfig()))

	var hasLabel bool
	router.GET("/health", func(c *gin.Context) {
		_, hasLabel = pprof.Label(c.Request.Context(), "route")
		c.Status(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.False(t, hasLabel)
}

func TestControllerFromRoute(t *testing.T) {
	tests := map[string]string{
		"/api/v1/products/:id":              "products",
		"/api/v1/units/product/:product_id": "units",
		"/api/v2/overview":                  "overview",
		"/health":                           "health",
		"":                                  "",
		"/api/v1/:id":                       "",
	}
	for route, want := range tests {
		assert.Equal(t, want, controllerFromRoute(route), route)
	}
}
