package config

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, mutate func(c *Config)) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := validConfig()
	cfg.Security.CORS = CORSConfig{
		AllowedOrigins:   []string{"http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	}
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())

	deps, err := NewDependencies(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(deps.Close)

	return NewRouter(cfg, deps)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRouterHealthAndMetrics(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = serve(r, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouterCORSPreflight(t *testing.T) {
	r := newTestRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/twitter/tweet", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := serve(r, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Equal(t, "600", w.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodOptions, "/api/twitter/tweet", nil)
	req.Header.Set("Origin", "http://evil.example.test")
	w = serve(r, req)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouterProtectsAPI(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/api/twitter/user?username=bob", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouterLoginWithoutTwitterConfig(t *testing.T) {
	r := newTestRouter(t, nil)

	w := serve(r, httptest.NewRequest(http.MethodGet, "/auth/twitter", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "oauth_config_missing")
}

func TestRouterRateLimit(t *testing.T) {
	r := newTestRouter(t, func(c *Config) {
		c.Security.RateLimit = RateLimitConfig{Enabled: true, RequestsPerMinute: 1, Burst: 1}
	})

	w := serve(r, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// health не лімітується
	w = serve(r, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewDependenciesMemoryBackend(t *testing.T) {
	cfg := validConfig()
	cfg.Security.Session.Backend = "memory"
	cfg.Security.Session.Secret = "s3cret"

	deps, err := NewDependencies(context.Background(), cfg)
	require.NoError(t, err)
	defer deps.Close()

	assert.Equal(t, "memory", deps.Backend)
	assert.NotNil(t, deps.Provider)
}
