package http

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/pkg/logger"
)

func testConfig() *config.Config {
	return &config.Config{
		App:    config.AppConfig{Environment: "test", Version: "1.0.0"},
		Server: config.ServerConfig{Port: "0", MaxBodyBytes: 1 << 20, RequestTimeout: time.Second},
	}
}

func init() {
	gin.SetMode(gin.TestMode)
}

func TestServer_SetupMode(t *testing.T) {
	cfg := testConfig()
	status := config.BackendStatus{Missing: []string{"DB_PASSWORD", "MONGO_URI"}}

	srv := NewServer(cfg, status, nil, logger.Discard())

	for _, path := range []string{"/api/v1/cart", "/api/v1/products", "/api/v1/auth/login"} {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Contains(t, w.Body.String(), "DB_PASSWORD, MONGO_URI")
	}

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "setup_required")
}

func TestServer_HealthReportsFailingBackend(t *testing.T) {
	cfg := testConfig()
	deps := &Dependencies{
		Checks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
			"mongo":    func(context.Context) error { return errors.New("no primary") },
		},
	}

	srv := NewServer(cfg, config.BackendStatus{Configured: true}, deps, logger.Discard())

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), `"mongo":"unhealthy"`)
	assert.Contains(t, w.Body.String(), `"postgres":"healthy"`)

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
