// internal/interfaces/http/server.go
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/your-org/storefront-backend/internal/config"
	"github.com/your-org/storefront-backend/internal/interfaces/http/middleware"
	"github.com/your-org/storefront-backend/internal/interfaces/http/routes"
)

// HealthCheck pings one backend
type HealthCheck func(ctx context.Context) error

// Dependencies are the wired services. They are nil while the backend is
// unconfigured; the server then only answers with the setup notice.
type Dependencies struct {
	Handlers *routes.Handlers
	Sessions middleware.SessionResolver
	Redis    *redis.Client
	Checks   map[string]HealthCheck
}

// Server represents the HTTP server
type Server struct {
	config     *config.Config
	status     config.BackendStatus
	deps       *Dependencies
	log        *logrus.Logger
	gin        *gin.Engine
	httpServer *http.Server
	startedAt  time.Time
}

// NewServer creates a new HTTP server instance and registers its routes
func NewServer(cfg *config.Config, status config.BackendStatus, deps *Dependencies, log *logrus.Logger) *Server {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:    cfg,
		status:    status,
		deps:      deps,
		log:       log,
		gin:       gin.New(),
		startedAt: time.Now(),
	}

	if len(cfg.Security.TrustedProxies) > 0 {
		if err := s.gin.SetTrustedProxies(cfg.Security.TrustedProxies); err != nil {
			log.WithError(err).Warn("invalid trusted proxies, ignoring")
		}
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      s.gin,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.gin
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.WithFields(logrus.Fields{
		"port":       s.config.Server.Port,
		"configured": s.status.Configured,
	}).Info("HTTP server starting")

	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown HTTP server: %w", err)
	}

	s.log.Info("HTTP server stopped")
	return nil
}

func (s *Server) setupMiddleware() {
	s.gin.Use(gin.Recovery())
	s.gin.Use(middleware.RequestID())
	s.gin.Use(middleware.Logger(s.log))
	s.gin.Use(middleware.CORS(s.config))
	s.gin.Use(middleware.SecurityHeaders())

	if s.deps != nil && s.deps.Redis != nil {
		s.gin.Use(middleware.RateLimit(s.config, s.deps.Redis, s.log))
	}

	s.gin.Use(middleware.RequestSizeLimit(s.config.Server.MaxBodyBytes))
	s.gin.Use(middleware.Timeout(s.config.Server.RequestTimeout))
}

func (s *Server) setupRoutes() {
	s.gin.GET("/health", s.healthCheck)
	s.gin.GET("/ready", s.readinessCheck)

	apiV1 := s.gin.Group("/api/v1")
	apiV1.Use(middleware.SetupGuard(s.status))

	if !s.status.Configured || s.deps == nil || s.deps.Handlers == nil {
		// The guard answers before this handler runs.
		apiV1.Any("/*path", func(c *gin.Context) {})
		return
	}

	routes.SetupRoutes(apiV1, s.deps.Handlers, middleware.AuthMiddleware(s.deps.Sessions, s.log))

	if s.config.IsDevelopment() {
		s.gin.Static("/uploads", s.config.Storage.LocalPath)
	}
}

// healthCheck reports the state of every backend
func (s *Server) healthCheck(c *gin.Context) {
	if !s.status.Configured {
		c.JSON(http.StatusOK, gin.H{
			"status":  "setup_required",
			"message": s.status.SetupNotice(),
			"missing": s.status.Missing,
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	if s.deps != nil {
		for name, check := range s.deps.Checks {
			if err := check(ctx); err != nil {
				s.log.WithError(err).WithField("backend", name).Warn("health check failed")
				checks[name] = "unhealthy"
				healthy = false
				continue
			}
			checks[name] = "healthy"
		}
	}

	status, code := "healthy", http.StatusOK
	if !healthy {
		status, code = "unhealthy", http.StatusServiceUnavailable
	}

	c.JSON(code, gin.H{
		"status":      status,
		"checks":      checks,
		"timestamp":   time.Now().UTC(),
		"version":     s.config.App.Version,
		"environment": s.config.App.Environment,
	})
}

// readinessCheck reports whether the server accepts API traffic
func (s *Server) readinessCheck(c *gin.Context) {
	if !s.status.Configured {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "setup_required",
			"message": s.status.SetupNotice(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":    "ready",
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(s.startedAt).Round(time.Second).String(),
	})
}
