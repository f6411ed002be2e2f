/*
internal/server/server.go
Package server provides HTTP server setup and routing for the opsight
log façade.
*/

package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opsightlabs/opsight/internal/audit"
	"github.com/opsightlabs/opsight/internal/config"
	"github.com/opsightlabs/opsight/internal/datadog"
	"github.com/opsightlabs/opsight/internal/middleware"
)

// Backend is the slice of the Datadog client the handlers consume.
type Backend interface {
	Search(ctx context.Context, filter, from, to string, limit int) (json.RawMessage, error)
	Submit(ctx context.Context, entries []datadog.Entry) error
}

// Server represents the opsight HTTP server.
type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	backend    Backend
	store      audit.Store
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates the HTTP server with all middleware and routes wired.
func NewServer(cfg *config.Config, logger *slog.Logger, backend Backend, store audit.Store) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.RedirectTrailingSlash = false
	router.RedirectFixedPath = false

	server := &Server{
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		store:   store,
		router:  router,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server, nil
}

// setupMiddleware configures middleware in the correct order.
func (s *Server) setupMiddleware() {
	// Recovery first so it catches panics from everything downstream.
	s.router.Use(middleware.RecoveryMiddleware(s.logger))

	if s.cfg.CORS.Enabled {
		s.router.Use(middleware.CORSMiddleware(middleware.CORSConfig{
			AllowedOrigins: s.cfg.CORS.AllowedOrigins,
			AllowedMethods: s.cfg.CORS.AllowedMethods,
			AllowedHeaders: s.cfg.CORS.AllowedHeaders,
		}))
	}

	s.router.Use(middleware.RequestIDMiddleware())
	s.router.Use(middleware.LoggingMiddleware(s.logger, s.store))

	if s.cfg.RateLimiting.Enabled {
		s.router.Use(middleware.RateLimitMiddleware(
			s.cfg.RateLimiting.RequestsPerSecond,
			s.cfg.RateLimiting.Burst,
		))
	}
}

// setupRoutes registers the inbound surface.
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)
	s.router.POST("/logs/search", s.handleSearch)
	s.router.POST("/logs/search/timerange", s.handleSearchTimerange)
	s.router.POST("/logs/submit", s.handleSubmit)
	s.router.GET("/admin/logs", s.handleRecentAudit)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// Router exposes the gin engine (useful for tests).
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server and blocks until shutdown.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	s.logger.Info("opsight listening", slog.String("address", addr))
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
