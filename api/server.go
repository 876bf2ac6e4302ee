package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"example.com/backstage/analytics/api/handlers"
	"example.com/backstage/analytics/config"
	"example.com/backstage/analytics/metrics"
	"example.com/backstage/analytics/tracing"
)

// Server represents the API server
type Server struct {
	cfg        config.ServerConfig
	router     *gin.Engine
	httpServer *http.Server
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	inbox handlers.Appender,
	importer handlers.BatchImporter,
	m *metrics.Metrics,
	tracer tracing.Tracer,
) *Server {
	router := gin.New()

	server := &Server{
		cfg:    cfg,
		router: router,
	}

	server.setupMiddleware(tracer)
	server.setupRoutes(inbox, importer, m)

	return server
}

// Handler returns the underlying http handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupMiddleware configures middleware for the server
func (s *Server) setupMiddleware(tracer tracing.Tracer) {
	s.router.Use(gin.Recovery())
	if tracer != nil && tracer.Application() != nil {
		s.router.Use(NewRelicMiddleware(tracer.Application()))
	}
	s.router.Use(RequestIDMiddleware())
	if s.cfg.CorsEnabled {
		s.router.Use(CORSMiddleware(s.cfg.CorsOrigins))
	}
	s.router.Use(LoggingMiddleware())
}

// setupRoutes configures API routes
func (s *Server) setupRoutes(inbox handlers.Appender, importer handlers.BatchImporter, m *metrics.Metrics) {
	s.router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	if s.cfg.MetricsEnabled {
		handlers.NewMetricsHandler(m).RegisterRoutes(s.router)
	}

	v1 := s.router.Group("/api/v1")
	handlers.NewEventHandler(inbox, importer, s.cfg.MaxBatchSize).RegisterRoutes(v1)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Address,
		Handler:      s.router,
		ReadTimeout:  s.cfg.Timeout,
		WriteTimeout: s.cfg.Timeout,
	}

	log.Info().Msgf("Starting API server on %s", s.cfg.Address)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	log.Info().Msg("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
