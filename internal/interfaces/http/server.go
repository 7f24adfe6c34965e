// Package http provides the HTTP adapter for the form engine. It is a
// thin layer that translates HTTP requests to engine calls.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/KoushikN01/legal-ai-forms-sub001/internal/config"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/forms"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/notification"
	"github.com/KoushikN01/legal-ai-forms-sub001/internal/service"
)

// Server is the HTTP server adapter
type Server struct {
	config     config.ServerConfig
	httpServer *http.Server
	router     *gin.Engine
	engine     *service.Engine
	registry   *forms.Registry
	notifier   *notification.Service
	logger     *zap.Logger
}

// NewServer creates a new HTTP server wired to the form engine
func NewServer(
	cfg config.ServerConfig,
	engine *service.Engine,
	registry *forms.Registry,
	notifier *notification.Service,
	logger *zap.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	server := &Server{
		config:   cfg,
		router:   router,
		engine:   engine,
		registry: registry,
		notifier: notifier,
		logger:   logger,
	}

	server.setupMiddleware()
	server.setupRoutes()

	return server
}

// setupMiddleware configures middleware for the router
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
}

// loggingMiddleware creates a logging middleware
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		s.logger.Info("HTTP request",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
			zap.String("latency", latency.String()),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	handlers := NewHandlers(s.engine, s.registry, s.notifier, s.logger)

	// Health check
	s.router.GET("/health", handlers.HealthCheck)

	// API routes
	api := s.router.Group("/api/v1")
	{
		// Form schemas and voice extraction
		api.GET("/forms", handlers.ListForms)
		api.GET("/forms/:id", handlers.GetForm)
		api.POST("/forms/:id/extract", handlers.ExtractFormData)

		// Submissions and tracking
		api.POST("/submissions", handlers.CreateSubmission)
		api.GET("/submissions", handlers.ListSubmissions)
		api.GET("/track/:trackingId", handlers.TrackSubmission)
		api.POST("/track/:trackingId/refresh", handlers.RefreshStatus)

		// Notification preferences
		api.GET("/preferences", handlers.GetPreferences)
		api.PUT("/preferences", handlers.SetPreferences)

		// Local admin status updates
		api.POST("/admin/status-updates", handlers.ApplyStatusUpdate)
	}
}

// Start starts the HTTP server and blocks until ctx is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
	}

	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("HTTP server shutdown requested")
		return s.Stop()
	case err := <-errCh:
		s.logger.Error("HTTP server error", zap.Error(err))
		return err
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	s.logger.Info("Stopping HTTP server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Error("HTTP server shutdown error", zap.Error(err))
		return err
	}

	s.logger.Info("HTTP server stopped")
	return nil
}

// Router returns the underlying gin router (for testing)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Address returns the server address
func (s *Server) Address() string {
	return fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
}
