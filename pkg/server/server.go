// Package server exposes the recognition engine over HTTP: a graceful
// Echo-based server with a health check, a Prometheus scrape endpoint,
// and the single recognize() entry point from the recognition pipeline.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nluengine/nluengine/internal/config"
	"github.com/nluengine/nluengine/internal/engine"
	"github.com/nluengine/nluengine/internal/logging"
)

// Server is the HTTP transport in front of a recognition engine.
type Server struct {
	config *config.Config
	engine *engine.Engine
	logger *logging.Logger
	echo   *echo.Echo
}

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// RecognizeRequest is the JSON body for POST /recognize.
//
// Domain and SessionID are optional. An empty or whitespace-only Text
// yields a "none" result rather than an error.
type RecognizeRequest struct {
	Text      string  `json:"text"`
	Domain    *string `json:"domain,omitempty"`
	SessionID string  `json:"session_id,omitempty"`
}

// NewServer wires an Echo router around eng using cfg's HTTP settings.
//
// The server includes:
//   - Echo router for HTTP routing
//   - Recover and request-ID middleware
//   - POST /recognize, GET /health, GET /metrics
//   - Graceful shutdown support
func NewServer(cfg *config.Config, eng *engine.Engine, logger *logging.Logger) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: func() string { return uuid.NewString() },
	}))

	s := &Server{
		config: cfg,
		engine: eng,
		logger: logger,
		echo:   e,
	}

	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	s.echo.POST("/recognize", s.handleRecognize)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: "nluengine"})
}

// handleRecognize exposes the recognition entry point over HTTP,
// serializing the resulting IntentData as JSON.
func (s *Server) handleRecognize(c echo.Context) error {
	var req RecognizeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()
	if requestID := c.Response().Header().Get(echo.HeaderXRequestID); requestID != "" {
		ctx = logging.WithRequestID(ctx, requestID)
	}
	if req.SessionID != "" {
		ctx = logging.WithSessionID(ctx, req.SessionID)
	}

	result := s.engine.Recognize(ctx, req.Text, req.Domain)

	if s.logger != nil {
		s.logger.Debug(ctx, "recognized",
			zap.String("intent", result.Intent),
			zap.String("domain", result.Domain),
			zap.String("method", string(result.Method)),
			s.logger.RawText("text", req.Text))
	}

	return c.JSON(http.StatusOK, result)
}

// Start starts the HTTP server and blocks until ctx is cancelled.
//
// Returns http.ErrServerClosed on graceful shutdown, or any other error
// encountered during startup or shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf(":%d", s.config.Server.HTTPPort)

	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.Server.ShutdownTimeout)
		defer cancel()

		if err := s.echo.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Echo returns the underlying Echo instance for registering additional
// routes in tests or extensions.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
