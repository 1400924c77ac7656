// Package http provides the HTTP API for chatd.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/store"
	"github.com/fyrsmithlabs/chatd/internal/tracing"
)

// ChatService is the orchestrator interface consumed by the HTTP handlers.
type ChatService interface {
	Generate(ctx context.Context, req chat.Request) (*chat.Response, error)
	History(ctx context.Context, sessionID string, limit int) ([]store.Turn, error)
	Analytics(ctx context.Context, sessionID string) (*chat.Analytics, error)
	SwitchModel(ctx context.Context, modelID string) (bool, error)
	CurrentModel() string
	Conversations(ctx context.Context) ([]store.Summary, error)
	Feedback(ctx context.Context, runID string, score float64, comment string) error
	TracingAnalytics(ctx context.Context, project string) (map[string]any, error)
	CreateDataset(ctx context.Context, name string, examples []tracing.DatasetExample) error
	TracingEnabled() bool
	TracingProject() string
}

// Config holds HTTP server configuration.
type Config struct {
	Host           string
	Port           int
	AllowedOrigins []string
	RateLimit      float64 // requests per second on /chat, 0 disables
	MaxHistory     int     // surfaced by the config-visibility endpoint
}

// Server provides the chatd HTTP endpoints.
type Server struct {
	echo    *echo.Echo
	service ChatService
	logger  *zap.Logger
	config  Config
	started time.Time
}

// NewServer creates the HTTP server with middleware and routes registered.
func NewServer(service ChatService, logger *zap.Logger, cfg Config) (*Server, error) {
	if service == nil {
		return nil, fmt.Errorf("chat service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())

	s := &Server{
		echo:    e,
		service: service,
		logger:  logger,
		config:  cfg,
		started: time.Now(),
	}
	s.registerRoutes()

	return s, nil
}

func (s *Server) registerRoutes() {
	chatGroup := s.echo.Group("/chat")
	if s.config.RateLimit > 0 {
		chatGroup.Use(middleware.RateLimiter(
			middleware.NewRateLimiterMemoryStore(rate.Limit(s.config.RateLimit)),
		))
	}

	chatGroup.POST("/", s.handleChat)
	chatGroup.GET("/history/:session_id", s.handleHistory)
	chatGroup.GET("/analytics", s.handleAnalytics)
	chatGroup.POST("/model/switch", s.handleModelSwitch)
	chatGroup.GET("/models", s.handleModels)
	chatGroup.POST("/feedback", s.handleFeedback)
	chatGroup.GET("/langsmith-analytics", s.handleTracingAnalytics)
	chatGroup.POST("/create-dataset", s.handleCreateDataset)
	chatGroup.GET("/knowledge", s.handleKnowledge)
	chatGroup.POST("/test", s.handleTest)

	health := s.echo.Group("/health")
	health.GET("/", s.handleHealth)
	health.GET("/detailed", s.handleHealthDetailed)
	health.GET("/metrics", s.handleHealthMetrics)

	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// ServeHTTP makes the server usable with httptest.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
