package http

import (
	"net/http"
	"runtime"
	"time"

	"github.com/labstack/echo/v4"
)

const serviceVersion = "1.0.0"

// HealthResponse is the body for GET /health/.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Service   string    `json:"service"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now(),
		Version:   serviceVersion,
		Service:   "Portfolio Chatbot API",
	})
}

func (s *Server) handleHealthDetailed(c echo.Context) error {
	configured := map[string]bool{
		"chat_service_configured": s.service != nil,
		"tracing_configured":      s.service.TracingEnabled(),
	}

	status := "healthy"
	if !configured["chat_service_configured"] {
		status = "unhealthy"
	}

	return c.JSON(http.StatusOK, map[string]any{
		"status":    status,
		"timestamp": time.Now(),
		"version":   serviceVersion,
		"services": map[string]any{
			"configuration": map[string]any{
				"status":  status,
				"details": configured,
			},
		},
	})
}

func (s *Server) handleHealthMetrics(c echo.Context) error {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return c.JSON(http.StatusOK, map[string]any{
		"timestamp":      time.Now(),
		"uptime_seconds": time.Since(s.started).Seconds(),
		"goroutines":     runtime.NumGoroutine(),
		"heap_bytes":     mem.HeapAlloc,
		"current_model":  s.service.CurrentModel(),
	})
}
