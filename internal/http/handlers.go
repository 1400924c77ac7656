package http

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/chat"
	"github.com/fyrsmithlabs/chatd/internal/knowledge"
	"github.com/fyrsmithlabs/chatd/internal/prompt"
	"github.com/fyrsmithlabs/chatd/internal/tracing"
)

// baseModels is the fixed list surfaced by GET /chat/models. Runtime model
// switching still validates against the provider's live list.
var baseModels = []string{
	"gpt-4o-mini",
	"gpt-3.5-turbo",
	"gpt-3.5-turbo-1106",
	"gpt-4",
	"gpt-4-1106-preview",
}

// ChatRequest is the request body for POST /chat/.
type ChatRequest struct {
	Message             string           `json:"message"`
	SessionID           string           `json:"session_id,omitempty"`
	ConversationHistory []HistoryMessage `json:"conversation_history,omitempty"`
	UserID              string           `json:"user_id,omitempty"`
	Temperature         *float64         `json:"temperature,omitempty"`
	Model               string           `json:"model,omitempty"`
}

// HistoryMessage is one caller-supplied prior turn.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatResponse is the response body for POST /chat/.
type ChatResponse struct {
	Response       string    `json:"response"`
	SessionID      string    `json:"session_id"`
	Timestamp      time.Time `json:"timestamp"`
	TokensUsed     *int      `json:"tokens_used,omitempty"`
	ResponseTimeMs *float64  `json:"response_time_ms,omitempty"`
	ModelUsed      string    `json:"model_used"`
	Intent         string    `json:"intent"`
	Structured     any       `json:"structured,omitempty"`
	RunID          string    `json:"run_id,omitempty"`
}

// HistoryTurn is one persisted turn in GET /chat/history responses.
type HistoryTurn struct {
	ID             int64     `json:"id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	Timestamp      time.Time `json:"timestamp"`
	TokensUsed     int       `json:"tokens_used"`
	ResponseTimeMs *float64  `json:"response_time_ms,omitempty"`
}

// AnalyticsResponse is the body for GET /chat/analytics.
type AnalyticsResponse struct {
	SessionID          string  `json:"session_id,omitempty"`
	SessionFound       bool    `json:"session_found"`
	TotalConversations int     `json:"total_conversations"`
	TotalMessages      int     `json:"total_messages"`
	AvgResponseTimeMs  float64 `json:"avg_response_time_ms"`
	TotalTokensUsed    int     `json:"total_tokens_used"`
	CurrentModel       string  `json:"current_model"`
}

func (s *Server) handleChat(c echo.Context) error {
	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if req.Message == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message field is required")
	}

	var history []prompt.Message
	if req.ConversationHistory != nil {
		history = make([]prompt.Message, 0, len(req.ConversationHistory))
		for _, m := range req.ConversationHistory {
			history = append(history, prompt.Message{
				Role:    prompt.MapRole(m.Role),
				Content: m.Content,
			})
		}
	}

	resp, err := s.service.Generate(c.Request().Context(), chat.Request{
		Message:     req.Message,
		SessionID:   req.SessionID,
		UserID:      req.UserID,
		History:     history,
		Temperature: req.Temperature,
		Model:       req.Model,
	})
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrInvalidTemperature):
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		default:
			return echo.NewHTTPError(http.StatusInternalServerError, "Error generating response: "+err.Error())
		}
	}

	out := ChatResponse{
		Response:       resp.Response,
		SessionID:      resp.SessionID,
		Timestamp:      resp.Timestamp,
		TokensUsed:     resp.TokensUsed,
		ResponseTimeMs: resp.ResponseTimeMs,
		ModelUsed:      resp.ModelUsed,
		Intent:         string(resp.Intent),
		RunID:          resp.RunID,
	}
	if resp.Structured != nil {
		out.Structured = resp.Structured.Value
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleHistory(c echo.Context) error {
	sessionID := c.Param("session_id")

	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	turns, err := s.service.History(c.Request().Context(), sessionID, limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching history: "+err.Error())
	}

	out := make([]HistoryTurn, 0, len(turns))
	for _, t := range turns {
		out = append(out, HistoryTurn{
			ID:             t.ID,
			Role:           t.Role,
			Content:        t.Content,
			Timestamp:      t.Timestamp,
			TokensUsed:     t.TokensUsed,
			ResponseTimeMs: t.ResponseTimeMs,
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) handleAnalytics(c echo.Context) error {
	sessionID := c.QueryParam("session_id")

	analytics, err := s.service.Analytics(c.Request().Context(), sessionID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching analytics: "+err.Error())
	}

	return c.JSON(http.StatusOK, AnalyticsResponse{
		SessionID:          analytics.SessionID,
		SessionFound:       analytics.SessionFound,
		TotalConversations: analytics.TotalConversations,
		TotalMessages:      analytics.TotalMessages,
		AvgResponseTimeMs:  analytics.AvgResponseTimeMs,
		TotalTokensUsed:    analytics.TotalTokensUsed,
		CurrentModel:       analytics.CurrentModel,
	})
}

func (s *Server) handleModelSwitch(c echo.Context) error {
	modelID := c.QueryParam("model_id")
	if modelID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "model_id parameter is required")
	}

	ok, err := s.service.SwitchModel(c.Request().Context(), modelID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error switching model: "+err.Error())
	}
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, "Model not available")
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":       true,
		"message":       "Model switched to " + modelID,
		"current_model": modelID,
	})
}

func (s *Server) handleModels(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"current_model":     s.service.CurrentModel(),
		"base_models":       baseModels,
		"fine_tuned_models": []string{},
	})
}

func (s *Server) handleFeedback(c echo.Context) error {
	runID := c.QueryParam("run_id")
	if runID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "run_id parameter is required")
	}

	score, err := strconv.ParseFloat(c.QueryParam("feedback_score"), 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "feedback_score must be a number")
	}
	comment := c.QueryParam("feedback_comment")

	if err := s.service.Feedback(c.Request().Context(), runID, score, comment); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not submit feedback: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Feedback submitted",
	})
}

func (s *Server) handleTracingAnalytics(c echo.Context) error {
	if !s.service.TracingEnabled() {
		return echo.NewHTTPError(http.StatusBadRequest, "Tracing service is not configured")
	}

	project := c.QueryParam("project_name")
	stats, err := s.service.TracingAnalytics(c.Request().Context(), project)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching tracing analytics: "+err.Error())
	}
	return c.JSON(http.StatusOK, stats)
}

// CreateDatasetRequest is the request body for POST /chat/create-dataset.
type CreateDatasetRequest struct {
	SessionIDs []string `json:"session_ids,omitempty"`
}

func (s *Server) handleCreateDataset(c echo.Context) error {
	name := c.QueryParam("dataset_name")
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "dataset_name parameter is required")
	}
	if !s.service.TracingEnabled() {
		return echo.NewHTTPError(http.StatusBadRequest, "Tracing service is not configured")
	}

	var req CreateDatasetRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx := c.Request().Context()

	sessionIDs := req.SessionIDs
	if len(sessionIDs) == 0 {
		summaries, err := s.service.Conversations(ctx)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Error listing conversations: "+err.Error())
		}
		for _, sum := range summaries {
			sessionIDs = append(sessionIDs, sum.SessionID)
		}
	}

	// Pair consecutive user/assistant turns into examples.
	var examples []tracing.DatasetExample
	for _, sessionID := range sessionIDs {
		turns, err := s.service.History(ctx, sessionID, 1000)
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "Error fetching history: "+err.Error())
		}
		for i := 0; i+1 < len(turns); i += 2 {
			if turns[i].Role != "user" || turns[i+1].Role != "assistant" {
				continue
			}
			examples = append(examples, tracing.DatasetExample{
				UserMessage:       turns[i].Content,
				AssistantResponse: turns[i+1].Content,
				SessionID:         sessionID,
				Model:             s.service.CurrentModel(),
			})
		}
	}

	if len(examples) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "No valid conversations found")
	}

	if err := s.service.CreateDataset(ctx, name, examples); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Could not create dataset: "+err.Error())
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success": true,
		"message": "Dataset '" + name + "' created with " + strconv.Itoa(len(examples)) + " examples",
	})
}

func (s *Server) handleKnowledge(c echo.Context) error {
	return c.JSON(http.StatusOK, knowledge.Summarize())
}

func (s *Server) handleTest(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"message":   "Chat API is up",
		"timestamp": time.Now(),
		"config": map[string]any{
			"max_conversation_history": s.config.MaxHistory,
			"tracing_enabled":          s.service.TracingEnabled(),
			"tracing_project":          s.service.TracingProject(),
		},
	})
}
