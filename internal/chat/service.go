// Package chat orchestrates the conversation pipeline.
//
// The service ties the pieces together per request: classify intent, assemble
// the prompt, invoke the model, then hand the finished turn to a write-behind
// persistence queue and the tracing client. Failures writing history never
// fail a chat response.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/intent"
	"github.com/fyrsmithlabs/chatd/internal/llm"
	"github.com/fyrsmithlabs/chatd/internal/prompt"
	"github.com/fyrsmithlabs/chatd/internal/store"
	"github.com/fyrsmithlabs/chatd/internal/tracing"
)

var (
	// ErrEmptyMessage indicates a request without a user message.
	ErrEmptyMessage = errors.New("message must not be empty")

	// ErrInvalidTemperature indicates a temperature outside [0, 2].
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
)

// Store is the conversation persistence interface consumed by the service.
type Store interface {
	AppendTurn(ctx context.Context, sessionID, userID, role, content string, tokensUsed int, responseTimeMs *float64) error
	History(ctx context.Context, sessionID string, limit int) ([]store.Turn, error)
	Aggregate(ctx context.Context, sessionID string) (*store.SessionAggregate, error)
	AggregateAll(ctx context.Context) (*store.GlobalAggregate, error)
	Conversations(ctx context.Context) ([]store.Summary, error)
}

// Tracer is the external trace/feedback interface consumed by the service.
type Tracer interface {
	Enabled() bool
	Project() string
	LogRun(run tracing.Run) string
	LogFeedback(ctx context.Context, runID string, score float64, comment string) error
	Analytics(ctx context.Context, project string) (map[string]any, error)
	CreateDataset(ctx context.Context, name string, examples []tracing.DatasetExample) error
}

// Config holds orchestrator configuration.
type Config struct {
	DefaultModel     string
	Temperature      float64
	MaxHistory       int
	PersistQueueSize int
	RequestTimeout   time.Duration
}

// Request is one inbound chat request.
type Request struct {
	Message     string
	SessionID   string // generated when empty
	UserID      string
	History     []prompt.Message // caller-supplied; nil loads from the store
	Temperature *float64         // nil uses the configured default
	Model       string           // overrides the current model for this request
}

// Response is the normalized result of one chat exchange.
type Response struct {
	Response       string
	SessionID      string
	Timestamp      time.Time
	TokensUsed     *int
	ResponseTimeMs *float64
	ModelUsed      string
	Intent         intent.Intent
	Structured     *prompt.Structured
	RunID          string // tracing run id, empty when tracing is disabled
}

// Analytics is the rollup returned by the analytics endpoint.
type Analytics struct {
	SessionID          string
	SessionFound       bool
	TotalConversations int
	TotalMessages      int
	AvgResponseTimeMs  float64
	TotalTokensUsed    int
	CurrentModel       string
}

// Service coordinates the conversation pipeline.
type Service struct {
	llm       llm.Client
	store     Store
	tracer    Tracer
	assembler *prompt.Assembler
	logger    *zap.Logger
	config    Config

	// model selection, written only by SwitchModel
	modelMu      sync.RWMutex
	currentModel string

	queue     chan persistJob
	wg        sync.WaitGroup
	closeOnce sync.Once
}

type persistJob struct {
	sessionID        string
	userID           string
	userContent      string
	assistantContent string
	tokensUsed       int
	responseTimeMs   float64
}

// New creates the chat service and starts its persistence worker.
func New(cfg Config, client llm.Client, st Store, tracer Tracer, knowledgeBase string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		llm:          client,
		store:        st,
		tracer:       tracer,
		assembler:    prompt.NewAssembler(knowledgeBase, cfg.MaxHistory),
		logger:       logger,
		config:       cfg,
		currentModel: cfg.DefaultModel,
		queue:        make(chan persistJob, cfg.PersistQueueSize),
	}

	s.wg.Add(1)
	go s.persistWorker()

	return s
}

// Generate handles one chat exchange end to end.
//
// The upstream call is bounded by the configured request timeout. The user
// and assistant turns are enqueued for write-behind persistence after the
// response is ready; a full queue drops the turn rather than blocking.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, ErrEmptyMessage
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return nil, ErrInvalidTemperature
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	history := req.History
	if history == nil {
		history = s.loadHistory(ctx, sessionID)
	}

	classified := intent.Classify(req.Message)
	bundle := s.assembler.Assemble(classified, req.Message, history)

	model := req.Model
	if model == "" {
		model = s.CurrentModel()
	}

	temperature := s.config.Temperature
	if req.Temperature != nil {
		temperature = *req.Temperature
	}

	generateCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("intent", string(classified)),
	))

	callCtx, cancel := context.WithTimeout(ctx, s.config.RequestTimeout)
	defer cancel()

	start := time.Now()
	result, err := s.llm.Generate(callCtx, bundle, model, temperature)
	elapsed := time.Since(start)
	generateDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(
		attribute.String("model", model),
	))

	if err != nil {
		s.logger.Error("completion failed",
			zap.String("session_id", sessionID),
			zap.String("model", model),
			zap.Error(err))
		return nil, err
	}

	elapsedMs := float64(elapsed.Milliseconds())
	now := time.Now()

	s.enqueuePersist(persistJob{
		sessionID:        sessionID,
		userID:           req.UserID,
		userContent:      req.Message,
		assistantContent: result.Raw,
		tokensUsed:       result.TokensUsed,
		responseTimeMs:   elapsedMs,
	})

	runID := s.tracer.LogRun(tracing.Run{
		Name:      "chat",
		Input:     req.Message,
		Output:    result.Raw,
		Model:     model,
		SessionID: sessionID,
		Intent:    string(classified),
		StartTime: start,
		EndTime:   now,
	})

	resp := &Response{
		Response:       result.Raw,
		SessionID:      sessionID,
		Timestamp:      now,
		ResponseTimeMs: &elapsedMs,
		ModelUsed:      model,
		Intent:         classified,
		Structured:     result.Structured,
		RunID:          runID,
	}
	if result.TokensUsed > 0 {
		tokens := result.TokensUsed
		resp.TokensUsed = &tokens
	}
	return resp, nil
}

// loadHistory fetches recent turns for prompt context. Store failures here
// degrade to an empty history rather than failing the request.
func (s *Service) loadHistory(ctx context.Context, sessionID string) []prompt.Message {
	turns, err := s.store.History(ctx, sessionID, s.config.MaxHistory)
	if err != nil {
		s.logger.Warn("failed to load history, continuing without context",
			zap.String("session_id", sessionID),
			zap.Error(err))
		return nil
	}

	messages := make([]prompt.Message, 0, len(turns))
	for _, t := range turns {
		messages = append(messages, prompt.Message{
			Role:    prompt.MapRole(t.Role),
			Content: t.Content,
		})
	}
	return messages
}

func (s *Service) enqueuePersist(job persistJob) {
	select {
	case s.queue <- job:
	default:
		persistDroppedCounter.Add(context.Background(), 1)
		s.logger.Warn("persist queue full, dropping turn",
			zap.String("session_id", job.sessionID))
	}
}

// persistWorker drains the queue one job at a time so turns for a session
// land in enqueue order.
func (s *Service) persistWorker() {
	defer s.wg.Done()

	for job := range s.queue {
		s.persistExchange(job)
	}
}

func (s *Service) persistExchange(job persistJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.store.AppendTurn(ctx, job.sessionID, job.userID, "user", job.userContent, 0, nil); err != nil {
		persistFailureCounter.Add(ctx, 1)
		s.logger.Error("failed to persist user turn",
			zap.String("session_id", job.sessionID),
			zap.Error(err))
		return
	}

	responseTime := job.responseTimeMs
	if err := s.store.AppendTurn(ctx, job.sessionID, job.userID, "assistant", job.assistantContent, job.tokensUsed, &responseTime); err != nil {
		persistFailureCounter.Add(ctx, 1)
		s.logger.Error("failed to persist assistant turn",
			zap.String("session_id", job.sessionID),
			zap.Error(err))
	}
}

// SwitchModel switches the current model if modelID is available at the
// provider. It reports false without changing state when the model is not in
// the provider's list.
func (s *Service) SwitchModel(ctx context.Context, modelID string) (bool, error) {
	if modelID == "" {
		return false, fmt.Errorf("model id required")
	}

	models, err := s.llm.Models(ctx)
	if err != nil {
		return false, fmt.Errorf("listing models: %w", err)
	}

	available := false
	for _, m := range models {
		if m == modelID {
			available = true
			break
		}
	}
	if !available {
		return false, nil
	}

	s.modelMu.Lock()
	previous := s.currentModel
	s.currentModel = modelID
	s.modelMu.Unlock()

	s.logger.Info("switched model",
		zap.String("from", previous),
		zap.String("to", modelID))
	return true, nil
}

// CurrentModel returns the model used for requests without an override.
func (s *Service) CurrentModel() string {
	s.modelMu.RLock()
	defer s.modelMu.RUnlock()
	return s.currentModel
}

// Models returns the provider's available model identifiers.
func (s *Service) Models(ctx context.Context) ([]string, error) {
	return s.llm.Models(ctx)
}

// History returns up to limit turns for the session, oldest first.
func (s *Service) History(ctx context.Context, sessionID string, limit int) ([]store.Turn, error) {
	if limit <= 0 {
		limit = s.config.MaxHistory
	}
	return s.store.History(ctx, sessionID, limit)
}

// Conversations lists all stored conversations.
func (s *Service) Conversations(ctx context.Context) ([]store.Summary, error) {
	return s.store.Conversations(ctx)
}

// Analytics aggregates chat statistics, either for one session or across all
// conversations when sessionID is empty. An unknown session yields a
// zero-value rollup with SessionFound false, not an error.
func (s *Service) Analytics(ctx context.Context, sessionID string) (*Analytics, error) {
	out := &Analytics{
		SessionID:    sessionID,
		CurrentModel: s.CurrentModel(),
	}

	if sessionID == "" {
		agg, err := s.store.AggregateAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("aggregating conversations: %w", err)
		}
		out.SessionFound = true
		out.TotalConversations = agg.TotalConversations
		out.TotalMessages = agg.TotalMessages
		out.AvgResponseTimeMs = agg.AvgResponseTimeMs
		out.TotalTokensUsed = agg.TotalTokens
		return out, nil
	}

	agg, err := s.store.Aggregate(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("aggregating session: %w", err)
	}
	out.SessionFound = agg.SessionFound
	if agg.SessionFound {
		out.TotalConversations = 1
		out.TotalMessages = agg.TotalMessages
		out.AvgResponseTimeMs = agg.AvgResponseTimeMs
		out.TotalTokensUsed = agg.TotalTokens
	}
	return out, nil
}

// Feedback forwards a feedback score for a traced run.
func (s *Service) Feedback(ctx context.Context, runID string, score float64, comment string) error {
	return s.tracer.LogFeedback(ctx, runID, score, comment)
}

// TracingAnalytics fetches run statistics from the tracing service.
func (s *Service) TracingAnalytics(ctx context.Context, project string) (map[string]any, error) {
	return s.tracer.Analytics(ctx, project)
}

// CreateDataset exports conversation examples to the tracing service.
func (s *Service) CreateDataset(ctx context.Context, name string, examples []tracing.DatasetExample) error {
	return s.tracer.CreateDataset(ctx, name, examples)
}

// TracingEnabled reports whether the tracing integration is active.
func (s *Service) TracingEnabled() bool {
	return s.tracer.Enabled()
}

// TracingProject returns the tracing project name, empty when disabled.
func (s *Service) TracingProject() string {
	return s.tracer.Project()
}

// Close drains the persistence queue and stops the worker.
func (s *Service) Close() {
	s.closeOnce.Do(func() {
		close(s.queue)
	})
	s.wg.Wait()
}
