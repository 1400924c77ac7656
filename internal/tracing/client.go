// Package tracing sends chat runs and feedback to a LangSmith-compatible
// tracing service.
//
// Everything here is best-effort: when tracing is disabled or the service is
// unreachable, chat handling proceeds unaffected. Run logging happens on a
// detached goroutine so it never adds latency to a response.
package tracing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Config configures the tracing client.
type Config struct {
	Enabled  bool
	Endpoint string // e.g. https://api.smith.langchain.com
	APIKey   string
	Project  string
}

// Run captures one completed chat exchange for tracing.
type Run struct {
	ID        string
	Name      string
	Input     string
	Output    string
	Model     string
	SessionID string
	Intent    string
	StartTime time.Time
	EndTime   time.Time
}

// DatasetExample is one input/output pair for dataset creation.
type DatasetExample struct {
	UserMessage       string `json:"user_message"`
	AssistantResponse string `json:"assistant_response"`
	SessionID         string `json:"session_id"`
	Model             string `json:"model"`
}

// Client posts runs, feedback, and datasets to the tracing service.
type Client struct {
	config Config
	http   *http.Client
	logger *zap.Logger
}

// New creates a tracing client. A disabled config yields a client whose
// methods are no-ops.
func New(cfg Config, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// Enabled reports whether tracing is configured and active.
func (c *Client) Enabled() bool {
	return c.config.Enabled && c.config.Endpoint != "" && c.config.APIKey != ""
}

// Project returns the configured project name, empty when disabled.
func (c *Client) Project() string {
	if !c.Enabled() {
		return ""
	}
	return c.config.Project
}

// LogRun submits the run asynchronously. It returns the run ID immediately;
// delivery happens on a background goroutine and failures are only logged.
func (c *Client) LogRun(run Run) string {
	if !c.Enabled() {
		return ""
	}
	if run.ID == "" {
		run.ID = uuid.NewString()
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		payload := map[string]any{
			"id":           run.ID,
			"name":         run.Name,
			"run_type":     "chain",
			"session_name": c.config.Project,
			"inputs":       map[string]any{"message": run.Input},
			"outputs":      map[string]any{"response": run.Output},
			"start_time":   run.StartTime.UTC().Format(time.RFC3339Nano),
			"end_time":     run.EndTime.UTC().Format(time.RFC3339Nano),
			"extra": map[string]any{
				"model":      run.Model,
				"session_id": run.SessionID,
				"intent":     run.Intent,
			},
		}
		if err := c.post(ctx, "/runs", payload); err != nil {
			c.logger.Warn("failed to log run", zap.String("run_id", run.ID), zap.Error(err))
		}
	}()

	return run.ID
}

// LogFeedback attaches a feedback score to a previously logged run.
func (c *Client) LogFeedback(ctx context.Context, runID string, score float64, comment string) error {
	if !c.Enabled() {
		return fmt.Errorf("tracing disabled")
	}
	if runID == "" {
		return fmt.Errorf("run id required")
	}

	payload := map[string]any{
		"run_id":  runID,
		"key":     "user_score",
		"score":   score,
		"comment": comment,
	}
	if err := c.post(ctx, "/feedback", payload); err != nil {
		return fmt.Errorf("logging feedback: %w", err)
	}
	return nil
}

// Analytics returns run statistics for the project from the tracing service.
func (c *Client) Analytics(ctx context.Context, project string) (map[string]any, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("tracing disabled")
	}
	if project == "" {
		project = c.config.Project
	}

	url := fmt.Sprintf("%s/runs/stats?session_name=%s", c.config.Endpoint, project)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building analytics request: %w", err)
	}
	req.Header.Set("x-api-key", c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching analytics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analytics returned %d", resp.StatusCode)
	}

	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		return nil, fmt.Errorf("decoding analytics: %w", err)
	}
	return stats, nil
}

// CreateDataset creates a dataset from conversation examples.
func (c *Client) CreateDataset(ctx context.Context, name string, examples []DatasetExample) error {
	if !c.Enabled() {
		return fmt.Errorf("tracing disabled")
	}
	if len(examples) == 0 {
		return fmt.Errorf("no examples to upload")
	}

	if err := c.post(ctx, "/datasets", map[string]any{
		"name":        name,
		"description": fmt.Sprintf("Chat conversations exported %s", time.Now().UTC().Format("2006-01-02")),
	}); err != nil {
		return fmt.Errorf("creating dataset: %w", err)
	}

	for _, ex := range examples {
		payload := map[string]any{
			"dataset_name": name,
			"inputs":       map[string]any{"message": ex.UserMessage},
			"outputs":      map[string]any{"response": ex.AssistantResponse},
			"metadata": map[string]any{
				"session_id": ex.SessionID,
				"model":      ex.Model,
			},
		}
		if err := c.post(ctx, "/examples", payload); err != nil {
			return fmt.Errorf("uploading example: %w", err)
		}
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.config.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("service returned %d", resp.StatusCode)
	}
	return nil
}
