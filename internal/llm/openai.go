package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/prompt"
)

// Config holds configuration for the OpenAI-compatible client.
type Config struct {
	APIKey        string
	BaseURL       string
	Model         string // default model, used when the caller passes none
	MaxTokens     int
	ModelCacheTTL time.Duration
}

// Validate validates the configuration.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api key required")
	}
	if c.BaseURL == "" {
		return fmt.Errorf("base URL required")
	}
	if c.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", c.MaxTokens)
	}
	return nil
}

// OpenAI is a Client backed by an OpenAI-compatible completion endpoint.
type OpenAI struct {
	llm    *openai.LLM
	config Config
	logger *zap.Logger

	// model list cache, guarded by mu
	mu          sync.Mutex
	cachedList  []string
	cacheExpiry time.Time
}

// NewOpenAI creates a client for the configured endpoint.
func NewOpenAI(cfg Config, logger *zap.Logger) (*OpenAI, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := []openai.Option{
		openai.WithToken(cfg.APIKey),
		openai.WithBaseURL(cfg.BaseURL),
	}
	if cfg.Model != "" {
		opts = append(opts, openai.WithModel(cfg.Model))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OpenAI client: %w", err)
	}

	return &OpenAI{
		llm:    client,
		config: cfg,
		logger: logger,
	}, nil
}

// Generate sends the bundle to the model.
//
// When the bundle requests a structured schema, the raw output is parsed
// against it; parse failure falls back to the raw text rather than failing
// the call. Upstream errors are classified into ErrUpstreamRejected or
// ErrUpstreamUnavailable and surfaced without retries.
func (o *OpenAI) Generate(ctx context.Context, bundle prompt.Bundle, model string, temperature float64) (*Result, error) {
	content := toMessageContent(bundle.Messages)

	opts := []llms.CallOption{
		llms.WithTemperature(temperature),
		llms.WithMaxTokens(o.config.MaxTokens),
	}
	if model != "" {
		opts = append(opts, llms.WithModel(model))
	}

	resp, err := o.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return nil, classifyErr(err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	choice := resp.Choices[0]
	result := &Result{
		Raw:        choice.Content,
		TokensUsed: tokensFromInfo(choice.GenerationInfo),
	}

	if bundle.Schema != prompt.SchemaNone {
		structured, perr := prompt.ParseStructured(bundle.Schema, choice.Content)
		if perr != nil {
			// Degrade gracefully: malformed structured output is served as text.
			o.logger.Debug("structured output parse failed, falling back to raw text",
				zap.String("schema", string(bundle.Schema)),
				zap.Error(perr))
		} else {
			result.Structured = structured
		}
	}

	return result, nil
}

// toMessageContent converts bundle messages to langchaingo message content.
func toMessageContent(messages []prompt.Message) []llms.MessageContent {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, m := range messages {
		content = append(content, llms.TextParts(chatMessageType(m.Role), m.Content))
	}
	return content
}

// chatMessageType maps a prompt role to the langchaingo message type.
// Total mapping: unknown roles become human messages.
func chatMessageType(role prompt.Role) llms.ChatMessageType {
	switch role {
	case prompt.RoleSystem:
		return llms.ChatMessageTypeSystem
	case prompt.RoleAssistant:
		return llms.ChatMessageTypeAI
	default:
		return llms.ChatMessageTypeHuman
	}
}

// tokensFromInfo extracts total token usage from generation info, if the
// provider reported it.
func tokensFromInfo(info map[string]any) int {
	if info == nil {
		return 0
	}
	for _, key := range []string{"TotalTokens", "total_tokens"} {
		switch v := info[key].(type) {
		case int:
			return v
		case float64:
			return int(v)
		}
	}
	return 0
}

// classifyErr maps an upstream error to the package error taxonomy.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{
		"401", "403", "429",
		"unauthorized", "forbidden",
		"invalid api key", "incorrect api key",
		"quota", "rate limit", "insufficient_quota",
	} {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrUpstreamRejected, err)
		}
	}

	return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
}
