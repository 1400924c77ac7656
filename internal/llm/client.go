// Package llm invokes the external language-model endpoint.
//
// The invoker wraps langchaingo's OpenAI-compatible client. It sends an
// assembled prompt bundle with a model identifier and temperature, enforces
// the fixed max-output-token ceiling, and attempts structured-output parsing
// when the bundle requests a schema. Parse failures degrade gracefully to
// raw text. Upstream failures are classified, never retried.
package llm

import (
	"context"
	"errors"

	"github.com/fyrsmithlabs/chatd/internal/prompt"
)

var (
	// ErrUpstreamUnavailable indicates the endpoint cannot be reached or
	// returned a transport error.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")

	// ErrUpstreamRejected indicates the endpoint rejected the request due to
	// authentication or quota limits.
	ErrUpstreamRejected = errors.New("upstream rejected request")

	// ErrEmptyResponse indicates the endpoint returned no choices.
	ErrEmptyResponse = errors.New("upstream returned empty response")
)

// Result is a completion outcome. Raw always holds the model's text;
// Structured is non-nil only when the bundle requested a schema and the
// output parsed against it.
type Result struct {
	Raw        string
	Structured *prompt.Structured
	TokensUsed int // 0 when the provider did not report usage
}

// IsStructured reports whether the result carries a parsed structured value.
func (r *Result) IsStructured() bool {
	return r != nil && r.Structured != nil
}

// Client is the completion endpoint interface consumed by the orchestrator.
type Client interface {
	// Generate sends the bundle to the model and returns the result.
	Generate(ctx context.Context, bundle prompt.Bundle, model string, temperature float64) (*Result, error)

	// Models returns the identifiers of models currently available at the
	// provider. Results may be cached for a short TTL.
	Models(ctx context.Context) ([]string, error)
}
