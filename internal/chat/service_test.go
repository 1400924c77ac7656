package chat

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/chatd/internal/intent"
	"github.com/fyrsmithlabs/chatd/internal/knowledge"
	"github.com/fyrsmithlabs/chatd/internal/llm"
	"github.com/fyrsmithlabs/chatd/internal/prompt"
	"github.com/fyrsmithlabs/chatd/internal/store"
	"github.com/fyrsmithlabs/chatd/internal/tracing"
)

type fakeLLM struct {
	mu         sync.Mutex
	lastBundle prompt.Bundle
	lastModel  string
	lastTemp   float64
	result     *llm.Result
	err        error
	models     []string
	modelsErr  error
	modelCalls int
}

func (f *fakeLLM) Generate(ctx context.Context, bundle prompt.Bundle, model string, temperature float64) (*llm.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastBundle = bundle
	f.lastModel = model
	f.lastTemp = temperature
	if f.err != nil {
		return nil, f.err
	}
	if f.result != nil {
		return f.result, nil
	}
	return &llm.Result{Raw: "canned response", TokensUsed: 50}, nil
}

func (f *fakeLLM) Models(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.modelCalls++
	return f.models, f.modelsErr
}

type appendedTurn struct {
	sessionID, userID, role, content string
	tokensUsed                       int
	responseTimeMs                   *float64
}

type fakeStore struct {
	mu        sync.Mutex
	turns     []appendedTurn
	appendErr error
	history   []store.Turn
}

func (f *fakeStore) AppendTurn(ctx context.Context, sessionID, userID, role, content string, tokensUsed int, responseTimeMs *float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.turns = append(f.turns, appendedTurn{sessionID, userID, role, content, tokensUsed, responseTimeMs})
	return nil
}

func (f *fakeStore) History(ctx context.Context, sessionID string, limit int) ([]store.Turn, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.history, nil
}

func (f *fakeStore) Aggregate(ctx context.Context, sessionID string) (*store.SessionAggregate, error) {
	if sessionID == "known" {
		return &store.SessionAggregate{
			SessionFound:      true,
			TotalMessages:     2,
			TotalTokens:       50,
			AvgResponseTimeMs: 120,
		}, nil
	}
	return &store.SessionAggregate{}, nil
}

func (f *fakeStore) AggregateAll(ctx context.Context) (*store.GlobalAggregate, error) {
	return &store.GlobalAggregate{
		TotalConversations: 3,
		TotalMessages:      12,
		TotalTokens:        900,
		AvgResponseTimeMs:  250,
	}, nil
}

func (f *fakeStore) Conversations(ctx context.Context) ([]store.Summary, error) {
	return []store.Summary{{SessionID: "s1"}}, nil
}

func (f *fakeStore) appended() []appendedTurn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]appendedTurn(nil), f.turns...)
}

type fakeTracer struct {
	enabled  bool
	lastRun  tracing.Run
	runID    string
	feedback error
}

func (f *fakeTracer) Enabled() bool   { return f.enabled }
func (f *fakeTracer) Project() string { return "test-project" }

func (f *fakeTracer) LogRun(run tracing.Run) string {
	f.lastRun = run
	if !f.enabled {
		return ""
	}
	if f.runID == "" {
		return "run-1"
	}
	return f.runID
}

func (f *fakeTracer) LogFeedback(ctx context.Context, runID string, score float64, comment string) error {
	return f.feedback
}

func (f *fakeTracer) Analytics(ctx context.Context, project string) (map[string]any, error) {
	return map[string]any{"run_count": 1}, nil
}

func (f *fakeTracer) CreateDataset(ctx context.Context, name string, examples []tracing.DatasetExample) error {
	return nil
}

func testService(t *testing.T, client *fakeLLM, st *fakeStore, tracer Tracer) *Service {
	t.Helper()

	if tracer == nil {
		tracer = &fakeTracer{}
	}
	s := New(Config{
		DefaultModel:     "gpt-4o-mini",
		Temperature:      0.7,
		MaxHistory:       10,
		PersistQueueSize: 16,
		RequestTimeout:   5 * time.Second,
	}, client, st, tracer, knowledge.Base(), zap.NewNop())
	t.Cleanup(s.Close)
	return s
}

func TestGenerateValidation(t *testing.T) {
	s := testService(t, &fakeLLM{}, &fakeStore{}, nil)

	t.Run("empty message", func(t *testing.T) {
		_, err := s.Generate(context.Background(), Request{Message: "   "})
		assert.ErrorIs(t, err, ErrEmptyMessage)
	})

	t.Run("temperature out of range", func(t *testing.T) {
		temp := 3.5
		_, err := s.Generate(context.Background(), Request{Message: "hi", Temperature: &temp})
		assert.ErrorIs(t, err, ErrInvalidTemperature)
	})
}

func TestGenerate(t *testing.T) {
	t.Run("returns the normalized result", func(t *testing.T) {
		client := &fakeLLM{}
		s := testService(t, client, &fakeStore{}, nil)

		resp, err := s.Generate(context.Background(), Request{Message: "Hello", SessionID: "s1"})
		require.NoError(t, err)

		assert.Equal(t, "canned response", resp.Response)
		assert.Equal(t, "s1", resp.SessionID)
		assert.Equal(t, "gpt-4o-mini", resp.ModelUsed)
		assert.Equal(t, intent.General, resp.Intent)
		require.NotNil(t, resp.TokensUsed)
		assert.Equal(t, 50, *resp.TokensUsed)
		require.NotNil(t, resp.ResponseTimeMs)
		assert.GreaterOrEqual(t, *resp.ResponseTimeMs, float64(0))
		assert.False(t, resp.Timestamp.IsZero())
	})

	t.Run("generates a session id when absent", func(t *testing.T) {
		s := testService(t, &fakeLLM{}, &fakeStore{}, nil)

		resp, err := s.Generate(context.Background(), Request{Message: "Hello"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.SessionID)
	})

	t.Run("routes projects questions to a structured bundle", func(t *testing.T) {
		client := &fakeLLM{}
		s := testService(t, client, &fakeStore{}, nil)

		_, err := s.Generate(context.Background(), Request{Message: "What projects have you built?", SessionID: "s1"})
		require.NoError(t, err)

		assert.Equal(t, prompt.SchemaProject, client.lastBundle.Schema)
		assert.Len(t, client.lastBundle.Messages, 2)
	})

	t.Run("uses caller history over stored history", func(t *testing.T) {
		client := &fakeLLM{}
		st := &fakeStore{history: []store.Turn{{Role: "user", Content: "from store"}}}
		s := testService(t, client, st, nil)

		_, err := s.Generate(context.Background(), Request{
			Message:   "hi",
			SessionID: "s1",
			History:   []prompt.Message{{Role: prompt.RoleUser, Content: "from caller"}},
		})
		require.NoError(t, err)

		assert.Equal(t, "from caller", client.lastBundle.Messages[1].Content)
	})

	t.Run("loads stored history when caller supplies none", func(t *testing.T) {
		client := &fakeLLM{}
		st := &fakeStore{history: []store.Turn{{Role: "user", Content: "from store"}}}
		s := testService(t, client, st, nil)

		_, err := s.Generate(context.Background(), Request{Message: "hi", SessionID: "s1"})
		require.NoError(t, err)

		assert.Equal(t, "from store", client.lastBundle.Messages[1].Content)
	})

	t.Run("per-request overrides take precedence", func(t *testing.T) {
		client := &fakeLLM{}
		s := testService(t, client, &fakeStore{}, nil)

		temp := 1.2
		_, err := s.Generate(context.Background(), Request{
			Message:     "hi",
			Model:       "gpt-4o",
			Temperature: &temp,
		})
		require.NoError(t, err)

		assert.Equal(t, "gpt-4o", client.lastModel)
		assert.InDelta(t, 1.2, client.lastTemp, 0.001)
	})

	t.Run("surfaces upstream errors", func(t *testing.T) {
		client := &fakeLLM{err: llm.ErrUpstreamUnavailable}
		s := testService(t, client, &fakeStore{}, nil)

		_, err := s.Generate(context.Background(), Request{Message: "hi"})
		assert.ErrorIs(t, err, llm.ErrUpstreamUnavailable)
	})
}

func TestGeneratePersistence(t *testing.T) {
	t.Run("persists user then assistant turn", func(t *testing.T) {
		st := &fakeStore{}
		s := testService(t, &fakeLLM{}, st, nil)

		_, err := s.Generate(context.Background(), Request{Message: "Hello", SessionID: "s1", UserID: "u1"})
		require.NoError(t, err)
		s.Close()

		turns := st.appended()
		require.Len(t, turns, 2)
		assert.Equal(t, "user", turns[0].role)
		assert.Equal(t, "Hello", turns[0].content)
		assert.Equal(t, "u1", turns[0].userID)
		assert.Nil(t, turns[0].responseTimeMs)
		assert.Equal(t, "assistant", turns[1].role)
		assert.Equal(t, "canned response", turns[1].content)
		assert.Equal(t, 50, turns[1].tokensUsed)
		require.NotNil(t, turns[1].responseTimeMs)
	})

	t.Run("store failure does not fail the response", func(t *testing.T) {
		st := &fakeStore{appendErr: errors.New("disk full")}
		s := testService(t, &fakeLLM{}, st, nil)

		resp, err := s.Generate(context.Background(), Request{Message: "Hello"})
		require.NoError(t, err)
		assert.Equal(t, "canned response", resp.Response)
		s.Close()
	})
}

func TestSwitchModel(t *testing.T) {
	t.Run("rejects models the provider does not offer", func(t *testing.T) {
		client := &fakeLLM{models: []string{"gpt-4o-mini", "gpt-4o"}}
		s := testService(t, client, &fakeStore{}, nil)

		ok, err := s.SwitchModel(context.Background(), "nonexistent-model-id")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Equal(t, "gpt-4o-mini", s.CurrentModel())
	})

	t.Run("switches to an available model", func(t *testing.T) {
		client := &fakeLLM{models: []string{"gpt-4o-mini", "gpt-4o"}}
		s := testService(t, client, &fakeStore{}, nil)

		ok, err := s.SwitchModel(context.Background(), "gpt-4o")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "gpt-4o", s.CurrentModel())

		// Subsequent requests without an override use the new model.
		_, err = s.Generate(context.Background(), Request{Message: "hi"})
		require.NoError(t, err)
		assert.Equal(t, "gpt-4o", client.lastModel)
	})

	t.Run("propagates listing failures without changing state", func(t *testing.T) {
		client := &fakeLLM{modelsErr: llm.ErrUpstreamUnavailable}
		s := testService(t, client, &fakeStore{}, nil)

		_, err := s.SwitchModel(context.Background(), "gpt-4o")
		assert.ErrorIs(t, err, llm.ErrUpstreamUnavailable)
		assert.Equal(t, "gpt-4o-mini", s.CurrentModel())
	})

	t.Run("rejects empty model id", func(t *testing.T) {
		s := testService(t, &fakeLLM{}, &fakeStore{}, nil)
		_, err := s.SwitchModel(context.Background(), "")
		assert.Error(t, err)
	})
}

func TestAnalytics(t *testing.T) {
	s := testService(t, &fakeLLM{}, &fakeStore{}, nil)

	t.Run("session rollup carries the current model", func(t *testing.T) {
		a, err := s.Analytics(context.Background(), "known")
		require.NoError(t, err)

		assert.True(t, a.SessionFound)
		assert.Equal(t, 1, a.TotalConversations)
		assert.Equal(t, 2, a.TotalMessages)
		assert.Equal(t, 50, a.TotalTokensUsed)
		assert.InDelta(t, 120, a.AvgResponseTimeMs, 0.001)
		assert.Equal(t, "gpt-4o-mini", a.CurrentModel)
	})

	t.Run("unknown session yields empty rollup", func(t *testing.T) {
		a, err := s.Analytics(context.Background(), "missing")
		require.NoError(t, err)

		assert.False(t, a.SessionFound)
		assert.Zero(t, a.TotalMessages)
	})

	t.Run("no session aggregates everything", func(t *testing.T) {
		a, err := s.Analytics(context.Background(), "")
		require.NoError(t, err)

		assert.Equal(t, 3, a.TotalConversations)
		assert.Equal(t, 12, a.TotalMessages)
		assert.Equal(t, 900, a.TotalTokensUsed)
	})
}

func TestTracingIntegration(t *testing.T) {
	t.Run("logs a run and returns its id", func(t *testing.T) {
		tracer := &fakeTracer{enabled: true}
		s := testService(t, &fakeLLM{}, &fakeStore{}, tracer)

		resp, err := s.Generate(context.Background(), Request{Message: "What projects have you built?", SessionID: "s1"})
		require.NoError(t, err)

		assert.Equal(t, "run-1", resp.RunID)
		assert.Equal(t, "What projects have you built?", tracer.lastRun.Input)
		assert.Equal(t, "projects", tracer.lastRun.Intent)
		assert.Equal(t, "s1", tracer.lastRun.SessionID)
	})

	t.Run("disabled tracing yields no run id", func(t *testing.T) {
		s := testService(t, &fakeLLM{}, &fakeStore{}, &fakeTracer{enabled: false})

		resp, err := s.Generate(context.Background(), Request{Message: "hi"})
		require.NoError(t, err)
		assert.Empty(t, resp.RunID)
	})
}
