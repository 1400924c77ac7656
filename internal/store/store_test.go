package store

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "chatd.db")
	s, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func ms(v float64) *float64 { return &v }

func TestAppendTurnAndHistory(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTurn(ctx, "sess-1", "user-1", "user", "hello", 0, nil))
	require.NoError(t, s.AppendTurn(ctx, "sess-1", "user-1", "assistant", "hi there", 42, ms(120.5)))
	require.NoError(t, s.AppendTurn(ctx, "sess-1", "user-1", "user", "tell me more", 0, nil))

	t.Run("returns turns oldest-first", func(t *testing.T) {
		turns, err := s.History(ctx, "sess-1", 10)
		require.NoError(t, err)
		require.Len(t, turns, 3)
		assert.Equal(t, "hello", turns[0].Content)
		assert.Equal(t, "hi there", turns[1].Content)
		assert.Equal(t, "tell me more", turns[2].Content)
	})

	t.Run("limit keeps the newest turns", func(t *testing.T) {
		turns, err := s.History(ctx, "sess-1", 2)
		require.NoError(t, err)
		require.Len(t, turns, 2)
		assert.Equal(t, "hi there", turns[0].Content)
		assert.Equal(t, "tell me more", turns[1].Content)
	})

	t.Run("round-trips tokens and response time", func(t *testing.T) {
		turns, err := s.History(ctx, "sess-1", 10)
		require.NoError(t, err)

		assistant := turns[1]
		assert.Equal(t, "assistant", assistant.Role)
		assert.Equal(t, 42, assistant.TokensUsed)
		require.NotNil(t, assistant.ResponseTimeMs)
		assert.InDelta(t, 120.5, *assistant.ResponseTimeMs, 0.001)
		assert.Nil(t, turns[0].ResponseTimeMs)
	})

	t.Run("unknown session yields empty history", func(t *testing.T) {
		turns, err := s.History(ctx, "nope", 10)
		require.NoError(t, err)
		assert.Empty(t, turns)
	})

	t.Run("zero limit yields empty history", func(t *testing.T) {
		turns, err := s.History(ctx, "sess-1", 0)
		require.NoError(t, err)
		assert.Empty(t, turns)
	})
}

func TestConcurrentFirstAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	const writers = 8
	var wg sync.WaitGroup
	errs := make([]error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.AppendTurn(ctx, "shared", "u", "user", "msg", 0, nil)
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}

	// All writers landed in a single conversation.
	summaries, err := s.Conversations(ctx)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "shared", summaries[0].SessionID)
	assert.Equal(t, writers, summaries[0].MessageCount)
}

func TestAggregate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("unknown session", func(t *testing.T) {
		agg, err := s.Aggregate(ctx, "missing")
		require.NoError(t, err)
		assert.False(t, agg.SessionFound)
		assert.Zero(t, agg.TotalMessages)
	})

	require.NoError(t, s.AppendTurn(ctx, "sess-a", "u", "user", "q1", 0, nil))
	require.NoError(t, s.AppendTurn(ctx, "sess-a", "u", "assistant", "a1", 100, ms(200)))
	require.NoError(t, s.AppendTurn(ctx, "sess-a", "u", "user", "q2", 0, nil))
	require.NoError(t, s.AppendTurn(ctx, "sess-a", "u", "assistant", "a2", 50, ms(400)))

	t.Run("computes rollup", func(t *testing.T) {
		agg, err := s.Aggregate(ctx, "sess-a")
		require.NoError(t, err)

		assert.True(t, agg.SessionFound)
		assert.Equal(t, 4, agg.TotalMessages)
		assert.Equal(t, 2, agg.UserMessages)
		assert.Equal(t, 2, agg.AssistantMessages)
		assert.Equal(t, 150, agg.TotalTokens)
		assert.InDelta(t, 300, agg.AvgResponseTimeMs, 0.001)
		assert.False(t, agg.FirstMessageAt.IsZero())
		assert.False(t, agg.LastMessageAt.Before(agg.FirstMessageAt))
	})

	t.Run("assistant turns without timing do not skew the average", func(t *testing.T) {
		require.NoError(t, s.AppendTurn(ctx, "sess-a", "u", "assistant", "a3", 10, nil))

		agg, err := s.Aggregate(ctx, "sess-a")
		require.NoError(t, err)
		assert.InDelta(t, 300, agg.AvgResponseTimeMs, 0.001)
	})
}

func TestAggregateAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		agg, err := s.AggregateAll(ctx)
		require.NoError(t, err)
		assert.Zero(t, agg.TotalConversations)
		assert.Zero(t, agg.TotalMessages)
	})

	require.NoError(t, s.AppendTurn(ctx, "s1", "u", "user", "q", 0, nil))
	require.NoError(t, s.AppendTurn(ctx, "s1", "u", "assistant", "a", 30, ms(100)))
	require.NoError(t, s.AppendTurn(ctx, "s2", "u", "user", "q", 0, nil))
	require.NoError(t, s.AppendTurn(ctx, "s2", "u", "assistant", "a", 70, ms(300)))

	t.Run("rolls up across sessions", func(t *testing.T) {
		agg, err := s.AggregateAll(ctx)
		require.NoError(t, err)

		assert.Equal(t, 2, agg.TotalConversations)
		assert.Equal(t, 4, agg.TotalMessages)
		assert.Equal(t, 100, agg.TotalTokens)
		assert.InDelta(t, 200, agg.AvgResponseTimeMs, 0.001)
	})
}

func TestConversations(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	t.Run("empty store", func(t *testing.T) {
		summaries, err := s.Conversations(ctx)
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})

	require.NoError(t, s.AppendTurn(ctx, "first", "alice", "user", "hi", 0, nil))
	require.NoError(t, s.AppendTurn(ctx, "second", "", "user", "hey", 0, nil))
	require.NoError(t, s.AppendTurn(ctx, "first", "alice", "assistant", "hello", 5, ms(90)))

	t.Run("lists sessions with counts", func(t *testing.T) {
		summaries, err := s.Conversations(ctx)
		require.NoError(t, err)
		require.Len(t, summaries, 2)

		bySession := map[string]Summary{}
		for _, sum := range summaries {
			bySession[sum.SessionID] = sum
		}
		assert.Equal(t, 2, bySession["first"].MessageCount)
		assert.Equal(t, "alice", bySession["first"].UserID)
		assert.Equal(t, 1, bySession["second"].MessageCount)
		assert.True(t, bySession["first"].IsActive)
	})
}

func TestOpenReusesExistingDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chatd.db")
	ctx := context.Background()

	s1, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, s1.AppendTurn(ctx, "sess", "u", "user", "persisted", 0, nil))
	require.NoError(t, s1.Close())

	s2, err := Open(path, zap.NewNop())
	require.NoError(t, err)
	defer s2.Close()

	turns, err := s2.History(ctx, "sess", 10)
	require.NoError(t, err)
	require.Len(t, turns, 1)
	assert.Equal(t, "persisted", turns[0].Content)
}
