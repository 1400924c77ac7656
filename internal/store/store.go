// Package store persists conversations and their turns in SQLite.
//
// The store uses the pure-Go modernc driver so the binary stays cgo-free.
// Writes happen off the request path; callers treat persistence failures as
// non-fatal and the store reports them as ordinary errors.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// Turn is one persisted message within a conversation.
type Turn struct {
	ID             int64
	Role           string
	Content        string
	Timestamp      time.Time
	TokensUsed     int
	ResponseTimeMs *float64
}

// Summary describes one conversation for listing endpoints.
type Summary struct {
	SessionID    string
	UserID       string
	CreatedAt    time.Time
	IsActive     bool
	MessageCount int
}

// SessionAggregate is the per-session analytics rollup.
type SessionAggregate struct {
	SessionFound      bool
	TotalMessages     int
	UserMessages      int
	AssistantMessages int
	TotalTokens       int
	AvgResponseTimeMs float64
	FirstMessageAt    time.Time
	LastMessageAt     time.Time
}

// Store is a SQLite-backed conversation store.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens (creating if needed) the SQLite database at path and applies
// the schema.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn := fmt.Sprintf("file:%s?%s", path, dsnParams)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// The modernc driver serializes writes per connection; a single
	// connection avoids SQLITE_BUSY churn under concurrent appends.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	logger.Info("conversation store ready", zap.String("path", path))
	return s, nil
}

const dsnParams = "_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

const schema = `
CREATE TABLE IF NOT EXISTS conversations (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id  TEXT NOT NULL UNIQUE,
	user_id     TEXT,
	created_at  TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	is_active   BOOLEAN NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS messages (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	conversation_id  INTEGER NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
	role             TEXT NOT NULL,
	content          TEXT NOT NULL,
	timestamp        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	tokens_used      INTEGER NOT NULL DEFAULT 0,
	response_time_ms REAL
);

CREATE INDEX IF NOT EXISTS idx_conversations_session_id ON conversations(session_id);
CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages(conversation_id);
`

func (s *Store) migrate() error {
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("applying schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// AppendTurn records one turn for the session, creating the conversation row
// on first use. The insert-or-ignore plus lookup runs in one transaction so
// concurrent first appends for the same session still yield a single
// conversation.
func (s *Store) AppendTurn(ctx context.Context, sessionID, userID, role, content string, tokensUsed int, responseTimeMs *float64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO conversations (session_id, user_id) VALUES (?, ?)
		 ON CONFLICT(session_id) DO NOTHING`,
		sessionID, userID,
	); err != nil {
		return fmt.Errorf("ensuring conversation: %w", err)
	}

	var conversationID int64
	if err := tx.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&conversationID); err != nil {
		return fmt.Errorf("resolving conversation: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO messages (conversation_id, role, content, tokens_used, response_time_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		conversationID, role, content, tokensUsed, responseTimeMs,
	); err != nil {
		return fmt.Errorf("inserting message: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing turn: %w", err)
	}
	return nil
}

// History returns the newest limit turns for the session in chronological
// order. Unknown sessions yield an empty slice, not an error.
func (s *Store) History(ctx context.Context, sessionID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		return []Turn{}, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT m.id, m.role, m.content, m.timestamp, m.tokens_used, m.response_time_ms
		 FROM messages m
		 JOIN conversations c ON c.id = m.conversation_id
		 WHERE c.session_id = ?
		 ORDER BY m.id DESC
		 LIMIT ?`,
		sessionID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying history: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t      Turn
			respMs sql.NullFloat64
		)
		if err := rows.Scan(&t.ID, &t.Role, &t.Content, &t.Timestamp, &t.TokensUsed, &respMs); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}
		if respMs.Valid {
			v := respMs.Float64
			t.ResponseTimeMs = &v
		}
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history: %w", err)
	}

	// The query returns newest-first; flip to chronological order.
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	if turns == nil {
		turns = []Turn{}
	}
	return turns, nil
}

// Aggregate computes the analytics rollup for a session. Unknown sessions
// return a zero-value aggregate with SessionFound false.
func (s *Store) Aggregate(ctx context.Context, sessionID string) (*SessionAggregate, error) {
	var conversationID int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM conversations WHERE session_id = ?`, sessionID,
	).Scan(&conversationID)
	if err == sql.ErrNoRows {
		return &SessionAggregate{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolving conversation: %w", err)
	}

	agg := &SessionAggregate{SessionFound: true}

	var (
		avgResp sql.NullFloat64
		first   sql.NullTime
		last    sql.NullTime
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN role = 'user' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN role = 'assistant' THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(tokens_used), 0),
			AVG(CASE WHEN role = 'assistant' THEN response_time_ms END),
			MIN(timestamp),
			MAX(timestamp)
		 FROM messages WHERE conversation_id = ?`,
		conversationID,
	).Scan(&agg.TotalMessages, &agg.UserMessages, &agg.AssistantMessages,
		&agg.TotalTokens, &avgResp, &first, &last)
	if err != nil {
		return nil, fmt.Errorf("aggregating session: %w", err)
	}

	if avgResp.Valid {
		agg.AvgResponseTimeMs = avgResp.Float64
	}
	if first.Valid {
		agg.FirstMessageAt = first.Time
	}
	if last.Valid {
		agg.LastMessageAt = last.Time
	}
	return agg, nil
}

// GlobalAggregate is the across-all-sessions analytics rollup.
type GlobalAggregate struct {
	TotalConversations int
	TotalMessages      int
	TotalTokens        int
	AvgResponseTimeMs  float64
}

// AggregateAll computes the analytics rollup over every conversation.
func (s *Store) AggregateAll(ctx context.Context) (*GlobalAggregate, error) {
	agg := &GlobalAggregate{}

	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM conversations`,
	).Scan(&agg.TotalConversations); err != nil {
		return nil, fmt.Errorf("counting conversations: %w", err)
	}

	var avgResp sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT
			COUNT(*),
			COALESCE(SUM(tokens_used), 0),
			AVG(CASE WHEN role = 'assistant' THEN response_time_ms END)
		 FROM messages`,
	).Scan(&agg.TotalMessages, &agg.TotalTokens, &avgResp); err != nil {
		return nil, fmt.Errorf("aggregating messages: %w", err)
	}
	if avgResp.Valid {
		agg.AvgResponseTimeMs = avgResp.Float64
	}
	return agg, nil
}

// Conversations lists all conversations, newest first.
func (s *Store) Conversations(ctx context.Context) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT c.session_id, COALESCE(c.user_id, ''), c.created_at, c.is_active,
			(SELECT COUNT(*) FROM messages m WHERE m.conversation_id = c.id)
		 FROM conversations c
		 ORDER BY c.created_at DESC, c.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %w", err)
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		if err := rows.Scan(&sum.SessionID, &sum.UserID, &sum.CreatedAt, &sum.IsActive, &sum.MessageCount); err != nil {
			return nil, fmt.Errorf("scanning conversation: %w", err)
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %w", err)
	}
	if summaries == nil {
		summaries = []Summary{}
	}
	return summaries, nil
}
