// Package transcript provides an optional append-only SQLite archive of
// relayed turns. It is an audit artifact only: the in-memory conversation
// store remains the sole source of generation context.
package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shaharia-lab/whatsbot/internal/llm"
	"github.com/shaharia-lab/whatsbot/internal/observability"
)

// Turn is one archived message.
type Turn struct {
	ID             int64           `json:"id"`
	ConversationID string          `json:"conversation_id"`
	Role           llm.MessageRole `json:"role"`
	Content        string          `json:"content"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SQLiteArchive is an SQLite-backed implementation of the turn archive.
type SQLiteArchive struct {
	db     *sql.DB
	logger observability.Logger
}

// NewSQLiteArchive creates a new archive over the given database handle and
// ensures the schema exists.
func NewSQLiteArchive(db *sql.DB, logger observability.Logger) (*SQLiteArchive, error) {
	archive := &SQLiteArchive{
		db:     db,
		logger: logger,
	}

	if err := archive.initSchema(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize transcript schema: %w", err)
	}

	return archive, nil
}

func (a *SQLiteArchive) initSchema(ctx context.Context) error {
	createTurnsTableSQL := `
	CREATE TABLE IF NOT EXISTS turns (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT NOT NULL,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at DATETIME NOT NULL
	);`

	createTurnsIndexSQL := `
	CREATE INDEX IF NOT EXISTS idx_turns_conversation_id ON turns (conversation_id);
	`

	if _, err := a.db.ExecContext(ctx, createTurnsTableSQL); err != nil {
		return fmt.Errorf("failed to create turns table: %w", err)
	}
	if _, err := a.db.ExecContext(ctx, createTurnsIndexSQL); err != nil {
		return fmt.Errorf("failed to create turns index: %w", err)
	}
	return nil
}

// Record appends one turn to the archive.
func (a *SQLiteArchive) Record(ctx context.Context, conversationID string, role llm.MessageRole, content string) error {
	insertSQL := `INSERT INTO turns (conversation_id, role, content, created_at) VALUES (?, ?, ?, ?)`

	_, err := a.db.ExecContext(ctx, insertSQL, conversationID, string(role), content, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to record turn: %w", err)
	}
	return nil
}

// Recent returns up to limit archived turns for a conversation, newest first.
func (a *SQLiteArchive) Recent(ctx context.Context, conversationID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = 50
	}

	selectSQL := `
	SELECT id, conversation_id, role, content, created_at
	FROM turns
	WHERE conversation_id = ?
	ORDER BY id DESC
	LIMIT ?`

	rows, err := a.db.QueryContext(ctx, selectSQL, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var turn Turn
		var role string
		if err := rows.Scan(&turn.ID, &turn.ConversationID, &role, &turn.Content, &turn.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan turn: %w", err)
		}
		turn.Role = llm.MessageRole(role)
		turns = append(turns, turn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate turns: %w", err)
	}

	return turns, nil
}

// Close closes the underlying database handle.
func (a *SQLiteArchive) Close() error {
	return a.db.Close()
}
