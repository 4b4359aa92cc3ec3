package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Masscer-AI/agentcore/core"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS agent_sessions (
	id           TEXT PRIMARY KEY,
	inputs       TEXT NOT NULL,
	status       TEXT NOT NULL,
	outputs      TEXT,
	messages     TEXT,
	created_at   TIMESTAMP NOT NULL,
	completed_at TIMESTAMP
);
CREATE TABLE IF NOT EXISTS turn_messages (
	id              TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	agent_slug      TEXT,
	body            TEXT NOT NULL,
	attachments     TEXT,
	created_at      TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turn_messages_conversation
	ON turn_messages(conversation_id);
`

// SQLiteStore is a durable Store backed by a SQLite database (pure Go
// driver, no cgo). Snapshots are stored as JSON columns; message ordering
// relies on insertion order (rowid).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path and applies
// the schema. Use ":memory:" for an ephemeral store.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// The driver serializes access through a single connection; the store's
	// callers are sequential per run anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// CreateSession implements Store.
func (s *SQLiteStore) CreateSession(ctx context.Context, rec Record) (string, error) {
	if rec.ID == "" {
		rec.ID = core.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Outputs.Status == "" {
		rec.Outputs.Status = StatusPending
	}

	inputs, err := json.Marshal(rec.Inputs)
	if err != nil {
		return "", fmt.Errorf("failed to encode inputs: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO agent_sessions (id, inputs, status, created_at) VALUES (?, ?, ?, ?)`,
		rec.ID, string(inputs), string(rec.Outputs.Status), rec.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert session: %w", err)
	}
	return rec.ID, nil
}

// UpdateSession implements Store. The pending-status guard enforces the
// exactly-once outputs snapshot.
func (s *SQLiteStore) UpdateSession(ctx context.Context, id string, out Outputs) error {
	outputs, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to encode outputs: %w", err)
	}
	messages, err := core.MarshalItems(out.Messages)
	if err != nil {
		return fmt.Errorf("failed to encode messages: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE agent_sessions SET status = ?, outputs = ?, messages = ?, completed_at = ?
		 WHERE id = ? AND status = ?`,
		string(out.Status), string(outputs), string(messages), time.Now().UTC(),
		id, string(StatusPending),
	)
	if err != nil {
		return fmt.Errorf("failed to update session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var status string
		row := s.db.QueryRowContext(ctx, `SELECT status FROM agent_sessions WHERE id = ?`, id)
		if scanErr := row.Scan(&status); scanErr == sql.ErrNoRows {
			return ErrSessionNotFound
		}
		return ErrSessionFinalized
	}
	return nil
}

// GetSession implements Store.
func (s *SQLiteStore) GetSession(ctx context.Context, id string) (*Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, inputs, status, outputs, messages, created_at, completed_at
		 FROM agent_sessions WHERE id = ?`, id)

	var rec Record
	var inputs, status string
	var outputs, messages sql.NullString
	var completedAt sql.NullTime
	if err := row.Scan(&rec.ID, &inputs, &status, &outputs, &messages, &rec.CreatedAt, &completedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	if err := json.Unmarshal([]byte(inputs), &rec.Inputs); err != nil {
		return nil, fmt.Errorf("failed to decode inputs: %w", err)
	}
	if outputs.Valid && outputs.String != "" {
		if err := json.Unmarshal([]byte(outputs.String), &rec.Outputs); err != nil {
			return nil, fmt.Errorf("failed to decode outputs: %w", err)
		}
	}
	rec.Outputs.Status = Status(status)
	if messages.Valid && messages.String != "" {
		items, err := core.UnmarshalItems([]byte(messages.String))
		if err != nil {
			return nil, err
		}
		rec.Outputs.Messages = items
	}
	if completedAt.Valid {
		rec.CompletedAt = completedAt.Time
	}
	return &rec, nil
}

// AppendMessage implements Store.
func (s *SQLiteStore) AppendMessage(ctx context.Context, msg Message) (string, error) {
	if msg.ID == "" {
		msg.ID = core.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	attachments, err := json.Marshal(msg.Attachments)
	if err != nil {
		return "", fmt.Errorf("failed to encode attachments: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO turn_messages (id, conversation_id, agent_slug, body, attachments, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, msg.AgentSlug, msg.Text, string(attachments), msg.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert message: %w", err)
	}
	return msg.ID, nil
}

// ListMessages implements Store.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string) ([]Message, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, conversation_id, agent_slug, body, attachments, created_at
		 FROM turn_messages WHERE conversation_id = ? ORDER BY rowid`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var result []Message
	for rows.Next() {
		var msg Message
		var attachments sql.NullString
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.AgentSlug, &msg.Text, &attachments, &msg.CreatedAt); err != nil {
			return nil, err
		}
		if attachments.Valid && attachments.String != "" {
			if err := json.Unmarshal([]byte(attachments.String), &msg.Attachments); err != nil {
				return nil, fmt.Errorf("failed to decode attachments: %w", err)
			}
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}
