package session

import (
	"context"
	"errors"
	"time"

	"github.com/Masscer-AI/agentcore/core"
)

// Status tracks the lifecycle of an agent session record.
type Status string

const (
	// StatusPending marks a session created before its loop run completed.
	StatusPending Status = "pending"
	// StatusCompleted marks a session whose loop run succeeded.
	StatusCompleted Status = "completed"
	// StatusFailed marks a session whose loop run raised.
	StatusFailed Status = "failed"
)

// ErrSessionFinalized is returned when a session is updated more than once.
var ErrSessionFinalized = errors.New("session already finalized")

// ErrSessionNotFound is returned when a session id is unknown.
var ErrSessionNotFound = errors.New("session not found")

// Inputs is the snapshot of resolved inputs taken before a loop run.
type Inputs struct {
	ConversationID string         `json:"conversation_id"`
	AgentSlug      string         `json:"agent_slug"`
	Model          string         `json:"model"`
	Instructions   string         `json:"instructions"`
	ToolNames      []string       `json:"tool_names,omitempty"`
	Context        map[string]any `json:"context,omitempty"`
}

// Outputs is the snapshot recorded exactly once after a loop run completes
// or fails.
type Outputs struct {
	Status        Status      `json:"status"`
	Output        string      `json:"output,omitempty"`
	Messages      []core.Item `json:"-"`
	Usage         core.Usage  `json:"usage"`
	Iterations    int         `json:"iterations"`
	ToolCallCount int         `json:"tool_call_count"`
	Error         string      `json:"error,omitempty"`
}

// Record is one agent session: inputs before, outputs after, never deleted
// by the core.
type Record struct {
	ID          string
	Inputs      Inputs
	Outputs     Outputs
	CreatedAt   time.Time
	CompletedAt time.Time
}

// Message is a user-visible assistant message persisted at the end of an
// agent run (grupal mode) or of the whole turn (isolated mode).
type Message struct {
	ID             string
	ConversationID string
	AgentSlug      string
	Text           string
	Attachments    []core.Attachment
	CreatedAt      time.Time
}

// Store persists agent sessions and turn messages. Implementations own their
// concurrency safety; a session row is updated by exactly one loop run.
type Store interface {
	// CreateSession stores a new pending record and returns its id.
	CreateSession(ctx context.Context, rec Record) (string, error)
	// UpdateSession finalizes a record exactly once.
	UpdateSession(ctx context.Context, id string, out Outputs) error
	// GetSession returns a copy of a stored record.
	GetSession(ctx context.Context, id string) (*Record, error)
	// AppendMessage persists a turn message and returns its id.
	AppendMessage(ctx context.Context, msg Message) (string, error)
	// ListMessages returns a conversation's messages in insertion order.
	ListMessages(ctx context.Context, conversationID string) ([]Message, error)
}
