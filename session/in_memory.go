package session

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Masscer-AI/agentcore/core"
)

// InMemoryStore is a volatile Store implementation keeping records in process
// local maps. It is safe for concurrent access and best suited for tests or
// ephemeral demo servers. Returned records are copies to prevent external
// mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Record
	messages []Message
}

// NewInMemoryStore constructs an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*Record)}
}

// CreateSession implements Store.
func (s *InMemoryStore) CreateSession(_ context.Context, rec Record) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.ID == "" {
		rec.ID = core.NewID()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	if rec.Outputs.Status == "" {
		rec.Outputs.Status = StatusPending
	}
	stored := rec
	s.sessions[rec.ID] = &stored
	return rec.ID, nil
}

// UpdateSession implements Store. A second update of the same session is an
// error: the outputs snapshot is written exactly once.
func (s *InMemoryStore) UpdateSession(_ context.Context, id string, out Outputs) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	if rec.Outputs.Status != StatusPending {
		return ErrSessionFinalized
	}
	rec.Outputs = out
	rec.CompletedAt = time.Now().UTC()
	return nil
}

// GetSession implements Store.
func (s *InMemoryStore) GetSession(_ context.Context, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	copied := *rec
	return &copied, nil
}

// Sessions returns copies of all stored session records ordered by creation
// time. It is an inspection helper, not part of the Store interface.
func (s *InMemoryStore) Sessions() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]Record, 0, len(s.sessions))
	for _, rec := range s.sessions {
		records = append(records, *rec)
	}
	sort.Slice(records, func(i, j int) bool {
		return records[i].CreatedAt.Before(records[j].CreatedAt)
	})
	return records
}

// AppendMessage implements Store.
func (s *InMemoryStore) AppendMessage(_ context.Context, msg Message) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if msg.ID == "" {
		msg.ID = core.NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	s.messages = append(s.messages, msg)
	return msg.ID, nil
}

// ListMessages implements Store.
func (s *InMemoryStore) ListMessages(_ context.Context, conversationID string) ([]Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Message
	for _, msg := range s.messages {
		if msg.ConversationID == conversationID {
			result = append(result, msg)
		}
	}
	return result, nil
}
