package provider

import (
	"context"
	"fmt"
	"sync"

	"github.com/Masscer-AI/agentcore/core"
)

// MockClient is a lightweight in-memory Client useful for tests & examples.
// Responses are served in FIFO order; every request is recorded for
// inspection. When the script is exhausted the mock echoes the last user
// message.
type MockClient struct {
	mu       sync.Mutex
	script   []scriptEntry
	requests []Request
}

type scriptEntry struct {
	resp *Response
	err  error
}

// NewMockClient constructs an empty scripted client.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// EnqueueResponse appends a canned response to the script.
func (m *MockClient) EnqueueResponse(resp *Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptEntry{resp: resp})
}

// EnqueueText appends a plain assistant text response to the script.
func (m *MockClient) EnqueueText(text string) {
	m.EnqueueResponse(&Response{
		ID:         core.NewID(),
		Output:     []core.Item{core.MessageItem{Role: "assistant", Text: text}},
		OutputText: text,
	})
}

// EnqueueFunctionCalls appends a response consisting solely of function calls.
func (m *MockClient) EnqueueFunctionCalls(calls ...core.FunctionCallItem) {
	items := make([]core.Item, 0, len(calls))
	for _, fc := range calls {
		items = append(items, fc)
	}
	m.EnqueueResponse(&Response{ID: core.NewID(), Output: items})
}

// EnqueueError appends a failing call to the script.
func (m *MockClient) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, scriptEntry{err: err})
}

// Requests returns a copy of all recorded requests in call order.
func (m *MockClient) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	reqs := make([]Request, len(m.requests))
	copy(reqs, m.requests)
	return reqs
}

// CreateResponse implements Client.
func (m *MockClient) CreateResponse(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)

	if len(m.script) > 0 {
		entry := m.script[0]
		m.script = m.script[1:]
		if entry.err != nil {
			return nil, entry.err
		}
		return entry.resp, nil
	}

	var lastUser string
	for _, it := range req.Input {
		if msg, ok := it.(core.MessageItem); ok && msg.Role == "user" {
			lastUser = msg.Text
		}
	}
	text := fmt.Sprintf("Mock response to: %s", lastUser)
	return &Response{
		ID:         core.NewID(),
		Output:     []core.Item{core.MessageItem{Role: "assistant", Text: text}},
		OutputText: text,
	}, nil
}
