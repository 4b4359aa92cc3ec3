// Package testutil provides small helpers shared by the package test suites:
// an event recorder sink and convenience constructors for scripted provider
// responses.
package testutil

import (
	"sync"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/provider"
)

// EventRecorder is a core.Sink that captures every emitted event for later
// assertions. Safe for concurrent use.
type EventRecorder struct {
	mu     sync.Mutex
	events []core.Event
}

// NewEventRecorder constructs an empty recorder.
func NewEventRecorder() *EventRecorder { return &EventRecorder{} }

// Emit implements core.Sink.
func (r *EventRecorder) Emit(ev core.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

// Events returns a copy of all recorded events in emission order.
func (r *EventRecorder) Events() []core.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	events := make([]core.Event, len(r.events))
	copy(events, r.events)
	return events
}

// Types returns the recorded event types in emission order.
func (r *EventRecorder) Types() []core.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]core.EventType, 0, len(r.events))
	for _, ev := range r.events {
		types = append(types, ev.Type)
	}
	return types
}

// CountOf returns how many events of the given type were recorded.
func (r *EventRecorder) CountOf(eventType core.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == eventType {
			n++
		}
	}
	return n
}

// TextResponse builds a provider response holding a single assistant message.
func TextResponse(text string) *provider.Response {
	return &provider.Response{
		ID:         core.NewID(),
		Output:     []core.Item{core.MessageItem{Role: "assistant", Text: text}},
		OutputText: text,
	}
}

// FunctionCallResponse builds a provider response consisting of function
// calls only.
func FunctionCallResponse(calls ...core.FunctionCallItem) *provider.Response {
	items := make([]core.Item, 0, len(calls))
	for _, fc := range calls {
		items = append(items, fc)
	}
	return &provider.Response{ID: core.NewID(), Output: items}
}

// EmptyResponse builds an anomalous provider response with neither text nor
// function calls.
func EmptyResponse() *provider.Response {
	return &provider.Response{ID: core.NewID()}
}
