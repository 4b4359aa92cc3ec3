package core

import (
	"time"

	"github.com/google/uuid"

	"github.com/Masscer-AI/agentcore/logging"
)

// EventType enumerates the progress notifications emitted while a turn runs.
type EventType string

const (
	// EventLoopStart marks the beginning of one loop run.
	EventLoopStart EventType = "loop_start"
	// EventIterationStart marks the beginning of one provider round-trip.
	EventIterationStart EventType = "iteration_start"
	// EventToolCallStart marks the dispatch of a single tool invocation.
	EventToolCallStart EventType = "tool_call_start"
	// EventToolCallEnd marks the completion (success or failure) of a tool invocation.
	EventToolCallEnd EventType = "tool_call_end"
	// EventResponse carries the terminal text of a loop run.
	EventResponse EventType = "response"
	// EventError reports a failure that aborts a loop run or turn.
	EventError EventType = "error"
	// EventAgentVersionReady signals that one agent's output in a multi-agent
	// turn is complete and visible to subsequent agents (grupal mode).
	EventAgentVersionReady EventType = "agent_version_ready"
	// EventAgentComplete signals that one agent finished, including bookkeeping.
	EventAgentComplete EventType = "agent_complete"
)

// Event is a push-based progress notification. After emission it should be
// treated as immutable.
type Event struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Payload   map[string]any `json:"payload,omitempty"`
}

// NewEvent creates an event of the given type carrying an optional payload.
func NewEvent(eventType EventType, payload map[string]any) Event {
	return Event{
		ID:        NewID(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewID generates a unique identifier for events, runs, sessions and messages.
func NewID() string { return uuid.NewString() }

// Sink receives progress events. Implementations forward them to websockets,
// queues or logs; they own their own concurrency safety.
type Sink interface {
	Emit(Event)
}

// SinkFunc adapts an ordinary function to the Sink interface.
type SinkFunc func(Event)

// Emit implements Sink.
func (f SinkFunc) Emit(ev Event) { f(ev) }

// NoOpSink discards all events.
type NoOpSink struct{}

// Emit implements Sink.
func (NoOpSink) Emit(Event) {}

// EmitSafe delivers an event to the sink, recovering from emitter panics so a
// failing telemetry consumer can never abort an inference run. A nil sink is
// a no-op.
func EmitSafe(logger logging.Logger, sink Sink, ev Event) {
	if sink == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			if logger != nil {
				logger.Warn("event.emit.panic", "event_type", string(ev.Type), "recover", r)
			}
		}
	}()
	sink.Emit(ev)
}
