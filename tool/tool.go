package tool

import (
	"context"
	"fmt"

	"github.com/Masscer-AI/agentcore/internal/util"
	"github.com/Masscer-AI/agentcore/logging"
)

// Tool defines a named, schema-described capability the model may invoke
// mid-conversation.
//
// Tool implementations should:
//   - Provide clear, descriptive names (snake_case recommended) and descriptions
//   - Define proper JSON schema for parameters
//   - Handle errors gracefully
//   - Be safe for use across independent loop runs
type Tool interface {
	// Name returns the unique identifier for this tool within a run.
	Name() string

	// Description returns a human-readable description provided to the model
	// to help it decide when and how to use the tool.
	Description() string

	// Parameters returns a JSON schema describing the expected arguments.
	Parameters() map[string]any

	// Call executes the tool with already-decoded arguments. The CallContext
	// carries the invoking call's identifiers and a logger.
	Call(callCtx *CallContext, args map[string]any) (any, error)
}

// CallContext provides a constrained surface for tool implementations invoked
// by the loop: the request context, the function call identifier correlating
// the model's request with this execution, the iteration it happened in and a
// structured logger.
type CallContext struct {
	ctx       context.Context
	callID    string
	iteration int
	logger    logging.Logger
}

// NewCallContext constructs a call context bound to a single tool invocation.
func NewCallContext(ctx context.Context, callID string, iteration int, logger logging.Logger) *CallContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &CallContext{ctx: ctx, callID: callID, iteration: iteration, logger: logger}
}

// Context returns the context associated with the tool invocation.
func (c *CallContext) Context() context.Context { return c.ctx }

// CallID returns the function call identifier assigned by the provider.
func (c *CallContext) CallID() string { return c.callID }

// Iteration returns the loop iteration the invocation belongs to.
func (c *CallContext) Iteration() int { return c.iteration }

// Logger returns the logger associated with the tool invocation.
func (c *CallContext) Logger() logging.Logger { return c.logger }

// ValidationError represents parameter validation errors with detailed information.
type ValidationError = util.ValidationError

// ToolError represents errors that occur during tool execution.
type ToolError struct {
	Tool    string `json:"tool"`              // Name of the tool that failed
	Message string `json:"message"`           // Error message
	Code    string `json:"code"`              // Error code for categorization
	Details any    `json:"details,omitempty"` // Additional error details
}

func (e *ToolError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
	}
	return fmt.Sprintf("tool error in %s: %s", e.Tool, e.Message)
}

// NewToolError creates a new ToolError with the specified details.
func NewToolError(tool, message, code string) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code}
}
