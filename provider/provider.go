package provider

import (
	"context"

	"github.com/Masscer-AI/agentcore/core"
)

// ToolChoice constrains how the model may use the declared tools.
type ToolChoice string

const (
	// ToolChoiceAuto lets the model decide whether to call tools.
	ToolChoiceAuto ToolChoice = "auto"
	// ToolChoiceNone forbids tool calls for this request.
	ToolChoiceNone ToolChoice = "none"
	// ToolChoiceRequired forces the model to call at least one tool.
	ToolChoiceRequired ToolChoice = "required"
)

// ToolDefinition declaratively exposes a callable function to the model.
// Parameters is a JSON Schema object (draft agnostic, minimal subset expected).
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// OutputFormat requests schema-constrained structured output as a distinct
// call mode. When Strict is set the provider must guarantee the response
// parses against Schema.
type OutputFormat struct {
	Name   string         `json:"name"`
	Schema map[string]any `json:"schema"`
	Strict bool           `json:"strict"`
}

// Request captures one normalized provider call: the full accumulated turn
// input, instructions, declared tools and optional output constraint.
type Request struct {
	Model        string           `json:"model"`
	Instructions string           `json:"instructions"`
	Input        []core.Item      `json:"input"`
	Tools        []ToolDefinition `json:"tools,omitempty"`
	ToolChoice   ToolChoice       `json:"tool_choice,omitempty"`
	Output       *OutputFormat    `json:"output,omitempty"`
}

// Response is the normalized provider reply. Output preserves the provider's
// item order; OutputText is the concatenation of all message item texts.
type Response struct {
	ID         string      `json:"id"`
	Output     []core.Item `json:"output"`
	OutputText string      `json:"output_text"`
	Usage      core.Usage  `json:"usage"`
}

// FunctionCalls returns the function call items of the response preserving order.
func (r *Response) FunctionCalls() []core.FunctionCallItem {
	var calls []core.FunctionCallItem
	for _, it := range r.Output {
		if fc, ok := it.(core.FunctionCallItem); ok {
			calls = append(calls, fc)
		}
	}
	return calls
}

// Client is the minimal interface the loop requires to drive generation.
// Implementations own timeout enforcement; the loop does not retry failed
// calls.
type Client interface {
	CreateResponse(ctx context.Context, req Request) (*Response, error)
}
