package core

import "time"

// ToolCallRecord is the audit trail of a single tool invocation. It is
// created at the moment of dispatch and finalized once the outcome is known.
// The record never re-enters the provider conversation except as the
// serialized Result inside a FunctionCallOutputItem.
type ToolCallRecord struct {
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Result    string         `json:"result"`
	Duration  time.Duration  `json:"duration"`
	Iteration int            `json:"iteration"`
	Err       string         `json:"error,omitempty"`
}

// Failed reports whether the invocation ended in an error.
func (r ToolCallRecord) Failed() bool { return r.Err != "" }

// Usage accumulates token counts across provider calls.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add merges another usage sample into the receiver.
func (u *Usage) Add(other Usage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// Attachment references a file generated by a tool during a turn (image,
// speech, document). Attachments are merged into the persisted message.
type Attachment struct {
	ID   string `json:"id,omitempty"`
	URL  string `json:"url,omitempty"`
	Kind string `json:"kind,omitempty"` // "image", "audio", "file"
}
