package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Item represents one role-tagged entry of a conversation turn. Concrete item
// types implement the unexported isItem marker enabling a closed set.
//
// Turn input grows monotonically within a loop run: items are only appended,
// never mutated in place.
type Item interface{ isItem() }

// MessageItem is a plain text message authored by a conversation role.
type MessageItem struct {
	Role string // "user", "assistant" or "system"
	Text string
}

// isItem implements the Item interface for MessageItem.
func (MessageItem) isItem() {}

// FunctionCallItem is a tool invocation requested by the model.
type FunctionCallItem struct {
	CallID    string // Correlates the call with its output item
	Name      string // Tool name
	Arguments string // Raw JSON argument payload as returned by the provider
}

// isItem implements the Item interface for FunctionCallItem.
func (FunctionCallItem) isItem() {}

// FunctionCallOutputItem carries the serialized result of a completed tool
// invocation back to the model. Exactly one output item must follow each
// FunctionCallItem, matched by CallID, before the next provider request.
type FunctionCallOutputItem struct {
	CallID string
	Output string
}

// isItem implements the Item interface for FunctionCallOutputItem.
func (FunctionCallOutputItem) isItem() {}

// CloneItems returns a shallow copy of the item slice so a loop run owns its
// turn history exclusively.
func CloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	cloned := make([]Item, len(items))
	copy(cloned, items)
	return cloned
}

// ItemsText concatenates the text of all message items preserving order.
// Function call and output items contribute nothing.
func ItemsText(items []Item) string {
	var b strings.Builder
	for _, it := range items {
		if msg, ok := it.(MessageItem); ok {
			b.WriteString(msg.Text)
		}
	}
	return b.String()
}

// itemEnvelope is the serialized form of an Item. The Type discriminator
// selects the variant on decode.
type itemEnvelope struct {
	Type      string `json:"type"`
	Role      string `json:"role,omitempty"`
	Text      string `json:"text,omitempty"`
	CallID    string `json:"call_id,omitempty"`
	Name      string `json:"name,omitempty"`
	Arguments string `json:"arguments,omitempty"`
	Output    string `json:"output,omitempty"`
}

const (
	itemTypeMessage            = "message"
	itemTypeFunctionCall       = "function_call"
	itemTypeFunctionCallOutput = "function_call_output"
)

// MarshalItems serializes a turn history to JSON for persistence.
func MarshalItems(items []Item) ([]byte, error) {
	envelopes := make([]itemEnvelope, 0, len(items))
	for _, it := range items {
		switch v := it.(type) {
		case MessageItem:
			envelopes = append(envelopes, itemEnvelope{Type: itemTypeMessage, Role: v.Role, Text: v.Text})
		case FunctionCallItem:
			envelopes = append(envelopes, itemEnvelope{Type: itemTypeFunctionCall, CallID: v.CallID, Name: v.Name, Arguments: v.Arguments})
		case FunctionCallOutputItem:
			envelopes = append(envelopes, itemEnvelope{Type: itemTypeFunctionCallOutput, CallID: v.CallID, Output: v.Output})
		default:
			return nil, fmt.Errorf("unknown item type %T", it)
		}
	}
	return json.Marshal(envelopes)
}

// UnmarshalItems restores a turn history serialized by MarshalItems.
func UnmarshalItems(data []byte) ([]Item, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var envelopes []itemEnvelope
	if err := json.Unmarshal(data, &envelopes); err != nil {
		return nil, fmt.Errorf("failed to decode items: %w", err)
	}
	items := make([]Item, 0, len(envelopes))
	for _, env := range envelopes {
		switch env.Type {
		case itemTypeMessage:
			items = append(items, MessageItem{Role: env.Role, Text: env.Text})
		case itemTypeFunctionCall:
			items = append(items, FunctionCallItem{CallID: env.CallID, Name: env.Name, Arguments: env.Arguments})
		case itemTypeFunctionCallOutput:
			items = append(items, FunctionCallOutputItem{CallID: env.CallID, Output: env.Output})
		default:
			return nil, fmt.Errorf("unknown item type %q", env.Type)
		}
	}
	return items, nil
}
