package util

import (
	"encoding/json"
	"strings"
)

// StripCodeFences removes a surrounding Markdown code fence, with or without
// a language tag, returning the inner text trimmed. Text without a fence is
// returned trimmed but otherwise unchanged.
func StripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}

	body := strings.TrimPrefix(trimmed, "```")
	// Drop a language tag such as "json" on the opening fence line.
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		firstLine := strings.TrimSpace(body[:idx])
		if firstLine != "" && !strings.ContainsAny(firstLine, "{[\"") {
			body = body[idx+1:]
		}
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}

// DecodeArguments parses a raw JSON argument payload into a map. Malformed or
// empty payloads yield an empty map, never an error: a garbled argument string
// from the model must not abort the loop.
func DecodeArguments(raw string) map[string]any {
	if strings.TrimSpace(raw) == "" {
		return map[string]any{}
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(raw), &args); err != nil || args == nil {
		return map[string]any{}
	}
	return args
}
