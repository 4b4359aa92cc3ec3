package orchestrator

import (
	"encoding/json"

	"github.com/Masscer-AI/agentcore/core"
)

// extractAttachments scans successful tool call results for generated file
// references (image/speech/document tools) and collects them for the
// persisted message's attachment list.
//
// Recognized shapes inside a JSON object result:
//   - "attachments": [{"id": ..., "url": ..., "kind": ...}, ...]
//   - "image_url", "audio_url", "attachment_url": single URL strings
//   - "attachment_id": a provider-side file identifier
func extractAttachments(records []core.ToolCallRecord) []core.Attachment {
	var attachments []core.Attachment
	for _, record := range records {
		if record.Failed() {
			continue
		}
		var payload map[string]any
		if err := json.Unmarshal([]byte(record.Result), &payload); err != nil {
			continue
		}
		attachments = append(attachments, attachmentsFromPayload(payload)...)
	}
	return attachments
}

func attachmentsFromPayload(payload map[string]any) []core.Attachment {
	var result []core.Attachment

	if list, ok := payload["attachments"].([]any); ok {
		for _, entry := range list {
			obj, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			att := core.Attachment{
				ID:   stringField(obj, "id"),
				URL:  stringField(obj, "url"),
				Kind: stringField(obj, "kind"),
			}
			if att.ID != "" || att.URL != "" {
				result = append(result, att)
			}
		}
	}

	if url := stringField(payload, "image_url"); url != "" {
		result = append(result, core.Attachment{URL: url, Kind: "image"})
	}
	if url := stringField(payload, "audio_url"); url != "" {
		result = append(result, core.Attachment{URL: url, Kind: "audio"})
	}
	if url := stringField(payload, "attachment_url"); url != "" {
		result = append(result, core.Attachment{URL: url, Kind: "file"})
	}
	if id := stringField(payload, "attachment_id"); id != "" {
		result = append(result, core.Attachment{ID: id, Kind: "file"})
	}

	return result
}

func stringField(obj map[string]any, key string) string {
	s, _ := obj[key].(string)
	return s
}
