package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/provider"
)

func TestBuildMessages(t *testing.T) {
	messages := buildMessages([]core.Item{
		core.MessageItem{Role: "user", Text: "What is 2+3?"},
		core.FunctionCallItem{CallID: "call-1", Name: "calculate_sum", Arguments: `{"a": 2, "b": 3}`},
		core.FunctionCallOutputItem{CallID: "call-1", Output: "5"},
		core.MessageItem{Role: "assistant", Text: "The sum is 5."},
		core.MessageItem{Role: "assistant", Text: ""}, // empty text is dropped
	})

	require.Len(t, messages, 4)
	assert.Equal(t, "user", string(messages[0].Role))
	assert.Equal(t, "assistant", string(messages[1].Role))
	// Tool results travel as user messages per the Messages API.
	assert.Equal(t, "user", string(messages[2].Role))
	assert.Equal(t, "assistant", string(messages[3].Role))

	require.Len(t, messages[1].Content, 1)
	require.NotNil(t, messages[1].Content[0].OfToolUse)
	assert.Equal(t, "call-1", messages[1].Content[0].OfToolUse.ID)
	assert.Equal(t, "calculate_sum", messages[1].Content[0].OfToolUse.Name)

	require.NotNil(t, messages[2].Content[0].OfToolResult)
	assert.Equal(t, "call-1", messages[2].Content[0].OfToolResult.ToolUseID)
}

func TestBuildTools(t *testing.T) {
	tools := buildTools([]provider.ToolDefinition{{
		Name:        "calculate_sum",
		Description: "Calculate the sum of two numbers",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"a": map[string]any{"type": "number"},
			},
			"required": []string{"a"},
		},
	}})

	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "calculate_sum", tools[0].OfTool.Name)
	assert.Equal(t, []string{"a"}, tools[0].OfTool.InputSchema.Required)

	assert.Nil(t, buildTools(nil))
}

func TestInputSchema(t *testing.T) {
	schema := inputSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"salute": map[string]any{"type": "string"},
		},
		// []any mirrors a schema decoded from JSON.
		"required": []any{"salute"},
	})

	assert.NotNil(t, schema.Properties)
	assert.Equal(t, []string{"salute"}, schema.Required)

	empty := inputSchema(nil)
	assert.Nil(t, empty.Properties)
	assert.Empty(t, empty.Required)
}

func TestOutputToolForcedChoice(t *testing.T) {
	out := &provider.OutputFormat{
		Name:   "structured_output",
		Schema: map[string]any{"type": "object"},
		Strict: true,
	}

	forced := outputTool(out)
	require.NotNil(t, forced.OfTool)
	assert.Equal(t, "structured_output", forced.OfTool.Name)
}
