package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleSchema struct {
	A string `json:"a" description:"Field A"`
	B *int   `json:"b" description:"Optional pointer field"`
	C int    `json:"c,omitempty" description:"Omit empty field"`
	D string `json:"d" enum:"x,y,z"`
}

func TestCreateSchema(t *testing.T) {
	schema := CreateSchema(sampleSchema{})

	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "a")
	assert.Contains(t, props, "b")
	assert.Contains(t, props, "c")
	assert.Contains(t, props, "d")

	dProp, ok := props["d"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, []string{"x", "y", "z"}, dProp["enum"])

	// Required only includes non-pointer, non-omitempty exported fields.
	req, _ := schema["required"].([]string)
	assert.ElementsMatch(t, []string{"a", "d"}, req)
}

func TestValidateParameters(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"x": map[string]any{"type": "integer"},
		},
		// Use []any to mirror the JSON decoded schema shape.
		"required": []any{"x"},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"x": 5}, schema))

	err := ValidateParameters(map[string]any{}, schema)
	require.Error(t, err)
	vErr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "x", vErr.Field)

	err = ValidateParameters(map[string]any{"x": "not-int"}, schema)
	require.Error(t, err)
	vErr, ok = err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, vErr.Message, "expected type integer")

	// JSON numbers decode as float64; whole values pass the integer check.
	assert.NoError(t, ValidateParameters(map[string]any{"x": float64(7)}, schema))
	assert.Error(t, ValidateParameters(map[string]any{"x": 7.5}, schema))
}

func TestValidateParametersEnum(t *testing.T) {
	schema := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"op": map[string]any{"type": "string", "enum": []any{"add", "sub"}},
		},
	}

	assert.NoError(t, ValidateParameters(map[string]any{"op": "add"}, schema))

	err := ValidateParameters(map[string]any{"op": "mul"}, schema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not in enum")
}

func TestStripCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"no fence", `{"a": 1}`, `{"a": 1}`},
		{"fence with tag", "```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"fence without tag", "```\n{\"a\": 1}\n```", `{"a": 1}`},
		{"surrounding whitespace", "  ```json\n{\"a\": 1}\n```  ", `{"a": 1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripCodeFences(tt.input))
		})
	}
}

func TestDecodeArguments(t *testing.T) {
	assert.Equal(t, map[string]any{"a": float64(1)}, DecodeArguments(`{"a": 1}`))
	// Malformed or empty payloads never abort: they decode to an empty map.
	assert.Equal(t, map[string]any{}, DecodeArguments(""))
	assert.Equal(t, map[string]any{}, DecodeArguments("{not json"))
	assert.Equal(t, map[string]any{}, DecodeArguments("null"))
}
