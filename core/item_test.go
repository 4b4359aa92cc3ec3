package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalItemsRoundTrip(t *testing.T) {
	items := []Item{
		MessageItem{Role: "user", Text: "What is 2+3?"},
		FunctionCallItem{CallID: "call-1", Name: "calculate_sum", Arguments: `{"a": 2, "b": 3}`},
		FunctionCallOutputItem{CallID: "call-1", Output: "5"},
		MessageItem{Role: "assistant", Text: "The sum is 5."},
	}

	data, err := MarshalItems(items)
	require.NoError(t, err)

	restored, err := UnmarshalItems(data)
	require.NoError(t, err)
	assert.Equal(t, items, restored)
}

func TestUnmarshalItemsEmpty(t *testing.T) {
	items, err := UnmarshalItems(nil)
	require.NoError(t, err)
	assert.Nil(t, items)
}

func TestUnmarshalItemsUnknownType(t *testing.T) {
	_, err := UnmarshalItems([]byte(`[{"type": "reasoning"}]`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reasoning")
}

func TestCloneItemsIndependence(t *testing.T) {
	original := []Item{MessageItem{Role: "user", Text: "hi"}}
	cloned := CloneItems(original)

	cloned = append(cloned, MessageItem{Role: "assistant", Text: "hello"})
	cloned[0] = MessageItem{Role: "system", Text: "changed"}

	require.Len(t, original, 1)
	assert.Equal(t, MessageItem{Role: "user", Text: "hi"}, original[0])

	assert.Nil(t, CloneItems(nil))
}

func TestItemsText(t *testing.T) {
	items := []Item{
		MessageItem{Role: "user", Text: "a"},
		FunctionCallItem{CallID: "call-1", Name: "noop"},
		FunctionCallOutputItem{CallID: "call-1", Output: "ignored"},
		MessageItem{Role: "assistant", Text: "b"},
	}
	assert.Equal(t, "ab", ItemsText(items))
}
