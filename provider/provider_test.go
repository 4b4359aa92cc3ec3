package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Masscer-AI/agentcore/core"
)

func TestResponseFunctionCalls(t *testing.T) {
	resp := &Response{Output: []core.Item{
		core.MessageItem{Role: "assistant", Text: "thinking"},
		core.FunctionCallItem{CallID: "call-1", Name: "a"},
		core.FunctionCallOutputItem{CallID: "call-0", Output: "ignored"},
		core.FunctionCallItem{CallID: "call-2", Name: "b"},
	}}

	calls := resp.FunctionCalls()
	require.Len(t, calls, 2)
	assert.Equal(t, "call-1", calls[0].CallID)
	assert.Equal(t, "call-2", calls[1].CallID)
}

func TestMockClientScript(t *testing.T) {
	mock := NewMockClient()
	mock.EnqueueText("first")
	mock.EnqueueError(errors.New("transient"))
	mock.EnqueueText("second")

	resp, err := mock.CreateResponse(context.Background(), Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "first", resp.OutputText)

	_, err = mock.CreateResponse(context.Background(), Request{Model: "m"})
	require.EqualError(t, err, "transient")

	resp, err = mock.CreateResponse(context.Background(), Request{Model: "m"})
	require.NoError(t, err)
	assert.Equal(t, "second", resp.OutputText)

	assert.Len(t, mock.Requests(), 3)
}

func TestMockClientEchoFallback(t *testing.T) {
	mock := NewMockClient()

	resp, err := mock.CreateResponse(context.Background(), Request{
		Input: []core.Item{core.MessageItem{Role: "user", Text: "ping"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: ping", resp.OutputText)
}

func TestMockClientHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	mock := NewMockClient()
	_, err := mock.CreateResponse(ctx, Request{})
	assert.ErrorIs(t, err, context.Canceled)
}
