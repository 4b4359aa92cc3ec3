package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/internal/testutil"
	"github.com/Masscer-AI/agentcore/loop"
	"github.com/Masscer-AI/agentcore/provider"
	"github.com/Masscer-AI/agentcore/session"
	"github.com/Masscer-AI/agentcore/tool"
)

func twoAgents() []AgentConfig {
	return []AgentConfig{
		{Slug: "agent-one", Name: "Researcher", SystemPrompt: "Research the question."},
		{Slug: "agent-two", Name: "Reviewer", SystemPrompt: "Review the research."},
	}
}

func TestRunTurnGrupal(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueText("Paris is the capital of France.")
	mock.EnqueueText("Confirmed, the answer is Paris.")

	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
	})

	result, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "What is the capital of France?",
		Agents:         twoAgents(),
		Mode:           ModeGrupal,
	})
	require.NoError(t, err)

	require.Len(t, result.Versions, 2)
	assert.Equal(t, "agent-one", result.Versions[0].AgentSlug)
	assert.Equal(t, "agent-two", result.Versions[1].AgentSlug)
	require.Len(t, result.MessageIDs, 2)
	assert.Equal(t, result.MessageIDs[0], result.Versions[0].MessageID)

	// The second agent sees the first agent's output tagged as a peer
	// assistant, not as user text.
	reqs := mock.Requests()
	require.Len(t, reqs, 2)
	assert.NotContains(t, reqs[0].Instructions, "peer assistants")
	assert.Contains(t, reqs[1].Instructions, "peer assistants")
	assert.Contains(t, reqs[1].Instructions, "[assistant agent-one]: Paris is the capital of France.")

	// Both agents receive the same raw user turn as input.
	require.Len(t, reqs[1].Input, 1)
	msg, ok := reqs[1].Input[0].(core.MessageItem)
	require.True(t, ok)
	assert.Equal(t, "user", msg.Role)

	// One persisted message per agent, in completion order.
	messages, err := store.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "agent-one", messages[0].AgentSlug)
	assert.Equal(t, "agent-two", messages[1].AgentSlug)
}

func TestRunTurnIsolated(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueText("First answer.")
	mock.EnqueueText("Second answer.")

	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
	})

	result, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Answer twice.",
		Agents:         twoAgents(),
		Mode:           ModeIsolated,
	})
	require.NoError(t, err)

	// Isolated agents never see each other's output.
	reqs := mock.Requests()
	assert.NotContains(t, reqs[1].Instructions, "peer assistants")

	// One combined end-of-turn message; no slug with multiple contributors.
	require.Len(t, result.MessageIDs, 1)
	messages, err := store.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "First answer.\n\nSecond answer.", messages[0].Text)
	assert.Empty(t, messages[0].AgentSlug)
}

func TestRunTurnSingleAgentMessageSlug(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueText("Only answer.")

	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
	})

	_, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Answer once.",
		Agents:         []AgentConfig{{Slug: "solo", Name: "Solo"}},
	})
	require.NoError(t, err)

	messages, err := store.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "solo", messages[0].AgentSlug)
}

func TestRunTurnFailureIsolation(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueText("First answer.")
	mock.EnqueueError(errors.New("rate limited"))

	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
	})

	_, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "Answer twice.",
		Agents:         twoAgents(),
		Mode:           ModeIsolated,
	})
	require.Error(t, err)

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)
	assert.Equal(t, "agent-two", turnErr.AgentSlug)

	var provErr *loop.ProviderError
	assert.ErrorAs(t, err, &provErr)

	// The first agent's session stays finalized as completed.
	require.Len(t, turnErr.Completed, 1)
	rec, err := store.GetSession(context.Background(), turnErr.Completed[0].SessionID)
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, rec.Outputs.Status)

	// No combined message is persisted for a failed isolated turn.
	messages, err := store.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRunTurnFailedSessionRecordsError(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueFunctionCalls(core.FunctionCallItem{CallID: "call-1", Name: "spin", Arguments: "{}"})

	registry := tool.NewRegistry()
	registry.RegisterStatic(tool.NewFunctionTool("spin", "Spins", map[string]any{"type": "object"},
		func(cc *tool.CallContext, args map[string]any) (any, error) {
			return "spinning", nil
		}))

	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
		o.Registry = registry
	})

	_, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "spin forever",
		Agents:         []AgentConfig{{Slug: "spinner", Tools: []string{"spin"}, MaxIterations: 1}},
	})
	require.Error(t, err)

	var turnErr *TurnError
	require.ErrorAs(t, err, &turnErr)

	var limitErr *loop.IterationLimitError
	require.ErrorAs(t, err, &limitErr)

	// The pending session is finalized as failed with the partial transcript.
	sessions := store.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, session.StatusFailed, sessions[0].Outputs.Status)
	assert.NotEmpty(t, sessions[0].Outputs.Error)
	assert.Equal(t, 1, sessions[0].Outputs.Iterations)
	assert.NotEmpty(t, sessions[0].Outputs.Messages)
}

func TestRunTurnToolResolutionFailsBeforeProviderCall(t *testing.T) {
	mock := provider.NewMockClient()
	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
	})

	_, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "hi",
		Agents:         []AgentConfig{{Slug: "broken", Tools: []string{"missing"}}},
	})
	require.Error(t, err)

	var resErr *tool.ResolutionError
	require.ErrorAs(t, err, &resErr)
	assert.Equal(t, "missing", resErr.Name)

	// Resolution happens before any provider traffic or session row.
	assert.Empty(t, mock.Requests())
	assert.Empty(t, store.Sessions())
}

func TestRunTurnSessionBookkeeping(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueText("Done.")

	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
		o.DefaultModel = "fallback-model"
	})

	result, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		UserID:         "user-1",
		Message:        "hi",
		Agents:         []AgentConfig{{Slug: "helper", Name: "Helper"}},
	})
	require.NoError(t, err)

	rec, err := store.GetSession(context.Background(), result.Versions[0].SessionID)
	require.NoError(t, err)

	assert.Equal(t, "conv-1", rec.Inputs.ConversationID)
	assert.Equal(t, "helper", rec.Inputs.AgentSlug)
	assert.Equal(t, "fallback-model", rec.Inputs.Model)
	assert.Contains(t, rec.Inputs.Instructions, "You are Helper (agent: helper).")
	assert.Equal(t, session.StatusCompleted, rec.Outputs.Status)
	assert.Equal(t, "Done.", rec.Outputs.Output)
	assert.Equal(t, 1, rec.Outputs.Iterations)
}

func TestRunTurnCollectsAttachments(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueFunctionCalls(core.FunctionCallItem{CallID: "call-1", Name: "generate_image", Arguments: "{}"})
	mock.EnqueueText("Here is your image.")

	registry := tool.NewRegistry()
	registry.RegisterStatic(tool.NewFunctionTool("generate_image", "Generates an image", map[string]any{"type": "object"},
		func(cc *tool.CallContext, args map[string]any) (any, error) {
			return map[string]any{"image_url": "https://files.example/pic.png"}, nil
		}))

	store := session.NewInMemoryStore()
	o := New(mock, func(o *Options) {
		o.Store = store
		o.Registry = registry
	})

	result, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "draw something",
		Agents:         []AgentConfig{{Slug: "artist", Tools: []string{"generate_image"}}},
	})
	require.NoError(t, err)

	require.Len(t, result.Versions[0].Attachments, 1)
	att := result.Versions[0].Attachments[0]
	assert.Equal(t, "https://files.example/pic.png", att.URL)
	assert.Equal(t, "image", att.Kind)

	messages, err := store.ListMessages(context.Background(), "conv-1")
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, result.Versions[0].Attachments, messages[0].Attachments)
}

func TestRunTurnHistoryPrecedesUserMessage(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueText("Sure.")

	o := New(mock)

	_, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "And now?",
		History: []core.Item{
			core.MessageItem{Role: "user", Text: "Earlier question"},
			core.MessageItem{Role: "assistant", Text: "Earlier answer"},
		},
		Agents: []AgentConfig{{Slug: "helper"}},
	})
	require.NoError(t, err)

	reqs := mock.Requests()
	require.Len(t, reqs, 1)
	require.Len(t, reqs[0].Input, 3)
	last, ok := reqs[0].Input[2].(core.MessageItem)
	require.True(t, ok)
	assert.Equal(t, "And now?", last.Text)
}

func TestRunTurnRequiresAgents(t *testing.T) {
	o := New(provider.NewMockClient())
	_, err := o.RunTurn(context.Background(), TurnRequest{Message: "hi"})
	require.Error(t, err)
}

func TestRunTurnEmitsAgentEvents(t *testing.T) {
	mock := provider.NewMockClient()
	mock.EnqueueText("One.")
	mock.EnqueueText("Two.")

	recorder := testutil.NewEventRecorder()
	o := New(mock, func(o *Options) {
		o.Sink = recorder
	})

	_, err := o.RunTurn(context.Background(), TurnRequest{
		ConversationID: "conv-1",
		Message:        "hi",
		Agents:         twoAgents(),
		Mode:           ModeGrupal,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, recorder.CountOf(core.EventAgentVersionReady))
	assert.Equal(t, 2, recorder.CountOf(core.EventAgentComplete))
}

func TestBuildInstructions(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	agent := AgentConfig{
		Slug:         "helper",
		Name:         "Helper",
		SystemPrompt: "Be helpful.",
		Tools:        []string{"rag_query"},
		RAGEnabled:   true,
	}
	req := TurnRequest{UserProfile: "Prefers short answers."}

	got := buildInstructions(agent, req, []Version{{AgentSlug: "peer", Text: "peer says hi"}}, now)

	assert.Contains(t, got, "Be helpful.")
	assert.Contains(t, got, "You are Helper (agent: helper).")
	assert.Contains(t, got, "Current time (UTC): 2025-03-01T12:00:00Z")
	assert.Contains(t, got, "About the user:\nPrefers short answers.")
	assert.Contains(t, got, "You must call the rag_query tool")
	assert.Contains(t, got, "[assistant peer]: peer says hi")
}

func TestBuildInstructionsWithoutRAGTool(t *testing.T) {
	// RAGEnabled without the tool in the allowlist emits no directive.
	agent := AgentConfig{Slug: "helper", RAGEnabled: true}
	got := buildInstructions(agent, TurnRequest{}, nil, time.Now())
	assert.NotContains(t, got, "rag_query")
}

func TestCombineVersions(t *testing.T) {
	msg, ok := combineVersions("conv-1", []Version{
		{AgentSlug: "agent-one", Text: "First answer."},
		{AgentSlug: "agent-two", Text: "  "},
		{AgentSlug: "agent-three", Text: "Third answer.", Attachments: []core.Attachment{{URL: "https://x/i.png", Kind: "image"}}},
	})
	require.True(t, ok)
	assert.Equal(t, "First answer.\n\nThird answer.", msg.Text)
	assert.Empty(t, msg.AgentSlug)
	require.Len(t, msg.Attachments, 1)

	// Versions with neither text nor attachments yield no message at all.
	_, ok = combineVersions("conv-1", []Version{
		{AgentSlug: "agent-one", Text: ""},
		{AgentSlug: "agent-two", Text: "   "},
	})
	assert.False(t, ok)

	// Attachments alone are still worth persisting.
	msg, ok = combineVersions("conv-1", []Version{
		{AgentSlug: "artist", Attachments: []core.Attachment{{URL: "https://x/a.mp3", Kind: "audio"}}},
	})
	require.True(t, ok)
	assert.Empty(t, msg.Text)
	assert.Equal(t, "artist", msg.AgentSlug)
}

func TestExtractAttachments(t *testing.T) {
	records := []core.ToolCallRecord{
		{ToolName: "generate_image", Result: `{"image_url": "https://x/i.png"}`},
		{ToolName: "speech", Result: `{"audio_url": "https://x/a.mp3"}`},
		{ToolName: "upload", Result: `{"attachments": [{"id": "f1", "url": "https://x/f1", "kind": "document"}]}`},
		{ToolName: "broken", Result: `{"image_url": "https://x/skip.png"}`, Err: "boom"},
		{ToolName: "plain", Result: "just text"},
	}

	attachments := extractAttachments(records)
	require.Len(t, attachments, 3)
	assert.Equal(t, "https://x/i.png", attachments[0].URL)
	assert.Equal(t, "audio", attachments[1].Kind)
	assert.Equal(t, "f1", attachments[2].ID)
}
