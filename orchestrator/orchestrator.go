package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/logging"
	"github.com/Masscer-AI/agentcore/loop"
	"github.com/Masscer-AI/agentcore/provider"
	"github.com/Masscer-AI/agentcore/session"
	"github.com/Masscer-AI/agentcore/tool"
)

// Mode selects how agents in one turn see each other's outputs.
type Mode string

const (
	// ModeIsolated runs each agent against the raw user turn only.
	ModeIsolated Mode = "isolated"
	// ModeGrupal augments each subsequent agent with all prior agents'
	// outputs of the same turn, tagged as peer assistants.
	ModeGrupal Mode = "grupal"
)

// AgentConfig describes one agent participating in a turn.
type AgentConfig struct {
	Slug          string
	Name          string
	SystemPrompt  string
	Model         string
	Tools         []string // tool allowlist, resolved per turn
	OutputSchema  map[string]any
	RAGEnabled    bool
	MaxIterations int
}

// TurnRequest is one full user-initiated request across an ordered agent list.
type TurnRequest struct {
	ConversationID string
	UserID         string
	OrganizationID string
	Message        string
	// History carries prior-turn context items fed to every agent.
	History     []core.Item
	Agents      []AgentConfig
	Mode        Mode
	UserProfile string
}

// Version is one agent's accumulated output within a turn.
type Version struct {
	AgentSlug   string
	Text        string
	Output      any
	Usage       core.Usage
	Iterations  int
	ToolCalls   int
	Attachments []core.Attachment
	SessionID   string
	MessageID   string // set in grupal mode once the per-agent message persists
}

// TurnResult is the terminal artifact of a successful turn.
type TurnResult struct {
	Versions   []Version
	MessageIDs []string
	Usage      core.Usage
}

// Options configure an Orchestrator.
type Options struct {
	Registry *tool.Registry
	Store    session.Store
	Sink     core.Sink
	Logger   logging.Logger
	// Clock supplies the current time used in agent instructions.
	Clock func() time.Time
	// DefaultModel is used for agents without an explicit model; empty
	// defers to the provider adapter's own default.
	DefaultModel string
}

// Orchestrator sequences agents over user turns. It is safe for concurrent
// turns: all per-turn state is local to RunTurn.
type Orchestrator struct {
	client   provider.Client
	registry *tool.Registry
	store    session.Store
	sink     core.Sink
	logger   logging.Logger
	clock    func() time.Time
	model    string
}

// New constructs an Orchestrator with optional overrides. Any unset service
// is initialized with an in-memory or no-op implementation.
func New(client provider.Client, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		Registry: tool.NewRegistry(),
		Store:    session.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
		Clock:    time.Now,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Orchestrator{
		client:   client,
		registry: opts.Registry,
		store:    opts.Store,
		sink:     opts.Sink,
		logger:   opts.Logger,
		clock:    opts.Clock,
		model:    opts.DefaultModel,
	}
}

// RunTurn executes one user turn. On failure it returns a *TurnError: the
// remaining agents are skipped, no combined message is persisted for the
// turn, and already-completed agents keep their finalized sessions.
func (o *Orchestrator) RunTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	if len(req.Agents) == 0 {
		return nil, fmt.Errorf("turn requires at least one agent")
	}
	mode := req.Mode
	if mode == "" {
		mode = ModeIsolated
	}

	baseInput := append(core.CloneItems(req.History), core.MessageItem{Role: "user", Text: req.Message})

	var versions []Version
	var messageIDs []string
	var totalUsage core.Usage

	for _, agent := range req.Agents {
		version, err := o.runAgent(ctx, req, agent, mode, baseInput, versions)
		if err != nil {
			o.emit(core.EventError, map[string]any{
				"agent": agent.Slug,
				"error": err.Error(),
			})
			o.logger.Error("turn.agent.error", "agent", agent.Slug, "error", err.Error())
			return nil, &TurnError{AgentSlug: agent.Slug, Err: err, Completed: versions}
		}

		o.emit(core.EventAgentVersionReady, map[string]any{
			"agent":      version.AgentSlug,
			"iterations": version.Iterations,
			"tool_calls": version.ToolCalls,
		})

		if mode == ModeGrupal {
			// Grupal turns surface each agent's answer as its own message
			// as soon as the agent finishes.
			msgID, err := o.store.AppendMessage(ctx, session.Message{
				ConversationID: req.ConversationID,
				AgentSlug:      version.AgentSlug,
				Text:           version.Text,
				Attachments:    version.Attachments,
			})
			if err != nil {
				return nil, &TurnError{AgentSlug: agent.Slug, Err: err, Completed: versions}
			}
			version.MessageID = msgID
			messageIDs = append(messageIDs, msgID)
		}

		versions = append(versions, *version)
		totalUsage.Add(version.Usage)

		o.emit(core.EventAgentComplete, map[string]any{"agent": version.AgentSlug})
	}

	if mode != ModeGrupal {
		if msg, ok := combineVersions(req.ConversationID, versions); ok {
			msgID, err := o.store.AppendMessage(ctx, msg)
			if err != nil {
				last := req.Agents[len(req.Agents)-1]
				return nil, &TurnError{AgentSlug: last.Slug, Err: err, Completed: versions}
			}
			messageIDs = append(messageIDs, msgID)
		}
	}

	return &TurnResult{Versions: versions, MessageIDs: messageIDs, Usage: totalUsage}, nil
}

// runAgent resolves one agent's tools and model, snapshots a session record,
// runs the inference loop and finalizes the session exactly once - with the
// full output on success or a best-effort failure payload otherwise.
func (o *Orchestrator) runAgent(
	ctx context.Context,
	req TurnRequest,
	agent AgentConfig,
	mode Mode,
	baseInput []core.Item,
	completed []Version,
) (*Version, error) {
	model := agent.Model
	if model == "" {
		model = o.model
	}

	var peers []Version
	if mode == ModeGrupal {
		peers = completed
	}
	instructions := buildInstructions(agent, req, peers, o.clock())

	tools, err := o.registry.Resolve(agent.Tools, tool.Context{
		ConversationID: req.ConversationID,
		UserID:         req.UserID,
		AgentSlug:      agent.Slug,
		OrganizationID: req.OrganizationID,
	})
	if err != nil {
		return nil, err
	}

	sessionID, err := o.store.CreateSession(ctx, session.Record{
		Inputs: session.Inputs{
			ConversationID: req.ConversationID,
			AgentSlug:      agent.Slug,
			Model:          model,
			Instructions:   instructions,
			ToolNames:      agent.Tools,
			Context: map[string]any{
				"mode":            string(mode),
				"peer_versions":   len(peers),
				"history_entries": len(req.History),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session for agent %s: %w", agent.Slug, err)
	}

	engine := loop.New(o.client, model, func(opts *loop.Options) {
		opts.Instructions = instructions
		opts.Tools = tools
		opts.OutputSchema = agent.OutputSchema
		opts.MaxIterations = agent.MaxIterations
		opts.Sink = o.sink
		opts.Logger = o.logger
	})

	result, runErr := engine.Run(ctx, baseInput)
	if runErr != nil {
		o.finalizeFailedSession(ctx, sessionID, runErr)
		return nil, runErr
	}

	if err := o.store.UpdateSession(ctx, sessionID, session.Outputs{
		Status:        session.StatusCompleted,
		Output:        result.OutputText,
		Messages:      result.Messages,
		Usage:         result.Usage,
		Iterations:    result.Iterations,
		ToolCallCount: len(result.ToolCalls),
	}); err != nil {
		return nil, fmt.Errorf("failed to update session for agent %s: %w", agent.Slug, err)
	}

	return &Version{
		AgentSlug:   agent.Slug,
		Text:        result.OutputText,
		Output:      result.Output,
		Usage:       result.Usage,
		Iterations:  result.Iterations,
		ToolCalls:   len(result.ToolCalls),
		Attachments: extractAttachments(result.ToolCalls),
		SessionID:   sessionID,
	}, nil
}

// finalizeFailedSession records the error payload with whatever partial state
// the failure carries. A store failure here is only logged; the original run
// error is what propagates.
func (o *Orchestrator) finalizeFailedSession(ctx context.Context, sessionID string, runErr error) {
	outputs := session.Outputs{
		Status: session.StatusFailed,
		Error:  runErr.Error(),
	}
	var limitErr *loop.IterationLimitError
	if errors.As(runErr, &limitErr) {
		outputs.Messages = limitErr.Messages
		outputs.Iterations = limitErr.Iterations
	}
	if err := o.store.UpdateSession(ctx, sessionID, outputs); err != nil {
		o.logger.Warn("turn.session.finalize_failed", "session_id", sessionID, "error", err.Error())
	}
}

// combineVersions assembles the single end-of-turn message of a non-grupal
// run: version texts joined in order with all attachments merged. The second
// return is false when the versions carry neither text nor attachments, in
// which case nothing is worth persisting.
func combineVersions(conversationID string, versions []Version) (session.Message, bool) {
	var texts []string
	var attachments []core.Attachment
	for _, v := range versions {
		if text := strings.TrimSpace(v.Text); text != "" {
			texts = append(texts, text)
		}
		attachments = append(attachments, v.Attachments...)
	}
	if len(texts) == 0 && len(attachments) == 0 {
		return session.Message{}, false
	}
	slug := ""
	if len(versions) == 1 {
		slug = versions[0].AgentSlug
	}
	return session.Message{
		ConversationID: conversationID,
		AgentSlug:      slug,
		Text:           strings.Join(texts, "\n\n"),
		Attachments:    attachments,
	}, true
}

func (o *Orchestrator) emit(eventType core.EventType, payload map[string]any) {
	core.EmitSafe(o.logger, o.sink, core.NewEvent(eventType, payload))
}
