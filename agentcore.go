// Package agentcore provides a high-level façade over the multi-agent
// orchestrator and its service abstractions (tool registry, session store,
// event sink, logging) enabling rapid construction of agent tool-calling
// backends. Most applications interact with this package by:
//  1. Creating an AgentCore via New() with a provider client (optionally
//     overriding default in-memory services)
//  2. Registering tool factories
//  3. Running turns via RunTurn
//
// The façade delegates execution to orchestrator.Orchestrator while keeping
// setup ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply a durable session store
// (session.SQLiteStore or an external implementation), a real event sink and
// a structured logger.
package agentcore

import (
	"context"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/logging"
	"github.com/Masscer-AI/agentcore/orchestrator"
	"github.com/Masscer-AI/agentcore/provider"
	"github.com/Masscer-AI/agentcore/session"
	"github.com/Masscer-AI/agentcore/tool"
)

// Options configures an AgentCore instance.
type Options struct {
	// Registry resolves tool names into context-bound tools per turn.
	Registry *tool.Registry
	// Store persists agent sessions and turn messages (defaults to in-memory).
	Store session.Store
	// Sink receives progress events (defaults to discarding them).
	Sink core.Sink
	// Logger (defaults to NoOp logger if nil).
	Logger logging.Logger
	// DefaultModel for agents without an explicit model identifier.
	DefaultModel string
}

// AgentCore is the high-level façade aggregating the orchestrator and services.
type AgentCore struct {
	opts         Options
	orchestrator *orchestrator.Orchestrator
}

// New creates a new AgentCore bound to a provider client. Any unset service
// is initialized with an in-memory implementation.
func New(client provider.Client, optFns ...func(o *Options)) *AgentCore {
	opts := Options{
		Registry: tool.NewRegistry(),
		Store:    session.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	orch := orchestrator.New(client, func(o *orchestrator.Options) {
		o.Registry = opts.Registry
		o.Store = opts.Store
		o.Sink = opts.Sink
		o.Logger = opts.Logger
		o.DefaultModel = opts.DefaultModel
	})

	return &AgentCore{opts: opts, orchestrator: orch}
}

// RegisterTool binds a tool name to its factory.
func (a *AgentCore) RegisterTool(name string, factory tool.Factory) {
	a.opts.Registry.Register(name, factory)
}

// RegisterStaticTool binds an already-constructed tool needing no per-run context.
func (a *AgentCore) RegisterStaticTool(t tool.Tool) {
	a.opts.Registry.RegisterStatic(t)
}

// RunTurn executes one user turn across the request's agents.
func (a *AgentCore) RunTurn(ctx context.Context, req orchestrator.TurnRequest) (*orchestrator.TurnResult, error) {
	return a.orchestrator.RunTurn(ctx, req)
}
