package tool

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Masscer-AI/agentcore/logging"
)

// ErrUnknownTool is reported when a requested tool name has no registered factory.
var ErrUnknownTool = errors.New("unknown tool")

// Context carries the per-run identifiers a Factory needs to bind a tool to
// its conversation. Fields a factory does not require may be left empty;
// factories that do require a field must fail with *ConfigurationError when
// it is absent.
type Context struct {
	ConversationID string
	UserID         string
	AgentSlug      string
	OrganizationID string
	Extra          map[string]any
}

// Factory constructs a concrete Tool bound to the given resolution context.
type Factory func(rc Context) (Tool, error)

// ConfigurationError reports that a tool could not be constructed because a
// required context field was absent. Resolution aborts on it rather than
// silently skipping the tool.
type ConfigurationError struct {
	Tool  string
	Field string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tool %s requires context field %s", e.Tool, e.Field)
}

// ResolutionError reports that a requested tool name could not be resolved.
// It is surfaced at the orchestration boundary before any provider call.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("failed to resolve tool %s: %v", e.Name, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// Registry maps tool names to factories and resolves ordered name lists into
// concrete tool instances. Registration happens at warm-up; after that the
// registry is read-only and safe for concurrent resolutions across
// independent loop runs. Resolve itself holds no mutable state per call.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
	logger    logging.Logger
}

// NewRegistry constructs an empty Registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Registry{factories: make(map[string]Factory), logger: opts.Logger}
}

// Register binds a tool name to its factory, replacing any previous binding.
func (r *Registry) Register(name string, factory Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = factory
}

// RegisterStatic binds a name to an already-constructed Tool that needs no
// per-run context.
func (r *Registry) RegisterStatic(t Tool) {
	r.Register(t.Name(), func(Context) (Tool, error) { return t, nil })
}

// Names returns the registered tool names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	return names
}

// Resolve produces concrete tools for the requested names, preserving order.
// An unknown name or a factory failure aborts resolution with a
// *ResolutionError: a partially resolved tool set must never reach the model.
func (r *Registry) Resolve(names []string, rc Context) ([]Tool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(names))
	for _, name := range names {
		factory, ok := r.factories[name]
		if !ok {
			return nil, &ResolutionError{Name: name, Err: ErrUnknownTool}
		}
		t, err := factory(rc)
		if err != nil {
			r.logger.Error("tool.resolve.error", "tool", name, "error", err.Error())
			return nil, &ResolutionError{Name: name, Err: err}
		}
		tools = append(tools, t)
	}
	return tools, nil
}
