package loop

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/internal/util"
	"github.com/Masscer-AI/agentcore/logging"
	"github.com/Masscer-AI/agentcore/provider"
	"github.com/Masscer-AI/agentcore/tool"
)

// DefaultMaxIterations bounds provider round-trips when no explicit limit is
// configured.
const DefaultMaxIterations = 10

// Options configure a Loop instance. Use functional options with New to
// override defaults.
type Options struct {
	// Instructions is the system prompt sent with every provider request.
	Instructions string
	// Tools are the capabilities advertised to the model, in order.
	Tools []tool.Tool
	// OutputSchema, when set, coerces the terminal text into a validated
	// structured value (see Coercer).
	OutputSchema map[string]any
	// MaxIterations bounds provider round-trips. One iteration is one
	// request/response cycle, regardless of how many tools it triggers.
	MaxIterations int
	// Sink receives progress events. Emitter failures never abort a run.
	Sink core.Sink
	// Logger receives structured diagnostics.
	Logger logging.Logger
}

// Result is the terminal artifact of one loop run. It is immutable once
// returned.
type Result struct {
	// Output is the coerced structured value when an output schema was
	// configured and coercion succeeded, the raw text otherwise. Callers
	// that require a schema instance must check the concrete type.
	Output any
	// OutputText is the model's raw terminal text.
	OutputText string
	// Messages is the full accumulated turn input including the terminal
	// response items.
	Messages []core.Item
	// Iterations is the number of provider round-trips consumed.
	Iterations int
	// ToolCalls are the audit records of every tool invocation, in
	// execution order.
	ToolCalls []core.ToolCallRecord
	// Usage accumulates token counts across all iterations.
	Usage core.Usage
}

// Loop drives the request/response cycle with a provider. Construct once per
// run; a Loop owns its turn history exclusively and must not be shared
// across concurrent runs.
type Loop struct {
	client        provider.Client
	model         string
	instructions  string
	tools         []tool.Tool
	toolIndex     map[string]tool.Tool
	toolDefs      []provider.ToolDefinition
	maxIterations int
	sink          core.Sink
	logger        logging.Logger
	coercer       *Coercer
}

// New constructs a loop engine bound to a provider client and model
// identifier.
func New(client provider.Client, model string, optFns ...func(o *Options)) *Loop {
	opts := Options{
		MaxIterations: DefaultMaxIterations,
		Logger:        logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = DefaultMaxIterations
	}

	toolIndex := make(map[string]tool.Tool, len(opts.Tools))
	toolDefs := make([]provider.ToolDefinition, 0, len(opts.Tools))
	for _, t := range opts.Tools {
		toolIndex[t.Name()] = t
		toolDefs = append(toolDefs, provider.ToolDefinition{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	l := &Loop{
		client:        client,
		model:         model,
		instructions:  opts.Instructions,
		tools:         opts.Tools,
		toolIndex:     toolIndex,
		toolDefs:      toolDefs,
		maxIterations: opts.MaxIterations,
		sink:          opts.Sink,
		logger:        opts.Logger,
	}
	if opts.OutputSchema != nil {
		l.coercer = NewCoercer(client, model, opts.OutputSchema, func(o *CoercerOptions) {
			o.Logger = opts.Logger
		})
	}
	return l
}

// Run executes the loop over the caller-supplied turn history, which may be
// pre-seeded with prior-turn context. It returns the Loop Result on a
// terminal text response, a *ProviderError on provider failure, or a
// *IterationLimitError when the iteration budget is exhausted.
func (l *Loop) Run(ctx context.Context, input []core.Item) (*Result, error) {
	messages := core.CloneItems(input)
	var records []core.ToolCallRecord
	var usage core.Usage

	l.emit(core.EventLoopStart, map[string]any{"model": l.model, "tools": len(l.tools)})

	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		l.emit(core.EventIterationStart, map[string]any{"iteration": iteration})
		l.logger.Debug("loop.iteration.start", "iteration", iteration, "messages", len(messages))

		resp, err := l.client.CreateResponse(ctx, provider.Request{
			Model:        l.model,
			Instructions: l.instructions,
			Input:        messages,
			Tools:        l.toolDefs,
		})
		if err != nil {
			l.emit(core.EventError, map[string]any{"iteration": iteration, "error": err.Error()})
			l.logger.Error("loop.provider.error", "iteration", iteration, "error", err.Error())
			return nil, &ProviderError{Model: l.model, Err: err}
		}
		usage.Add(resp.Usage)

		// Append a plain-data copy of every returned item before anything
		// else, preserving order, so the provider always sees its own prior
		// turn verbatim on the next call.
		messages = append(messages, resp.Output...)

		calls := resp.FunctionCalls()
		if len(calls) > 0 {
			for _, fc := range calls {
				record, output := l.executeCall(ctx, fc, iteration)
				records = append(records, record)
				messages = append(messages, output)
			}
			continue
		}

		text := resp.OutputText
		if strings.TrimSpace(text) == "" {
			// Some models occasionally return an empty turn; treat it as a
			// consumed iteration rather than a failure.
			l.logger.Warn("loop.iteration.empty_response", "iteration", iteration)
			continue
		}

		var output any = text
		if l.coercer != nil {
			output = l.coercer.Coerce(ctx, text)
		}
		l.emit(core.EventResponse, map[string]any{"iteration": iteration, "text": text})
		l.logger.Info("loop.complete", "iterations", iteration, "tool_calls", len(records))

		return &Result{
			Output:     output,
			OutputText: text,
			Messages:   messages,
			Iterations: iteration,
			ToolCalls:  records,
			Usage:      usage,
		}, nil
	}

	limitErr := &IterationLimitError{Iterations: l.maxIterations, Messages: messages}
	l.emit(core.EventError, map[string]any{"error": limitErr.Error(), "iterations": l.maxIterations})
	l.logger.Error("loop.iteration_limit", "max_iterations", l.maxIterations, "tool_calls", len(records))
	return nil, limitErr
}

// executeCall runs one tool invocation and produces its audit record plus the
// output item fed back to the provider. Failures are captured in the record
// and serialized as an error payload; they never abort the loop.
func (l *Loop) executeCall(ctx context.Context, fc core.FunctionCallItem, iteration int) (core.ToolCallRecord, core.FunctionCallOutputItem) {
	args := util.DecodeArguments(fc.Arguments)
	record := core.ToolCallRecord{
		ToolName:  fc.Name,
		Arguments: args,
		Iteration: iteration,
	}

	l.emit(core.EventToolCallStart, map[string]any{
		"tool":      fc.Name,
		"call_id":   fc.CallID,
		"iteration": iteration,
	})

	start := time.Now()
	result, err := l.invokeTool(ctx, fc, args, iteration)
	record.Duration = time.Since(start)

	if err != nil {
		record.Err = toolErrorMessage(err)
		record.Result = errorPayload(record.Err)
	} else {
		record.Result = serializeResult(result)
	}

	l.emit(core.EventToolCallEnd, map[string]any{
		"tool":        fc.Name,
		"call_id":     fc.CallID,
		"iteration":   iteration,
		"duration_ms": record.Duration.Milliseconds(),
		"error":       record.Err,
	})
	l.logger.Info("loop.tool.executed",
		"tool", fc.Name,
		"call_id", fc.CallID,
		"duration_ms", record.Duration.Milliseconds(),
		"error", record.Err != "",
	)

	return record, core.FunctionCallOutputItem{CallID: fc.CallID, Output: record.Result}
}

// invokeTool dispatches to the named tool with panic recovery so a panicking
// implementation is recorded as a failed call instead of crashing the run.
func (l *Loop) invokeTool(ctx context.Context, fc core.FunctionCallItem, args map[string]any, iteration int) (result any, err error) {
	t, ok := l.toolIndex[fc.Name]
	if !ok {
		return nil, fmt.Errorf("tool %s not found", fc.Name)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			l.logger.Error("loop.tool.panic", "tool", fc.Name, "recover", r)
		}
	}()

	callCtx := tool.NewCallContext(ctx, fc.CallID, iteration, l.logger)
	return t.Call(callCtx, args)
}

func (l *Loop) emit(eventType core.EventType, payload map[string]any) {
	core.EmitSafe(l.logger, l.sink, core.NewEvent(eventType, payload))
}

// toolErrorMessage extracts the bare failure message, unwrapping *ToolError
// so the record carries the underlying cause rather than the decorated form.
func toolErrorMessage(err error) string {
	if toolErr, ok := err.(*tool.ToolError); ok {
		return toolErr.Message
	}
	return err.Error()
}

// errorPayload builds the structured error result sent back to the model.
func errorPayload(message string) string {
	payload, err := json.Marshal(map[string]string{
		"error": "Tool execution failed: " + message,
	})
	if err != nil {
		return `{"error": "Tool execution failed"}`
	}
	return string(payload)
}

// serializeResult renders a tool result for the provider. Strings pass
// through unchanged; everything else is JSON encoded so a map result
// round-trips to an equal map.
func serializeResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Sprintf("%v", result)
	}
	return string(encoded)
}
