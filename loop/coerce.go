package loop

import (
	"context"
	"encoding/json"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/internal/util"
	"github.com/Masscer-AI/agentcore/logging"
	"github.com/Masscer-AI/agentcore/provider"
)

// reparseInstructions is the sole instruction of the stage-2 fallback call.
const reparseInstructions = "Parse the provided text into the required JSON shape. " +
	"Do not alter the wording of any value."

// CoercerOptions configure a Coercer.
type CoercerOptions struct {
	// FormatName labels the strict output format on the fallback call.
	FormatName string
	Logger     logging.Logger
}

// Coercer converts free-form model text into a validated, schema-conformant
// value with a two-stage fallback: direct parse (stripping Markdown code
// fences), then an AI-assisted re-parse under a strict output format. When
// both stages fail the raw text is returned unchanged - never losing the
// model's answer takes priority over strict typing.
//
// A Coercer holds no mutable state; coercing the same text twice yields the
// same result.
type Coercer struct {
	client provider.Client
	model  string
	schema map[string]any
	name   string
	logger logging.Logger
}

// NewCoercer constructs a Coercer for the given schema.
func NewCoercer(client provider.Client, model string, schema map[string]any, optFns ...func(o *CoercerOptions)) *Coercer {
	opts := CoercerOptions{
		FormatName: "structured_output",
		Logger:     logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Coercer{
		client: client,
		model:  model,
		schema: schema,
		name:   opts.FormatName,
		logger: opts.Logger,
	}
}

// Coerce parses raw text against the configured schema. The returned value is
// a decoded structure on success, the raw text on full fallback; callers that
// require a schema instance must check the concrete type.
func (c *Coercer) Coerce(ctx context.Context, raw string) any {
	if c.schema == nil {
		return raw
	}

	if value, ok := parseAndValidate(raw, c.schema); ok {
		return value
	}

	if value, ok := c.reparse(ctx, raw); ok {
		return value
	}

	c.logger.Warn("coerce.fallback.raw_text", "model", c.model)
	return raw
}

// reparse issues the stage-2 provider call: a strict-format request whose
// sole job is to reshape the text, not rewrite it.
func (c *Coercer) reparse(ctx context.Context, raw string) (any, bool) {
	resp, err := c.client.CreateResponse(ctx, provider.Request{
		Model:        c.model,
		Instructions: reparseInstructions,
		Input:        []core.Item{core.MessageItem{Role: "user", Text: raw}},
		Output: &provider.OutputFormat{
			Name:   c.name,
			Schema: c.schema,
			Strict: true,
		},
	})
	if err != nil {
		c.logger.Warn("coerce.reparse.error", "error", err.Error())
		return nil, false
	}
	return parseAndValidate(resp.OutputText, c.schema)
}

// parseAndValidate attempts a direct JSON parse of the text (stripping code
// fences) and validates object values against the schema.
func parseAndValidate(raw string, schema map[string]any) (any, bool) {
	stripped := util.StripCodeFences(raw)

	var value any
	if err := json.Unmarshal([]byte(stripped), &value); err != nil {
		return nil, false
	}

	if obj, ok := value.(map[string]any); ok {
		if err := util.ValidateParameters(obj, schema); err != nil {
			return nil, false
		}
		return obj, true
	}

	// Non-object schemas (arrays, scalars) accept any successful parse.
	if schemaType, _ := schema["type"].(string); schemaType == "object" {
		return nil, false
	}
	return value, true
}
