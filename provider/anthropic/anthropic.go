// Package anthropic implements the provider.Client boundary on top of the
// Anthropic Messages API. Tool calls map to tool_use blocks and tool outputs
// to tool_result blocks. Strict structured output is emulated with a forced
// tool whose input schema is the requested output schema.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/provider"
)

// Options configure the Anthropic adapter (default model id, temperature,
// max tokens, API key). Extend via functional options to preserve stability.
type Options struct {
	DefaultModel anthropic.Model
	Temperature  float64
	MaxTokens    int64
	APIKey       string
}

// Client wraps the Anthropic Messages API behind provider.Client.
type Client struct {
	client *anthropic.Client
	opts   Options
}

// New creates a new adapter using the official client.
func New(optFns ...func(o *Options)) *Client {
	opts := defaultOptions(optFns)

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	client := anthropic.NewClient(clientOpts...)

	return &Client{client: &client, opts: opts}
}

// NewFromClient creates a new adapter from an existing SDK client.
func NewFromClient(client *anthropic.Client, optFns ...func(o *Options)) *Client {
	return &Client{client: client, opts: defaultOptions(optFns)}
}

func defaultOptions(optFns []func(o *Options)) Options {
	opts := Options{
		DefaultModel: anthropic.ModelClaude3_5Sonnet20241022,
		Temperature:  0.7,
		MaxTokens:    4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}

// CreateResponse implements provider.Client.
func (c *Client) CreateResponse(ctx context.Context, req provider.Request) (*provider.Response, error) {
	model := anthropic.Model(req.Model)
	if req.Model == "" {
		model = c.opts.DefaultModel
	}

	params := anthropic.MessageNewParams{
		Model:       model,
		Messages:    buildMessages(req.Input),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: anthropic.Float(c.opts.Temperature),
	}

	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}

	tools := buildTools(req.Tools)
	if req.Output != nil {
		// Messages API has no schema-constrained response format; force a
		// tool whose input schema is the output schema and read its input
		// back as the structured answer.
		tools = append(tools, outputTool(req.Output))
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.Output.Name},
		}
	}
	if len(tools) > 0 {
		params.Tools = tools
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	return c.convertResponse(resp, req.Output)
}

// convertResponse maps SDK content blocks to plain turn items. When a forced
// output tool was requested its tool_use input is surfaced as OutputText
// instead of a function call item.
func (c *Client) convertResponse(resp *anthropic.Message, output *provider.OutputFormat) (*provider.Response, error) {
	var items []core.Item
	var textBuilder strings.Builder

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textBlock := block.AsText()
			if textBlock.Text == "" {
				continue
			}
			items = append(items, core.MessageItem{Role: "assistant", Text: textBlock.Text})
			textBuilder.WriteString(textBlock.Text)
		case "tool_use":
			toolBlock := block.AsToolUse()
			args := ""
			if toolBlock.Input != nil {
				if argsBytes, err := json.Marshal(toolBlock.Input); err == nil {
					args = string(argsBytes)
				}
			}
			if output != nil && toolBlock.Name == output.Name {
				items = append(items, core.MessageItem{Role: "assistant", Text: args})
				textBuilder.WriteString(args)
				continue
			}
			items = append(items, core.FunctionCallItem{
				CallID:    toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}

	return &provider.Response{
		ID:         resp.ID,
		Output:     items,
		OutputText: textBuilder.String(),
		Usage: core.Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

// buildMessages converts normalized turn items to the Messages API format.
// Assistant text and tool_use blocks become assistant messages; tool outputs
// become user messages carrying tool_result blocks, as the API requires.
func buildMessages(items []core.Item) []anthropic.MessageParam {
	var messages []anthropic.MessageParam
	for _, it := range items {
		switch v := it.(type) {
		case core.MessageItem:
			if v.Text == "" {
				continue
			}
			if v.Role == "assistant" {
				messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(v.Text)))
			} else {
				messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(v.Text)))
			}
		case core.FunctionCallItem:
			var input any
			if v.Arguments != "" {
				if err := json.Unmarshal([]byte(v.Arguments), &input); err != nil {
					input = v.Arguments // fallback to raw string
				}
			}
			messages = append(messages, anthropic.NewAssistantMessage(
				anthropic.NewToolUseBlock(v.CallID, input, v.Name),
			))
		case core.FunctionCallOutputItem:
			messages = append(messages, anthropic.NewUserMessage(
				anthropic.NewToolResultBlock(v.CallID, v.Output, false),
			))
		}
	}
	return messages
}

// buildTools converts normalized tool definitions to the Messages API tool format.
func buildTools(tools []provider.ToolDefinition) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}
	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tdef := range tools {
		result[i] = anthropic.ToolUnionParamOfTool(inputSchema(tdef.Parameters), tdef.Name)
	}
	return result
}

// outputTool builds the forced tool emulating a strict output format.
func outputTool(output *provider.OutputFormat) anthropic.ToolUnionParam {
	return anthropic.ToolUnionParamOfTool(inputSchema(output.Schema), output.Name)
}

// inputSchema copies a minimal JSON schema into the SDK's input schema shape.
func inputSchema(params map[string]any) anthropic.ToolInputSchemaParam {
	schema := anthropic.ToolInputSchemaParam{
		Type: constant.Object("object"),
	}
	if params == nil {
		return schema
	}
	if properties, exists := params["properties"]; exists {
		schema.Properties = properties
	}
	switch required := params["required"].(type) {
	case []string:
		schema.Required = required
	case []any:
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}
	return schema
}
