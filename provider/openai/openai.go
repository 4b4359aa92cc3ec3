// Package openai implements the provider.Client boundary on top of the
// OpenAI Chat Completions API (function/tool calling plus strict JSON-schema
// response formats). It adapts agentcore's normalized request/response
// structures into the SDK's message format and back.
package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/shared"

	"github.com/Masscer-AI/agentcore/core"
	"github.com/Masscer-AI/agentcore/provider"
)

// Options configure the OpenAI adapter. Fields mirror a subset of Chat
// Completion parameters intentionally kept minimal; extend via functional
// options without breaking callers.
type Options struct {
	// DefaultModel is used when a request carries no model identifier.
	DefaultModel        string
	Temperature         float64
	MaxCompletionTokens int64
}

// Client wraps the OpenAI Chat Completions API behind provider.Client.
type Client struct {
	client *openai.Client
	opts   Options
}

// New creates a new adapter using the official client configured from the
// environment.
func New(optFns ...func(o *Options)) *Client {
	client := openai.NewClient()
	return NewFromClient(&client, optFns...)
}

// NewFromClient creates a new adapter from an existing SDK client.
func NewFromClient(client *openai.Client, optFns ...func(o *Options)) *Client {
	opts := Options{
		DefaultModel:        openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Client{client: client, opts: opts}
}

// CreateResponse implements provider.Client.
func (c *Client) CreateResponse(ctx context.Context, req provider.Request) (*provider.Response, error) {
	params := c.buildParams(req)

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}

	choice := resp.Choices[0]
	var items []core.Item
	var textBuilder strings.Builder
	if choice.Message.Content != "" {
		items = append(items, core.MessageItem{Role: "assistant", Text: choice.Message.Content})
		textBuilder.WriteString(choice.Message.Content)
	}
	for _, tc := range choice.Message.ToolCalls {
		items = append(items, core.FunctionCallItem{
			CallID:    tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return &provider.Response{
		ID:         resp.ID,
		Output:     items,
		OutputText: textBuilder.String(),
		Usage: core.Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

// buildParams assembles the Chat Completion parameters including tool
// definitions, tool choice and the optional strict response format.
func (c *Client) buildParams(req provider.Request) openai.ChatCompletionNewParams {
	model := req.Model
	if model == "" {
		model = c.opts.DefaultModel
	}

	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req),
		Model:               model,
		Temperature:         openai.Float(c.opts.Temperature),
		MaxCompletionTokens: openai.Int(c.opts.MaxCompletionTokens),
	}

	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tdef := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Name,
					Description: openai.String(tdef.Description),
					Parameters:  tdef.Parameters,
				},
			}
		}
		params.Tools = tools
	}

	switch req.ToolChoice {
	case provider.ToolChoiceNone, provider.ToolChoiceRequired:
		params.ToolChoice = openai.ChatCompletionToolChoiceOptionUnionParam{
			OfAuto: openai.String(string(req.ToolChoice)),
		}
	case provider.ToolChoiceAuto:
		// "auto" is the API default; leave ToolChoice unset.
	}

	if req.Output != nil {
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
				JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:   req.Output.Name,
					Schema: req.Output.Schema,
					Strict: openai.Bool(req.Output.Strict),
				},
			},
		}
	}

	return params
}

// buildMessages converts normalized turn items into Chat Completion messages,
// preserving order. Consecutive function calls collapse into one assistant
// message carrying all their tool calls: the API requires the tool messages
// answering each tool_call_id to directly follow that assistant message, and
// an iteration may return several calls at once.
func buildMessages(req provider.Request) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}
	input := req.Input
	for i := 0; i < len(input); i++ {
		switch v := input[i].(type) {
		case core.MessageItem:
			switch v.Role {
			case "system":
				messages = append(messages, openai.SystemMessage(v.Text))
			case "assistant":
				messages = append(messages, openai.AssistantMessage(v.Text))
			default:
				messages = append(messages, openai.UserMessage(v.Text))
			}
		case core.FunctionCallItem:
			toolCalls := []openai.ChatCompletionMessageToolCallParam{toolCallParam(v)}
			for i+1 < len(input) {
				next, ok := input[i+1].(core.FunctionCallItem)
				if !ok {
					break
				}
				toolCalls = append(toolCalls, toolCallParam(next))
				i++
			}
			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					ToolCalls: toolCalls,
				},
			})
		case core.FunctionCallOutputItem:
			messages = append(messages, openai.ToolMessage(v.Output, v.CallID))
		}
	}
	return messages
}

func toolCallParam(fc core.FunctionCallItem) openai.ChatCompletionMessageToolCallParam {
	return openai.ChatCompletionMessageToolCallParam{
		ID:   fc.CallID,
		Type: "function",
		Function: openai.ChatCompletionMessageToolCallFunctionParam{
			Name:      fc.Name,
			Arguments: fc.Arguments,
		},
	}
}
