// Package anthropic implements the native function-calling strategy on the
// Anthropic Messages API. Tool schemas go to the API as tool definitions and
// the model's tool_use blocks come back as structured call deltas.
package anthropic

import (
	"context"
	"encoding/json"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/packages/param"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	agent "github.com/armatrix/mcp-agent-go"
)

// MessageStreamer abstracts the streaming Messages API so tests can inject
// canned responses.
type MessageStreamer interface {
	NewStreaming(ctx context.Context, params sdk.MessageNewParams) *ssestream.Stream[sdk.MessageStreamEventUnion]
}

type messageServiceAdapter struct {
	client *sdk.Client
}

func (a *messageServiceAdapter) NewStreaming(ctx context.Context, params sdk.MessageNewParams) *ssestream.Stream[sdk.MessageStreamEventUnion] {
	return a.client.Messages.NewStreaming(ctx, params)
}

const defaultMaxTokens = 4096

// Strategy drives turns through the Anthropic Messages API.
type Strategy struct {
	streamer  MessageStreamer
	model     sdk.Model
	maxTokens int64
}

// Option configures a Strategy.
type Option func(*Strategy)

// WithMaxTokens caps the model's output per turn. Defaults to 4096.
func WithMaxTokens(n int64) Option {
	return func(s *Strategy) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// WithStreamer replaces the API client, mainly for tests.
func WithStreamer(streamer MessageStreamer) Option {
	return func(s *Strategy) { s.streamer = streamer }
}

// New creates a strategy talking to the given client and model.
func New(client *sdk.Client, model sdk.Model, options ...Option) *Strategy {
	s := &Strategy{
		streamer:  &messageServiceAdapter{client: client},
		model:     model,
		maxTokens: defaultMaxTokens,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// ProposeTurn streams one model turn. Text deltas and tool_use blocks map
// directly onto the loop's delta vocabulary.
func (s *Strategy) ProposeTurn(ctx context.Context, history []agent.Turn, catalog *agent.Catalog) (agent.TurnStream, error) {
	params := sdk.MessageNewParams{
		Model:     s.model,
		MaxTokens: s.maxTokens,
		Messages:  buildMessages(history),
	}
	if system := systemText(history); system != "" {
		params.System = []sdk.TextBlockParam{{Text: system}}
	}
	if tools := buildTools(catalog); len(tools) > 0 {
		params.Tools = tools
	}

	return &turnStream{stream: s.streamer.NewStreaming(ctx, params)}, nil
}

func systemText(history []agent.Turn) string {
	for _, turn := range history {
		if turn.Role == agent.RoleSystem {
			return turn.Text
		}
	}
	return ""
}

// buildMessages converts conversation history into Messages API params.
// Tool turns become tool_result blocks inside user messages, which is how
// the API expects call results back.
func buildMessages(history []agent.Turn) []sdk.MessageParam {
	messages := make([]sdk.MessageParam, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case agent.RoleUser:
			messages = append(messages, sdk.NewUserMessage(sdk.NewTextBlock(turn.Text)))
		case agent.RoleAssistant:
			blocks := make([]sdk.ContentBlockParamUnion, 0, 1+len(turn.Calls))
			if turn.Text != "" {
				blocks = append(blocks, sdk.NewTextBlock(turn.Text))
			}
			for _, call := range turn.Calls {
				blocks = append(blocks,
					sdk.NewToolUseBlock(call.ID, json.RawMessage(call.RawArguments), call.Name))
			}
			if len(blocks) > 0 {
				messages = append(messages, sdk.NewAssistantMessage(blocks...))
			}
		case agent.RoleTool:
			messages = append(messages,
				sdk.NewUserMessage(sdk.NewToolResultBlock(turn.CallID, turn.Text, turn.IsError)))
		}
	}
	return messages
}

func buildTools(catalog *agent.Catalog) []sdk.ToolUnionParam {
	schemas := catalog.FunctionSchemas()
	tools := make([]sdk.ToolUnionParam, 0, len(schemas))
	for _, schema := range schemas {
		input := sdk.ToolInputSchemaParam{}
		if properties, ok := schema.Parameters["properties"]; ok {
			input.Properties = properties
		}
		if required, ok := schema.Parameters["required"].([]string); ok {
			input.Required = required
		}
		tools = append(tools, sdk.ToolUnionParam{
			OfTool: &sdk.ToolParam{
				Name:        schema.Name,
				Description: param.NewOpt(schema.Description),
				InputSchema: input,
			},
		})
	}
	return tools
}

// turnStream maps Messages API stream events onto turn deltas.
type turnStream struct {
	stream  *ssestream.Stream[sdk.MessageStreamEventUnion]
	current agent.TurnDelta
}

func (t *turnStream) Next() bool {
	for t.stream.Next() {
		event := t.stream.Current()
		switch event.Type {
		case "content_block_start":
			if event.ContentBlock.Type == "tool_use" {
				t.current = agent.CallBegin{
					Index: int(event.Index),
					ID:    event.ContentBlock.ID,
					Name:  event.ContentBlock.Name,
				}
				return true
			}
		case "content_block_delta":
			switch event.Delta.Type {
			case "text_delta":
				if event.Delta.Text == "" {
					continue
				}
				t.current = agent.TextDelta{Text: event.Delta.Text}
				return true
			case "input_json_delta":
				t.current = agent.CallArgsDelta{
					Index:    int(event.Index),
					Fragment: event.Delta.PartialJSON,
				}
				return true
			}
		case "content_block_stop":
			t.current = agent.CallEnd{Index: int(event.Index)}
			return true
		}
	}
	return false
}

func (t *turnStream) Current() agent.TurnDelta { return t.current }
func (t *turnStream) Err() error               { return t.stream.Err() }
func (t *turnStream) Close() error             { return t.stream.Close() }
