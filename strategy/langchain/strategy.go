// Package langchain implements the framework strategy: turns are delegated to
// a langchaingo model, so any provider langchaingo supports can drive the
// loop. The framework's message and tool types are translated at the boundary
// and its replies come back as the loop's standard deltas.
package langchain

import (
	"context"

	"github.com/tmc/langchaingo/llms"

	agent "github.com/armatrix/mcp-agent-go"
)

// Strategy drives turns through a langchaingo model.
type Strategy struct {
	model llms.Model
	opts  []llms.CallOption
}

// New creates a strategy over a langchaingo model. Extra call options (model
// name, temperature) pass through to every turn.
func New(model llms.Model, opts ...llms.CallOption) *Strategy {
	return &Strategy{model: model, opts: opts}
}

// ProposeTurn translates history and the catalog into framework types, runs
// one generation, and translates the reply back.
func (s *Strategy) ProposeTurn(ctx context.Context, history []agent.Turn, catalog *agent.Catalog) (agent.TurnStream, error) {
	opts := make([]llms.CallOption, 0, len(s.opts)+1)
	opts = append(opts, s.opts...)
	if tools := buildTools(catalog); len(tools) > 0 {
		opts = append(opts, llms.WithTools(tools))
	}

	resp, err := s.model.GenerateContent(ctx, toMessageContent(history), opts...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return agent.NewDeltaStream(nil, nil), nil
	}
	return agent.NewDeltaStream(choiceDeltas(resp.Choices[0]), nil), nil
}

func toMessageContent(history []agent.Turn) []llms.MessageContent {
	messages := make([]llms.MessageContent, 0, len(history))
	for _, turn := range history {
		switch turn.Role {
		case agent.RoleSystem:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeSystem, turn.Text))
		case agent.RoleUser:
			messages = append(messages, llms.TextParts(llms.ChatMessageTypeHuman, turn.Text))
		case agent.RoleAssistant:
			msg := llms.MessageContent{Role: llms.ChatMessageTypeAI}
			if turn.Text != "" {
				msg.Parts = append(msg.Parts, llms.TextPart(turn.Text))
			}
			for _, call := range turn.Calls {
				msg.Parts = append(msg.Parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: call.RawArguments,
					},
				})
			}
			if len(msg.Parts) > 0 {
				messages = append(messages, msg)
			}
		case agent.RoleTool:
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{
					llms.ToolCallResponse{
						ToolCallID: turn.CallID,
						Name:       turn.ToolName,
						Content:    turn.Text,
					},
				},
			})
		}
	}
	return messages
}

func buildTools(catalog *agent.Catalog) []llms.Tool {
	schemas := catalog.FunctionSchemas()
	tools := make([]llms.Tool, 0, len(schemas))
	for _, schema := range schemas {
		tools = append(tools, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        schema.Name,
				Description: schema.Description,
				Parameters:  schema.Parameters,
			},
		})
	}
	return tools
}

// choiceDeltas flattens one framework choice into the delta vocabulary. The
// framework returns complete calls, so each becomes a begin/args/end triple.
func choiceDeltas(choice *llms.ContentChoice) []agent.TurnDelta {
	var deltas []agent.TurnDelta
	if choice.Content != "" {
		deltas = append(deltas, agent.TextDelta{Text: choice.Content})
	}
	for i, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			continue
		}
		deltas = append(deltas,
			agent.CallBegin{Index: i, ID: call.ID, Name: call.FunctionCall.Name},
			agent.CallArgsDelta{Index: i, Fragment: call.FunctionCall.Arguments},
			agent.CallEnd{Index: i},
		)
	}
	return deltas
}
