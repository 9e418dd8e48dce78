// Package prompted implements the prompt-engineered strategy for models
// without native function calling. The tool catalog is rendered into the
// system prompt as a textual manual and the model signals a call by replying
// with a JSON envelope, which is parsed back into structured call deltas.
package prompted

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	agent "github.com/armatrix/mcp-agent-go"
)

// Completer produces one text completion. onDelta receives text fragments as
// they stream in; the full reply is also returned.
type Completer interface {
	Complete(ctx context.Context, system, prompt string, onDelta func(string)) (string, error)
}

// Strategy drives turns through a plain text-completion backend. The model's
// reply is buffered and inspected: a tool-call envelope becomes one complete
// call, anything else is the final answer.
type Strategy struct {
	completer Completer
}

// New creates a strategy over the given completion backend.
func New(completer Completer) *Strategy {
	return &Strategy{completer: completer}
}

// ProposeTurn renders history plus the tool manual into one prompt, runs the
// completion, and parses the reply. Text fragments are not forwarded live:
// until the full reply is seen it is unknown whether it is prose or an
// envelope, and envelope text must never leak as assistant content.
func (s *Strategy) ProposeTurn(ctx context.Context, history []agent.Turn, catalog *agent.Catalog) (agent.TurnStream, error) {
	system := renderSystem(history, catalog)
	prompt := renderHistory(history)

	reply, err := s.completer.Complete(ctx, system, prompt, nil)
	if err != nil {
		return nil, err
	}

	if env, ok := parseEnvelope(reply); ok && env.Action == "tool_call" && env.ToolName != "" {
		return agent.NewDeltaStream(envelopeDeltas(env), nil), nil
	}
	return agent.NewDeltaStream([]agent.TurnDelta{agent.TextDelta{Text: reply}}, nil), nil
}

// envelope is the JSON shape a tool-calling reply must take.
type envelope struct {
	Action    string         `json:"action"`
	ToolName  string         `json:"tool_name"`
	Arguments map[string]any `json:"arguments"`
	Reasoning string         `json:"reasoning"`
}

// parseEnvelope extracts a tool-call envelope from a model reply, tolerating
// code fences and prose around the JSON object.
func parseEnvelope(reply string) (envelope, bool) {
	text := strings.TrimSpace(reply)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return envelope{}, false
	}

	var env envelope
	if err := json.Unmarshal([]byte(text[start:end+1]), &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

// envelopeDeltas converts a parsed envelope into call deltas. The reasoning
// field surfaces as assistant text so the user sees why the model is calling.
func envelopeDeltas(env envelope) []agent.TurnDelta {
	var deltas []agent.TurnDelta
	if env.Reasoning != "" {
		deltas = append(deltas, agent.TextDelta{Text: env.Reasoning})
	}

	args := "{}"
	if env.Arguments != nil {
		if data, err := json.Marshal(env.Arguments); err == nil {
			args = string(data)
		}
	}

	deltas = append(deltas,
		agent.CallBegin{Index: 0, ID: "call_" + uuid.New().String(), Name: env.ToolName},
		agent.CallArgsDelta{Index: 0, Fragment: args},
		agent.CallEnd{Index: 0},
	)
	return deltas
}

// renderSystem combines any configured system turn with the tool manual.
func renderSystem(history []agent.Turn, catalog *agent.Catalog) string {
	var b strings.Builder
	for _, turn := range history {
		if turn.Role == agent.RoleSystem {
			b.WriteString(turn.Text)
			b.WriteString("\n\n")
			break
		}
	}
	if catalog != nil && catalog.Len() > 0 {
		b.WriteString(catalog.Manual())
	}
	return b.String()
}

// renderHistory flattens the conversation into a labeled transcript. Tool
// results are presented as observations the model should build on.
func renderHistory(history []agent.Turn) string {
	var b strings.Builder
	for _, turn := range history {
		switch turn.Role {
		case agent.RoleUser:
			b.WriteString("User: ")
			b.WriteString(turn.Text)
			b.WriteString("\n")
		case agent.RoleAssistant:
			if turn.Text != "" {
				b.WriteString("Assistant: ")
				b.WriteString(turn.Text)
				b.WriteString("\n")
			}
			for _, call := range turn.Calls {
				b.WriteString("Assistant called tool ")
				b.WriteString(call.Name)
				b.WriteString(" with ")
				b.WriteString(call.RawArguments)
				b.WriteString("\n")
			}
		case agent.RoleTool:
			b.WriteString("Tool ")
			b.WriteString(turn.ToolName)
			if turn.IsError {
				b.WriteString(" failed: ")
			} else {
				b.WriteString(" returned: ")
			}
			b.WriteString(turn.Text)
			b.WriteString("\n")
		}
	}
	b.WriteString("Assistant:")
	return b.String()
}
