package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/armatrix/mcp-agent-go/authorize"
	"github.com/armatrix/mcp-agent-go/internal/accum"
)

// Authorizer decides whether a proposed tool call may execute.
// *authorize.Gate satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, req authorize.Request) authorize.Verdict
}

const defaultMaxIterations = 10

// Loop drives the iterative conversation: propose a turn, execute any
// proposed tool calls strictly in order, feed results back, repeat until the
// model answers with no calls or the iteration cap is hit.
type Loop struct {
	strategy      Strategy
	catalog       *Catalog
	gate          Authorizer
	maxIterations int
	systemPrompt  string
	bufferSize    int
	logger        *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithMaxIterations caps the number of model turns per run. Defaults to 10.
func WithMaxIterations(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.maxIterations = n
		}
	}
}

// WithSystemPrompt sets the system prompt injected at the head of history.
func WithSystemPrompt(prompt string) LoopOption {
	return func(l *Loop) { l.systemPrompt = prompt }
}

// WithLogger sets the loop's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// WithEventBuffer sets the event channel's buffer size. Zero (the default)
// makes delivery fully synchronous with the consumer.
func WithEventBuffer(n int) LoopOption {
	return func(l *Loop) {
		if n > 0 {
			l.bufferSize = n
		}
	}
}

// NewLoop assembles a loop from a strategy, a tool catalog, and an
// authorization gate.
func NewLoop(strategy Strategy, catalog *Catalog, gate Authorizer, options ...LoopOption) *Loop {
	l := &Loop{
		strategy:      strategy,
		catalog:       catalog,
		gate:          gate,
		maxIterations: defaultMaxIterations,
		logger:        slog.Default(),
	}
	for _, opt := range options {
		opt(l)
	}
	return l
}

// Run appends the user input to the session and starts one run. Events are
// delivered through the returned stream; the run advances only as fast as the
// consumer drains it.
func (l *Loop) Run(ctx context.Context, sess *Session, input string) *EventStream {
	events := make(chan Event, l.bufferSize)
	stream := newEventStream(events, sess)

	if l.systemPrompt != "" && len(sess.Turns) == 0 {
		sess.append(Turn{Role: RoleSystem, Text: l.systemPrompt})
	}
	sess.append(Turn{Role: RoleUser, Text: input})

	go func() {
		defer close(events)
		stream.err = l.run(ctx, sess, events)
	}()
	return stream
}

func (l *Loop) run(ctx context.Context, sess *Session, events chan<- Event) error {
	for iteration := 1; iteration <= l.maxIterations; iteration++ {
		text, calls, err := l.proposeTurn(ctx, sess, events)
		if err != nil {
			return err
		}

		sess.append(Turn{Role: RoleAssistant, Text: text, Calls: calls})

		if len(calls) == 0 {
			l.emit(ctx, events, &FinalOutputEvent{Text: text, Iterations: iteration})
			return nil
		}

		l.emit(ctx, events, &ToolCallsCompleteEvent{Calls: calls})

		for _, call := range calls {
			stopped := l.executeCall(ctx, sess, events, call)
			if stopped {
				l.emit(ctx, events, &StoppedEvent{})
				return ErrSessionStopped
			}
		}
	}

	l.logger.Warn("iteration limit reached",
		slog.Int("max_iterations", l.maxIterations),
		slog.String("session", sess.ID))
	l.emit(ctx, events, &FinalOutputEvent{
		Text:         sess.LastAssistantText(),
		Iterations:   l.maxIterations,
		LimitReached: true,
	})
	return nil
}

// proposeTurn drives one model turn, forwarding text and call fragments as
// events and assembling the finalized call batch.
func (l *Loop) proposeTurn(ctx context.Context, sess *Session, events chan<- Event) (string, []ToolCall, error) {
	turn, err := l.strategy.ProposeTurn(ctx, sess.Turns, l.catalog)
	if err != nil {
		return "", nil, fmt.Errorf("agent: propose turn: %w", err)
	}
	defer turn.Close()

	var text strings.Builder
	assembler := accum.New(func() string { return generateID(PrefixCall) })

	for turn.Next() {
		switch d := turn.Current().(type) {
		case TextDelta:
			text.WriteString(d.Text)
			l.emit(ctx, events, &ContentEvent{Delta: d.Text})
		case CallBegin:
			id := assembler.Begin(d.Index, d.ID, d.Name)
			l.emit(ctx, events, &ToolCallStartEvent{ID: id, Name: d.Name})
		case CallArgsDelta:
			if id, ok := assembler.Append(d.Index, d.Fragment); ok {
				l.emit(ctx, events, &ToolCallDeltaEvent{ID: id, Fragment: d.Fragment})
			}
		case CallEnd:
			assembler.End(d.Index)
		}
	}
	if err := turn.Err(); err != nil {
		return "", nil, fmt.Errorf("agent: stream turn: %w", err)
	}

	calls := make([]ToolCall, 0, assembler.Len())
	for _, c := range assembler.Finalize() {
		args, err := parseArguments(c.RawArgs)
		if err != nil {
			args = map[string]any{}
		}
		calls = append(calls, ToolCall{
			ID:           c.ID,
			Name:         c.Name,
			RawArguments: c.RawArgs,
			Arguments:    args,
		})
	}
	return text.String(), calls, nil
}

// executeCall authorizes and runs one call, feeding the outcome back into
// history. Returns true when the user stopped the session.
func (l *Loop) executeCall(ctx context.Context, sess *Session, events chan<- Event, call ToolCall) bool {
	l.emit(ctx, events, &ToolExecuteEvent{Call: call})

	// Unparseable arguments go back to the model as an error turn so it
	// can correct itself; running the tool with no arguments would not.
	if _, err := parseArguments(call.RawArguments); err != nil {
		msg := fmt.Sprintf("invalid tool arguments: %s", err)
		l.emit(ctx, events, &ToolErrorEvent{
			CallID: call.ID,
			Name:   call.Name,
			Err:    msg,
		})
		sess.append(Turn{
			Role:     RoleTool,
			CallID:   call.ID,
			ToolName: call.Name,
			Text:     "Tool call failed: " + msg,
			IsError:  true,
		})
		return false
	}

	descriptor, _ := l.catalog.Get(call.Name)
	verdict := l.gate.Authorize(ctx, authorize.Request{
		Tool:      call.Name,
		Server:    descriptor.Server,
		Arguments: call.Arguments,
	})

	switch verdict {
	case authorize.Stopped:
		sess.append(Turn{
			Role:     RoleTool,
			CallID:   call.ID,
			ToolName: call.Name,
			Text:     "Tool call stopped by user.",
			IsError:  true,
		})
		return true
	case authorize.Denied:
		denial := "Tool call denied by user."
		l.emit(ctx, events, &ToolResultEvent{
			CallID: call.ID,
			Name:   call.Name,
			Result: denial,
		})
		sess.append(Turn{
			Role:     RoleTool,
			CallID:   call.ID,
			ToolName: call.Name,
			Text:     denial,
			IsError:  true,
		})
		return false
	}

	result, err := l.catalog.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		l.logger.Warn("tool call failed",
			slog.String("tool", call.Name),
			slog.String("err", err.Error()))
		l.emit(ctx, events, &ToolErrorEvent{
			CallID: call.ID,
			Name:   call.Name,
			Err:    err.Error(),
		})
		sess.append(Turn{
			Role:     RoleTool,
			CallID:   call.ID,
			ToolName: call.Name,
			Text:     "Tool call failed: " + err.Error(),
			IsError:  true,
		})
		return false
	}

	l.emit(ctx, events, &ToolResultEvent{
		CallID:    call.ID,
		Name:      call.Name,
		Result:    result,
		Succeeded: true,
		Confirmed: true,
	})
	sess.append(Turn{
		Role:     RoleTool,
		CallID:   call.ID,
		ToolName: call.Name,
		Text:     result,
	})
	return false
}

func (l *Loop) emit(ctx context.Context, events chan<- Event, e Event) {
	select {
	case events <- e:
	case <-ctx.Done():
	}
}

// parseArguments parses a call's raw argument text. Empty arguments are an
// empty map; anything non-empty must be a JSON object.
func parseArguments(raw string) (map[string]any, error) {
	args := map[string]any{}
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return args, nil
	}
	if err := json.Unmarshal([]byte(trimmed), &args); err != nil {
		return nil, err
	}
	return args, nil
}
