package agent

// EventType identifies the kind of event emitted by an EventStream.
type EventType string

const (
	EventContent           EventType = "content"
	EventToolCallStart     EventType = "tool_call_start"
	EventToolCallDelta     EventType = "tool_call_delta"
	EventToolCallsComplete EventType = "tool_calls_complete"
	EventToolExecute       EventType = "tool_execute"
	EventToolResult        EventType = "tool_result"
	EventToolError         EventType = "tool_error"
	EventStopped           EventType = "stopped"
	EventFinalOutput       EventType = "final_output"
)

// Event is the interface implemented by all events emitted through EventStream.
// The sequence for one turn with N proposed tool calls is: zero or more
// ContentEvent, then per newly seen call one ToolCallStartEvent followed by
// zero or more ToolCallDeltaEvent, one ToolCallsCompleteEvent carrying the
// finalized batch, then strictly sequentially per call one ToolExecuteEvent
// followed by exactly one of ToolResultEvent or ToolErrorEvent. A StoppedEvent
// aborts the remainder of the batch and the loop. A FinalOutputEvent is
// emitted only when the turn ends with zero outstanding tool calls.
type Event interface {
	Type() EventType
}

// ContentEvent carries a fragment of assistant text as it streams in.
type ContentEvent struct {
	Delta string
}

func (e *ContentEvent) Type() EventType { return EventContent }

// ToolCallStartEvent is emitted once per newly seen proposed tool call.
type ToolCallStartEvent struct {
	ID   string
	Name string
}

func (e *ToolCallStartEvent) Type() EventType { return EventToolCallStart }

// ToolCallDeltaEvent carries a fragment of a call's argument text as the
// model emits it. Arguments are never acted on before the call is complete.
type ToolCallDeltaEvent struct {
	ID       string
	Fragment string
}

func (e *ToolCallDeltaEvent) Type() EventType { return EventToolCallDelta }

// ToolCallsCompleteEvent carries the finalized batch of calls for this turn.
type ToolCallsCompleteEvent struct {
	Calls []ToolCall
}

func (e *ToolCallsCompleteEvent) Type() EventType { return EventToolCallsComplete }

// ToolExecuteEvent is emitted immediately before a call is authorized and run.
type ToolExecuteEvent struct {
	Call ToolCall
}

func (e *ToolExecuteEvent) Type() EventType { return EventToolExecute }

// ToolResultEvent reports the outcome of one tool call. Confirmed is false
// when the call was denied (or auto-denied in a headless session); the
// denial is still reported so conversation history stays coherent.
type ToolResultEvent struct {
	CallID    string
	Name      string
	Result    string
	Succeeded bool
	Confirmed bool
}

func (e *ToolResultEvent) Type() EventType { return EventToolResult }

// ToolErrorEvent reports a failed tool execution. The failure is also fed
// back into history as an error tool-result turn, so the loop continues.
type ToolErrorEvent struct {
	CallID string
	Name   string
	Err    string
}

func (e *ToolErrorEvent) Type() EventType { return EventToolError }

// StoppedEvent is emitted when the user resolves a confirmation with "stop".
// Any calls not yet started are abandoned and the loop terminates.
type StoppedEvent struct{}

func (e *StoppedEvent) Type() EventType { return EventStopped }

// FinalOutputEvent is emitted once when a turn completes with no outstanding
// tool calls. LimitReached is set when the iteration cap was exhausted and
// Text carries the last available assistant text (soft failure).
type FinalOutputEvent struct {
	Text         string
	Iterations   int
	LimitReached bool
}

func (e *FinalOutputEvent) Type() EventType { return EventFinalOutput }
