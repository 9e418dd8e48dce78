package agent

import "time"

// Role tags one turn of conversation history.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is one tool invocation proposed by the model. RawArguments is the
// argument text exactly as the model emitted it; Arguments is the parsed form,
// populated only once the call is complete.
type ToolCall struct {
	ID           string
	Name         string
	RawArguments string
	Arguments    map[string]any
}

// Turn is one entry of conversation history.
type Turn struct {
	Role Role

	// Text is the turn's content: the user input, the assistant's prose,
	// or the flattened tool result.
	Text string

	// Calls holds the tool calls of an assistant turn.
	Calls []ToolCall

	// CallID and ToolName identify which call a tool turn answers.
	CallID   string
	ToolName string

	// IsError marks a tool turn carrying a failure or denial message.
	IsError bool
}

// Session holds the conversation state for one agent session. It is owned
// and mutated exclusively by the Loop that runs it; history lives only for
// the lifetime of the session and is never persisted.
type Session struct {
	ID        string
	Turns     []Turn
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewSession creates a new empty session.
func NewSession() *Session {
	now := time.Now()
	return &Session{
		ID:        generateID(PrefixSession),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Reset clears the conversation history. The session keeps its identity.
func (s *Session) Reset() {
	s.Turns = nil
	s.UpdatedAt = time.Now()
}

func (s *Session) append(t Turn) {
	s.Turns = append(s.Turns, t)
	s.UpdatedAt = time.Now()
}

// LastAssistantText returns the text of the most recent assistant turn,
// or the empty string if there is none.
func (s *Session) LastAssistantText() string {
	for i := len(s.Turns) - 1; i >= 0; i-- {
		if s.Turns[i].Role == RoleAssistant && s.Turns[i].Text != "" {
			return s.Turns[i].Text
		}
	}
	return ""
}
