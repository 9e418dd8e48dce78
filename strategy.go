package agent

import "context"

// Strategy is one calling convention for driving a model turn: native
// function calling, a prompt-engineered JSON envelope, or an external agent
// framework. All strategies reduce a model's reply to the same delta
// vocabulary, so the loop is convention-agnostic.
type Strategy interface {
	// ProposeTurn asks the model for its next turn given the conversation
	// history and the tool catalog. The returned stream yields deltas as
	// they arrive.
	ProposeTurn(ctx context.Context, history []Turn, catalog *Catalog) (TurnStream, error)
}

// TurnStream iterates over the deltas of one model turn.
type TurnStream interface {
	// Next advances to the next delta, returning false at end of turn.
	Next() bool

	// Current returns the delta produced by the last successful Next.
	Current() TurnDelta

	// Err returns the stream's terminal error, meaningful once Next has
	// returned false.
	Err() error

	// Close releases the underlying response. Safe to call more than once.
	Close() error
}

// TurnDelta is one unit of model output: assistant text or a fragment of a
// proposed tool call. Call deltas are keyed by the call's position in the
// turn, since providers interleave calls by index rather than by id.
type TurnDelta interface {
	turnDelta()
}

// TextDelta carries a fragment of assistant prose.
type TextDelta struct {
	Text string
}

// CallBegin announces a new proposed tool call. ID may be empty when the
// provider does not assign call ids; the loop generates one.
type CallBegin struct {
	Index int
	ID    string
	Name  string
}

// CallArgsDelta carries a fragment of a call's argument text.
type CallArgsDelta struct {
	Index    int
	Fragment string
}

// CallEnd marks a call's arguments as complete.
type CallEnd struct {
	Index int
}

func (TextDelta) turnDelta()     {}
func (CallBegin) turnDelta()     {}
func (CallArgsDelta) turnDelta() {}
func (CallEnd) turnDelta()       {}

// deltaStream is a slice-backed TurnStream for strategies that materialize
// the full turn before yielding it.
type deltaStream struct {
	deltas  []TurnDelta
	current TurnDelta
	err     error
}

// NewDeltaStream wraps pre-built deltas (and an optional terminal error) in a
// TurnStream.
func NewDeltaStream(deltas []TurnDelta, err error) TurnStream {
	return &deltaStream{deltas: deltas, err: err}
}

func (s *deltaStream) Next() bool {
	if len(s.deltas) == 0 {
		return false
	}
	s.current = s.deltas[0]
	s.deltas = s.deltas[1:]
	return true
}

func (s *deltaStream) Current() TurnDelta { return s.current }
func (s *deltaStream) Err() error         { return s.err }
func (s *deltaStream) Close() error       { return nil }
