// Package accum assembles streamed tool-call fragments into complete calls.
// Providers interleave call output keyed by block index; the assembler keeps
// one buffer per index and releases calls only through Finalize once the turn
// has ended, so partial arguments are never acted on.
package accum

import "strings"

// Call is one fully assembled tool call.
type Call struct {
	ID      string
	Name    string
	RawArgs string
}

type pending struct {
	id   string
	name string
	args strings.Builder
}

// Assembler accumulates tool-call fragments for one model turn. Not safe for
// concurrent use; a turn is driven by a single goroutine.
type Assembler struct {
	byIndex map[int]*pending
	order   []int
	newID   func() string
}

// New creates an assembler. newID supplies call ids for providers that do
// not assign them.
func New(newID func() string) *Assembler {
	return &Assembler{
		byIndex: make(map[int]*pending),
		newID:   newID,
	}
}

// Begin opens a call at the given index and returns its resolved id,
// generating one when the provider supplied none.
func (a *Assembler) Begin(index int, id, name string) string {
	if id == "" {
		id = a.newID()
	}
	if _, exists := a.byIndex[index]; !exists {
		a.order = append(a.order, index)
	}
	a.byIndex[index] = &pending{id: id, name: name}
	return id
}

// Append adds an argument fragment to the call at index and returns the
// call's id. Fragments for an unopened index are dropped.
func (a *Assembler) Append(index int, fragment string) (string, bool) {
	p, ok := a.byIndex[index]
	if !ok {
		return "", false
	}
	p.args.WriteString(fragment)
	return p.id, true
}

// End acknowledges the stop marker for the block at index. It accepts any
// index, since providers emit stop markers for plain text blocks too, and
// carries no state of its own: calls are released only by Finalize.
func (a *Assembler) End(index int) {}

// Finalize returns the assembled calls in the order they began.
func (a *Assembler) Finalize() []Call {
	calls := make([]Call, 0, len(a.order))
	for _, index := range a.order {
		p := a.byIndex[index]
		calls = append(calls, Call{
			ID:      p.id,
			Name:    p.name,
			RawArgs: p.args.String(),
		})
	}
	return calls
}

// Len returns the number of calls opened so far.
func (a *Assembler) Len() int {
	return len(a.order)
}
