package authorize

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Answer is the user's resolution of one confirmation prompt.
type Answer int

const (
	// No denies this call; the loop continues with the denial on record.
	No Answer = iota
	// Yes approves this call.
	Yes
	// All approves this call and every later one in the session.
	All
	// Stop denies this call and terminates the loop.
	Stop
)

// ParseAnswer maps user input to an Answer. Matching is case-insensitive and
// ignores surrounding whitespace; anything unrecognized denies.
func ParseAnswer(input string) Answer {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "y", "yes":
		return Yes
	case "all":
		return All
	case "stop":
		return Stop
	default:
		return No
	}
}

// Prompter asks the user to confirm one tool call.
type Prompter interface {
	Confirm(ctx context.Context, req Request) (Answer, error)
}

// TextPrompter confirms tool calls over a line-oriented text channel,
// typically a terminal.
type TextPrompter struct {
	out io.Writer

	mu     sync.Mutex
	reader *bufio.Reader
}

// NewTextPrompter creates a prompter reading answers from in and writing
// prompts to out.
func NewTextPrompter(in io.Reader, out io.Writer) *TextPrompter {
	return &TextPrompter{
		out:    out,
		reader: bufio.NewReader(in),
	}
}

// Confirm prints the pending call and blocks for an answer line. A canceled
// context unblocks the wait; the pending read is abandoned.
func (p *TextPrompter) Confirm(ctx context.Context, req Request) (Answer, error) {
	fmt.Fprintf(p.out, "\nTool call: %s\n", req.Tool)
	if req.Server != "" {
		fmt.Fprintf(p.out, "Server: %s\n", req.Server)
	}
	for k, v := range req.Arguments {
		fmt.Fprintf(p.out, "  %s: %v\n", k, v)
	}
	fmt.Fprint(p.out, "Allow? [y/yes/n/no/all/stop]: ")

	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		line, err := p.reader.ReadString('\n')
		ch <- result{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		return No, ctx.Err()
	case r := <-ch:
		if r.err != nil && r.line == "" {
			return No, r.err
		}
		return ParseAnswer(r.line), nil
	}
}
