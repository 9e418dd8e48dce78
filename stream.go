package agent

// EventStream is an iterator over events emitted during one loop run.
// Usage:
//
//	stream := loop.Run(ctx, session, "prompt")
//	for stream.Next() {
//	    event := stream.Current()
//	    // handle event
//	}
//	if err := stream.Err(); err != nil {
//	    // handle error
//	}
//
// Events are delivered one at a time; the producer blocks until the consumer
// calls Next, so pacing and backpressure are the consumer's responsibility.
type EventStream struct {
	events  chan Event
	current Event
	err     error
	done    bool
	session *Session
}

func newEventStream(events chan Event, session *Session) *EventStream {
	return &EventStream{
		events:  events,
		session: session,
	}
}

// Next advances to the next event. Returns false when the stream is exhausted.
func (s *EventStream) Next() bool {
	if s.done {
		return false
	}
	event, ok := <-s.events
	if !ok {
		s.done = true
		return false
	}
	s.current = event
	return true
}

// Current returns the most recent event returned by Next.
func (s *EventStream) Current() Event {
	return s.current
}

// Err returns the terminal error of the run, if any. It is only meaningful
// after Next has returned false. A run that stops via the user's "stop"
// resolution reports ErrSessionStopped here; exhausting the iteration cap is
// not an error (see FinalOutputEvent.LimitReached).
func (s *EventStream) Err() error {
	return s.err
}

// Session returns the session this run appended to.
func (s *EventStream) Session() *Session {
	return s.session
}
