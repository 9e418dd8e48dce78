package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/tmaxmax/go-sse"
)

// sseTransport receives server messages over a Server-Sent Events stream and
// posts client messages to the endpoint the server announces. The server's
// first event must be an "endpoint" event naming the POST URL; subsequent
// "message" events carry JSON-RPC replies.
type sseTransport struct {
	server string
	cfg    ServerConfig
	client *http.Client
	logger *slog.Logger

	mu         sync.Mutex
	msgs       chan JSONRPCMessage
	messageURL string
	cancel     context.CancelFunc
	done       chan struct{}
	connected  bool
	closed     bool
}

var _ Transport = (*sseTransport)(nil)

// endpointWait bounds how long Connect waits for the server's endpoint event.
const endpointWait = 10 * time.Second

func newSSETransport(server string, cfg ServerConfig) *sseTransport {
	return &sseTransport{
		server: server,
		cfg:    cfg,
		client: http.DefaultClient,
		logger: slog.Default().With(slog.String("server", server)),
	}
}

func (t *sseTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return ErrClosed
	}
	if t.connected {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	// The stream outlives Connect; its lifetime is bound to Close, not to
	// the Connect context.
	streamCtx, cancel := context.WithCancel(context.Background())

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.cfg.URL, nil)
	if err != nil {
		cancel()
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "text/event-stream")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		cancel()
		return fmt.Errorf("connect to SSE server: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	msgs := make(chan JSONRPCMessage, 8)
	done := make(chan struct{})
	ready := make(chan error, 1)
	go t.listen(resp, msgs, done, ready)

	select {
	case err := <-ready:
		if err != nil {
			cancel()
			return err
		}
	case <-time.After(endpointWait):
		cancel()
		return errors.New("timed out waiting for endpoint event")
	case <-ctx.Done():
		cancel()
		return ctx.Err()
	}

	t.mu.Lock()
	t.msgs = msgs
	t.cancel = cancel
	t.done = done
	t.connected = true
	t.mu.Unlock()
	return nil
}

// listen reads SSE events until the stream ends or done closes. The first
// endpoint event resolves the message URL and signals readiness.
func (t *sseTransport) listen(resp *http.Response, msgs chan JSONRPCMessage, done <-chan struct{}, ready chan<- error) {
	defer func() {
		resp.Body.Close()
		close(msgs)
	}()

	endpointSeen := false
	for ev, err := range sse.Read(resp.Body, nil) {
		if err != nil {
			if !errors.Is(err, context.Canceled) {
				t.logger.Error("failed to read SSE message", slog.String("err", err.Error()))
			}
			return
		}

		switch ev.Type {
		case "endpoint":
			endpoint, err := t.resolveEndpoint(ev.Data)
			if err != nil {
				ready <- err
				return
			}
			t.mu.Lock()
			t.messageURL = endpoint
			t.mu.Unlock()
			if !endpointSeen {
				endpointSeen = true
				ready <- nil
			}
		case "message", "":
			if !endpointSeen {
				t.logger.Error("received message before endpoint event")
				continue
			}
			var msg JSONRPCMessage
			if err := json.Unmarshal([]byte(ev.Data), &msg); err != nil {
				t.logger.Error("failed to unmarshal message", slog.String("err", err.Error()))
				continue
			}
			// Cancelling the stream does not unblock a pending channel
			// send, so Close must be able to release it.
			select {
			case msgs <- msg:
			case <-done:
				return
			}
		default:
			t.logger.Warn("unhandled event type", slog.String("type", ev.Type))
		}
	}
}

// resolveEndpoint parses the endpoint URL and resolves it against the
// connect URL so servers may announce relative paths.
func (t *sseTransport) resolveEndpoint(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse endpoint URL: %w", err)
	}
	if u.String() == "" {
		return "", errors.New("empty endpoint URL")
	}
	base, err := url.Parse(t.cfg.URL)
	if err != nil {
		return "", fmt.Errorf("parse connect URL: %w", err)
	}
	return base.ResolveReference(u).String(), nil
}

func (t *sseTransport) Send(ctx context.Context, msg JSONRPCMessage) error {
	t.mu.Lock()
	if !t.connected || t.closed {
		t.mu.Unlock()
		return ErrNotConnected
	}
	messageURL := t.messageURL
	t.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messageURL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return nil
}

func (t *sseTransport) Messages() <-chan JSONRPCMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msgs
}

func (t *sseTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.done != nil {
		close(t.done)
	}
	if t.cancel != nil {
		t.cancel()
	}
	return nil
}
