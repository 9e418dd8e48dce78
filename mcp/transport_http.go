package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
)

// httpTransport posts each JSON-RPC message to the server URL and reads the
// reply from the response body (streamable HTTP). The server may assign a
// session via the Mcp-Session-Id header; once seen, it is echoed on every
// subsequent request.
type httpTransport struct {
	server string
	cfg    ServerConfig
	client *http.Client
	logger *slog.Logger

	mu        sync.Mutex
	msgs      chan JSONRPCMessage
	sessionID string
	connected bool
	closed    bool
}

var _ Transport = (*httpTransport)(nil)

const sessionIDHeader = "Mcp-Session-Id"

func newHTTPTransport(server string, cfg ServerConfig) *httpTransport {
	return &httpTransport{
		server: server,
		cfg:    cfg,
		client: http.DefaultClient,
		logger: slog.Default().With(slog.String("server", server)),
	}
}

// Connect only allocates the message channel; the transport is connectionless
// and the first network I/O happens on Send.
func (t *httpTransport) Connect(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	if t.connected {
		return nil
	}
	t.msgs = make(chan JSONRPCMessage, 8)
	t.connected = true
	return nil
}

func (t *httpTransport) Send(ctx context.Context, msg JSONRPCMessage) error {
	t.mu.Lock()
	if !t.connected || t.closed {
		t.mu.Unlock()
		return ErrNotConnected
	}
	sessionID := t.sessionID
	t.mu.Unlock()

	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.URL, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	for k, v := range t.cfg.Headers {
		req.Header.Set(k, v)
	}
	if sessionID != "" {
		req.Header.Set(sessionIDHeader, sessionID)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("post message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	if sid := resp.Header.Get(sessionIDHeader); sid != "" {
		t.mu.Lock()
		t.sessionID = sid
		t.mu.Unlock()
	}

	// Notifications are usually acknowledged with an empty 202; only a
	// non-empty body carries a JSON-RPC reply.
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	var reply JSONRPCMessage
	if err := json.Unmarshal(body, &reply); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}

	// Deliver under the lock: Close closes the channel while holding it,
	// so an unlocked send could panic against a concurrent Close.
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrClosed
	}
	select {
	case t.msgs <- reply:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *httpTransport) Messages() <-chan JSONRPCMessage {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.msgs
}

func (t *httpTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	if t.msgs != nil {
		close(t.msgs)
	}
	return nil
}
