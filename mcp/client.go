package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Client owns one MCP server connection and its lifecycle. Calls are
// serialized: one client means one connection means one in-flight request at
// a time, since MCP server processes are not assumed to support
// connection-level concurrency.
type Client struct {
	name      string
	cfg       ServerConfig
	transport Transport
	info      Info
	logger    *slog.Logger

	readTimeout time.Duration

	mu        sync.Mutex
	connected bool
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithLogger sets the client's logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithClientInfo sets the client identification sent during the handshake.
func WithClientInfo(info Info) ClientOption {
	return func(c *Client) {
		c.info = info
	}
}

// WithReadTimeout bounds how long a single request waits for its reply.
// Defaults to 30 seconds.
func WithReadTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.readTimeout = timeout
	}
}

var defaultReadTimeout = 30 * time.Second

// NewClient builds a client for the named server. The transport is validated
// and constructed immediately (returning *ConfigError on a malformed
// descriptor) but no process or network I/O happens before Connect.
func NewClient(name string, cfg ServerConfig, options ...ClientOption) (*Client, error) {
	transport, err := NewTransport(name, cfg)
	if err != nil {
		return nil, err
	}
	c := &Client{
		name:      name,
		cfg:       cfg,
		transport: transport,
		info:      Info{Name: "mcp-agent-go", Version: "0.1.0"},
		logger:    slog.Default(),
	}
	for _, opt := range options {
		opt(c)
	}
	if c.readTimeout == 0 {
		c.readTimeout = defaultReadTimeout
	}
	c.logger = c.logger.With(slog.String("server", name))
	return c, nil
}

// Name returns the server name this client connects to.
func (c *Client) Name() string {
	return c.name
}

// Connect establishes the connection and performs the MCP handshake.
// Idempotent. Failed attempts are retried per the descriptor's
// restart/reconnect policy; on final failure the client is left disconnected
// and the error carries the server name.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

func (c *Client) connectLocked(ctx context.Context) error {
	if c.connected {
		return nil
	}

	policy := c.cfg.retry()
	attempts := policy.attempts()
	delay := time.Duration(0)
	if policy != nil && policy.DelayMs > 0 {
		delay = time.Duration(policy.DelayMs) * time.Millisecond
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 && delay > 0 {
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		lastErr = c.attemptConnect(ctx)
		if lastErr == nil {
			c.connected = true
			return nil
		}
		c.logger.Warn("connection attempt failed",
			slog.Int("attempt", attempt),
			slog.String("err", lastErr.Error()))
	}
	return fmt.Errorf("mcp: server %q: connect: %w", c.name, lastErr)
}

func (c *Client) attemptConnect(ctx context.Context) error {
	if err := c.transport.Connect(ctx); err != nil {
		return err
	}

	params := initializeParams{
		ProtocolVersion: ProtocolVersion,
		Capabilities:    map[string]any{},
		ClientInfo:      c.info,
	}
	raw, err := c.request(ctx, methodInitialize, params)
	if err != nil {
		c.teardown()
		return fmt.Errorf("initialize: %w", err)
	}

	var result initializeResult
	if err := json.Unmarshal(raw, &result); err != nil {
		c.teardown()
		return fmt.Errorf("initialize: unmarshal result: %w", err)
	}
	if result.ProtocolVersion != ProtocolVersion {
		c.logger.Warn("protocol version mismatch",
			slog.String("server_version", result.ProtocolVersion),
			slog.String("client_version", ProtocolVersion))
	}

	notify := JSONRPCMessage{JSONRPC: jsonRPCVersion, Method: notifyInitialized}
	if err := c.transport.Send(ctx, notify); err != nil {
		c.teardown()
		return fmt.Errorf("initialized notification: %w", err)
	}

	c.logger.Info("connected",
		slog.String("server_name", result.ServerInfo.Name),
		slog.String("server_version", result.ServerInfo.Version))
	return nil
}

// ListTools returns the server's advertised tool set, following pagination
// cursors. It auto-connects if needed.
func (c *Client) ListTools(ctx context.Context) ([]Tool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return nil, err
	}

	var tools []Tool
	cursor := ""
	for {
		raw, err := c.request(ctx, methodListTools, listToolsParams{Cursor: cursor})
		if err != nil {
			return nil, fmt.Errorf("mcp: server %q: list tools: %w", c.name, err)
		}
		var result listToolsResult
		if err := json.Unmarshal(raw, &result); err != nil {
			return nil, fmt.Errorf("mcp: server %q: list tools: unmarshal result: %w", c.name, err)
		}
		tools = append(tools, result.Tools...)
		if result.NextCursor == "" {
			return tools, nil
		}
		cursor = result.NextCursor
	}
}

// CallTool invokes a tool on the server and flattens the reply into a single
// string regardless of its shape: text blocks in a content array are joined
// by newlines, non-text blocks are JSON-stringified, a single non-string
// content value is stringified, and any other reply shape is JSON-stringified
// whole. It auto-connects if needed. A tool-level error reply becomes an
// error carrying the flattened message.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.connectLocked(ctx); err != nil {
		return "", err
	}
	if args == nil {
		args = map[string]any{}
	}

	raw, err := c.request(ctx, methodCallTool, callToolParams{Name: name, Arguments: args})
	if err != nil {
		return "", fmt.Errorf("mcp: server %q: call %q: %w", c.name, name, err)
	}

	var result struct {
		Content json.RawMessage `json:"content"`
		IsError bool            `json:"isError"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return "", fmt.Errorf("mcp: server %q: call %q: unmarshal result: %w", c.name, name, err)
	}

	text := flattenContent(raw, result.Content)
	if result.IsError {
		return "", fmt.Errorf("mcp: server %q: tool %q: %s", c.name, name, text)
	}
	return text, nil
}

// Disconnect tears down the connection. Idempotent; failures are swallowed
// and logged, and the client is always left disconnected.
func (c *Client) Disconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.transport.Close(); err != nil {
		c.logger.Warn("failed to close transport", slog.String("err", err.Error()))
	}
	c.connected = false
}

func (c *Client) teardown() {
	if err := c.transport.Close(); err != nil {
		c.logger.Warn("failed to close transport", slog.String("err", err.Error()))
	}
	c.connected = false
}

// request sends one JSON-RPC request and waits for its matching reply,
// answering pings and skipping unrelated notifications in the meantime.
// The caller holds c.mu, so at most one request is in flight.
func (c *Client) request(ctx context.Context, method string, params any) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, c.readTimeout)
	defer cancel()

	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params: %w", err)
	}

	id := MustString(uuid.New().String())
	msg := JSONRPCMessage{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Method:  method,
		Params:  data,
	}
	if err := c.transport.Send(ctx, msg); err != nil {
		return nil, err
	}

	msgs := c.transport.Messages()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case reply, ok := <-msgs:
			if !ok {
				c.connected = false
				return nil, ErrNotConnected
			}
			if reply.Method == methodPing && reply.ID != "" {
				pong := JSONRPCMessage{JSONRPC: jsonRPCVersion, ID: reply.ID, Result: json.RawMessage("{}")}
				if err := c.transport.Send(ctx, pong); err != nil {
					c.logger.Warn("failed to answer ping", slog.String("err", err.Error()))
				}
				continue
			}
			if reply.ID != id {
				c.logger.Debug("skipping unrelated message",
					slog.String("method", reply.Method),
					slog.String("id", string(reply.ID)))
				continue
			}
			if reply.Error != nil {
				return nil, reply.Error
			}
			return reply.Result, nil
		}
	}
}

// flattenContent reduces a tool reply to one string. content may be an array
// of blocks, a single value, or absent entirely (in which case the whole
// reply is stringified).
func flattenContent(whole, content json.RawMessage) string {
	if len(content) == 0 {
		return string(whole)
	}

	var blocks []json.RawMessage
	if err := json.Unmarshal(content, &blocks); err == nil {
		parts := make([]string, 0, len(blocks))
		for _, raw := range blocks {
			var block ContentBlock
			if err := json.Unmarshal(raw, &block); err == nil && block.Type == "text" {
				parts = append(parts, block.Text)
				continue
			}
			parts = append(parts, string(raw))
		}
		return strings.Join(parts, "\n")
	}

	var s string
	if err := json.Unmarshal(content, &s); err == nil {
		return s
	}
	return string(content)
}
