package mcp

import (
	"context"
)

// Transport is the wire-level connection handle to one MCP server. A freshly
// built Transport is unconnected; no process or network I/O happens before
// Connect. Implementations deliver server messages through the Messages
// channel, which is closed when the connection ends.
type Transport interface {
	// Connect establishes the underlying channel (spawns the subprocess,
	// opens the SSE stream, ...). It does not perform the MCP handshake;
	// that is the Client's job.
	Connect(ctx context.Context) error

	// Send transmits one JSON-RPC message to the server.
	Send(ctx context.Context, msg JSONRPCMessage) error

	// Messages returns the channel of messages received from the server.
	// It is closed when the connection drops or Close is called.
	Messages() <-chan JSONRPCMessage

	// Close tears down the connection and releases resources. Idempotent.
	Close() error
}

// NewTransport builds an unconnected Transport for the named server from its
// descriptor. It validates that the field group required by the transport
// kind is populated and returns a *ConfigError naming the server and the
// missing field otherwise. An unknown kind is also a *ConfigError.
func NewTransport(server string, cfg ServerConfig) (Transport, error) {
	switch cfg.kind() {
	case TransportStdio:
		if cfg.Command == "" {
			return nil, &ConfigError{Server: server, Field: "command"}
		}
		return newStdioTransport(server, cfg), nil
	case TransportHTTP:
		if cfg.URL == "" {
			return nil, &ConfigError{Server: server, Field: "url"}
		}
		return newHTTPTransport(server, cfg), nil
	case TransportSSE:
		if cfg.URL == "" {
			return nil, &ConfigError{Server: server, Field: "url"}
		}
		return newSSETransport(server, cfg), nil
	default:
		e := &ConfigError{Server: server, Field: "transport"}
		if cfg.Transport != "" {
			e.Reason = "unknown transport kind " + string(cfg.Transport)
		}
		return nil, e
	}
}
