// Package mcp provides a client for MCP (Model Context Protocol) tool
// servers over stdio, HTTP, and SSE transports. A Client owns exactly one
// server connection; the agent package merges tools from several clients
// into one catalog.
package mcp

// TransportKind identifies the MCP transport protocol.
type TransportKind string

const (
	// TransportStdio communicates with a subprocess over stdin/stdout.
	TransportStdio TransportKind = "stdio"

	// TransportHTTP posts each JSON-RPC message to the server URL and
	// reads the reply from the response body.
	TransportHTTP TransportKind = "http"

	// TransportSSE receives server messages over a Server-Sent Events
	// stream and posts client messages to the endpoint the server names.
	TransportSSE TransportKind = "sse"
)

// RetryPolicy governs retries of a failed connection attempt. It never
// applies to in-flight calls.
type RetryPolicy struct {
	Enabled     bool `json:"enabled"`
	MaxAttempts int  `json:"maxAttempts"`
	DelayMs     int  `json:"delayMs"`
}

// attempts returns the total number of connection attempts the policy allows.
func (p *RetryPolicy) attempts() int {
	if p == nil || !p.Enabled || p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// ServerConfig describes how to connect to a single MCP server. Exactly one
// of the stdio (Command/Args/Restart) or network (URL/Headers/Reconnect)
// field groups applies, selected by Transport. Field names are compatible
// with the common mcpServers JSON format.
type ServerConfig struct {
	// Transport selects the protocol. When empty, stdio is assumed if
	// Command is set and http if URL is set.
	Transport TransportKind `json:"transport,omitempty"`

	// Command is the executable to spawn (stdio only).
	Command string `json:"command,omitempty"`

	// Args are command-line arguments for the subprocess.
	Args []string `json:"args,omitempty"`

	// Env are extra environment variables, appended to the parent's.
	Env map[string]string `json:"env,omitempty"`

	// Restart governs retries of a failed subprocess start (stdio only).
	Restart *RetryPolicy `json:"restart,omitempty"`

	// URL is the server address (http and sse only).
	URL string `json:"url,omitempty"`

	// Headers are sent with every HTTP request (http and sse only).
	Headers map[string]string `json:"headers,omitempty"`

	// Reconnect governs retries of a failed connection (http and sse only).
	Reconnect *RetryPolicy `json:"reconnect,omitempty"`
}

// kind resolves the effective transport kind, defaulting from the populated
// field group when Transport is unset.
func (c ServerConfig) kind() TransportKind {
	if c.Transport != "" {
		return c.Transport
	}
	if c.Command != "" {
		return TransportStdio
	}
	if c.URL != "" {
		return TransportHTTP
	}
	return ""
}

// retry returns the connection retry policy for the resolved transport kind.
func (c ServerConfig) retry() *RetryPolicy {
	if c.kind() == TransportStdio {
		return c.Restart
	}
	return c.Reconnect
}
