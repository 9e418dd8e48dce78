package mcp

import (
	"errors"
	"fmt"
)

// Sentinel errors for the mcp package.
var (
	// ErrNotConnected is returned when the server closed the connection
	// or it was never established.
	ErrNotConnected = errors.New("mcp: server not connected")

	// ErrClosed is returned when using a transport after Close.
	ErrClosed = errors.New("mcp: transport closed")
)

// ConfigError reports a malformed server descriptor. It names the offending
// server and, when a required field is missing, that field. The error is
// scoped to the one server; other servers are unaffected.
type ConfigError struct {
	Server string
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("mcp: server %q: %s", e.Server, e.Reason)
	}
	return fmt.Sprintf("mcp: server %q: missing required field %q", e.Server, e.Field)
}
