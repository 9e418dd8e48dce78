package mcp

import (
	"encoding/json"
	"fmt"
)

const (
	// jsonRPCVersion is the fixed version string carried by every message.
	jsonRPCVersion = "2.0"

	// ProtocolVersion is the MCP protocol revision this client speaks.
	ProtocolVersion = "2024-11-05"
)

// RPC method names used by the client.
const (
	methodInitialize  = "initialize"
	methodListTools   = "tools/list"
	methodCallTool    = "tools/call"
	methodPing        = "ping"
	notifyInitialized = "notifications/initialized"
)

// MustString enforces string representation for fields that may be either a
// string or an integer on the wire, such as request IDs.
type MustString string

// UnmarshalJSON implements json.Unmarshaler, accepting strings and numbers.
func (m *MustString) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		*m = MustString(val)
	case float64:
		*m = MustString(fmt.Sprintf("%d", int64(val)))
	default:
		return fmt.Errorf("invalid id type: %T", v)
	}
	return nil
}

// JSONRPCMessage is one JSON-RPC 2.0 message: a request (ID, Method, Params),
// a response (ID and either Result or Error), or a notification (Method only).
type JSONRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      MustString      `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *JSONRPCError   `json:"error,omitempty"`
}

// JSONRPCError is the standard JSON-RPC 2.0 error object.
type JSONRPCError struct {
	Code    int            `json:"code"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

func (e *JSONRPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// Info identifies a client or server implementation during the handshake.
type Info struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type initializeParams struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ClientInfo      Info           `json:"clientInfo"`
}

type initializeResult struct {
	ProtocolVersion string         `json:"protocolVersion"`
	Capabilities    map[string]any `json:"capabilities"`
	ServerInfo      Info           `json:"serverInfo"`
}

// Tool is one tool advertised by a server. InputSchema is the raw
// JSON-schema-like description of the tool's arguments.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

type listToolsParams struct {
	Cursor string `json:"cursor,omitempty"`
}

type listToolsResult struct {
	Tools      []Tool `json:"tools"`
	NextCursor string `json:"nextCursor,omitempty"`
}

type callToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ContentBlock is one element of a tool reply's content array. Only text
// blocks carry Text; all other block shapes are kept raw and JSON-stringified
// when the reply is flattened.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}
