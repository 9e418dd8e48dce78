package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer is an httptest-backed MCP server speaking streamable HTTP.
type fakeServer struct {
	t     *testing.T
	tools []Tool
	pages int // when > 1, tools/list paginates one tool per page

	callResult  json.RawMessage
	callIsError bool

	listCalls int
	lastCall  callToolParams
}

func (s *fakeServer) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var msg JSONRPCMessage
		require.NoError(s.t, json.NewDecoder(r.Body).Decode(&msg))

		switch msg.Method {
		case methodInitialize:
			s.reply(w, msg.ID, initializeResult{
				ProtocolVersion: ProtocolVersion,
				ServerInfo:      Info{Name: "fake", Version: "1.0"},
			})
		case notifyInitialized:
			w.WriteHeader(http.StatusAccepted)
		case methodListTools:
			s.listCalls++
			var params listToolsParams
			_ = json.Unmarshal(msg.Params, &params)
			s.reply(w, msg.ID, s.listPage(params.Cursor))
		case methodCallTool:
			require.NoError(s.t, json.Unmarshal(msg.Params, &s.lastCall))
			result := map[string]any{"isError": s.callIsError}
			if s.callResult != nil {
				result["content"] = s.callResult
			}
			s.reply(w, msg.ID, result)
		default:
			s.t.Errorf("unexpected method %q", msg.Method)
		}
	}
}

func (s *fakeServer) listPage(cursor string) listToolsResult {
	if s.pages <= 1 {
		return listToolsResult{Tools: s.tools}
	}
	page := 0
	if cursor != "" {
		fmt.Sscanf(cursor, "page-%d", &page)
	}
	result := listToolsResult{Tools: s.tools[page : page+1]}
	if page+1 < len(s.tools) {
		result.NextCursor = fmt.Sprintf("page-%d", page+1)
	}
	return result
}

func (s *fakeServer) reply(w http.ResponseWriter, id MustString, result any) {
	data, err := json.Marshal(result)
	require.NoError(s.t, err)
	_ = json.NewEncoder(w).Encode(JSONRPCMessage{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Result:  data,
	})
}

func newTestClient(t *testing.T, srv *fakeServer) *Client {
	t.Helper()
	ts := httptest.NewServer(srv.handler())
	t.Cleanup(ts.Close)

	client, err := NewClient("fake", ServerConfig{URL: ts.URL})
	require.NoError(t, err)
	t.Cleanup(client.Disconnect)
	return client
}

func TestClient_ConnectHandshake(t *testing.T) {
	client := newTestClient(t, &fakeServer{t: t})
	require.NoError(t, client.Connect(context.Background()))
	// Idempotent.
	require.NoError(t, client.Connect(context.Background()))
}

func TestClient_ListTools(t *testing.T) {
	srv := &fakeServer{t: t, tools: []Tool{
		{Name: "read_file", Description: "Read a file"},
		{Name: "write_file"},
	}}
	client := newTestClient(t, srv)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 2)
	assert.Equal(t, "read_file", tools[0].Name)
}

func TestClient_ListToolsFollowsPagination(t *testing.T) {
	srv := &fakeServer{
		t:     t,
		tools: []Tool{{Name: "a"}, {Name: "b"}, {Name: "c"}},
		pages: 3,
	}
	client := newTestClient(t, srv)

	tools, err := client.ListTools(context.Background())
	require.NoError(t, err)
	require.Len(t, tools, 3)
	assert.Equal(t, 3, srv.listCalls)
}

func TestClient_CallTool(t *testing.T) {
	srv := &fakeServer{
		t:          t,
		callResult: json.RawMessage(`[{"type":"text","text":"hello"},{"type":"text","text":"world"}]`),
	}
	client := newTestClient(t, srv)

	result, err := client.CallTool(context.Background(), "greet", map[string]any{"name": "x"})
	require.NoError(t, err)
	assert.Equal(t, "hello\nworld", result)
	assert.Equal(t, "greet", srv.lastCall.Name)
	assert.Equal(t, "x", srv.lastCall.Arguments["name"])
}

func TestClient_CallToolNilArgumentsBecomeEmptyObject(t *testing.T) {
	srv := &fakeServer{t: t, callResult: json.RawMessage(`[{"type":"text","text":"ok"}]`)}
	client := newTestClient(t, srv)

	_, err := client.CallTool(context.Background(), "noargs", nil)
	require.NoError(t, err)
	assert.NotNil(t, srv.lastCall.Arguments)
}

func TestClient_CallToolErrorReply(t *testing.T) {
	srv := &fakeServer{
		t:           t,
		callResult:  json.RawMessage(`[{"type":"text","text":"file not found"}]`),
		callIsError: true,
	}
	client := newTestClient(t, srv)

	_, err := client.CallTool(context.Background(), "read_file", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "file not found")
}

func TestFlattenContent(t *testing.T) {
	tests := []struct {
		name    string
		whole   string
		content string
		want    string
	}{
		{
			name:    "text blocks joined by newline",
			content: `[{"type":"text","text":"a"},{"type":"text","text":"b"}]`,
			want:    "a\nb",
		},
		{
			name:    "non-text block kept as raw JSON",
			content: `[{"type":"image","data":"...","mimeType":"image/png"}]`,
			want:    `{"type":"image","data":"...","mimeType":"image/png"}`,
		},
		{
			name:    "single string content",
			content: `"just a string"`,
			want:    "just a string",
		},
		{
			name:    "single non-string content stringified",
			content: `{"count":42}`,
			want:    `{"count":42}`,
		},
		{
			name:  "absent content stringifies whole reply",
			whole: `{"something":"else"}`,
			want:  `{"something":"else"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := flattenContent(json.RawMessage(tt.whole), json.RawMessage(tt.content))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMustString_UnmarshalJSON(t *testing.T) {
	var m MustString
	require.NoError(t, json.Unmarshal([]byte(`"abc"`), &m))
	assert.Equal(t, MustString("abc"), m)

	require.NoError(t, json.Unmarshal([]byte(`42`), &m))
	assert.Equal(t, MustString("42"), m)

	assert.Error(t, json.Unmarshal([]byte(`true`), &m))
}
