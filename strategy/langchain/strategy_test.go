package langchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	agent "github.com/armatrix/mcp-agent-go"
)

// fakeModel returns a canned response and records what it was asked.
type fakeModel struct {
	resp     *llms.ContentResponse
	err      error
	messages []llms.MessageContent
	opts     llms.CallOptions
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	f.messages = messages
	for _, opt := range options {
		opt(&f.opts)
	}
	return f.resp, f.err
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return "", errors.New("not implemented")
}

func testCatalog(t *testing.T) *agent.Catalog {
	t.Helper()
	c := agent.NewCatalog()
	err := c.Register(agent.ToolDescriptor{
		Name:        "files_read",
		Description: "Read a file",
		Params: map[string]agent.ParamSpec{
			"path": {Kind: agent.KindString, Required: true},
		},
	}, func(ctx context.Context, args map[string]any) (string, error) { return "", nil })
	require.NoError(t, err)
	return c
}

func TestProposeTurn_TextChoice(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "All done."}},
	}}
	s := New(model)

	stream, err := s.ProposeTurn(context.Background(),
		[]agent.Turn{{Role: agent.RoleUser, Text: "hi"}}, testCatalog(t))
	require.NoError(t, err)

	require.True(t, stream.Next())
	assert.Equal(t, agent.TextDelta{Text: "All done."}, stream.Current())
	assert.False(t, stream.Next())
}

func TestProposeTurn_ToolCallChoice(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{
			ToolCalls: []llms.ToolCall{{
				ID:   "call_9",
				Type: "function",
				FunctionCall: &llms.FunctionCall{
					Name:      "files_read",
					Arguments: `{"path":"/etc/hosts"}`,
				},
			}},
		}},
	}}
	s := New(model)

	stream, err := s.ProposeTurn(context.Background(), nil, testCatalog(t))
	require.NoError(t, err)

	var deltas []agent.TurnDelta
	for stream.Next() {
		deltas = append(deltas, stream.Current())
	}
	require.Len(t, deltas, 3)
	assert.Equal(t, agent.CallBegin{Index: 0, ID: "call_9", Name: "files_read"}, deltas[0])
	assert.Equal(t, agent.CallArgsDelta{Index: 0, Fragment: `{"path":"/etc/hosts"}`}, deltas[1])
	assert.Equal(t, agent.CallEnd{Index: 0}, deltas[2])
}

func TestProposeTurn_PassesToolsToFramework(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: "ok"}},
	}}
	s := New(model)

	_, err := s.ProposeTurn(context.Background(), nil, testCatalog(t))
	require.NoError(t, err)

	require.Len(t, model.opts.Tools, 1)
	assert.Equal(t, "function", model.opts.Tools[0].Type)
	assert.Equal(t, "files_read", model.opts.Tools[0].Function.Name)
}

func TestToMessageContent(t *testing.T) {
	history := []agent.Turn{
		{Role: agent.RoleSystem, Text: "Be terse."},
		{Role: agent.RoleUser, Text: "read hosts"},
		{Role: agent.RoleAssistant, Text: "Reading.", Calls: []agent.ToolCall{
			{ID: "call_1", Name: "files_read", RawArguments: `{"path":"/etc/hosts"}`},
		}},
		{Role: agent.RoleTool, CallID: "call_1", ToolName: "files_read", Text: "127.0.0.1 localhost"},
	}

	messages := toMessageContent(history)
	require.Len(t, messages, 4)
	assert.Equal(t, llms.ChatMessageTypeSystem, messages[0].Role)
	assert.Equal(t, llms.ChatMessageTypeHuman, messages[1].Role)

	ai := messages[2]
	assert.Equal(t, llms.ChatMessageTypeAI, ai.Role)
	require.Len(t, ai.Parts, 2)
	call, ok := ai.Parts[1].(llms.ToolCall)
	require.True(t, ok)
	assert.Equal(t, "call_1", call.ID)
	assert.Equal(t, "files_read", call.FunctionCall.Name)

	tool := messages[3]
	assert.Equal(t, llms.ChatMessageTypeTool, tool.Role)
	resp, ok := tool.Parts[0].(llms.ToolCallResponse)
	require.True(t, ok)
	assert.Equal(t, "call_1", resp.ToolCallID)
	assert.Equal(t, "127.0.0.1 localhost", resp.Content)
}

func TestProposeTurn_ModelError(t *testing.T) {
	model := &fakeModel{err: errors.New("rate limited")}
	s := New(model)

	_, err := s.ProposeTurn(context.Background(), nil, testCatalog(t))
	assert.Error(t, err)
}

func TestProposeTurn_NoChoices(t *testing.T) {
	model := &fakeModel{resp: &llms.ContentResponse{}}
	s := New(model)

	stream, err := s.ProposeTurn(context.Background(), nil, testCatalog(t))
	require.NoError(t, err)
	assert.False(t, stream.Next())
}
