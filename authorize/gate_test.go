package authorize

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

// scriptPrompter answers every confirmation with a fixed result.
type scriptPrompter struct {
	answer Answer
	err    error
	asked  int
}

func (p *scriptPrompter) Confirm(ctx context.Context, req Request) (Answer, error) {
	p.asked++
	return p.answer, p.err
}

func TestGate_ShouldConfirm(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		tool   string
		want   bool
	}{
		{
			name:   "confirmation disabled",
			policy: Policy{SkipConfirmation: true},
			tool:   "files_delete",
			want:   false,
		},
		{
			name:   "zero value requires confirmation",
			policy: Policy{},
			tool:   "files_read",
			want:   true,
		},
		{
			name: "auto-approved exact match",
			policy: Policy{
				AutoApproveTools: []string{"files_read"},
			},
			tool: "files_read",
			want: false,
		},
		{
			name: "auto-approved unqualified name matches behind prefix",
			policy: Policy{
				AutoApproveTools: []string{"read_file"},
			},
			tool: "filesystem_read_file",
			want: false,
		},
		{
			name: "auto-approved glob",
			policy: Policy{
				AutoApproveTools: []string{"files_*"},
			},
			tool: "files_read",
			want: false,
		},
		{
			name: "dangerous overrides auto-approval",
			policy: Policy{
				AutoApproveTools: []string{"*"},
				DangerousTools:   []string{"files_delete"},
			},
			tool: "files_delete",
			want: true,
		},
		{
			name: "dangerous overrides auto-approve-all",
			policy: Policy{
				AutoApproveAll: true,
				DangerousTools: []string{"*delete*"},
			},
			tool: "filesystem_delete_file",
			want: true,
		},
		{
			name: "auto-approve-all skips everything else",
			policy: Policy{
				AutoApproveAll: true,
			},
			tool: "files_write",
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGate(tt.policy)
			assert.Equal(t, tt.want, g.ShouldConfirm(tt.tool))
		})
	}
}

func TestGate_HeadlessDeniesFailClosed(t *testing.T) {
	g := NewGate(DefaultPolicy())
	verdict := g.Authorize(context.Background(), Request{Tool: "files_write"})
	assert.Equal(t, Denied, verdict)
}

func TestGate_ZeroValuePolicyFailsClosed(t *testing.T) {
	// A policy literal that only lists patterns must still confirm, and a
	// headless gate must therefore deny, dangerous calls above all.
	g := NewGate(Policy{DangerousTools: []string{"*delete*"}})

	assert.Equal(t, Denied, g.Authorize(context.Background(), Request{Tool: "db_delete_row"}))
	assert.Equal(t, Denied, g.Authorize(context.Background(), Request{Tool: "files_read"}))

	var zero Policy
	assert.True(t, NewGate(zero).ShouldConfirm("anything"))
}

func TestGate_PrompterErrorDenies(t *testing.T) {
	p := &scriptPrompter{err: errors.New("terminal gone")}
	g := NewGate(DefaultPolicy(), WithPrompter(p))

	verdict := g.Authorize(context.Background(), Request{Tool: "files_write"})
	assert.Equal(t, Denied, verdict)
}

func TestGate_Answers(t *testing.T) {
	tests := []struct {
		answer Answer
		want   Verdict
	}{
		{Yes, Approved},
		{No, Denied},
		{Stop, Stopped},
		{All, Approved},
	}
	for _, tt := range tests {
		g := NewGate(DefaultPolicy(), WithPrompter(&scriptPrompter{answer: tt.answer}))
		verdict := g.Authorize(context.Background(), Request{Tool: "any_tool"})
		assert.Equal(t, tt.want, verdict)
	}
}

func TestGate_AllIsStickyForTheSession(t *testing.T) {
	p := &scriptPrompter{answer: All}
	g := NewGate(DefaultPolicy(), WithPrompter(p))

	assert.Equal(t, Approved, g.Authorize(context.Background(), Request{Tool: "first"}))
	assert.Equal(t, Approved, g.Authorize(context.Background(), Request{Tool: "second"}))
	assert.Equal(t, 1, p.asked)
}

func TestGate_AllDoesNotCoverDangerousTools(t *testing.T) {
	p := &scriptPrompter{answer: All}
	g := NewGate(Policy{
		DangerousTools: []string{"files_delete"},
	}, WithPrompter(p))

	assert.Equal(t, Approved, g.Authorize(context.Background(), Request{Tool: "files_read"}))
	assert.Equal(t, Approved, g.Authorize(context.Background(), Request{Tool: "files_delete"}))
	assert.Equal(t, 2, p.asked)
}

func TestGate_ApprovedWithoutPromptWhenPolicyAllows(t *testing.T) {
	p := &scriptPrompter{answer: No}
	g := NewGate(Policy{
		AutoApproveTools: []string{"files_read"},
	}, WithPrompter(p))

	assert.Equal(t, Approved, g.Authorize(context.Background(), Request{Tool: "files_read"}))
	assert.Equal(t, 0, p.asked)
}
