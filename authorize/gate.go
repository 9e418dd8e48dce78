package authorize

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
)

// Verdict is the gate's decision for one tool call.
type Verdict int

const (
	// Approved lets the call execute.
	Approved Verdict = iota
	// Denied blocks this call only.
	Denied
	// Stopped blocks this call and terminates the session's loop.
	Stopped
)

// Request describes one tool call awaiting authorization.
type Request struct {
	// Tool is the qualified tool name.
	Tool string
	// Server is the owning server, empty for local tools.
	Server string
	// Arguments are the parsed call arguments, shown to the user.
	Arguments map[string]any
}

// Gate decides whether tool calls may run. Decisions follow the policy;
// calls the policy does not settle go to the prompter. A gate with no
// prompter is headless and denies anything that would need confirmation.
type Gate struct {
	policy   Policy
	prompter Prompter
	logger   *slog.Logger

	mu         sync.Mutex
	approveAll bool // set when the user answers "all"
}

// GateOption configures a Gate.
type GateOption func(*Gate)

// WithPrompter sets the interactive confirmation channel. Without one the
// gate is headless.
func WithPrompter(p Prompter) GateOption {
	return func(g *Gate) { g.prompter = p }
}

// WithGateLogger sets the gate's logger. Defaults to slog.Default().
func WithGateLogger(logger *slog.Logger) GateOption {
	return func(g *Gate) { g.logger = logger }
}

// NewGate creates a gate enforcing the given policy.
func NewGate(policy Policy, options ...GateOption) *Gate {
	g := &Gate{
		policy: policy,
		logger: slog.Default(),
	}
	for _, opt := range options {
		opt(g)
	}
	return g
}

// ShouldConfirm reports whether the policy requires a confirmation prompt for
// the named tool. Dangerous patterns override every auto-approval, including
// a session-wide "all".
func (g *Gate) ShouldConfirm(tool string) bool {
	if g.policy.SkipConfirmation {
		return false
	}
	if matchAny(g.policy.DangerousTools, tool) {
		return true
	}
	if g.policy.AutoApproveAll {
		return false
	}
	g.mu.Lock()
	approveAll := g.approveAll
	g.mu.Unlock()
	if approveAll {
		return false
	}
	return !matchAny(g.policy.AutoApproveTools, tool)
}

// Authorize decides one tool call. Prompter failures and missing prompters
// deny rather than approve.
func (g *Gate) Authorize(ctx context.Context, req Request) Verdict {
	if !g.ShouldConfirm(req.Tool) {
		return Approved
	}

	if g.prompter == nil {
		g.logger.Warn("denying tool call: confirmation required but no prompter configured",
			slog.String("tool", req.Tool))
		return Denied
	}

	answer, err := g.prompter.Confirm(ctx, req)
	if err != nil {
		g.logger.Warn("denying tool call: confirmation failed",
			slog.String("tool", req.Tool),
			slog.String("err", err.Error()))
		return Denied
	}

	switch answer {
	case Yes:
		return Approved
	case All:
		g.mu.Lock()
		g.approveAll = true
		g.mu.Unlock()
		return Approved
	case Stop:
		return Stopped
	default:
		return Denied
	}
}

// matchAny reports whether the tool name matches any pattern. Patterns with
// glob metacharacters match with doublestar; plain patterns match the
// qualified name exactly or the unqualified name behind any server prefix.
func matchAny(patterns []string, tool string) bool {
	for _, pattern := range patterns {
		if strings.ContainsAny(pattern, "*?[{") {
			if ok, err := doublestar.Match(pattern, tool); err == nil && ok {
				return true
			}
			continue
		}
		if tool == pattern || strings.HasSuffix(tool, "_"+pattern) {
			return true
		}
	}
	return false
}
