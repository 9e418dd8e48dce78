// Package authorize gates tool execution behind a declarative policy and an
// interactive confirmation prompt. The gate fails closed: a zero-value Policy
// confirms every call, and with no way to ask, calls are denied.
package authorize

import "encoding/json"

// Policy declares which tool calls run without asking. The zero value is the
// safe default: every call requires confirmation. Patterns match qualified
// tool names: a pattern containing a glob metacharacter matches as a glob; a
// plain pattern matches the name exactly or as the unqualified tool name
// behind any server prefix.
type Policy struct {
	// SkipConfirmation disables the confirmation step entirely; every call
	// runs without asking. Off (confirm) by default.
	SkipConfirmation bool

	// AutoApproveTools lists patterns of tools that skip confirmation.
	AutoApproveTools []string

	// DangerousTools lists patterns of tools that always confirm, taking
	// precedence over every auto-approval.
	DangerousTools []string

	// AutoApproveAll skips confirmation for all non-dangerous tools.
	AutoApproveAll bool
}

// DefaultPolicy requires confirmation for everything. It is the zero value,
// kept as a constructor for call sites that want the intent spelled out.
func DefaultPolicy() Policy {
	return Policy{}
}

// policyJSON is the wire form of a Policy. The config format expresses the
// confirmation step positively ("requireConfirmation", default true), so the
// field is inverted on the way in to keep the Go zero value safe.
type policyJSON struct {
	RequireConfirmation *bool    `json:"requireConfirmation,omitempty"`
	AutoApproveTools    []string `json:"autoApproveTools,omitempty"`
	DangerousTools      []string `json:"dangerousTools,omitempty"`
	AutoApproveAll      bool     `json:"autoApproveAll,omitempty"`
}

// UnmarshalJSON implements json.Unmarshaler. An absent requireConfirmation
// means confirmation is required.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var raw policyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	p.SkipConfirmation = raw.RequireConfirmation != nil && !*raw.RequireConfirmation
	p.AutoApproveTools = raw.AutoApproveTools
	p.DangerousTools = raw.DangerousTools
	p.AutoApproveAll = raw.AutoApproveAll
	return nil
}

// MarshalJSON implements json.Marshaler, emitting the wire form.
func (p Policy) MarshalJSON() ([]byte, error) {
	require := !p.SkipConfirmation
	return json.Marshal(policyJSON{
		RequireConfirmation: &require,
		AutoApproveTools:    p.AutoApproveTools,
		DangerousTools:      p.DangerousTools,
		AutoApproveAll:      p.AutoApproveAll,
	})
}
