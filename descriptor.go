package agent

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParamKind is the canonical tagged variant for tool parameter types.
// Unknown or missing raw schema types widen to KindAny — a deliberate
// permissive default so a sloppy server schema degrades a tool's typing
// rather than dropping the tool.
type ParamKind int

const (
	KindAny ParamKind = iota
	KindString
	KindNumber
	KindBoolean
	KindArray
	KindObject
)

// String returns the JSON-schema type name for the kind; KindAny has none.
func (k ParamKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBoolean:
		return "boolean"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "any"
	}
}

// ParamSpec is the canonical schema of one tool parameter.
type ParamSpec struct {
	Kind        ParamKind
	Description string
	Required    bool
	Enum        []string
	Item        *ParamSpec // element schema for KindArray, when known
}

// ToolDescriptor is the canonical description of one callable tool: its
// globally unique qualified name, its parameter schema, and (for remote
// tools) which server it routes to. All per-strategy projections derive
// from this one descriptor.
type ToolDescriptor struct {
	// Name is the qualified name: "{server}_{tool}" for remote tools,
	// the plain tool name for local ones.
	Name string

	// Server is the owning server name; empty for local tools.
	Server string

	// RemoteName is the tool's name as the server advertises it.
	RemoteName string

	Description string

	Params map[string]ParamSpec
}

// QualifiedName builds the collision-free catalog name for a server's tool.
// Distinct (server, tool) pairs always yield distinct qualified names.
func QualifiedName(server, tool string) string {
	return server + "_" + tool
}

// JSONSchema renders the canonical parameter schema as a JSON-schema-like
// object: {"type":"object","properties":{...},"required":[...]}.
func (d *ToolDescriptor) JSONSchema() map[string]any {
	properties := make(map[string]any, len(d.Params))
	var required []string
	for _, name := range d.paramNames() {
		spec := d.Params[name]
		properties[name] = spec.jsonSchema()
		if spec.Required {
			required = append(required, name)
		}
	}
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

// paramNames returns the parameter names in deterministic order.
func (d *ToolDescriptor) paramNames() []string {
	names := make([]string, 0, len(d.Params))
	for name := range d.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (p ParamSpec) jsonSchema() map[string]any {
	m := make(map[string]any)
	if p.Kind != KindAny {
		m["type"] = p.Kind.String()
	}
	if p.Description != "" {
		m["description"] = p.Description
	}
	if len(p.Enum) > 0 {
		m["enum"] = p.Enum
	}
	if p.Kind == KindArray && p.Item != nil {
		m["items"] = p.Item.jsonSchema()
	}
	return m
}

// rawSchema is the subset of JSON Schema the canonicalizer understands.
type rawSchema struct {
	Type        string                     `json:"type"`
	Description string                     `json:"description"`
	Enum        []any                      `json:"enum"`
	Items       *rawSchema                 `json:"items"`
	Properties  map[string]json.RawMessage `json:"properties"`
	Required    []string                   `json:"required"`
}

// canonicalizeSchema converts a raw JSON-schema-like inputSchema into the
// canonical parameter mapping. Raw types map string→String, number and
// integer→Number, boolean→Boolean, array→Array (with item schema when
// present), object→Object; anything else or missing widens to Any.
func canonicalizeSchema(raw json.RawMessage) (map[string]ParamSpec, error) {
	params := make(map[string]ParamSpec)
	if len(raw) == 0 {
		return params, nil
	}

	var s rawSchema
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse input schema: %w", err)
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	for name, propRaw := range s.Properties {
		var prop rawSchema
		if err := json.Unmarshal(propRaw, &prop); err != nil {
			return nil, fmt.Errorf("parse schema of property %q: %w", name, err)
		}
		spec := paramSpec(prop)
		spec.Required = required[name]
		params[name] = spec
	}
	return params, nil
}

func paramSpec(s rawSchema) ParamSpec {
	spec := ParamSpec{
		Kind:        paramKind(s.Type),
		Description: s.Description,
	}
	for _, v := range s.Enum {
		if str, ok := v.(string); ok {
			spec.Enum = append(spec.Enum, str)
			continue
		}
		if data, err := json.Marshal(v); err == nil {
			spec.Enum = append(spec.Enum, string(data))
		}
	}
	if spec.Kind == KindArray && s.Items != nil {
		item := paramSpec(*s.Items)
		spec.Item = &item
	}
	return spec
}

func paramKind(rawType string) ParamKind {
	switch rawType {
	case "string":
		return KindString
	case "number", "integer":
		return KindNumber
	case "boolean":
		return KindBoolean
	case "array":
		return KindArray
	case "object":
		return KindObject
	default:
		return KindAny
	}
}
