// Package schema generates raw JSON Schema objects from Go struct types so
// locally registered tools go through the same canonicalization path as
// schemas advertised by MCP servers.
package schema

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// Generate produces a JSON Schema object ({"type":"object",...}) for the Go
// struct type T. Struct tags (json, jsonschema) drive the schema.
func Generate[T any]() (json.RawMessage, error) {
	var zero T
	s := jsonschema.Reflect(&zero)
	root := extractRoot(s)

	out := map[string]any{
		"type":       "object",
		"properties": properties(root),
	}
	if len(root.Required) > 0 {
		out["required"] = root.Required
	}
	return json.Marshal(out)
}

// extractRoot resolves the root schema, following $ref into $defs if needed.
func extractRoot(s *jsonschema.Schema) *jsonschema.Schema {
	if s.Ref != "" && s.Definitions != nil {
		for _, def := range s.Definitions {
			if def.Type == "object" {
				return def
			}
		}
	}
	return s
}

func properties(s *jsonschema.Schema) map[string]any {
	props := make(map[string]any)
	if s.Properties == nil {
		return props
	}
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		props[pair.Key] = property(pair.Value)
	}
	return props
}

func property(s *jsonschema.Schema) map[string]any {
	m := make(map[string]any)

	if s.Type != "" {
		m["type"] = s.Type
	}
	if s.Description != "" {
		m["description"] = s.Description
	}
	if len(s.Enum) > 0 {
		m["enum"] = s.Enum
	}

	// invopop/jsonschema renders nullable (pointer) fields as anyOf; take
	// the non-null branch.
	if len(s.AnyOf) > 0 {
		for _, sub := range s.AnyOf {
			if sub.Type != "null" && sub.Type != "" {
				m["type"] = sub.Type
				break
			}
		}
	}

	if s.Properties != nil {
		m["type"] = "object"
		m["properties"] = properties(s)
		if len(s.Required) > 0 {
			m["required"] = s.Required
		}
	}

	if s.Items != nil {
		m["items"] = property(s.Items)
	}

	return m
}
