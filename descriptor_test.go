package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQualifiedName_DistinctPairsStayDistinct(t *testing.T) {
	a := QualifiedName("files", "read")
	b := QualifiedName("git", "read")
	c := QualifiedName("files", "write")

	assert.NotEqual(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Equal(t, "files_read", a)
}

func TestCanonicalizeSchema(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want map[string]ParamSpec
	}{
		{
			name: "basic types",
			raw: `{
				"type": "object",
				"properties": {
					"city": {"type": "string", "description": "City name"},
					"days": {"type": "integer"},
					"rate": {"type": "number"},
					"metric": {"type": "boolean"}
				},
				"required": ["city"]
			}`,
			want: map[string]ParamSpec{
				"city":   {Kind: KindString, Description: "City name", Required: true},
				"days":   {Kind: KindNumber},
				"rate":   {Kind: KindNumber},
				"metric": {Kind: KindBoolean},
			},
		},
		{
			name: "array with item schema",
			raw: `{
				"type": "object",
				"properties": {
					"tags": {"type": "array", "items": {"type": "string"}}
				}
			}`,
			want: map[string]ParamSpec{
				"tags": {Kind: KindArray, Item: &ParamSpec{Kind: KindString}},
			},
		},
		{
			name: "unknown type widens to any",
			raw: `{
				"type": "object",
				"properties": {
					"blob": {"type": "weird"},
					"untyped": {}
				}
			}`,
			want: map[string]ParamSpec{
				"blob":    {Kind: KindAny},
				"untyped": {Kind: KindAny},
			},
		},
		{
			name: "enum values",
			raw: `{
				"type": "object",
				"properties": {
					"unit": {"type": "string", "enum": ["celsius", "fahrenheit"]},
					"level": {"type": "number", "enum": [1, 2]}
				}
			}`,
			want: map[string]ParamSpec{
				"unit":  {Kind: KindString, Enum: []string{"celsius", "fahrenheit"}},
				"level": {Kind: KindNumber, Enum: []string{"1", "2"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := canonicalizeSchema(json.RawMessage(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCanonicalizeSchema_EmptyAndMalformed(t *testing.T) {
	got, err := canonicalizeSchema(nil)
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = canonicalizeSchema(json.RawMessage(`{"properties": "not an object"}`))
	assert.Error(t, err)
}

func TestToolDescriptor_JSONSchema(t *testing.T) {
	d := ToolDescriptor{
		Name: "files_read",
		Params: map[string]ParamSpec{
			"path":  {Kind: KindString, Description: "File path", Required: true},
			"limit": {Kind: KindNumber},
		},
	}

	schema := d.JSONSchema()
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []string{"path"}, schema["required"])

	properties, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	path, ok := properties["path"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "string", path["type"])
	assert.Equal(t, "File path", path["description"])
}

func TestToolDescriptor_JSONSchema_AnyOmitsType(t *testing.T) {
	d := ToolDescriptor{
		Name:   "tool",
		Params: map[string]ParamSpec{"anything": {Kind: KindAny}},
	}

	properties := d.JSONSchema()["properties"].(map[string]any)
	spec := properties["anything"].(map[string]any)
	_, hasType := spec["type"]
	assert.False(t, hasType)
}
