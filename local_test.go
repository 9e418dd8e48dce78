package agent

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type addArgs struct {
	A int `json:"a" jsonschema:"required,description=First addend"`
	B int `json:"b" jsonschema:"required,description=Second addend"`
}

type addTool struct{}

func (addTool) Name() string        { return "math_add" }
func (addTool) Description() string { return "Add two integers" }

func (addTool) Execute(ctx context.Context, args addArgs) (string, error) {
	return fmt.Sprintf("%d", args.A+args.B), nil
}

func TestRegisterTool(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, RegisterTool[addArgs](c, addTool{}))

	d, ok := c.Get("math_add")
	require.True(t, ok)
	assert.Empty(t, d.Server)
	assert.Equal(t, "Add two integers", d.Description)
	require.Contains(t, d.Params, "a")
	assert.Equal(t, KindNumber, d.Params["a"].Kind)
	assert.True(t, d.Params["a"].Required)

	result, err := c.Call(context.Background(), "math_add", map[string]any{"a": 3, "b": 5})
	require.NoError(t, err)
	assert.Equal(t, "8", result)
}

func TestRegisterTool_BadArguments(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, RegisterTool[addArgs](c, addTool{}))

	_, err := c.Call(context.Background(), "math_add", map[string]any{"a": "not a number"})
	assert.Error(t, err)
}
