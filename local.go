package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/armatrix/mcp-agent-go/internal/schema"
)

// Tool is a locally implemented tool with typed arguments. Its JSON schema is
// derived from T's struct tags, so local tools project into every calling
// convention the same way remote MCP tools do.
type Tool[T any] interface {
	// Name returns the tool's catalog name. Local tools are not qualified
	// by a server prefix.
	Name() string

	// Description explains what the tool does, for the model.
	Description() string

	// Execute runs the tool with parsed arguments.
	Execute(ctx context.Context, args T) (string, error)
}

// RegisterTool adds a local tool to the catalog. The parameter schema is
// generated from T and canonicalized exactly like a server-advertised schema;
// incoming arguments are decoded into T before Execute runs.
func RegisterTool[T any](c *Catalog, tool Tool[T]) error {
	raw, err := schema.Generate[T]()
	if err != nil {
		return fmt.Errorf("agent: generate schema for tool %q: %w", tool.Name(), err)
	}
	params, err := canonicalizeSchema(raw)
	if err != nil {
		return fmt.Errorf("agent: canonicalize schema for tool %q: %w", tool.Name(), err)
	}

	d := ToolDescriptor{
		Name:        tool.Name(),
		Description: tool.Description(),
		Params:      params,
	}
	return c.Register(d, func(ctx context.Context, args map[string]any) (string, error) {
		data, err := json.Marshal(args)
		if err != nil {
			return "", fmt.Errorf("agent: marshal arguments for tool %q: %w", tool.Name(), err)
		}
		var typed T
		if err := json.Unmarshal(data, &typed); err != nil {
			return "", fmt.Errorf("agent: decode arguments for tool %q: %w", tool.Name(), err)
		}
		return tool.Execute(ctx, typed)
	})
}
