package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/armatrix/mcp-agent-go/mcp"
)

// CallFunc executes one tool call with parsed arguments and returns the
// flattened string result.
type CallFunc func(ctx context.Context, args map[string]any) (string, error)

// FunctionSchema is the generic function-calling projection of one tool:
// name, description, and a JSON-schema parameters object. Strategies map it
// into their wire types without re-deriving anything from raw MCP schemas.
type FunctionSchema struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Catalog merges tools from MCP servers and locally registered tools into
// one namespace of qualified names and routes calls to the owning client.
// It is concurrent-safe.
type Catalog struct {
	mu     sync.RWMutex
	tools  map[string]*catalogEntry
	order  []string // registration order
	logger *slog.Logger
}

type catalogEntry struct {
	descriptor ToolDescriptor
	call       CallFunc
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		tools:  make(map[string]*catalogEntry),
		logger: slog.Default(),
	}
}

// BuildCatalog discovers tools from every client and merges them into one
// catalog. A server that fails to connect or list is logged and excluded;
// its error does not affect other servers. If servers were given but none
// yielded a tool, ErrNoUsableTools is returned.
func BuildCatalog(ctx context.Context, clients ...*mcp.Client) (*Catalog, error) {
	c := NewCatalog()
	for _, client := range clients {
		if err := c.AddServer(ctx, client); err != nil {
			c.logger.Warn("excluding server from catalog",
				slog.String("server", client.Name()),
				slog.String("err", err.Error()))
		}
	}
	if len(clients) > 0 && len(c.order) == 0 {
		return nil, ErrNoUsableTools
	}
	return c, nil
}

// AddServer lists the client's tools and registers each under its qualified
// name. The catalog holds a reference to the client for routing; the caller
// keeps ownership of the client's lifecycle.
func (c *Catalog) AddServer(ctx context.Context, client *mcp.Client) error {
	tools, err := client.ListTools(ctx)
	if err != nil {
		return err
	}

	server := client.Name()
	for _, tool := range tools {
		params, err := canonicalizeSchema(tool.InputSchema)
		if err != nil {
			c.logger.Warn("skipping tool with malformed schema",
				slog.String("server", server),
				slog.String("tool", tool.Name),
				slog.String("err", err.Error()))
			continue
		}

		remoteName := tool.Name
		d := ToolDescriptor{
			Name:        QualifiedName(server, tool.Name),
			Server:      server,
			RemoteName:  remoteName,
			Description: tool.Description,
			Params:      params,
		}
		err = c.Register(d, func(ctx context.Context, args map[string]any) (string, error) {
			return client.CallTool(ctx, remoteName, args)
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Register adds one tool with its executor. Qualified names must be unique.
func (c *Catalog) Register(d ToolDescriptor, call CallFunc) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.tools[d.Name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateTool, d.Name)
	}
	c.tools[d.Name] = &catalogEntry{descriptor: d, call: call}
	c.order = append(c.order, d.Name)
	return nil
}

// Call routes a tool call to its executor by qualified name.
func (c *Catalog) Call(ctx context.Context, name string, args map[string]any) (string, error) {
	c.mu.RLock()
	entry, ok := c.tools[name]
	c.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrToolNotFound, name)
	}
	return entry.call(ctx, args)
}

// Get returns the descriptor of one tool by qualified name.
func (c *Catalog) Get(name string) (ToolDescriptor, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.tools[name]
	if !ok {
		return ToolDescriptor{}, false
	}
	return entry.descriptor, true
}

// Names returns the qualified tool names in registration order.
func (c *Catalog) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.order))
	copy(names, c.order)
	return names
}

// Len returns the number of registered tools.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.order)
}

// Descriptors returns the tool descriptors in registration order.
func (c *Catalog) Descriptors() []ToolDescriptor {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]ToolDescriptor, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, c.tools[name].descriptor)
	}
	return out
}

// FunctionSchemas is the function-calling projection of the catalog,
// consumed by the native and framework strategies.
func (c *Catalog) FunctionSchemas() []FunctionSchema {
	descriptors := c.Descriptors()
	out := make([]FunctionSchema, 0, len(descriptors))
	for i := range descriptors {
		d := &descriptors[i]
		out = append(out, FunctionSchema{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.JSONSchema(),
		})
	}
	return out
}

// Manual is the prompt-engineered projection: a textual tool manual for a
// system prompt, ending with the required JSON response envelope.
func (c *Catalog) Manual() string {
	var b strings.Builder
	b.WriteString("You can call external tools. Available tools:\n")

	for _, d := range c.Descriptors() {
		fmt.Fprintf(&b, "\n### %s\n", d.Name)
		if d.Description != "" {
			b.WriteString(d.Description)
			b.WriteString("\n")
		}
		if len(d.Params) > 0 {
			b.WriteString("Parameters:\n")
			for _, name := range d.paramNames() {
				spec := d.Params[name]
				writeParamLine(&b, name, spec)
			}
		}
	}

	b.WriteString("\nTo call a tool, reply with ONLY a JSON object of this exact shape:\n")
	b.WriteString(`{"action": "tool_call", "tool_name": "<name>", "arguments": {<parameters>}, "reasoning": "<why>"}`)
	b.WriteString("\nTo answer the user directly, reply with plain text and no JSON object.\n")
	return b.String()
}

func writeParamLine(b *strings.Builder, name string, spec ParamSpec) {
	kind := spec.Kind.String()
	if spec.Kind == KindArray && spec.Item != nil {
		kind = "array of " + spec.Item.Kind.String()
	}
	req := "optional"
	if spec.Required {
		req = "required"
	}
	fmt.Fprintf(b, "- %s (%s, %s)", name, kind, req)
	if spec.Description != "" {
		fmt.Fprintf(b, ": %s", spec.Description)
	}
	if len(spec.Enum) > 0 {
		fmt.Fprintf(b, " [one of: %s]", strings.Join(spec.Enum, ", "))
	}
	b.WriteString("\n")
}
