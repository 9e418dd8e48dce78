package agent

import "errors"

// Sentinel errors returned by the loop and catalog operations.
var (
	// ErrSessionStopped is reported on the event stream when the user
	// resolves a confirmation prompt with "stop".
	ErrSessionStopped = errors.New("agent: session stopped by user")

	// ErrNoUsableTools is returned by BuildCatalog when servers were
	// configured but none of them yielded a single usable tool.
	ErrNoUsableTools = errors.New("agent: no usable tools from any configured server")

	// ErrToolNotFound is returned when a call names a tool the catalog
	// does not know.
	ErrToolNotFound = errors.New("agent: tool not found")

	// ErrDuplicateTool is returned when registering a tool whose qualified
	// name is already taken.
	ErrDuplicateTool = errors.New("agent: duplicate tool name")
)
