// Package agent implements an iterative tool-calling conversation loop over
// tools discovered from MCP (Model Context Protocol) servers.
//
// The package is built from four pieces:
//
//   - [Catalog] merges tools discovered from one or more [mcp.Client]
//     connections (and locally registered [Tool] implementations) into a
//     single namespace of qualified tool names, and projects each tool's
//     canonical schema into the calling convention of the active model
//     backend.
//   - [Strategy] abstracts how the next assistant turn is produced. Concrete
//     strategies live under strategy/ (native function calling via the
//     Anthropic API, prompt-engineered JSON envelopes, and a langchaingo
//     backed variant); all of them emit the same normalized [TurnDelta]
//     stream.
//   - The authorize package gates every proposed tool call behind a
//     configurable confirmation policy.
//   - [Loop] drives the per-turn state machine: model invocation, tool-call
//     assembly, authorization, sequential execution, and result feedback,
//     bounded by a maximum number of model round-trips.
//
// # Quick Start
//
//	client, _ := mcp.NewClient("math", mcp.ServerConfig{Command: "math-server"})
//	catalog, _ := agent.BuildCatalog(ctx, client)
//	gate := authorize.NewGate(authorize.DefaultPolicy(),
//		authorize.WithPrompter(authorize.NewTextPrompter(os.Stdin, os.Stdout)))
//	loop := agent.NewLoop(strategy, catalog, gate, agent.WithMaxIterations(10))
//
//	stream := loop.Run(ctx, agent.NewSession(), "add 3 and 5")
//	for stream.Next() {
//	    if e, ok := stream.Current().(*agent.ContentEvent); ok {
//	        fmt.Print(e.Delta)
//	    }
//	}
//
// Every run emits a canonical ordered sequence of [Event] values regardless
// of which strategy produced the turn, so rendering code never depends on
// the model backend.
package agent
