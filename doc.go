// Package mcp is a client for the Model Context Protocol.
//
// MCP servers expose tools, resources and prompts over JSON-RPC 2.0. This
// module connects to them over any of four transports and offers two levels of
// API:
//
//   - pkg/client speaks the protocol to one server: handshake, request
//     correlation, timeouts, retries, notifications and sampling callbacks.
//   - pkg/manager supervises many clients loaded from a configuration file and
//     presents their tools, resources and prompts as one namespace.
//
// The remaining packages are the building blocks:
//
//   - pkg/protocol: wire types and method names
//   - pkg/transport: stdio, SSE, HTTP and streamable HTTP transports
//   - pkg/errors: the error taxonomy and wire-code classification
//   - pkg/retry: backoff, deadline and circuit breaker helpers
//   - pkg/config: server files and MCP_* environment settings
//   - pkg/logging: structured logging
//   - pkg/observability: Prometheus metrics and OpenTelemetry tracing
//   - pkg/pagination: cursor following for list operations
//
// # Talking to one server
//
//	t := mcp.NewStdioTransport(transport.StdioConfig{
//	    Command: "npx",
//	    Args:    []string{"-y", "@modelcontextprotocol/server-filesystem", "/tmp"},
//	})
//	c := mcp.NewClient(t, mcp.WithClientName("notes"))
//	if err := c.Connect(ctx); err != nil {
//	    return err
//	}
//	defer c.Disconnect()
//
//	tools, err := c.ListTools(ctx)
//
// # Talking to many
//
//	settings, err := mcp.SettingsFromEnv()
//	if err != nil {
//	    return err
//	}
//	m := mcp.NewManager(mcp.WithSettings(settings), mcp.WithContinueOnError())
//	if err := m.LoadFromFile(ctx, "servers.json"); err != nil {
//	    log.Printf("some servers failed: %v", err)
//	}
//	defer m.DisconnectAll(context.Background())
//
//	result, err := m.CallQualifiedTool(ctx, "filesystem:read_file", map[string]interface{}{"path": "/tmp/a.txt"})
//
// # Errors
//
// Every failure is an errors.MCPError with a category. Use the predicates in
// pkg/errors to decide what to do:
//
//	switch {
//	case errors.IsValidation(err):
//	    // fix the arguments
//	case errors.IsConnection(err):
//	    // reconnect
//	case errors.IsTimeout(err):
//	    // the server may still be working on it
//	}
package mcp
