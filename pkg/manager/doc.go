// Package manager supervises connections to many MCP servers and presents
// them as one namespace.
//
// Servers are loaded from a configuration map or file, each entry getting its
// own client and transport. Aggregate listings query every connected server
// concurrently and tag each item with the id of the server it came from; a
// server that fails to answer is logged and left out rather than failing the
// whole listing. Tools can be addressed by qualified name, "server:tool".
//
//	m := manager.New(manager.WithLogger(logger))
//	if err := m.LoadFromFile(ctx, "servers.json"); err != nil {
//	    return err
//	}
//	defer m.DisconnectAll(context.Background())
//
//	tools, err := m.ListAllTools(ctx)
//	result, err := m.CallQualifiedTool(ctx, "filesystem:read_file", map[string]interface{}{"path": "/tmp/notes.txt"})
package manager
