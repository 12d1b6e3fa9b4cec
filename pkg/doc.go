// Package pkg holds the components of the MCP client. Nothing is exported
// from here; import the sub-packages directly.
//
// Dependencies point one way: protocol and errors at the bottom, then retry,
// logging and observability, then transport, client and manager on top.
// config sits beside manager and only knows about transports.
//
// # Client Usage
//
//	t, err := transport.New(transport.Config{Type: transport.TypeStdio, Command: "my-server"})
//	if err != nil {
//	    return err
//	}
//	c := client.New(t, client.WithLogger(logger))
//	if err := c.Connect(ctx); err != nil {
//	    return err
//	}
//	defer c.Disconnect()
//
// # Manager Usage
//
//	m := manager.New(manager.WithLogger(logger), manager.WithMetrics(metrics))
//	if err := m.LoadFromFile(ctx, "servers.json"); err != nil {
//	    return err
//	}
//	go m.WatchConfigFile(ctx, "servers.json")
package pkg
