// Package client implements the client side of the Model Context Protocol
// for a single server connection.
//
// A Client owns one transport. Connect establishes it, retrying transient
// failures, and performs the initialize handshake; every other operation is
// rejected with a connection error until the client is Ready:
//
//	t, err := transport.New(config)
//	if err != nil {
//	    return err
//	}
//	c := client.New(t, client.WithServerID("filesystem"), client.WithLogger(logger))
//	if err := c.Connect(ctx); err != nil {
//	    return err
//	}
//	defer c.Disconnect()
//
//	tools, err := c.ListTools(ctx)
//	result, err := c.CallTool(ctx, "read_file", map[string]interface{}{"path": "/tmp/notes.txt"})
//
// # Lifecycle
//
// A client moves Disconnected → Connecting → Initializing → Ready and can reach
// Closed from any state. Closing, whether through Disconnect or because the
// transport went away, rejects every outstanding request with a connection
// error. A closed client is not reused.
//
// # Requests
//
// Each request gets the next id from a monotonic counter and is raced against
// the request timeout. A timed-out request is forgotten; a late response to it
// is dropped. Server errors are classified into the errors package taxonomy.
// CallTool is retried per the retry policy, other operations are attempted once.
// Listing operations follow nextCursor until the server stops returning one.
//
// # Server-initiated messages
//
// sampling/createMessage requests go to the handler installed with
// OnSamplingRequest and ping requests are answered automatically.
// Notifications go to handlers registered with OnNotification, and resource
// updates to the callbacks passed to SubscribeToResource. Callbacks run one at
// a time in arrival order on a goroutine separate from the transport, so they
// may issue requests of their own.
package client
