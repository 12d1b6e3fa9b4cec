// Package transport moves JSON-RPC messages between an MCP client and a server.
//
// Four transports are provided:
//
//   - StdioTransport launches the server as a subprocess and exchanges
//     newline-delimited JSON over its stdin and stdout. The subprocess's
//     stderr is forwarded to the logger.
//   - SSETransport consumes the legacy HTTP+SSE binding: a long-lived GET
//     event stream carries server messages and an "endpoint" event names the
//     URL client messages are POSTed to.
//   - HTTPTransport POSTs every message and decodes the reply from the
//     response, either a JSON body or an event stream.
//   - HTTPTransport with Streamable set also tracks the Mcp-Session-Id
//     header and listens for server-initiated messages on a GET stream.
//
// Transports are usually created from configuration:
//
//	config := transport.DefaultConfig(transport.TypeStdio)
//	config.Command = "npx"
//	config.Args = []string{"-y", "@modelcontextprotocol/server-filesystem", "/tmp"}
//	t, err := transport.New(config)
//
// Every transport reports inbound messages, faults and termination to the
// handlers registered with OnMessage, OnError and OnClose. Close handlers run
// exactly once, with a nil error when the client closed the transport itself.
//
// Middleware wraps a transport; WithObservability counts messages into
// Prometheus metrics. MockTransport is an in-memory implementation for tests.
package transport
