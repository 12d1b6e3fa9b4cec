// Package protocol defines the wire types of the MCP protocol as seen by a client.
//
// Every value exchanged with a server is a JSON-RPC 2.0 [Message]. A message is
// classified by the fields it carries:
//
//   - request: id and method
//   - notification: method without id
//   - response: id and exactly one of result or error
//
// # Message Flow
//
//  1. Client connects and sends an initialize request
//  2. Server responds with its capabilities and server info
//  3. Client sends the initialized notification
//  4. Client and server exchange requests, responses and notifications
//  5. Client disconnects when done
//
// Initialize request:
//
//	{
//	    "jsonrpc": "2.0",
//	    "id": 1,
//	    "method": "initialize",
//	    "params": {
//	        "protocolVersion": "2025-03-26",
//	        "capabilities": {"sampling": {}},
//	        "clientInfo": {"name": "ExampleClient", "version": "1.0.0"}
//	    }
//	}
//
// Initialize response:
//
//	{
//	    "jsonrpc": "2.0",
//	    "id": 1,
//	    "result": {
//	        "capabilities": {"tools": {}, "resources": {}},
//	        "serverInfo": {"name": "ExampleServer", "version": "1.0.0"}
//	    }
//	}
package protocol
