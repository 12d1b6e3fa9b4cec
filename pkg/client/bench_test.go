package client

import (
	"context"
	"sync"
	"testing"

	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

func benchClient(b *testing.B, opts ...Option) *Client {
	b.Helper()
	server := newFakeServer()
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.CallToolResult{Content: []protocol.Content{protocol.TextContent("ok")}})
	})
	server.handle(protocol.MethodListTools, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.ListToolsResult{Tools: []protocol.Tool{readFileTool, tool("b"), tool("c")}})
	})

	c := New(transport.NewMockTransport(server.respond), opts...)
	b.Cleanup(func() { _ = c.Disconnect() })
	if err := c.Connect(context.Background()); err != nil {
		b.Fatal(err)
	}
	return c
}

// BenchmarkClientOperations measures request overhead against an in-memory server
func BenchmarkClientOperations(b *testing.B) {
	b.Run("CallTool", func(b *testing.B) {
		benchmarkCallTool(b)
	})

	b.Run("CallToolValidated", func(b *testing.B) {
		benchmarkCallTool(b, WithSchemaValidation())
	})

	b.Run("ListTools", func(b *testing.B) {
		ctx := context.Background()
		c := benchClient(b)
		b.ResetTimer()
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			if _, err := c.ListTools(ctx); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ConcurrentToolCalls/10", func(b *testing.B) {
		benchmarkConcurrentToolCalls(b, 10)
	})

	b.Run("ConcurrentToolCalls/100", func(b *testing.B) {
		benchmarkConcurrentToolCalls(b, 100)
	})
}

func benchmarkCallTool(b *testing.B, opts ...Option) {
	ctx := context.Background()
	c := benchClient(b, opts...)
	if _, err := c.ListTools(ctx); err != nil {
		b.Fatal(err)
	}
	args := map[string]interface{}{"path": "/tmp/notes.txt"}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := c.CallTool(ctx, "read_file", args); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkConcurrentToolCalls(b *testing.B, concurrency int) {
	ctx := context.Background()
	c := benchClient(b)
	args := map[string]interface{}{"path": "/tmp/notes.txt"}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		var wg sync.WaitGroup
		errs := make(chan error, concurrency)
		for j := 0; j < concurrency; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := c.CallTool(ctx, "read_file", args); err != nil {
					errs <- err
				}
			}()
		}
		wg.Wait()
		close(errs)
		for err := range errs {
			b.Fatal(err)
		}
	}
}
