package mcp_test

import (
	"context"
	"fmt"

	mcp "github.com/ajitpratap0/mcp-client-go"
	"github.com/ajitpratap0/mcp-client-go/pkg/config"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

// echoServer answers the handshake, lists one tool and echoes tool calls
func echoServer(name string) transport.Responder {
	return func(msg *protocol.Message) []*protocol.Message {
		switch msg.Method {
		case protocol.MethodInitialize:
			return []*protocol.Message{transport.Reply(msg, protocol.InitializeResult{
				ProtocolVersion: protocol.ProtocolRevision,
				Capabilities:    protocol.ServerCapabilities{Tools: true},
				ServerInfo:      &protocol.Implementation{Name: name, Version: "1.0.0"},
			})}
		case protocol.MethodListTools:
			return []*protocol.Message{transport.Reply(msg, protocol.ListToolsResult{
				Tools: []protocol.Tool{{Name: "echo", Description: "Echo the input"}},
			})}
		case protocol.MethodCallTool:
			return []*protocol.Message{transport.Reply(msg, protocol.CallToolResult{
				Content: []protocol.Content{protocol.TextContent("hello from " + name)},
			})}
		}
		return nil
	}
}

func ExampleNewClient() {
	ctx := context.Background()

	c := mcp.NewClient(transport.NewMockTransport(echoServer("notes")), mcp.WithClientName("example"))
	if err := c.Connect(ctx); err != nil {
		fmt.Println("connect:", err)
		return
	}
	defer c.Disconnect()

	tools, _ := c.ListTools(ctx)
	fmt.Println(c.ServerInfo().Name, len(tools), tools[0].Name)

	result, _ := c.CallTool(ctx, "echo", map[string]interface{}{"text": "hi"})
	fmt.Println(result.Content[0].Text)
	// Output:
	// notes 1 echo
	// hello from notes
}

func ExampleNewManager() {
	ctx := context.Background()

	m := mcp.NewManager(mcp.WithTransportFactory(func(id string, _ config.ServerConfig) (transport.Transport, error) {
		return transport.NewMockTransport(echoServer(id)), nil
	}))
	defer m.DisconnectAll(ctx)

	err := m.LoadFromObject(ctx, map[string]config.ServerConfig{
		"alpha": {Command: "alpha-server"},
		"beta":  {Command: "beta-server"},
		"gamma": {Command: "gamma-server", Disabled: true},
	})
	if err != nil {
		fmt.Println("load:", err)
		return
	}

	tools, _ := m.ListAllTools(ctx)
	for _, tool := range tools {
		fmt.Println(tool.QualifiedName())
	}

	result, _ := m.CallQualifiedTool(ctx, "beta:echo", nil)
	fmt.Println(result.Content[0].Text)
	// Output:
	// alpha:echo
	// beta:echo
	// hello from beta
}
