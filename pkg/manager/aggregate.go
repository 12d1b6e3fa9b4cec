package manager

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/mcp-client-go/pkg/client"
	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// ServerTool is a tool tagged with the server that offers it
type ServerTool struct {
	ServerID string `json:"serverId"`
	protocol.Tool
}

// QualifiedName returns "server:tool", the name CallQualifiedTool accepts
func (t ServerTool) QualifiedName() string {
	return QualifiedName(t.ServerID, t.Name)
}

// ServerResource is a resource tagged with the server that offers it
type ServerResource struct {
	ServerID string `json:"serverId"`
	protocol.Resource
}

// ServerResourceTemplate is a resource template tagged with the server that offers it
type ServerResourceTemplate struct {
	ServerID string `json:"serverId"`
	protocol.ResourceTemplate
}

// ServerPrompt is a prompt tagged with the server that offers it
type ServerPrompt struct {
	ServerID string `json:"serverId"`
	protocol.Prompt
}

// ListAllTools lists the tools of every connected server
func (m *Manager) ListAllTools(ctx context.Context) ([]ServerTool, error) {
	return fanOut(ctx, m, "tools/list",
		func(ctx context.Context, c *client.Client) ([]protocol.Tool, error) { return c.ListTools(ctx) },
		func(id string, t protocol.Tool) ServerTool { return ServerTool{ServerID: id, Tool: t} },
	)
}

// ListAllResources lists the resources of every connected server
func (m *Manager) ListAllResources(ctx context.Context) ([]ServerResource, error) {
	return fanOut(ctx, m, "resources/list",
		func(ctx context.Context, c *client.Client) ([]protocol.Resource, error) { return c.ListResources(ctx) },
		func(id string, r protocol.Resource) ServerResource { return ServerResource{ServerID: id, Resource: r} },
	)
}

// ListAllResourceTemplates lists the resource templates of every connected server
func (m *Manager) ListAllResourceTemplates(ctx context.Context) ([]ServerResourceTemplate, error) {
	return fanOut(ctx, m, "resources/templates/list",
		func(ctx context.Context, c *client.Client) ([]protocol.ResourceTemplate, error) {
			return c.ListResourceTemplates(ctx)
		},
		func(id string, t protocol.ResourceTemplate) ServerResourceTemplate {
			return ServerResourceTemplate{ServerID: id, ResourceTemplate: t}
		},
	)
}

// ListAllPrompts lists the prompts of every connected server
func (m *Manager) ListAllPrompts(ctx context.Context) ([]ServerPrompt, error) {
	return fanOut(ctx, m, "prompts/list",
		func(ctx context.Context, c *client.Client) ([]protocol.Prompt, error) { return c.ListPrompts(ctx) },
		func(id string, p protocol.Prompt) ServerPrompt { return ServerPrompt{ServerID: id, Prompt: p} },
	)
}

type target struct {
	id     string
	client *client.Client
}

// connectedTargets snapshots the connected servers in id order
func (m *Manager) connectedTargets() []target {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var targets []target
	for _, id := range sortedKeys(m.servers) {
		if entry := m.servers[id]; entry.connected {
			targets = append(targets, target{id: id, client: entry.client})
		}
	}
	return targets
}

// fanOut runs list against every connected server, at most MaxConcurrency at a
// time. A failing server is logged and contributes nothing; only cancellation
// of ctx fails the whole call. Results keep server id order.
func fanOut[T, R any](
	ctx context.Context,
	m *Manager,
	method string,
	list func(context.Context, *client.Client) ([]T, error),
	tag func(string, T) R,
) ([]R, error) {
	targets := m.connectedTargets()
	perServer := make([][]T, len(targets))

	var g errgroup.Group
	if limit := m.opts.settings.MaxConcurrency; limit > 0 {
		g.SetLimit(limit)
	}
	for i, tgt := range targets {
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			items, err := list(ctx, tgt.client)
			if err != nil {
				m.logger.Warn("Server listing failed, skipping",
					logging.Server(tgt.id),
					logging.String("method", method),
					logging.ErrorField(err),
				)
				return nil
			}
			perServer[i] = items
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, mcperrors.OperationCancelled(method, err)
	}

	results := make([]R, 0)
	for i, items := range perServer {
		for _, item := range items {
			results = append(results, tag(targets[i].id, item))
		}
	}
	return results, nil
}
