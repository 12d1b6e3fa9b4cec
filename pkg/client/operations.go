package client

import (
	"context"
	"time"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/pagination"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/retry"
)

// listAll follows nextCursor for one list method
func listAll[T any](ctx context.Context, c *Client, method string, items func(raw *listResult) []T) ([]T, error) {
	return pagination.Collect(ctx, func(ctx context.Context, cursor string) (pagination.Page[T], error) {
		var result listResult
		if err := c.call(ctx, method, protocol.PaginatedParams{Cursor: cursor}, &result); err != nil {
			return pagination.Page[T]{}, err
		}
		return pagination.Page[T]{Items: items(&result), NextCursor: result.NextCursor}, nil
	}, c.settings.maxPages)
}

// listResult decodes any of the list responses
type listResult struct {
	Tools             []protocol.Tool             `json:"tools"`
	Resources         []protocol.Resource         `json:"resources"`
	ResourceTemplates []protocol.ResourceTemplate `json:"resourceTemplates"`
	Prompts           []protocol.Prompt           `json:"prompts"`
	protocol.PaginatedResult
}

// ListTools returns every tool the server offers and refreshes the tool cache
func (c *Client) ListTools(ctx context.Context) ([]protocol.Tool, error) {
	tools, err := listAll(ctx, c, protocol.MethodListTools, func(r *listResult) []protocol.Tool { return r.Tools })
	if err != nil {
		return nil, err
	}
	c.tools.store(tools)
	return tools, nil
}

// CallTool invokes a tool, retrying transient failures per the retry policy.
// A result with IsError set is a tool-level failure and is returned without error.
func (c *Client) CallTool(ctx context.Context, name string, args interface{}) (*protocol.CallToolResult, error) {
	if name == "" {
		return nil, mcperrors.InvalidParameter("name", name, "non-empty tool name")
	}
	if c.settings.validateSchemas {
		if err := c.tools.validate(name, args, c.logger); err != nil {
			return nil, err
		}
	}

	params := protocol.CallToolParams{Name: name, Arguments: args}
	return retry.Do(ctx, c.settings.retryPolicy, func(ctx context.Context, attempt int) (*protocol.CallToolResult, error) {
		var result protocol.CallToolResult
		if err := c.call(ctx, protocol.MethodCallTool, params, &result); err != nil {
			return nil, err
		}
		return &result, nil
	}, retry.WithRetryable(retryableCall), retry.OnRetry(func(attempt int, delay time.Duration, err error) {
		c.settings.metrics.RecordRetry(c.settings.serverID, protocol.MethodCallTool)
		c.logger.Warn("Tool call failed, retrying",
			logging.String("tool", name),
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.ErrorField(err),
		)
	}))
}

// retryableCall excludes failures that no amount of waiting on this client can fix
func retryableCall(err error) bool {
	if mcperrors.IsCode(err, mcperrors.CodeNotConnected) || mcperrors.IsCode(err, mcperrors.CodeConnectionClosed) ||
		mcperrors.IsCode(err, mcperrors.CodeCircuitOpen) {
		return false
	}
	return mcperrors.IsRetryable(err)
}

// ListResources returns every resource the server offers
func (c *Client) ListResources(ctx context.Context) ([]protocol.Resource, error) {
	return listAll(ctx, c, protocol.MethodListResources, func(r *listResult) []protocol.Resource { return r.Resources })
}

// ListResourceTemplates returns every resource template the server offers
func (c *Client) ListResourceTemplates(ctx context.Context) ([]protocol.ResourceTemplate, error) {
	return listAll(ctx, c, protocol.MethodListResourceTemplates, func(r *listResult) []protocol.ResourceTemplate { return r.ResourceTemplates })
}

// ReadResource fetches the contents of one resource
func (c *Client) ReadResource(ctx context.Context, uri string) (*protocol.ReadResourceResult, error) {
	if uri == "" {
		return nil, mcperrors.InvalidParameter("uri", uri, "non-empty URI")
	}
	var result protocol.ReadResourceResult
	if err := c.call(ctx, protocol.MethodReadResource, protocol.ReadResourceParams{URI: uri}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SubscribeToResource asks the server for change notifications on uri and
// registers callback for them. Callbacks run in notification order, off the transport reader.
func (c *Client) SubscribeToResource(ctx context.Context, uri string, callback ResourceUpdateHandler) error {
	if uri == "" {
		return mcperrors.InvalidParameter("uri", uri, "non-empty URI")
	}
	if err := c.call(ctx, protocol.MethodSubscribeResource, protocol.SubscribeResourceParams{URI: uri}, nil); err != nil {
		return err
	}
	if callback != nil {
		c.handlers.subscribe(uri, callback)
	}
	return nil
}

// UnsubscribeFromResource cancels the subscription and drops every callback
// for uri. The callbacks are dropped even if the server rejects the request.
func (c *Client) UnsubscribeFromResource(ctx context.Context, uri string) error {
	c.handlers.unsubscribe(uri)
	return c.call(ctx, protocol.MethodUnsubscribeResource, protocol.SubscribeResourceParams{URI: uri}, nil)
}

// ListPrompts returns every prompt the server offers
func (c *Client) ListPrompts(ctx context.Context) ([]protocol.Prompt, error) {
	return listAll(ctx, c, protocol.MethodListPrompts, func(r *listResult) []protocol.Prompt { return r.Prompts })
}

// GetPrompt renders a prompt with the given arguments
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*protocol.GetPromptResult, error) {
	if name == "" {
		return nil, mcperrors.InvalidParameter("name", name, "non-empty prompt name")
	}
	var result protocol.GetPromptResult
	if err := c.call(ctx, protocol.MethodGetPrompt, protocol.GetPromptParams{Name: name, Arguments: args}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Ping checks that the server is responsive
func (c *Client) Ping(ctx context.Context) error {
	return c.call(ctx, protocol.MethodPing, nil, nil)
}

// SetLogLevel asks the server to send log notifications at level and above
func (c *Client) SetLogLevel(ctx context.Context, level protocol.LogLevel) error {
	return c.call(ctx, protocol.MethodSetLogLevel, protocol.SetLogLevelParams{Level: level}, nil)
}
