package client

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/observability"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/retry"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

var readFileTool = protocol.Tool{
	Name:        "read_file",
	Description: "Read a file",
	InputSchema: json.RawMessage(`{
		"type": "object",
		"properties": {"path": {"type": "string"}},
		"required": ["path"]
	}`),
}

// pagedTools serves tools two per page
func pagedTools(tools ...protocol.Tool) func(req *protocol.Message) *protocol.Message {
	return func(req *protocol.Message) *protocol.Message {
		var params protocol.ListToolsParams
		_ = json.Unmarshal(req.Params, &params)
		start := 0
		if params.Cursor != "" {
			start = int(params.Cursor[len("page-"):][0] - '0')
		}
		end := min(start+2, len(tools))
		result := protocol.ListToolsResult{Tools: tools[start:end]}
		if end < len(tools) {
			result.NextCursor = "page-" + string(rune('0'+end))
		}
		return transport.Reply(req, result)
	}
}

func tool(name string) protocol.Tool {
	return protocol.Tool{Name: name}
}

func TestListToolsFollowsCursor(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListTools, pagedTools(tool("a"), tool("b"), tool("c"), tool("d"), tool("e")))
	c, _ := connectedClient(t, server)

	tools, err := c.ListTools(context.Background())
	require.NoError(t, err)
	names := make([]string, len(tools))
	for i, tl := range tools {
		names[i] = tl.Name
	}
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, names)
	assert.Equal(t, 3, server.count(protocol.MethodListTools))

	cached, ok := c.Tool("c")
	assert.True(t, ok)
	assert.Equal(t, "c", cached.Name)
}

func TestListingStopsOnRepeatedCursor(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListPrompts, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.ListPromptsResult{
			Prompts:         []protocol.Prompt{{Name: "greet"}},
			PaginatedResult: protocol.PaginatedResult{NextCursor: "again"},
		})
	})
	c, _ := connectedClient(t, server)

	_, err := c.ListPrompts(context.Background())
	assert.True(t, mcperrors.IsProtocol(err))
	assert.Equal(t, 2, server.count(protocol.MethodListPrompts))
}

func TestListResourcesAndTemplates(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListResources, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.ListResourcesResult{Resources: []protocol.Resource{{URI: "file:///a", Name: "a"}}})
	})
	server.handle(protocol.MethodListResourceTemplates, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.ListResourceTemplatesResult{
			ResourceTemplates: []protocol.ResourceTemplate{{URITemplate: "file:///{path}", Name: "file"}},
		})
	})
	c, _ := connectedClient(t, server)

	resources, err := c.ListResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []protocol.Resource{{URI: "file:///a", Name: "a"}}, resources)

	templates, err := c.ListResourceTemplates(context.Background())
	require.NoError(t, err)
	require.Len(t, templates, 1)
	assert.Equal(t, "file:///{path}", templates[0].URITemplate)
}

func TestEmptyListing(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListPrompts, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, struct{}{})
	})
	c, _ := connectedClient(t, server)

	prompts, err := c.ListPrompts(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, prompts)
	assert.Empty(t, prompts)
}

func TestCallToolRetriesTransientFailures(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		if server.count(protocol.MethodCallTool) < 3 {
			return transport.ReplyError(req, protocol.InternalError, "database busy")
		}
		return transport.Reply(req, protocol.CallToolResult{Content: []protocol.Content{protocol.TextContent("ok")}})
	})
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(observability.MetricsConfig{Registerer: reg, Namespace: "t"})
	require.NoError(t, err)
	c, _ := connectedClient(t, server, WithMetrics(metrics))

	result, err := c.CallTool(context.Background(), "query", map[string]string{"sql": "select 1"})
	require.NoError(t, err)
	assert.Equal(t, "ok", result.Content[0].Text)
	assert.Equal(t, 3, server.count(protocol.MethodCallTool))

	expected := `
# HELP t_retries_total Total number of retried attempts
# TYPE t_retries_total counter
t_retries_total{method="tools/call",server="fake"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "t_retries_total"))
}

func TestCircuitBreakerStopsCalls(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		return transport.ReplyError(req, protocol.InternalError, "database down")
	})
	c, _ := connectedClient(t, server, WithCircuitBreaker(retry.BreakerConfig{FailureThreshold: 3, Cooldown: time.Minute}))

	_, err := c.CallTool(context.Background(), "query", nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsRetryExhausted(err))
	assert.Equal(t, 3, server.count(protocol.MethodCallTool))

	_, err = c.CallTool(context.Background(), "query", nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsCode(err, mcperrors.CodeCircuitOpen))
	assert.Equal(t, 3, server.count(protocol.MethodCallTool), "open breaker must not reach the server")

	assert.True(t, mcperrors.IsCode(c.Ping(context.Background()), mcperrors.CodeCircuitOpen))
}

func TestCallToolValidationErrorNotRetried(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		return transport.ReplyError(req, protocol.InvalidParams, "path is required")
	})
	c, _ := connectedClient(t, server)

	_, err := c.CallTool(context.Background(), "read_file", nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsValidation(err))
	assert.False(t, mcperrors.IsRetryExhausted(err))
	assert.Equal(t, 1, server.count(protocol.MethodCallTool))
}

func TestCallToolRetryExhausted(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		return transport.ReplyError(req, protocol.InternalError, "still broken")
	})
	c, _ := connectedClient(t, server)

	_, err := c.CallTool(context.Background(), "query", nil)
	require.Error(t, err)
	assert.True(t, mcperrors.IsRetryExhausted(err))
	assert.Equal(t, 3, server.count(protocol.MethodCallTool))
}

func TestCallToolErrorResult(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.CallToolResult{IsError: true, Content: []protocol.Content{protocol.TextContent("no such file")}})
	})
	c, _ := connectedClient(t, server)

	result, err := c.CallTool(context.Background(), "read_file", map[string]string{"path": "/missing"})
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, 1, server.count(protocol.MethodCallTool))
}

func TestCallToolSchemaValidation(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListTools, pagedTools(readFileTool))
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.CallToolResult{Content: []protocol.Content{protocol.TextContent("hello")}})
	})
	c, _ := connectedClient(t, server, WithSchemaValidation())
	ctx := context.Background()

	// nothing cached yet, so nothing to check against
	_, err := c.CallTool(ctx, "read_file", map[string]int{"path": 1})
	require.NoError(t, err)

	_, err = c.ListTools(ctx)
	require.NoError(t, err)

	_, err = c.CallTool(ctx, "read_file", map[string]int{"path": 1})
	require.Error(t, err)
	assert.True(t, mcperrors.IsValidation(err))

	_, err = c.CallTool(ctx, "read_file", nil)
	assert.True(t, mcperrors.IsValidation(err))
	assert.Equal(t, 1, server.count(protocol.MethodCallTool), "invalid calls never reach the server")

	_, err = c.CallTool(ctx, "read_file", map[string]string{"path": "/tmp/a"})
	require.NoError(t, err)
	assert.Equal(t, 2, server.count(protocol.MethodCallTool))
}

func TestToolsListChangedDropsCache(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListTools, pagedTools(readFileTool))
	c, mock := connectedClient(t, server)

	changed := make(chan struct{}, 1)
	c.OnNotification(protocol.MethodToolsListChanged, func(ctx context.Context, params json.RawMessage) {
		changed <- struct{}{}
	})

	_, err := c.ListTools(context.Background())
	require.NoError(t, err)
	_, ok := c.Tool("read_file")
	require.True(t, ok)

	note, _ := protocol.NewNotification(protocol.MethodToolsListChanged, nil)
	mock.Inject(note)
	waitSignal(t, changed)
	_, ok = c.Tool("read_file")
	assert.False(t, ok)
}

func TestNotificationHandlersMayIssueRequests(t *testing.T) {
	c, mock := connectedClient(t, newFakeServer())

	pinged := make(chan error, 1)
	c.OnNotification(protocol.MethodLogMessage, func(ctx context.Context, params json.RawMessage) {
		var msg protocol.LogMessageParams
		_ = json.Unmarshal(params, &msg)
		assert.Equal(t, protocol.LogLevelWarning, msg.Level)
		pinged <- c.Ping(ctx)
	})

	note, _ := protocol.NewNotification(protocol.MethodLogMessage, protocol.LogMessageParams{Level: protocol.LogLevelWarning, Data: json.RawMessage(`"disk almost full"`)})
	mock.Inject(note)

	select {
	case err := <-pinged:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("notification handler did not run")
	}
}

func TestNotificationOrderPreserved(t *testing.T) {
	c, mock := connectedClient(t, newFakeServer())

	var mu sync.Mutex
	var levels []protocol.LogLevel
	done := make(chan struct{})
	c.OnNotification(protocol.MethodLogMessage, func(ctx context.Context, params json.RawMessage) {
		var msg protocol.LogMessageParams
		_ = json.Unmarshal(params, &msg)
		mu.Lock()
		levels = append(levels, msg.Level)
		if len(levels) == 3 {
			close(done)
		}
		mu.Unlock()
	})

	for _, level := range []protocol.LogLevel{protocol.LogLevelDebug, protocol.LogLevelInfo, protocol.LogLevelError} {
		note, _ := protocol.NewNotification(protocol.MethodLogMessage, protocol.LogMessageParams{Level: level})
		mock.Inject(note)
	}
	waitSignal(t, done)
	assert.Equal(t, []protocol.LogLevel{protocol.LogLevelDebug, protocol.LogLevelInfo, protocol.LogLevelError}, levels)
}

func TestResourceSubscription(t *testing.T) {
	server := newFakeServer()
	var subscribed []string
	server.handle(protocol.MethodSubscribeResource, func(req *protocol.Message) *protocol.Message {
		var params protocol.SubscribeResourceParams
		_ = json.Unmarshal(req.Params, &params)
		subscribed = append(subscribed, params.URI)
		return transport.Reply(req, struct{}{})
	})
	server.handle(protocol.MethodUnsubscribeResource, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, struct{}{})
	})
	c, mock := connectedClient(t, server)
	ctx := context.Background()

	updates := make(chan string, 4)
	require.NoError(t, c.SubscribeToResource(ctx, "file:///watched", func(uri string) { updates <- uri }))
	assert.Equal(t, []string{"file:///watched"}, subscribed)

	update := func(uri string) {
		note, _ := protocol.NewNotification(protocol.MethodResourceUpdated, protocol.ResourceUpdatedParams{URI: uri})
		mock.Inject(note)
	}
	update("file:///other")
	update("file:///watched")
	select {
	case uri := <-updates:
		assert.Equal(t, "file:///watched", uri)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber not called")
	}

	require.NoError(t, c.UnsubscribeFromResource(ctx, "file:///watched"))
	update("file:///watched")
	require.NoError(t, c.Ping(ctx))
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, updates, "no callbacks after unsubscribe")
}

func TestSubscribeRejectedKeepsNoCallback(t *testing.T) {
	c, mock := connectedClient(t, newFakeServer())

	err := c.SubscribeToResource(context.Background(), "file:///x", func(string) { t.Error("callback must not be registered") })
	assert.True(t, mcperrors.IsNotFound(err))

	note, _ := protocol.NewNotification(protocol.MethodResourceUpdated, protocol.ResourceUpdatedParams{URI: "file:///x"})
	mock.Inject(note)
	require.NoError(t, c.Ping(context.Background()))
}

// waitReply waits for the client to answer the server request with the given id
func waitReply(t *testing.T, mock *transport.MockTransport, id string) *protocol.Message {
	t.Helper()
	var reply *protocol.Message
	require.Eventually(t, func() bool {
		for _, msg := range mock.Sent() {
			if msg.IsResponse() && msg.ID.String() == id {
				reply = msg
				return true
			}
		}
		return false
	}, 2*time.Second, 5*time.Millisecond)
	return reply
}

func waitSignal(t *testing.T, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out")
	}
}

func samplingRequest(t *testing.T, id string) *protocol.Message {
	t.Helper()
	req, err := protocol.NewRequest(protocol.StringID(id), protocol.MethodCreateMessage, protocol.CreateMessageParams{
		Messages:  []protocol.SamplingMessage{{Role: "user", Content: protocol.TextContent("What is 2+2?")}},
		MaxTokens: 16,
	})
	require.NoError(t, err)
	return req
}

func TestSamplingRequest(t *testing.T) {
	c, mock := connectedClient(t, newFakeServer())
	c.OnSamplingRequest(func(ctx context.Context, params *protocol.CreateMessageParams) (*protocol.CreateMessageResult, error) {
		assert.Equal(t, "What is 2+2?", params.Messages[0].Content.Text)
		return &protocol.CreateMessageResult{Role: "assistant", Content: protocol.TextContent("4"), Model: "test-model"}, nil
	})

	mock.Inject(samplingRequest(t, "s-1"))
	reply := waitReply(t, mock, "s-1")
	require.Nil(t, reply.Error)

	var result protocol.CreateMessageResult
	require.NoError(t, json.Unmarshal(reply.Result, &result))
	assert.Equal(t, "4", result.Content.Text)
	assert.Equal(t, "test-model", result.Model)
}

func TestSamplingWithoutHandler(t *testing.T) {
	c, mock := connectedClient(t, newFakeServer())
	_ = c

	mock.Inject(samplingRequest(t, "s-2"))
	reply := waitReply(t, mock, "s-2")
	require.NotNil(t, reply.Error)
	assert.Equal(t, protocol.MethodNotFound, reply.Error.Code)
}

func TestSamplingHandlerError(t *testing.T) {
	c, mock := connectedClient(t, newFakeServer())
	c.OnSamplingRequest(func(ctx context.Context, params *protocol.CreateMessageParams) (*protocol.CreateMessageResult, error) {
		return nil, mcperrors.Unauthorized("user declined")
	})

	mock.Inject(samplingRequest(t, "s-3"))
	reply := waitReply(t, mock, "s-3")
	require.NotNil(t, reply.Error)
	assert.Contains(t, reply.Error.Message, "user declined")
}

func TestSamplingNotification(t *testing.T) {
	c, mock := connectedClient(t, newFakeServer())
	called := make(chan struct{}, 1)
	c.OnSamplingRequest(func(ctx context.Context, params *protocol.CreateMessageParams) (*protocol.CreateMessageResult, error) {
		called <- struct{}{}
		return &protocol.CreateMessageResult{Role: "assistant", Content: protocol.TextContent("ignored")}, nil
	})

	note, _ := protocol.NewNotification(protocol.MethodCreateMessage, protocol.CreateMessageParams{MaxTokens: 1})
	mock.Inject(note)
	waitSignal(t, called)

	require.NoError(t, c.Ping(context.Background()))
	for _, msg := range mock.Sent() {
		assert.False(t, msg.IsResponse(), "a sampling notification gets no reply")
	}
}

func TestServerPingAndUnknownRequests(t *testing.T) {
	_, mock := connectedClient(t, newFakeServer())

	ping, _ := protocol.NewRequest(protocol.IntID(100), protocol.MethodPing, nil)
	mock.Inject(ping)
	reply := waitReply(t, mock, "100")
	assert.Nil(t, reply.Error)
	assert.JSONEq(t, `{}`, string(reply.Result))

	roots, _ := protocol.NewRequest(protocol.IntID(101), "roots/list", nil)
	mock.Inject(roots)
	reply = waitReply(t, mock, "101")
	require.NotNil(t, reply.Error)
	assert.Equal(t, protocol.MethodNotFound, reply.Error.Code)
}

func TestExpandResourceTemplate(t *testing.T) {
	uri, err := ExpandResourceTemplate("file:///{+path}", map[string]string{"path": "home/user/notes.txt"})
	require.NoError(t, err)
	assert.Equal(t, "file:///home/user/notes.txt", uri)

	uri, err = ExpandResourceTemplate("weather://{city}/forecast{?days}", map[string]string{"city": "San Jose", "days": "3"})
	require.NoError(t, err)
	assert.Equal(t, "weather://San%20Jose/forecast?days=3", uri)

	_, err = ExpandResourceTemplate("db://{schema}/{table}", map[string]string{"table": "users"})
	require.Error(t, err)
	assert.True(t, mcperrors.IsValidation(err))

	_, err = ExpandResourceTemplate("file:///{path", nil)
	assert.True(t, mcperrors.IsValidation(err))
}

func TestReadResourceFromTemplate(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodReadResource, func(req *protocol.Message) *protocol.Message {
		var params protocol.ReadResourceParams
		_ = json.Unmarshal(req.Params, &params)
		return transport.Reply(req, protocol.ReadResourceResult{Contents: []protocol.ResourceContents{{URI: params.URI, Text: "row"}}})
	})
	c, _ := connectedClient(t, server)

	result, err := c.ReadResourceFromTemplate(context.Background(), "db://{table}/{id}", map[string]string{"table": "users", "id": "7"})
	require.NoError(t, err)
	assert.Equal(t, "db://users/7", result.Contents[0].URI)
}

func TestRequestMetrics(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListTools, pagedTools(tool("a")))
	reg := prometheus.NewRegistry()
	metrics, err := observability.NewMetrics(observability.MetricsConfig{Registerer: reg, Namespace: "t"})
	require.NoError(t, err)

	c, _ := connectedClient(t, server, WithMetrics(metrics))
	_, err = c.ListTools(context.Background())
	require.NoError(t, err)
	_, err = c.GetPrompt(context.Background(), "missing", nil)
	require.Error(t, err)

	expected := `
# HELP t_requests_total Total number of requests sent to MCP servers
# TYPE t_requests_total counter
t_requests_total{method="initialize",server="fake",status="success"} 1
t_requests_total{method="prompts/get",server="fake",status="error"} 1
t_requests_total{method="tools/list",server="fake",status="success"} 1
# HELP t_connections Clients by connection state
# TYPE t_connections gauge
t_connections{state="connecting"} 0
t_connections{state="disconnected"} 0
t_connections{state="initializing"} 0
t_connections{state="ready"} 1
# HELP t_inflight_requests Requests awaiting a response
# TYPE t_inflight_requests gauge
t_inflight_requests{server="fake"} 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"t_requests_total", "t_connections", "t_inflight_requests"))
}

func TestRequestSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	c, _ := connectedClient(t, newFakeServer(), WithTracer(observability.NewTracingProviderFrom(tp)))
	require.NoError(t, c.Ping(context.Background()))

	spans := recorder.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "mcp.initialize", spans[0].Name())
	assert.Equal(t, "mcp.ping", spans[1].Name())

	attrs := map[string]string{}
	for _, kv := range spans[1].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "fake", attrs[string(observability.AttrServer)])
	assert.Equal(t, "2", attrs[string(observability.AttrRequestID)])
}

func TestCallToolRoundTrip(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		var params struct {
			Arguments json.RawMessage `json:"arguments"`
		}
		_ = json.Unmarshal(req.Params, &params)
		return transport.Reply(req, protocol.CallToolResult{
			Content:           []protocol.Content{protocol.TextContent(string(params.Arguments))},
			StructuredContent: params.Arguments,
		})
	})
	c, _ := connectedClient(t, server)

	args := map[string]interface{}{"n": 1, "tags": []string{"a", "b"}, "nested": map[string]interface{}{"ok": true}}
	result, err := c.CallTool(context.Background(), "echo", args)
	require.NoError(t, err)

	want, err := json.Marshal(args)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(result.StructuredContent))
	assert.JSONEq(t, string(want), result.Content[0].Text)
}

func TestListToolsIdempotent(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodListTools, pagedTools(readFileTool, tool("b"), tool("c")))
	c, _ := connectedClient(t, server)

	first, err := c.ListTools(context.Background())
	require.NoError(t, err)
	second, err := c.ListTools(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestToolSessionLifecycle(t *testing.T) {
	server := newFakeServer()
	server.handle(protocol.MethodInitialize, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.InitializeResult{Capabilities: protocol.ServerCapabilities{Tools: true}})
	})
	server.handle(protocol.MethodListTools, pagedTools(tool("toolA"), tool("toolB")))
	server.handle(protocol.MethodCallTool, func(req *protocol.Message) *protocol.Message {
		return transport.Reply(req, protocol.CallToolResult{Content: []protocol.Content{protocol.TextContent("ok")}})
	})
	c, _ := connectedClient(t, server)
	ctx := context.Background()
	assert.True(t, c.ServerCapabilities().Tools)

	tools, err := c.ListTools(ctx)
	require.NoError(t, err)
	assert.Len(t, tools, 2)

	result, err := c.CallTool(ctx, "toolA", map[string]interface{}{"n": 1})
	require.NoError(t, err)
	assert.Equal(t, []protocol.Content{{Type: "text", Text: "ok"}}, result.Content)

	require.NoError(t, c.Disconnect())
	_, err = c.CallTool(ctx, "toolA", map[string]interface{}{"n": 1})
	require.Error(t, err)
	assert.True(t, mcperrors.IsConnection(err))
}
