package transport

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// TestHelperProcess is not a real test. It is re-executed by the subprocess
// tests as a minimal server that echoes each request's method back.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("MCP_TEST_HELPER") != "1" {
		return
	}
	fmt.Fprintln(os.Stderr, "WARN helper starting")

	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		var msg protocol.Message
		if err := json.Unmarshal(scanner.Bytes(), &msg); err != nil || msg.ID == nil {
			continue
		}
		resp, _ := protocol.NewResponse(msg.ID, map[string]string{
			"method": msg.Method,
			"value":  os.Getenv("MCP_TEST_VALUE"),
		})
		data, _ := json.Marshal(resp)
		fmt.Println(string(data))
	}
	os.Exit(0)
}

func helperTransport() *StdioTransport {
	return NewStdioTransport(StdioConfig{
		Command:     os.Args[0],
		Args:        []string{"-test.run=TestHelperProcess"},
		Env:         map[string]string{"MCP_TEST_HELPER": "1", "MCP_TEST_VALUE": "42"},
		GracePeriod: 5 * time.Second,
	})
}

func waitMessage(t *testing.T, ch <-chan *protocol.Message) *protocol.Message {
	t.Helper()
	select {
	case msg := <-ch:
		return msg
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestStdioSubprocess(t *testing.T) {
	tr := helperTransport()
	received := make(chan *protocol.Message, 4)
	tr.OnMessage(func(msg *protocol.Message) { received <- msg })
	closed := make(chan error, 2)
	tr.OnClose(func(err error) { closed <- err })

	require.NoError(t, tr.Connect(context.Background()))
	assert.True(t, tr.Connected())

	req, err := protocol.NewRequest(protocol.IntID(1), "tools/list", nil)
	require.NoError(t, err)
	require.NoError(t, tr.Send(context.Background(), req))

	msg := waitMessage(t, received)
	require.True(t, msg.IsResponse())
	assert.Equal(t, "1", msg.ID.String())
	assert.JSONEq(t, `{"method":"tools/list","value":"42"}`, string(msg.Result))

	require.NoError(t, tr.Close())
	assert.False(t, tr.Connected())
	require.NoError(t, tr.Close())

	assert.Nil(t, <-closed)
	assert.Empty(t, closed, "close handlers run once")
}

func TestStdioCommandNotFound(t *testing.T) {
	tr := NewStdioTransport(StdioConfig{Command: "/nonexistent/mcp-server"})
	err := tr.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, mcperrors.IsConnection(err))
	assert.False(t, tr.Connected())
}

func TestStdioSendBeforeConnect(t *testing.T) {
	tr := NewStdioTransport(StdioConfig{Command: "cat"})
	req, _ := protocol.NewNotification("notifications/initialized", nil)
	err := tr.Send(context.Background(), req)
	require.Error(t, err)
	assert.True(t, mcperrors.IsConnection(err))
}

// pipeServer wires a StdioTransport to in-process pipes and returns the server ends
func pipeServer(t *testing.T) (*StdioTransport, *bufio.Scanner, *io.PipeWriter) {
	t.Helper()
	clientR, serverW := io.Pipe()
	serverR, clientW := io.Pipe()
	t.Cleanup(func() {
		serverW.Close()
		serverR.Close()
	})
	return NewStdioTransportWithStreams(clientR, clientW), bufio.NewScanner(serverR), serverW
}

func TestStdioStreams(t *testing.T) {
	tr, server, serverW := pipeServer(t)
	received := make(chan *protocol.Message, 4)
	tr.OnMessage(func(msg *protocol.Message) { received <- msg })
	faults := make(chan error, 4)
	tr.OnError(func(err error) { faults <- err })
	require.NoError(t, tr.Connect(context.Background()))

	note, err := protocol.NewNotification("notifications/initialized", nil)
	require.NoError(t, err)

	sent := make(chan string, 1)
	go func() {
		if server.Scan() {
			sent <- server.Text()
		}
	}()
	require.NoError(t, tr.Send(context.Background(), note))
	assert.JSONEq(t, `{"jsonrpc":"2.0","method":"notifications/initialized"}`, <-sent)

	// a malformed line is reported and skipped; blank lines are ignored
	_, err = io.WriteString(serverW, "{not json\n\n"+`{"jsonrpc":"2.0","method":"notifications/tools/list_changed"}`+"\n")
	require.NoError(t, err)

	msg := waitMessage(t, received)
	assert.Equal(t, "notifications/tools/list_changed", msg.Method)
	fault := <-faults
	assert.True(t, mcperrors.IsConnection(fault))
}

func TestStdioBatch(t *testing.T) {
	tr, _, serverW := pipeServer(t)
	received := make(chan *protocol.Message, 4)
	tr.OnMessage(func(msg *protocol.Message) { received <- msg })
	require.NoError(t, tr.Connect(context.Background()))

	_, err := io.WriteString(serverW, `[{"jsonrpc":"2.0","id":1,"result":{}},{"jsonrpc":"2.0","id":2,"result":{}}]`+"\n")
	require.NoError(t, err)

	assert.Equal(t, "1", waitMessage(t, received).ID.String())
	assert.Equal(t, "2", waitMessage(t, received).ID.String())
}

func TestStdioRemoteClose(t *testing.T) {
	tr, _, serverW := pipeServer(t)
	closed := make(chan error, 1)
	tr.OnClose(func(err error) { closed <- err })
	require.NoError(t, tr.Connect(context.Background()))

	require.NoError(t, serverW.Close())

	select {
	case err := <-closed:
		require.Error(t, err)
		assert.True(t, mcperrors.IsConnection(err))
	case <-time.After(5 * time.Second):
		t.Fatal("close handler not called")
	}
	assert.False(t, tr.Connected())

	req, _ := protocol.NewRequest(protocol.IntID(3), "ping", nil)
	err := tr.Send(context.Background(), req)
	assert.True(t, mcperrors.IsConnection(err))
}

func TestMergeEnv(t *testing.T) {
	env := mergeEnv([]string{"PATH=/bin", "HOME=/root"}, map[string]string{"B": "2", "A": "1", "HOME": "/tmp"})
	assert.Equal(t, []string{"PATH=/bin", "HOME=/root", "A=1", "B=2", "HOME=/tmp"}, env)
	assert.True(t, strings.HasPrefix(env[len(env)-1], "HOME="), "overrides come last so they win")
}
