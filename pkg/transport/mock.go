package transport

import (
	"context"
	"sync"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// Responder produces the server's replies to one sent message
type Responder func(msg *protocol.Message) []*protocol.Message

// MockTransport is an in-memory transport for tests. Replies produced by the
// responder are delivered before Send returns, as the HTTP transport does.
type MockTransport struct {
	*events

	mu           sync.Mutex
	responder    Responder
	sent         []*protocol.Message
	connectErrs  []error
	sendErr      error
	connectCalls int
	connected    bool
	closed       bool
}

// NewMockTransport creates a mock that answers with responder (may be nil)
func NewMockTransport(responder Responder) *MockTransport {
	return &MockTransport{events: newEvents(), responder: responder}
}

// FailConnect makes the next len(errs) Connect calls fail with errs, in order
func (m *MockTransport) FailConnect(errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectErrs = append(m.connectErrs, errs...)
}

// FailSend makes every Send fail with err until called again with nil
func (m *MockTransport) FailSend(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sendErr = err
}

// SetResponder replaces the responder
func (m *MockTransport) SetResponder(responder Responder) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = responder
}

func (m *MockTransport) Connect(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectCalls++
	if m.closed {
		return mcperrors.ConnectionClosed("mock")
	}
	if err := ctx.Err(); err != nil {
		return mcperrors.ConnectionFailed("mock", "", err)
	}
	if len(m.connectErrs) > 0 {
		err := m.connectErrs[0]
		m.connectErrs = m.connectErrs[1:]
		return err
	}
	m.connected = true
	return nil
}

func (m *MockTransport) Send(ctx context.Context, msg *protocol.Message) error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return mcperrors.NotConnected("send", "disconnected")
	}
	if m.sendErr != nil {
		err := m.sendErr
		m.mu.Unlock()
		return err
	}
	m.sent = append(m.sent, msg)
	responder := m.responder
	m.mu.Unlock()

	if responder == nil {
		return nil
	}
	for _, reply := range responder(msg) {
		m.emitMessage(reply)
	}
	return nil
}

// Inject delivers a server-initiated message
func (m *MockTransport) Inject(msg *protocol.Message) {
	m.emitMessage(msg)
}

// InjectError reports a channel fault
func (m *MockTransport) InjectError(err error) {
	m.emitError(err)
}

// SimulateClose terminates the channel as if the server went away
func (m *MockTransport) SimulateClose(err error) {
	m.mu.Lock()
	m.connected = false
	m.closed = true
	m.mu.Unlock()
	m.emitClose(err)
}

func (m *MockTransport) Close() error {
	m.mu.Lock()
	m.connected = false
	m.closed = true
	m.mu.Unlock()
	m.emitClose(nil)
	return nil
}

func (m *MockTransport) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// Sent returns copies of the messages sent so far
func (m *MockTransport) Sent() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

// SentMethods returns the method of every sent message, empty for responses
func (m *MockTransport) SentMethods() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	methods := make([]string, len(m.sent))
	for i, msg := range m.sent {
		methods[i] = msg.Method
	}
	return methods
}

// ConnectCalls returns how many times Connect was called
func (m *MockTransport) ConnectCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectCalls
}

// IsClosed reports whether Close or SimulateClose ran
func (m *MockTransport) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Reply builds a success response to req, panicking if result cannot be encoded
func Reply(req *protocol.Message, result interface{}) *protocol.Message {
	msg, err := protocol.NewResponse(req.ID, result)
	if err != nil {
		panic(err)
	}
	return msg
}

// ReplyError builds an error response to req
func ReplyError(req *protocol.Message, code protocol.ErrorCode, message string) *protocol.Message {
	msg, err := protocol.NewErrorResponse(req.ID, code, message, nil)
	if err != nil {
		panic(err)
	}
	return msg
}
