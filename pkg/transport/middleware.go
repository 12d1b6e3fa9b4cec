package transport

import (
	"context"

	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// Middleware wraps a transport to add behavior around Send and inbound delivery
type Middleware func(Transport) Transport

// Chain applies middleware so that the first one listed is the outermost
func Chain(t Transport, middleware ...Middleware) Transport {
	for i := len(middleware) - 1; i >= 0; i-- {
		t = middleware[i](t)
	}
	return t
}

// middlewareTransport delegates everything to next; embed it and override
// what the middleware needs
type middlewareTransport struct {
	next Transport
}

func (m *middlewareTransport) Connect(ctx context.Context) error {
	return m.next.Connect(ctx)
}

func (m *middlewareTransport) Send(ctx context.Context, msg *protocol.Message) error {
	return m.next.Send(ctx, msg)
}

func (m *middlewareTransport) Close() error {
	return m.next.Close()
}

func (m *middlewareTransport) Connected() bool {
	return m.next.Connected()
}

func (m *middlewareTransport) OnMessage(handler MessageHandler) {
	m.next.OnMessage(handler)
}

func (m *middlewareTransport) OnError(handler ErrorHandler) {
	m.next.OnError(handler)
}

func (m *middlewareTransport) OnClose(handler CloseHandler) {
	m.next.OnClose(handler)
}

// Unwrap returns the wrapped transport
func (m *middlewareTransport) Unwrap() Transport {
	return m.next
}
