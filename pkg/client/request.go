package client

import (
	"context"
	"encoding/json"
	"strconv"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/observability"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/retry"
)

type outcome struct {
	result json.RawMessage
	err    error
}

// pendingRequest is settled exactly once, by a response, a timeout or the connection closing
type pendingRequest struct {
	method string
	once   sync.Once
	done   chan outcome
}

func newPendingRequest(method string) *pendingRequest {
	return &pendingRequest{method: method, done: make(chan outcome, 1)}
}

func (p *pendingRequest) settle(result json.RawMessage, err error) {
	p.once.Do(func() {
		p.done <- outcome{result: result, err: err}
	})
}

// take removes and returns the pending entry for key
func (c *Client) take(key string) *pendingRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pending[key]
	if !ok {
		return nil
	}
	delete(c.pending, key)
	return p
}

// register adds a pending entry; it fails once the client is closed
func (c *Client) register(key string, p *pendingRequest) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateClosed {
		return mcperrors.ConnectionClosed(c.settings.serverID)
	}
	c.pending[key] = p
	return nil
}

// pendingCount is the number of requests awaiting a response
func (c *Client) pendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// call issues a request that requires a completed handshake
func (c *Client) call(ctx context.Context, method string, params, result interface{}) error {
	if state := c.State(); state != StateReady {
		return mcperrors.NotConnected(method, state.String())
	}
	b := c.settings.breaker
	if b == nil {
		return c.request(ctx, method, params, result)
	}
	if err := b.Allow(method); err != nil {
		return err
	}
	err := c.request(ctx, method, params, result)
	b.Record(err)
	return err
}

// request sends one request and waits for its response, the request timeout
// or ctx, whichever comes first. A non-nil result receives the decoded payload.
func (c *Client) request(ctx context.Context, method string, params, result interface{}) (err error) {
	id := c.nextID.Add(1)
	key := protocol.IntID(id).Key()
	server := c.settings.serverID

	ctx, span := c.settings.tracer.StartRequestSpan(ctx, server, method)
	start := time.Now()
	c.settings.metrics.RequestStarted(server)
	defer func() {
		c.settings.metrics.RequestFinished(server)
		status := observability.StatusSuccess
		switch {
		case mcperrors.IsTimeout(err):
			status = observability.StatusTimeout
		case err != nil:
			status = observability.StatusError
		}
		c.settings.metrics.RecordRequest(server, method, status, time.Since(start))

		attrs := []attribute.KeyValue{observability.AttrRequestID.Int64(id)}
		if mcpErr, ok := mcperrors.AsMCPError(err); ok {
			attrs = append(attrs, observability.AttrErrorCode.Int(mcpErr.Code()))
		}
		observability.EndSpan(span, err, attrs...)
	}()

	msg, err := protocol.NewRequest(protocol.IntID(id), method, params)
	if err != nil {
		return mcperrors.InvalidParameter("params", params, "JSON-encodable value")
	}

	p := newPendingRequest(method)
	if err := c.register(key, p); err != nil {
		return err
	}

	// exchange stops waiting when the race below is decided
	waitCtx, stop := context.WithCancel(ctx)
	defer stop()

	raw, err := retry.WithTimeout(ctx, method, c.settings.requestTimeout, func() (json.RawMessage, error) {
		return c.exchange(waitCtx, key, msg, p)
	})
	if err != nil {
		c.take(key)
		if mcperrors.IsTimeout(err) {
			c.logger.Warn("Request timed out", logging.String("method", method), logging.Int64("request_id", id))
			return mcperrors.ResponseTimeout(method, strconv.FormatInt(id, 10), c.settings.requestTimeout)
		}
		return err
	}

	if result != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, result); err != nil {
			return mcperrors.ProtocolError("malformed " + method + " result: " + err.Error())
		}
	}
	return nil
}

// exchange writes msg and blocks until p is settled or ctx ends
func (c *Client) exchange(ctx context.Context, key string, msg *protocol.Message, p *pendingRequest) (json.RawMessage, error) {
	c.logger.Debug("Sending request", logging.String("method", msg.Method), logging.String("request_id", msg.ID.String()))
	if err := c.transport.Send(ctx, msg); err != nil {
		c.take(key)
		if !mcperrors.IsMCPError(err) {
			err = mcperrors.MessageSendError(c.settings.serverID, msg.Method, err)
		}
		return nil, err
	}

	select {
	case out := <-p.done:
		return out.result, out.err
	case <-ctx.Done():
		return nil, mcperrors.OperationCancelled(msg.Method, ctx.Err())
	}
}

// notify sends a notification; no response is expected
func (c *Client) notify(ctx context.Context, method string, params interface{}) error {
	msg, err := protocol.NewNotification(method, params)
	if err != nil {
		return mcperrors.InvalidParameter("params", params, "JSON-encodable value")
	}
	if err := c.transport.Send(ctx, msg); err != nil {
		if !mcperrors.IsMCPError(err) {
			err = mcperrors.MessageSendError(c.settings.serverID, method, err)
		}
		return err
	}
	return nil
}

// handleMessage routes every inbound message. It runs on the transport's reader.
func (c *Client) handleMessage(msg *protocol.Message) {
	switch {
	case msg.IsResponse():
		c.handleResponse(msg)
	case msg.IsRequest():
		go c.handleRequest(msg)
	case msg.IsNotification():
		c.handleNotification(msg)
	default:
		c.logger.Debug("Dropping invalid message", logging.String("method", msg.Method), logging.String("id", msg.ID.String()))
	}
}

func (c *Client) handleResponse(msg *protocol.Message) {
	p := c.take(msg.ID.Key())
	if p == nil {
		c.logger.Debug("Dropping response for unknown request", logging.String("request_id", msg.ID.String()))
		return
	}

	if msg.Error != nil {
		err := mcperrors.Classify(msg.Error).WithContext(&mcperrors.Context{
			RequestID: msg.ID.String(),
			Method:    p.method,
			ServerID:  c.settings.serverID,
			Timestamp: time.Now(),
			Component: "server",
		})
		p.settle(nil, err)
		return
	}
	p.settle(msg.Result, nil)
}
