package client

import (
	"context"
	"encoding/json"
	"runtime/debug"
	"sync"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// NotificationHandler receives the params of a server notification
type NotificationHandler func(ctx context.Context, params json.RawMessage)

// ResourceUpdateHandler is told that a subscribed resource changed
type ResourceUpdateHandler func(uri string)

// SamplingHandler performs a model completion the server asked for
type SamplingHandler func(ctx context.Context, params *protocol.CreateMessageParams) (*protocol.CreateMessageResult, error)

// ErrorHandler receives asynchronous faults such as transport errors
type ErrorHandler func(err error)

// CloseHandler is told the client closed; err is nil after Disconnect
type CloseHandler func(err error)

type handlers struct {
	mu            sync.RWMutex
	notifications map[string][]NotificationHandler
	subscriptions map[string][]ResourceUpdateHandler
	sampling      SamplingHandler
	onError       []ErrorHandler
	onClose       []CloseHandler
}

func (h *handlers) notificationHandlers(method string) []NotificationHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]NotificationHandler(nil), h.notifications[method]...)
}

func (h *handlers) subscribers(uri string) []ResourceUpdateHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]ResourceUpdateHandler(nil), h.subscriptions[uri]...)
}

func (h *handlers) samplingHandler() SamplingHandler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sampling
}

func (h *handlers) subscribe(uri string, fn ResourceUpdateHandler) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscriptions[uri] = append(h.subscriptions[uri], fn)
}

func (h *handlers) unsubscribe(uri string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subscriptions, uri)
}

func (h *handlers) clearSubscriptions() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscriptions = make(map[string][]ResourceUpdateHandler)
}

func (h *handlers) emitError(err error) {
	h.mu.RLock()
	fns := append([]ErrorHandler(nil), h.onError...)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(err)
	}
}

func (h *handlers) emitClose(err error) {
	h.mu.RLock()
	fns := append([]CloseHandler(nil), h.onClose...)
	h.mu.RUnlock()
	for _, fn := range fns {
		fn(err)
	}
}

// OnNotification registers handler for a server notification method such as
// notifications/tools/list_changed or notifications/message
func (c *Client) OnNotification(method string, handler NotificationHandler) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.notifications[method] = append(c.handlers.notifications[method], handler)
}

// OnSamplingRequest installs the handler for sampling/createMessage, replacing any previous one
func (c *Client) OnSamplingRequest(handler SamplingHandler) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.sampling = handler
}

// OnError registers a subscriber for asynchronous faults
func (c *Client) OnError(handler ErrorHandler) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onError = append(c.handlers.onError, handler)
}

// OnClose registers a subscriber told when the client reaches Closed
func (c *Client) OnClose(handler CloseHandler) {
	c.handlers.mu.Lock()
	defer c.handlers.mu.Unlock()
	c.handlers.onClose = append(c.handlers.onClose, handler)
}

// handleNotification queues user callbacks so a callback may issue requests
// without blocking the transport reader that will deliver their responses
func (c *Client) handleNotification(msg *protocol.Message) {
	switch msg.Method {
	case protocol.MethodToolsListChanged:
		c.tools.reset()
	case protocol.MethodCreateMessage:
		c.queue.enqueue(func() { c.sampleNotification(msg) })
		return
	}

	var uri string
	if msg.Method == protocol.MethodResourceUpdated {
		var params protocol.ResourceUpdatedParams
		if err := json.Unmarshal(msg.Params, &params); err != nil || params.URI == "" {
			c.logger.Warn("Ignoring malformed resource update", logging.ErrorField(err))
			return
		}
		uri = params.URI
	}

	c.queue.enqueue(func() {
		if uri != "" {
			for _, fn := range c.handlers.subscribers(uri) {
				c.protect(msg.Method, func() { fn(uri) })
			}
		}
		for _, fn := range c.handlers.notificationHandlers(msg.Method) {
			c.protect(msg.Method, func() { fn(c.ctx, msg.Params) })
		}
	})
}

// sampleNotification runs the sampling handler for a request sent without an id; the result is discarded
func (c *Client) sampleNotification(msg *protocol.Message) {
	handler := c.handlers.samplingHandler()
	if handler == nil {
		c.logger.Debug("Ignoring sampling notification: no handler")
		return
	}
	var params protocol.CreateMessageParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		c.logger.Warn("Ignoring malformed sampling notification", logging.ErrorField(err))
		return
	}
	c.protect(msg.Method, func() {
		if _, err := handler(c.ctx, &params); err != nil {
			c.logger.Warn("Sampling handler failed", logging.ErrorField(err))
		}
	})
}

// handleRequest answers a server-initiated request. It runs on its own goroutine.
func (c *Client) handleRequest(msg *protocol.Message) {
	var (
		result interface{}
		err    error
	)
	switch msg.Method {
	case protocol.MethodPing:
		result = struct{}{}
	case protocol.MethodCreateMessage:
		result, err = c.sample(msg)
	default:
		err = mcperrors.NewError(mcperrors.CodeMethodNotFound, "method not found: "+msg.Method,
			mcperrors.CategoryNotFound, mcperrors.SeverityWarning)
	}

	var reply *protocol.Message
	if err != nil {
		wire := mcperrors.ToWireError(err)
		reply, err = protocol.NewErrorResponse(msg.ID, wire.Code, wire.Message, wire.Data)
	} else {
		reply, err = protocol.NewResponse(msg.ID, result)
	}
	if err != nil {
		c.logger.Error("Failed to build response", logging.String("method", msg.Method), logging.ErrorField(err))
		return
	}

	if sendErr := c.transport.Send(c.ctx, reply); sendErr != nil {
		c.logger.Warn("Failed to answer server request",
			logging.String("method", msg.Method),
			logging.String("request_id", msg.ID.String()),
			logging.ErrorField(sendErr),
		)
	}
}

func (c *Client) sample(msg *protocol.Message) (result *protocol.CreateMessageResult, err error) {
	handler := c.handlers.samplingHandler()
	if handler == nil {
		return nil, mcperrors.NewError(mcperrors.CodeMethodNotFound, "sampling is not supported by this client",
			mcperrors.CategoryNotFound, mcperrors.SeverityWarning)
	}

	var params protocol.CreateMessageParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return nil, mcperrors.NewError(mcperrors.CodeInvalidParams, "invalid sampling params: "+err.Error(),
			mcperrors.CategoryValidation, mcperrors.SeverityWarning)
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Sampling handler panicked", logging.Any("panic", r), logging.String("stack", string(debug.Stack())))
			result = nil
			err = mcperrors.NewError(mcperrors.CodeInternalError, "sampling handler failed",
				mcperrors.CategoryInternal, mcperrors.SeverityError)
		}
	}()
	return handler(c.ctx, &params)
}

// protect runs a user callback, logging instead of crashing on a panic
func (c *Client) protect(method string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Notification handler panicked",
				logging.String("method", method),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()
	fn()
}

// dispatcher runs queued callbacks one at a time, in arrival order. The queue
// is unbounded so enqueue never blocks the transport reader.
type dispatcher struct {
	mu        sync.Mutex
	queue     []func()
	signal    chan struct{}
	done      chan struct{}
	startOnce sync.Once
	stopOnce  sync.Once
}

func newDispatcher() *dispatcher {
	return &dispatcher{signal: make(chan struct{}, 1), done: make(chan struct{})}
}

func (d *dispatcher) start() {
	d.startOnce.Do(func() {
		go func() {
			for {
				select {
				case <-d.signal:
					d.drain()
				case <-d.done:
					return
				}
			}
		}()
	})
}

// drain runs everything queued so far, stopping early once stopped
func (d *dispatcher) drain() {
	for {
		select {
		case <-d.done:
			return
		default:
		}
		fn := d.next()
		if fn == nil {
			return
		}
		fn()
	}
}

func (d *dispatcher) next() func() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return nil
	}
	fn := d.queue[0]
	d.queue[0] = nil
	d.queue = d.queue[1:]
	return fn
}

func (d *dispatcher) enqueue(fn func()) {
	select {
	case <-d.done:
		return
	default:
	}
	d.mu.Lock()
	d.queue = append(d.queue, fn)
	d.mu.Unlock()

	select {
	case d.signal <- struct{}{}:
	default:
	}
}

func (d *dispatcher) stop() {
	d.stopOnce.Do(func() {
		close(d.done)
		d.mu.Lock()
		d.queue = nil
		d.mu.Unlock()
	})
}
