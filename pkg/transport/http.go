package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// sessionCloseTimeout bounds the DELETE sent when a session ends
const sessionCloseTimeout = 5 * time.Second

// HTTPConfig configures the HTTP transports
type HTTPConfig struct {
	URL        string
	Headers    map[string]string
	HTTPClient *http.Client
	// Streamable enables session tracking of server-initiated messages over
	// a standalone GET event stream
	Streamable bool
	Logger     logging.Logger
}

// HTTPTransport sends every message as its own POST. Replies arrive in the
// POST response, either as JSON or as an event stream.
type HTTPTransport struct {
	*events

	config HTTPConfig
	client *http.Client
	logger logging.Logger

	mu        sync.RWMutex
	sessionID string

	ctx    context.Context
	cancel context.CancelFunc
	// readers tracks event streams still being consumed; readersMu orders
	// Add against Close
	readers   sync.WaitGroup
	readersMu sync.Mutex

	listening atomic.Bool
	connected atomic.Bool
	closing   atomic.Bool
}

// NewHTTPTransport creates an HTTP transport
func NewHTTPTransport(config HTTPConfig) *HTTPTransport {
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	name := "http"
	if config.Streamable {
		name = "streamable-http"
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &HTTPTransport{
		events: newEvents(),
		config: config,
		client: client,
		logger: config.Logger.WithFields(logging.Component(name)),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (t *HTTPTransport) name() string {
	if t.config.Streamable {
		return "streamable-http"
	}
	return "http"
}

// Connect validates the endpoint. HTTP is connectionless, so nothing is
// dialed until the first Send.
func (t *HTTPTransport) Connect(ctx context.Context) error {
	if t.isClosed() || t.closing.Load() {
		return mcperrors.ConnectionClosed(t.name())
	}
	if err := ctx.Err(); err != nil {
		return mcperrors.ConnectionFailed(t.name(), t.config.URL, err)
	}

	u, err := url.Parse(t.config.URL)
	if err != nil {
		return mcperrors.ConnectionFailed(t.name(), t.config.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return mcperrors.ConnectionFailed(t.name(), t.config.URL, fmt.Errorf("unsupported URL scheme %q", u.Scheme))
	}

	t.connected.Store(true)
	return nil
}

// SessionID returns the session assigned by a streamable server, if any
func (t *HTTPTransport) SessionID() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.sessionID
}

// Send POSTs msg and delivers whatever the response carries
func (t *HTTPTransport) Send(ctx context.Context, msg *protocol.Message) error {
	if !t.connected.Load() {
		if t.isClosed() || t.closing.Load() {
			return mcperrors.ConnectionClosed(t.name())
		}
		return mcperrors.NotConnected("send", "disconnected")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return mcperrors.MessageSendError(t.name(), msg.Method, err)
	}

	// the response may stream past Send, so ctx only bounds the exchange
	// until headers arrive
	reqCtx, reqCancel := context.WithCancel(t.ctx)
	stop := context.AfterFunc(ctx, reqCancel)
	defer stop()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, t.config.URL, bytes.NewReader(data))
	if err != nil {
		reqCancel()
		return mcperrors.MessageSendError(t.name(), msg.Method, err)
	}
	t.prepare(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		reqCancel()
		if ctx.Err() != nil {
			return mcperrors.OperationCancelled("send", ctx.Err())
		}
		return mcperrors.MessageSendError(t.name(), msg.Method, err)
	}

	if t.config.Streamable {
		t.trackSession(resp)
	}

	switch {
	case resp.StatusCode == http.StatusAccepted || resp.StatusCode == http.StatusNoContent:
		drain(resp.Body)
		reqCancel()
		return nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		cause := statusError(resp)
		drain(resp.Body)
		reqCancel()
		if resp.StatusCode == http.StatusNotFound && t.SessionID() != "" {
			t.mu.Lock()
			t.sessionID = ""
			t.mu.Unlock()
			t.logger.Warn("Session expired")
		}
		return mcperrors.HTTPTransportError("send", t.config.URL, resp.StatusCode, cause)
	case isEventStream(resp):
		if !t.track() {
			drain(resp.Body)
			reqCancel()
			return mcperrors.ConnectionClosed(t.name())
		}
		go func() {
			defer t.readers.Done()
			defer reqCancel()
			defer resp.Body.Close()
			if err := readEvents(resp.Body, t.events, t.logger, t.name(), nil); err != nil && !t.closing.Load() {
				t.logger.Debug("Response stream ended", logging.ErrorField(err))
			}
		}()
		return nil
	}

	defer reqCancel()
	defer drain(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxMessageSize))
	if err != nil {
		return mcperrors.MessageSendError(t.name(), msg.Method, err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if !isJSON(resp) {
		t.logger.Debug("Response has unexpected content type; decoding as JSON",
			logging.String("content_type", resp.Header.Get("Content-Type")))
	}

	msgs, err := protocol.ParseMessages(body)
	if err != nil {
		perr := mcperrors.ProtocolError(fmt.Sprintf("invalid %s response body: %v", t.name(), err))
		t.emitError(perr)
		return perr
	}
	for _, m := range msgs {
		deliver(t.events, t.logger, m)
	}
	return nil
}

func (t *HTTPTransport) prepare(req *http.Request) {
	setHeaders(req, t.config.Headers)
	if id := t.SessionID(); id != "" {
		req.Header.Set(SessionHeader, id)
	}
}

// trackSession records a session id handed out by the server and, the first
// time one is known, opens the standalone event stream
func (t *HTTPTransport) trackSession(resp *http.Response) {
	id := resp.Header.Get(SessionHeader)
	if id == "" {
		return
	}

	t.mu.Lock()
	changed := t.sessionID != id
	t.sessionID = id
	t.mu.Unlock()

	if changed {
		t.logger.Debug("Session established", logging.String("session_id", id))
	}
	if t.listening.CompareAndSwap(false, true) {
		if !t.track() {
			return
		}
		go t.listen()
	}
}

// track registers a stream reader unless Close has begun
func (t *HTTPTransport) track() bool {
	t.readersMu.Lock()
	defer t.readersMu.Unlock()
	if t.closing.Load() {
		return false
	}
	t.readers.Add(1)
	return true
}

// listen consumes server-initiated messages until the stream or transport ends
func (t *HTTPTransport) listen() {
	defer t.readers.Done()

	req, err := http.NewRequestWithContext(t.ctx, http.MethodGet, t.config.URL, nil)
	if err != nil {
		t.listening.Store(false)
		return
	}
	t.prepare(req)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := t.client.Do(req)
	if err != nil {
		t.listening.Store(false)
		if !t.closing.Load() {
			t.logger.Debug("Event stream request failed", logging.ErrorField(err))
		}
		return
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusMethodNotAllowed:
		// the server offers no standalone stream; keep listening=true so
		// later sends do not ask again
		t.logger.Debug("Server does not offer an event stream")
		return
	case resp.StatusCode != http.StatusOK || !isEventStream(resp):
		t.listening.Store(false)
		t.emitError(mcperrors.HTTPTransportError("listen", t.config.URL, resp.StatusCode, statusError(resp)))
		return
	}

	err = readEvents(resp.Body, t.events, t.logger, t.name(), nil)
	t.listening.Store(false)
	if err != nil && !t.closing.Load() {
		t.logger.Debug("Event stream ended", logging.ErrorField(err))
	}
}

// Close ends the session with a best-effort DELETE and stops every stream
func (t *HTTPTransport) Close() error {
	t.readersMu.Lock()
	first := t.closing.CompareAndSwap(false, true)
	t.readersMu.Unlock()
	if !first {
		return nil
	}
	t.connected.Store(false)

	if id := t.SessionID(); id != "" {
		ctx, cancel := context.WithTimeout(context.Background(), sessionCloseTimeout)
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, t.config.URL, nil)
		if err == nil {
			t.prepare(req)
			if resp, err := t.client.Do(req); err != nil {
				t.logger.Debug("Session termination failed", logging.ErrorField(err))
			} else {
				drain(resp.Body)
			}
		}
		cancel()
	}

	t.cancel()
	t.readers.Wait()
	t.emitClose(nil)
	return nil
}

// Connected reports whether Connect succeeded and Close has not been called
func (t *HTTPTransport) Connected() bool {
	return t.connected.Load()
}
