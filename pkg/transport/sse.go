package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/tmaxmax/go-sse"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// SSEConfig configures the legacy HTTP+SSE transport
type SSEConfig struct {
	// URL of the event stream
	URL string
	// MessageURL, when set, is used for POSTs instead of waiting for the
	// server's endpoint event
	MessageURL string
	Headers    map[string]string
	HTTPClient *http.Client
	Logger     logging.Logger
}

// SSETransport receives server messages over a long-lived event stream and
// POSTs client messages to the endpoint the server announces.
type SSETransport struct {
	*events

	config SSEConfig
	client *http.Client
	logger logging.Logger

	mu         sync.RWMutex
	messageURL string
	cancel     context.CancelFunc
	done       chan struct{}

	started   atomic.Bool
	connected atomic.Bool
	closing   atomic.Bool
}

// attempt tracks one stream opened by Connect
type attempt struct {
	ready chan error
	once  sync.Once
	done  chan struct{}
	// guarded by the transport's mu
	live, ended bool
}

func (a *attempt) signal(err error) {
	a.once.Do(func() {
		a.ready <- err
	})
}

// NewSSETransport creates an SSE transport; nothing is dialed until Connect
func NewSSETransport(config SSEConfig) *SSETransport {
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}
	client := config.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}
	return &SSETransport{
		events:     newEvents(),
		config:     config,
		client:     client,
		logger:     config.Logger.WithFields(logging.Component("sse")),
		messageURL: config.MessageURL,
	}
}

// Connect opens the event stream and waits until the POST endpoint is known
func (t *SSETransport) Connect(ctx context.Context) error {
	if t.isClosed() || t.closing.Load() {
		return mcperrors.ConnectionClosed("sse")
	}
	if !t.started.CompareAndSwap(false, true) {
		return nil
	}

	streamCtx, cancel := context.WithCancel(context.Background())
	a := &attempt{ready: make(chan error, 1), done: make(chan struct{})}
	t.mu.Lock()
	t.cancel = cancel
	t.done = a.done
	t.mu.Unlock()

	// the stream outlives ctx, which only bounds the connect phase
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	consuming := false
	fail := func(err error) error {
		cancel()
		if !consuming {
			close(a.done)
		}
		t.mu.Lock()
		t.cancel = nil
		t.mu.Unlock()
		t.started.Store(false)
		return err
	}

	req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, t.config.URL, nil)
	if err != nil {
		return fail(mcperrors.ConnectionFailed("sse", t.config.URL, err))
	}
	setHeaders(req, t.config.Headers)
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return fail(mcperrors.ConnectionFailed("sse", t.config.URL, err))
	}
	if resp.StatusCode != http.StatusOK {
		cause := statusError(resp)
		drain(resp.Body)
		return fail(mcperrors.HTTPTransportError("connect", t.config.URL, resp.StatusCode, cause))
	}
	if !isEventStream(resp) {
		drain(resp.Body)
		return fail(mcperrors.ConnectionFailed("sse", t.config.URL,
			fmt.Errorf("unexpected content type %q", resp.Header.Get("Content-Type"))))
	}

	base := resp.Request.URL
	consuming = true
	go t.consume(resp, base, a)

	if t.config.MessageURL != "" {
		a.signal(nil)
	}

	select {
	case err := <-a.ready:
		if err != nil {
			return fail(err)
		}
	case <-ctx.Done():
		return fail(mcperrors.ConnectionFailed("sse", t.config.URL, ctx.Err()))
	}

	t.mu.Lock()
	if a.ended {
		t.mu.Unlock()
		return fail(mcperrors.ConnectionLost("sse", t.config.URL, nil))
	}
	a.live = true
	t.connected.Store(true)
	t.mu.Unlock()
	t.logger.Debug("Event stream established", logging.String("message_url", t.endpoint()))
	return nil
}

func (t *SSETransport) consume(resp *http.Response, base *url.URL, a *attempt) {
	defer resp.Body.Close()

	err := readEvents(resp.Body, t.events, t.logger, "sse", func(ev sse.Event) bool {
		if ev.Type != "endpoint" {
			t.logger.Debug("Ignoring event", logging.String("event", ev.Type))
			return true
		}
		ref, err := url.Parse(ev.Data)
		if err != nil || ev.Data == "" {
			a.signal(mcperrors.ProtocolError(fmt.Sprintf("invalid endpoint event %q", ev.Data)))
			return false
		}
		t.mu.Lock()
		t.messageURL = base.ResolveReference(ref).String()
		t.mu.Unlock()
		a.signal(nil)
		return true
	})

	lost := mcperrors.ConnectionLost("sse", t.config.URL, err)
	a.signal(lost)

	t.mu.Lock()
	a.ended = true
	live := a.live
	t.mu.Unlock()
	if !live {
		// Connect reports the failure
		close(a.done)
		return
	}

	t.connected.Store(false)
	close(a.done)
	if t.closing.Load() {
		t.emitClose(nil)
		return
	}
	t.logger.Warn("Event stream ended", logging.ErrorField(err))
	t.emitClose(lost)
}

func (t *SSETransport) endpoint() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.messageURL
}

// Send POSTs msg to the announced endpoint; any 2xx status is success
func (t *SSETransport) Send(ctx context.Context, msg *protocol.Message) error {
	if !t.connected.Load() {
		if t.isClosed() || t.closing.Load() {
			return mcperrors.ConnectionClosed("sse")
		}
		return mcperrors.NotConnected("send", "disconnected")
	}

	data, err := json.Marshal(msg)
	if err != nil {
		return mcperrors.MessageSendError("sse", msg.Method, err)
	}

	endpoint := t.endpoint()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return mcperrors.MessageSendError("sse", msg.Method, err)
	}
	setHeaders(req, t.config.Headers)
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return mcperrors.OperationCancelled("send", ctx.Err())
		}
		return mcperrors.MessageSendError("sse", msg.Method, err)
	}
	defer drain(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mcperrors.HTTPTransportError("send", endpoint, resp.StatusCode, statusError(resp))
	}
	return nil
}

// Close ends the event stream
func (t *SSETransport) Close() error {
	if !t.closing.CompareAndSwap(false, true) {
		return nil
	}
	t.connected.Store(false)

	t.mu.RLock()
	cancel, done := t.cancel, t.done
	t.mu.RUnlock()

	if cancel != nil {
		cancel()
		<-done
	}
	t.emitClose(nil)
	return nil
}

// Connected reports whether the stream is open and the endpoint known
func (t *SSETransport) Connected() bool {
	return t.connected.Load()
}
