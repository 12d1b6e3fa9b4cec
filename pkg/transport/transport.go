package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// Transport carries JSON-RPC messages between a client and one server.
//
// Connect must not return until messages can flow in both directions. Send
// delivers one message; successive Sends from the same goroutine reach the
// server in order. Close is idempotent. Inbound messages, unrecoverable
// faults and termination are reported to the registered handlers; the close
// handlers run exactly once per transport.
type Transport interface {
	Connect(ctx context.Context) error
	Send(ctx context.Context, msg *protocol.Message) error
	Close() error
	Connected() bool

	OnMessage(handler MessageHandler)
	OnError(handler ErrorHandler)
	OnClose(handler CloseHandler)
}

// MessageHandler receives each fully parsed inbound message
type MessageHandler func(msg *protocol.Message)

// ErrorHandler receives channel faults
type ErrorHandler func(err error)

// CloseHandler is told that the channel terminated; err is nil for a local Close
type CloseHandler func(err error)

// events holds the subscriber lists shared by every transport implementation
type events struct {
	mu        sync.RWMutex
	onMessage []MessageHandler
	onError   []ErrorHandler
	onClose   []CloseHandler
	closeOnce sync.Once
	closed    chan struct{}
}

func newEvents() *events {
	return &events{closed: make(chan struct{})}
}

// OnMessage registers a message subscriber
func (e *events) OnMessage(handler MessageHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onMessage = append(e.onMessage, handler)
}

// OnError registers an error subscriber
func (e *events) OnError(handler ErrorHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onError = append(e.onError, handler)
}

// OnClose registers a close subscriber
func (e *events) OnClose(handler CloseHandler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onClose = append(e.onClose, handler)
}

func (e *events) emitMessage(msg *protocol.Message) {
	e.mu.RLock()
	handlers := e.onMessage
	e.mu.RUnlock()
	for _, h := range handlers {
		h(msg)
	}
}

func (e *events) emitError(err error) {
	e.mu.RLock()
	handlers := e.onError
	e.mu.RUnlock()
	for _, h := range handlers {
		h(err)
	}
}

// emitClose notifies close subscribers the first time it is called
func (e *events) emitClose(err error) {
	e.closeOnce.Do(func() {
		close(e.closed)
		e.mu.RLock()
		handlers := e.onClose
		e.mu.RUnlock()
		for _, h := range handlers {
			h(err)
		}
	})
}

func (e *events) isClosed() bool {
	select {
	case <-e.closed:
		return true
	default:
		return false
	}
}

// Type identifies the transport implementation
type Type string

const (
	TypeStdio          Type = "stdio"
	TypeSSE            Type = "sse"
	TypeHTTP           Type = "http"
	TypeStreamableHTTP Type = "streamable-http"
)

// Config is the unified configuration for all transports
type Config struct {
	// Type of transport to create
	Type Type `json:"type"`

	// Stdio settings
	Command string            `json:"command,omitempty"`
	Args    []string          `json:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty"`
	Dir     string            `json:"dir,omitempty"`

	// Network settings
	Endpoint string            `json:"endpoint,omitempty"`
	Headers  map[string]string `json:"headers,omitempty"`

	Connection ConnectionConfig `json:"connection"`

	// HTTPClient overrides the client built from Connection
	HTTPClient *http.Client `json:"-"`
	// Logger receives transport diagnostics and subprocess stderr
	Logger logging.Logger `json:"-"`
}

// ConnectionConfig for connection management
type ConnectionConfig struct {
	Timeout         time.Duration `json:"timeout"`
	KeepAlive       time.Duration `json:"keep_alive"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	MaxConnsPerHost int           `json:"max_conns_per_host"`
	IdleConnTimeout time.Duration `json:"idle_conn_timeout"`
	// CloseGracePeriod is how long a subprocess may take to exit after stdin closes
	CloseGracePeriod time.Duration `json:"close_grace_period"`
}

// DefaultConfig returns a transport configuration with sensible defaults
func DefaultConfig(transportType Type) Config {
	return Config{
		Type: transportType,
		Connection: ConnectionConfig{
			Timeout:          30 * time.Second,
			KeepAlive:        30 * time.Second,
			MaxIdleConns:     100,
			MaxConnsPerHost:  10,
			IdleConnTimeout:  90 * time.Second,
			CloseGracePeriod: 2 * time.Second,
		},
	}
}

// Errors
var (
	ErrUnsupportedTransportType = errors.New("unsupported transport type")
	ErrMissingEndpoint          = errors.New("endpoint is required for network transports")
	ErrMissingCommand           = errors.New("command is required for stdio transports")
)

// New creates a transport from configuration
func New(config Config) (Transport, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}

	switch config.Type {
	case TypeStdio:
		return NewStdioTransport(StdioConfig{
			Command:     config.Command,
			Args:        config.Args,
			Env:         config.Env,
			Dir:         config.Dir,
			GracePeriod: config.Connection.CloseGracePeriod,
			Logger:      config.Logger,
		}), nil
	case TypeSSE:
		return NewSSETransport(SSEConfig{
			URL:        config.Endpoint,
			Headers:    config.Headers,
			HTTPClient: config.httpClient(),
			Logger:     config.Logger,
		}), nil
	case TypeHTTP, TypeStreamableHTTP:
		return NewHTTPTransport(HTTPConfig{
			URL:        config.Endpoint,
			Headers:    config.Headers,
			HTTPClient: config.httpClient(),
			Streamable: config.Type == TypeStreamableHTTP,
			Logger:     config.Logger,
		}), nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedTransportType, config.Type)
}

func validateConfig(config Config) error {
	switch config.Type {
	case TypeStdio:
		if config.Command == "" {
			return ErrMissingCommand
		}
		return nil
	case TypeSSE, TypeHTTP, TypeStreamableHTTP:
		if config.Endpoint == "" {
			return ErrMissingEndpoint
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnsupportedTransportType, config.Type)
}

// httpClient builds a tuned client. There is no overall client timeout
// because event streams stay open indefinitely; Connection.Timeout bounds dialing.
func (c Config) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}

	conn := c.Connection
	base := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   conn.Timeout,
			KeepAlive: conn.KeepAlive,
		}).DialContext,
		MaxIdleConns:          conn.MaxIdleConns,
		MaxConnsPerHost:       conn.MaxConnsPerHost,
		MaxIdleConnsPerHost:   conn.MaxConnsPerHost,
		IdleConnTimeout:       conn.IdleConnTimeout,
		TLSHandshakeTimeout:   10 * time.Second,
		ExpectContinueTimeout: time.Second,
	}

	logger := c.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &http.Client{Transport: logging.NewRoundTripper(logger, base)}
}
