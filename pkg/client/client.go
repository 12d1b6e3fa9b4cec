package client

import (
	"context"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/retry"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

// State is a position in the connection lifecycle
type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateInitializing
	StateReady
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateInitializing:
		return "initializing"
	case StateReady:
		return "ready"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// supportedVersions are the protocol revisions this client can speak
var supportedVersions = []string{protocol.ProtocolRevision, "2024-11-05"}

// Client speaks MCP to one server over one Transport.
//
// A Client is single-use: once Disconnect is called or the transport closes,
// build a new Client with a new Transport to reconnect.
type Client struct {
	id        string
	transport transport.Transport
	settings  settings
	logger    logging.Logger

	nextID atomic.Int64

	mu           sync.Mutex
	state        State
	pending      map[string]*pendingRequest
	serverInfo   *protocol.Implementation
	serverCaps   protocol.ServerCapabilities
	instructions string
	version      string

	handlers handlers
	tools    *toolCache
	queue    *dispatcher

	// ctx bounds work started on behalf of the server, such as sampling
	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a disconnected client for t. The transport must not be connected yet.
func New(t transport.Transport, opts ...Option) *Client {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	id := uuid.NewString()
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		id:        id,
		transport: t,
		settings:  s,
		logger: s.logger.WithFields(
			logging.Component("client"),
			logging.Server(s.serverID),
			logging.String("client_id", id),
		),
		pending: make(map[string]*pendingRequest),
		handlers: handlers{
			notifications: make(map[string][]NotificationHandler),
			subscriptions: make(map[string][]ResourceUpdateHandler),
		},
		tools:  newToolCache(),
		queue:  newDispatcher(),
		ctx:    ctx,
		cancel: cancel,
	}

	t.OnMessage(c.handleMessage)
	t.OnError(c.handleTransportError)
	t.OnClose(c.handleTransportClose)

	s.metrics.ConnectionStateChanged("", StateDisconnected.String())
	return c
}

// ID identifies this client instance in logs and traces
func (c *Client) ID() string {
	return c.id
}

// ServerID is the name given with WithServerID
func (c *Client) ServerID() string {
	return c.settings.serverID
}

// State returns the current lifecycle state
func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Connected reports whether the handshake has completed and the client is usable
func (c *Client) Connected() bool {
	return c.State() == StateReady
}

// ServerInfo returns the server's identity, nil before the handshake or if the server sent none
func (c *Client) ServerInfo() *protocol.Implementation {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.serverInfo == nil {
		return nil
	}
	info := *c.serverInfo
	return &info
}

// ServerCapabilities returns what the server advertised; empty before the handshake
func (c *Client) ServerCapabilities() protocol.ServerCapabilities {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.serverCaps
}

// Instructions returns the usage hints the server sent with its handshake
func (c *Client) Instructions() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.instructions
}

// ProtocolVersion returns the revision agreed in the handshake
func (c *Client) ProtocolVersion() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.version
}

// transition moves from one state to another and reports whether the client was in from
func (c *Client) transition(from, to State) bool {
	c.mu.Lock()
	if c.state != from {
		c.mu.Unlock()
		return false
	}
	c.state = to
	c.mu.Unlock()

	c.settings.metrics.ConnectionStateChanged(from.String(), to.String())
	c.logger.Debug("Client state changed", logging.String("from", from.String()), logging.String("to", to.String()))
	return true
}

// Connect establishes the transport, retrying per the connect policy, and
// performs the initialize handshake. It returns once the client is Ready.
func (c *Client) Connect(ctx context.Context) error {
	if !c.transition(StateDisconnected, StateConnecting) {
		state := c.State()
		if state == StateClosed {
			return mcperrors.ConnectionClosed(c.settings.serverID)
		}
		return mcperrors.NewError(
			mcperrors.CodeInvalidSequence,
			"connect already called: client is "+state.String(),
			mcperrors.CategoryProtocol,
			mcperrors.SeverityWarning,
		)
	}
	c.queue.start()

	start := time.Now()
	c.logger.Info("Connecting to server")
	_, err := retry.Do(ctx, c.settings.connectPolicy, func(ctx context.Context, attempt int) (struct{}, error) {
		return struct{}{}, c.transport.Connect(ctx)
	}, retry.OnRetry(func(attempt int, delay time.Duration, err error) {
		c.logger.Warn("Connection attempt failed, retrying",
			logging.Int("attempt", attempt),
			logging.Duration("delay", delay),
			logging.ErrorField(err),
		)
	}))
	if err != nil {
		c.logger.Error("Failed to connect", logging.ErrorField(err))
		if !c.transition(StateConnecting, StateDisconnected) {
			return mcperrors.ConnectionClosed(c.settings.serverID)
		}
		return err
	}

	if !c.transition(StateConnecting, StateInitializing) {
		_ = c.transport.Close()
		return mcperrors.ConnectionClosed(c.settings.serverID)
	}

	if err := c.initialize(ctx); err != nil {
		c.logger.Error("Handshake failed", logging.ErrorField(err))
		c.shutdown(err)
		_ = c.transport.Close()
		return err
	}

	if !c.transition(StateInitializing, StateReady) {
		return mcperrors.ConnectionClosed(c.settings.serverID)
	}

	info := c.ServerInfo()
	fields := []logging.Field{logging.Duration("duration", time.Since(start)), logging.String("protocol_version", c.ProtocolVersion())}
	if info != nil {
		fields = append(fields, logging.String("server_name", info.Name), logging.String("server_version", info.Version))
	}
	c.logger.Info("Connected to server", fields...)
	return nil
}

// initialize runs the handshake; the client is Initializing throughout
func (c *Client) initialize(ctx context.Context) error {
	params := protocol.InitializeParams{
		ProtocolVersion: c.settings.protocolVersion,
		Capabilities:    c.settings.capabilities,
		ClientInfo:      protocol.Implementation{Name: c.settings.name, Version: c.settings.version},
	}

	var result protocol.InitializeResult
	if err := c.request(ctx, protocol.MethodInitialize, params, &result); err != nil {
		return err
	}

	version := result.ProtocolVersion
	if version == "" {
		version = c.settings.protocolVersion
	}
	if version != c.settings.protocolVersion && !slices.Contains(supportedVersions, version) {
		return mcperrors.VersionMismatch(c.settings.protocolVersion, version)
	}

	c.mu.Lock()
	c.serverCaps = result.Capabilities
	c.serverInfo = result.ServerInfo
	c.instructions = result.Instructions
	c.version = version
	c.mu.Unlock()

	return c.notify(ctx, protocol.MethodInitialized, nil)
}

// Disconnect closes the transport and rejects every outstanding request.
// It is safe to call more than once.
func (c *Client) Disconnect() error {
	if !c.shutdown(nil) {
		return nil
	}
	c.logger.Info("Disconnecting from server")
	if err := c.transport.Close(); err != nil {
		c.logger.Warn("Error closing transport", logging.ErrorField(err))
		return err
	}
	return nil
}

// shutdown moves the client to Closed and releases everything waiting on it.
// It reports false if the client was already closed.
func (c *Client) shutdown(cause error) bool {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return false
	}
	from := c.state
	c.state = StateClosed
	pending := c.pending
	c.pending = make(map[string]*pendingRequest)
	c.mu.Unlock()

	c.settings.metrics.ConnectionStateChanged(from.String(), StateClosed.String())
	c.cancel()
	c.queue.stop()

	reject := cause
	if reject == nil || !mcperrors.IsConnection(reject) {
		reject = mcperrors.ConnectionClosed(c.settings.serverID)
	}
	for key, p := range pending {
		c.logger.Debug("Rejecting pending request", logging.String("request_id", key), logging.String("method", p.method))
		p.settle(nil, reject)
	}

	c.handlers.clearSubscriptions()
	c.tools.reset()
	c.handlers.emitClose(cause)
	return true
}

func (c *Client) handleTransportError(err error) {
	c.logger.Warn("Transport error", logging.ErrorField(err))
	c.handlers.emitError(err)
}

func (c *Client) handleTransportClose(err error) {
	if err != nil {
		c.logger.Warn("Transport closed", logging.ErrorField(err))
	}
	c.shutdown(err)
}
