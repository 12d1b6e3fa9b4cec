package manager

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/ajitpratap0/mcp-client-go/pkg/client"
	"github.com/ajitpratap0/mcp-client-go/pkg/config"
	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

// QualifiedNameSeparator separates the server id from the tool name
const QualifiedNameSeparator = ":"

// Manager owns one client per configured server. It is safe for concurrent use.
type Manager struct {
	mu      sync.RWMutex
	servers map[string]*managed

	opts   options
	logger logging.Logger
}

// managed is one server entry. client and connected are guarded by Manager.mu.
type managed struct {
	id        string
	config    config.ServerConfig
	client    *client.Client
	connected bool
}

// ConnectionStatus reports the state of one managed server
type ConnectionStatus struct {
	ID        string `json:"id"`
	Connected bool   `json:"connected"`
	State     string `json:"state"`
}

// New creates an empty manager
func New(opts ...Option) *Manager {
	o := options{
		settings: config.DefaultSettings(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	m := &Manager{
		servers: make(map[string]*managed),
		opts:    o,
		logger:  o.logger.WithFields(logging.Component("manager")),
	}
	if m.opts.factory == nil {
		m.opts.factory = m.defaultTransport
	}
	return m
}

func (m *Manager) defaultTransport(id string, cfg config.ServerConfig) (transport.Transport, error) {
	t, err := transport.New(cfg.TransportConfig(m.opts.settings, m.opts.logger.WithFields(logging.Server(id))))
	if err != nil {
		return nil, mcperrors.ValidationError("cannot build transport for server "+id+": "+err.Error(), nil)
	}
	return t, nil
}

// LoadFromObject adds every enabled server in id order. Loading stops at the
// first failure unless WithContinueOnError was given, in which case every
// server is attempted and the failures are joined.
func (m *Manager) LoadFromObject(ctx context.Context, servers map[string]config.ServerConfig) error {
	var errs []error
	for _, id := range sortedKeys(servers) {
		cfg := servers[id]
		if cfg.Disabled {
			m.logger.Debug("Skipping disabled server", logging.Server(id))
			continue
		}
		if err := m.AddServer(ctx, id, cfg); err != nil {
			if !m.opts.continueOnError {
				return err
			}
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LoadFromFile loads the servers listed in a JSON server file
func (m *Manager) LoadFromFile(ctx context.Context, path string) error {
	f, err := config.Load(path)
	if err != nil {
		return err
	}
	return m.LoadFromObject(ctx, f.MCPServers)
}

// AddServer registers a server and connects to it. The entry is kept when the
// connection fails, reported as not connected, and can be retried with Reconnect.
func (m *Manager) AddServer(ctx context.Context, id string, cfg config.ServerConfig) error {
	if id == "" {
		return mcperrors.InvalidParameter("id", id, "non-empty server id")
	}
	if strings.Contains(id, QualifiedNameSeparator) {
		return mcperrors.InvalidParameter("id", id, "server id without "+QualifiedNameSeparator)
	}
	if cfg.Disabled {
		m.logger.Info("Server is disabled, not adding", logging.Server(id))
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	c, err := m.newClient(id, cfg)
	if err != nil {
		return err
	}
	entry := &managed{id: id, config: cfg, client: c}

	m.mu.Lock()
	if _, exists := m.servers[id]; exists {
		m.mu.Unlock()
		return mcperrors.Conflict("server", id)
	}
	m.servers[id] = entry
	m.mu.Unlock()

	return m.connect(ctx, entry, c)
}

// Reconnect replaces the client of a server that is not connected with a
// fresh one and connects it
func (m *Manager) Reconnect(ctx context.Context, id string) error {
	m.mu.RLock()
	entry, ok := m.servers[id]
	var old *client.Client
	var cfg config.ServerConfig
	connected := false
	if ok {
		old, cfg, connected = entry.client, entry.config, entry.connected
	}
	m.mu.RUnlock()
	if !ok {
		return mcperrors.NotFound("server", id)
	}
	if connected {
		return nil
	}

	c, err := m.newClient(id, cfg)
	if err != nil {
		return err
	}
	m.mu.Lock()
	if entry.client != old {
		m.mu.Unlock()
		return mcperrors.Conflict("server", id)
	}
	entry.client = c
	m.mu.Unlock()

	_ = old.Disconnect()
	return m.connect(ctx, entry, c)
}

func (m *Manager) newClient(id string, cfg config.ServerConfig) (*client.Client, error) {
	t, err := m.opts.factory(id, cfg)
	if err != nil {
		return nil, err
	}
	t = transport.Chain(t, transport.WithObservability(transport.ObservabilityConfig{
		Server:      id,
		Metrics:     m.opts.metrics,
		Logger:      m.opts.logger,
		LogMessages: m.opts.logMessages,
	}))

	s := m.opts.settings
	opts := []client.Option{
		client.WithServerID(id),
		client.WithName(s.ClientName),
		client.WithRequestTimeout(s.RequestTimeout),
		client.WithRetryPolicy(s.RetryPolicy()),
		client.WithConnectRetryPolicy(s.RetryPolicy()),
		client.WithLogger(m.opts.logger),
		client.WithMetrics(m.opts.metrics),
		client.WithTracer(m.opts.tracer),
	}
	c := client.New(t, append(opts, m.opts.clientOptions...)...)
	if m.opts.sampling != nil {
		c.OnSamplingRequest(m.opts.sampling)
	}
	c.OnClose(func(err error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if entry, ok := m.servers[id]; ok && entry.client == c && entry.connected {
			entry.connected = false
			m.logger.Warn("Server connection closed", logging.Server(id), logging.ErrorField(err))
		}
	})
	return c, nil
}

func (m *Manager) connect(ctx context.Context, entry *managed, c *client.Client) error {
	if err := c.Connect(ctx); err != nil {
		m.logger.Error("Failed to connect to server", logging.Server(entry.id), logging.ErrorField(err))
		return err
	}

	m.mu.Lock()
	current := entry.client == c && c.Connected()
	if current {
		entry.connected = true
	}
	m.mu.Unlock()
	if !current {
		return mcperrors.ConnectionClosed(string(entry.config.TransportType()))
	}

	m.logger.Info("Connected to server",
		logging.Server(entry.id),
		logging.String("transport", string(entry.config.TransportType())),
	)
	return nil
}

// RemoveServer disconnects a server and forgets it
func (m *Manager) RemoveServer(ctx context.Context, id string) error {
	m.mu.Lock()
	entry, ok := m.servers[id]
	if ok {
		delete(m.servers, id)
		entry.connected = false
	}
	m.mu.Unlock()
	if !ok {
		return mcperrors.NotFound("server", id)
	}

	if err := disconnect(ctx, entry.client); err != nil {
		m.logger.Warn("Error disconnecting removed server", logging.Server(id), logging.ErrorField(err))
	}
	m.logger.Info("Removed server", logging.Server(id))
	return nil
}

// GetClient returns the client of a managed server
func (m *Manager) GetClient(id string) (*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.servers[id]
	if !ok {
		return nil, mcperrors.NotFound("server", id)
	}
	return entry.client, nil
}

// Servers returns the managed server ids in sorted order
func (m *Manager) Servers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return sortedKeys(m.servers)
}

// ServerConfig returns the configuration a server was added with
func (m *Manager) ServerConfig(id string) (config.ServerConfig, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.servers[id]
	if !ok {
		return config.ServerConfig{}, false
	}
	return entry.config, true
}

// CallTool invokes a tool on the named server
func (m *Manager) CallTool(ctx context.Context, serverID, tool string, args interface{}) (*protocol.CallToolResult, error) {
	c, err := m.GetClient(serverID)
	if err != nil {
		return nil, err
	}
	return c.CallTool(ctx, tool, args)
}

// CallQualifiedTool invokes a tool named "server:tool"
func (m *Manager) CallQualifiedTool(ctx context.Context, qualified string, args interface{}) (*protocol.CallToolResult, error) {
	serverID, tool, err := SplitQualifiedName(qualified)
	if err != nil {
		return nil, err
	}
	return m.CallTool(ctx, serverID, tool, args)
}

// QualifiedName joins a server id and a tool name
func QualifiedName(serverID, tool string) string {
	return serverID + QualifiedNameSeparator + tool
}

// SplitQualifiedName splits on the first separator; the tool part may itself contain one
func SplitQualifiedName(qualified string) (serverID, tool string, err error) {
	serverID, tool, ok := strings.Cut(qualified, QualifiedNameSeparator)
	if !ok || serverID == "" || tool == "" {
		return "", "", mcperrors.ValidationError("qualified tool name must look like server:tool", map[string]interface{}{
			"name": qualified,
		})
	}
	return serverID, tool, nil
}

// DisconnectAll closes every managed connection. Failures are logged, and the
// wait ends early when ctx is done. Entries stay registered as not connected.
func (m *Manager) DisconnectAll(ctx context.Context) {
	m.mu.Lock()
	entries := make([]*managed, 0, len(m.servers))
	for _, id := range sortedKeys(m.servers) {
		entry := m.servers[id]
		entry.connected = false
		entries = append(entries, entry)
	}
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, entry := range entries {
		wg.Add(1)
		go func(entry *managed) {
			defer wg.Done()
			if err := disconnect(ctx, entry.client); err != nil {
				m.logger.Warn("Error disconnecting server", logging.Server(entry.id), logging.ErrorField(err))
			}
		}(entry)
	}
	wg.Wait()
	m.logger.Info("Disconnected all servers", logging.Int("servers", len(entries)))
}

// GetConnectionStatus reports every managed server, sorted by id
func (m *Manager) GetConnectionStatus() []ConnectionStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	statuses := make([]ConnectionStatus, 0, len(m.servers))
	for _, id := range sortedKeys(m.servers) {
		entry := m.servers[id]
		statuses = append(statuses, ConnectionStatus{
			ID:        id,
			Connected: entry.connected,
			State:     entry.client.State().String(),
		})
	}
	return statuses
}

// disconnect closes c, giving up on the wait when ctx is done
func disconnect(ctx context.Context, c *client.Client) error {
	done := make(chan error, 1)
	go func() {
		done <- c.Disconnect()
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return mcperrors.OperationCancelled("disconnect", ctx.Err())
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
