package client

import (
	"time"

	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/observability"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/retry"
)

const (
	// DefaultName is the client name sent in the handshake
	DefaultName = "mcp-client-go"
	// DefaultVersion is the client version sent in the handshake
	DefaultVersion = "1.0.0"
	// DefaultRequestTimeout bounds every request
	DefaultRequestTimeout = 30 * time.Second
	// DefaultServerID labels logs and metrics when no id is given
	DefaultServerID = "default"
)

type settings struct {
	name            string
	version         string
	capabilities    protocol.ClientCapabilities
	protocolVersion string
	requestTimeout  time.Duration
	retryPolicy     retry.Policy
	connectPolicy   retry.Policy
	logger          logging.Logger
	metrics         *observability.Metrics
	tracer          *observability.TracingProvider
	serverID        string
	validateSchemas bool
	maxPages        int
	breaker         *retry.Breaker
}

func defaultSettings() settings {
	return settings{
		name:            DefaultName,
		version:         DefaultVersion,
		capabilities:    protocol.ClientCapabilities{Sampling: true},
		protocolVersion: protocol.ProtocolRevision,
		requestTimeout:  DefaultRequestTimeout,
		retryPolicy:     retry.DefaultPolicy(),
		connectPolicy:   retry.DefaultPolicy(),
		logger:          logging.Nop(),
		serverID:        DefaultServerID,
	}
}

// Option configures a Client
type Option func(*settings)

// WithName sets the client name reported to the server
func WithName(name string) Option {
	return func(s *settings) {
		s.name = name
	}
}

// WithVersion sets the client version reported to the server
func WithVersion(version string) Option {
	return func(s *settings) {
		s.version = version
	}
}

// WithCapabilities replaces the advertised client capabilities
func WithCapabilities(caps protocol.ClientCapabilities) Option {
	return func(s *settings) {
		s.capabilities = caps
	}
}

// WithProtocolVersion sets the protocol revision requested in the handshake
func WithProtocolVersion(version string) Option {
	return func(s *settings) {
		s.protocolVersion = version
	}
}

// WithRequestTimeout bounds how long a request waits for its response.
// Zero or a negative value disables the timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(s *settings) {
		s.requestTimeout = d
	}
}

// WithRetryPolicy sets the policy for retried operations such as CallTool
func WithRetryPolicy(p retry.Policy) Option {
	return func(s *settings) {
		s.retryPolicy = p
	}
}

// WithConnectRetryPolicy sets the policy for establishing the transport
func WithConnectRetryPolicy(p retry.Policy) Option {
	return func(s *settings) {
		s.connectPolicy = p
	}
}

// WithLogger sets the logger
func WithLogger(logger logging.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetrics records request and connection metrics
func WithMetrics(m *observability.Metrics) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithTracer creates a span for every request
func WithTracer(tp *observability.TracingProvider) Option {
	return func(s *settings) {
		s.tracer = tp
	}
}

// WithServerID names the server in logs, metrics and spans
func WithServerID(id string) Option {
	return func(s *settings) {
		if id != "" {
			s.serverID = id
		}
	}
}

// WithSchemaValidation checks CallTool arguments against the tool's input
// schema from the last ListTools before sending them
func WithSchemaValidation() Option {
	return func(s *settings) {
		s.validateSchemas = true
	}
}

// WithMaxPages bounds how many pages a listing operation follows
func WithMaxPages(n int) Option {
	return func(s *settings) {
		s.maxPages = n
	}
}

// WithCircuitBreaker stops sending requests to a server that keeps failing
// with retryable errors until the cooldown has passed
func WithCircuitBreaker(cfg retry.BreakerConfig) Option {
	return func(s *settings) {
		s.breaker = retry.NewBreaker(cfg)
	}
}
