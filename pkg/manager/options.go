package manager

import (
	"github.com/ajitpratap0/mcp-client-go/pkg/client"
	"github.com/ajitpratap0/mcp-client-go/pkg/config"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/observability"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

// TransportFactory builds the transport for one configured server
type TransportFactory func(id string, cfg config.ServerConfig) (transport.Transport, error)

type options struct {
	settings        config.Settings
	logger          logging.Logger
	metrics         *observability.Metrics
	tracer          *observability.TracingProvider
	factory         TransportFactory
	continueOnError bool
	sampling        client.SamplingHandler
	logMessages     bool
	clientOptions   []client.Option
}

// Option configures a Manager
type Option func(*options)

// WithSettings replaces the default settings, typically with config.FromEnv
func WithSettings(s config.Settings) Option {
	return func(o *options) {
		o.settings = s
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records client and transport metrics for every server
func WithMetrics(m *observability.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

func WithTracer(tp *observability.TracingProvider) Option {
	return func(o *options) {
		o.tracer = tp
	}
}

// WithTransportFactory replaces the config-driven transport construction
func WithTransportFactory(f TransportFactory) Option {
	return func(o *options) {
		if f != nil {
			o.factory = f
		}
	}
}

// WithContinueOnError makes LoadFromObject try every server and report the
// failures together instead of stopping at the first one
func WithContinueOnError() Option {
	return func(o *options) {
		o.continueOnError = true
	}
}

// WithSamplingHandler answers sampling requests from any managed server
func WithSamplingHandler(h client.SamplingHandler) Option {
	return func(o *options) {
		o.sampling = h
	}
}

// WithMessageLogging logs every message exchanged with every server at debug level
func WithMessageLogging() Option {
	return func(o *options) {
		o.logMessages = true
	}
}

// WithClientOptions appends options to every client the manager creates.
// They are applied after the manager's own, so they win.
func WithClientOptions(opts ...client.Option) Option {
	return func(o *options) {
		o.clientOptions = append(o.clientOptions, opts...)
	}
}
