package observability

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Request outcomes used for the status label
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusTimeout = "timeout"
)

// MetricsConfig configures the Prometheus collectors
type MetricsConfig struct {
	// Namespace prefixes every metric (default: mcp_client)
	Namespace string
	Subsystem string
	// Buckets for request latency, in seconds
	Buckets []float64
	// Labels added to every metric
	ConstLabels prometheus.Labels
	// Registerer receives the collectors (default: prometheus.DefaultRegisterer)
	Registerer prometheus.Registerer
}

// Metrics records client activity. A nil *Metrics is valid and records nothing,
// so instrumented code never has to check.
type Metrics struct {
	requests    *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	retries     *prometheus.CounterVec
	inflight    *prometheus.GaugeVec
	connections *prometheus.GaugeVec
	messages    *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors. Registering twice against
// the same registerer reuses the collectors already present.
func NewMetrics(config MetricsConfig) (*Metrics, error) {
	if config.Namespace == "" {
		config.Namespace = "mcp_client"
	}
	if config.Buckets == nil {
		config.Buckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10, 30}
	}
	if config.Registerer == nil {
		config.Registerer = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "requests_total",
				Help:        "Total number of requests sent to MCP servers",
				ConstLabels: config.ConstLabels,
			},
			[]string{"server", "method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "request_duration_seconds",
				Help:        "Time from sending a request to settling it",
				Buckets:     config.Buckets,
				ConstLabels: config.ConstLabels,
			},
			[]string{"server", "method"},
		),
		retries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "retries_total",
				Help:        "Total number of retried attempts",
				ConstLabels: config.ConstLabels,
			},
			[]string{"server", "method"},
		),
		inflight: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "inflight_requests",
				Help:        "Requests awaiting a response",
				ConstLabels: config.ConstLabels,
			},
			[]string{"server"},
		),
		connections: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "connections",
				Help:        "Clients by connection state",
				ConstLabels: config.ConstLabels,
			},
			[]string{"state"},
		),
		messages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   config.Namespace,
				Subsystem:   config.Subsystem,
				Name:        "transport_messages_total",
				Help:        "JSON-RPC messages carried by transports",
				ConstLabels: config.ConstLabels,
			},
			[]string{"server", "direction", "kind"},
		),
	}

	if err := m.register(config.Registerer); err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	return m, nil
}

func (m *Metrics) register(r prometheus.Registerer) error {
	register := func(c prometheus.Collector) (prometheus.Collector, error) {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				return are.ExistingCollector, nil
			}
			return nil, err
		}
		return c, nil
	}

	var err error
	var c prometheus.Collector
	if c, err = register(m.requests); err != nil {
		return err
	}
	m.requests = c.(*prometheus.CounterVec)
	if c, err = register(m.duration); err != nil {
		return err
	}
	m.duration = c.(*prometheus.HistogramVec)
	if c, err = register(m.retries); err != nil {
		return err
	}
	m.retries = c.(*prometheus.CounterVec)
	if c, err = register(m.inflight); err != nil {
		return err
	}
	m.inflight = c.(*prometheus.GaugeVec)
	if c, err = register(m.connections); err != nil {
		return err
	}
	m.connections = c.(*prometheus.GaugeVec)
	if c, err = register(m.messages); err != nil {
		return err
	}
	m.messages = c.(*prometheus.CounterVec)
	return nil
}

// RecordRequest records one settled request
func (m *Metrics) RecordRequest(server, method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(server, method, status).Inc()
	m.duration.WithLabelValues(server, method).Observe(duration.Seconds())
}

// RecordRetry counts a retried attempt
func (m *Metrics) RecordRetry(server, method string) {
	if m == nil {
		return
	}
	m.retries.WithLabelValues(server, method).Inc()
}

// RequestStarted increments the in-flight gauge; call RequestFinished when settled
func (m *Metrics) RequestStarted(server string) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(server).Inc()
}

// RequestFinished decrements the in-flight gauge
func (m *Metrics) RequestFinished(server string) {
	if m == nil {
		return
	}
	m.inflight.WithLabelValues(server).Dec()
}

// ConnectionStateChanged moves one client from one state to another; an empty
// from records a new client
func (m *Metrics) ConnectionStateChanged(from, to string) {
	if m == nil {
		return
	}
	if from != "" {
		m.connections.WithLabelValues(from).Dec()
	}
	if to != "" {
		m.connections.WithLabelValues(to).Inc()
	}
}

// RecordMessage counts a message in the given direction ("in" or "out")
func (m *Metrics) RecordMessage(server, direction, kind string) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(server, direction, kind).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
