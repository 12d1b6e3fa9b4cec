package transport

import (
	"context"
	"time"

	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/observability"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// ObservabilityConfig configures message accounting for one server's transport
type ObservabilityConfig struct {
	// Server labels metrics and log entries
	Server  string
	Metrics *observability.Metrics
	Logger  logging.Logger
	// LogMessages logs every message at debug level
	LogMessages bool
}

// WithObservability counts and optionally logs every message the transport carries
func WithObservability(config ObservabilityConfig) Middleware {
	if config.Logger == nil {
		config.Logger = logging.Nop()
	}
	logger := config.Logger.WithFields(logging.Server(config.Server), logging.Component("transport"))

	return func(next Transport) Transport {
		ot := &observabilityTransport{
			middlewareTransport: middlewareTransport{next: next},
			config:              config,
			logger:              logger,
		}
		next.OnMessage(ot.received)
		next.OnError(func(err error) {
			logger.WithError(err).Warn("Transport fault")
		})
		return ot
	}
}

type observabilityTransport struct {
	middlewareTransport
	config ObservabilityConfig
	logger logging.Logger
}

func (ot *observabilityTransport) Connect(ctx context.Context) error {
	start := time.Now()
	err := ot.next.Connect(ctx)
	if err != nil {
		ot.logger.WithError(err).Warn("Transport connect failed", logging.Duration("duration", time.Since(start)))
		return err
	}
	ot.logger.Debug("Transport connected", logging.Duration("duration", time.Since(start)))
	return nil
}

func (ot *observabilityTransport) Send(ctx context.Context, msg *protocol.Message) error {
	kind := messageKind(msg)
	err := ot.next.Send(ctx, msg)
	if err != nil {
		ot.logger.WithContext(ctx).WithError(err).Debug("Send failed", logging.String("method", msg.Method))
		return err
	}
	ot.config.Metrics.RecordMessage(ot.config.Server, "out", kind)
	if ot.config.LogMessages {
		ot.logger.WithContext(ctx).Debug("Message sent",
			logging.String("kind", kind),
			logging.String("method", msg.Method),
			logging.String("id", msg.ID.String()),
		)
	}
	return nil
}

func (ot *observabilityTransport) received(msg *protocol.Message) {
	kind := messageKind(msg)
	ot.config.Metrics.RecordMessage(ot.config.Server, "in", kind)
	if ot.config.LogMessages {
		ot.logger.Debug("Message received",
			logging.String("kind", kind),
			logging.String("method", msg.Method),
			logging.String("id", msg.ID.String()),
		)
	}
}

func messageKind(msg *protocol.Message) string {
	switch {
	case msg.IsRequest():
		return "request"
	case msg.IsNotification():
		return "notification"
	case msg.IsResponse():
		return "response"
	}
	return "invalid"
}
