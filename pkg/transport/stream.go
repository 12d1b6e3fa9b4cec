package transport

import (
	"io"
	"net/http"
	"runtime/debug"
	"strings"

	"github.com/elnormous/contenttype"
	"github.com/tmaxmax/go-sse"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// SessionHeader carries the streamable HTTP session id
const SessionHeader = "Mcp-Session-Id"

var (
	jsonMediaType        = contenttype.NewMediaType("application/json")
	eventStreamMediaType = contenttype.NewMediaType("text/event-stream")
)

// responseMediaType parses the Content-Type of resp, ignoring parameters
func responseMediaType(resp *http.Response) contenttype.MediaType {
	return contenttype.NewMediaType(resp.Header.Get("Content-Type"))
}

func isEventStream(resp *http.Response) bool {
	return responseMediaType(resp).Matches(eventStreamMediaType)
}

func isJSON(resp *http.Response) bool {
	return responseMediaType(resp).Matches(jsonMediaType)
}

func setHeaders(req *http.Request, headers map[string]string) {
	for k, v := range headers {
		req.Header.Set(k, v)
	}
}

// statusError summarizes an unexpected response body for error messages
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	text := strings.TrimSpace(string(body))
	if text == "" {
		return nil
	}
	return &bodyError{text: text}
}

type bodyError struct{ text string }

func (e *bodyError) Error() string { return e.text }

// drain consumes what is left of a body so the connection can be reused
func drain(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, io.LimitReader(body, maxMessageSize))
	_ = body.Close()
}

// deliver hands one message to the subscribers, surviving a panicking handler
func deliver(e *events, logger logging.Logger, msg *protocol.Message) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("Panic in message handler",
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
		}
	}()
	e.emitMessage(msg)
}

// eventHandler is called for every event that is not a JSON-RPC message
type eventHandler func(ev sse.Event) bool

// readEvents decodes an event stream. Events typed "message", or untyped,
// carry one JSON-RPC message (or batch) each; other events go to other,
// which may stop the stream by returning false. The returned error is the
// one that ended the stream, nil on a clean EOF.
func readEvents(body io.Reader, e *events, logger logging.Logger, transport string, other eventHandler) error {
	cfg := &sse.ReadConfig{MaxEventSize: maxMessageSize}
	for ev, err := range sse.Read(body, cfg) {
		if err != nil {
			return err
		}

		switch ev.Type {
		case "", "message":
			if strings.TrimSpace(ev.Data) == "" {
				continue
			}
			msgs, err := protocol.ParseMessages([]byte(ev.Data))
			if err != nil {
				logger.Warn("Discarding malformed event", logging.ErrorField(err))
				e.emitError(mcperrors.ProtocolError("malformed " + transport + " event: " + err.Error()))
				continue
			}
			for _, msg := range msgs {
				deliver(e, logger, msg)
			}
		default:
			if other == nil {
				logger.Debug("Ignoring event", logging.String("event", ev.Type))
				continue
			}
			if !other(ev) {
				return nil
			}
		}
	}
	return nil
}
