package logging

import (
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the correlation id of an outbound HTTP request
const RequestIDHeader = "X-Request-ID"

// RoundTripper logs every HTTP exchange made by the network transports and
// stamps it with a request id taken from the context or freshly generated.
type RoundTripper struct {
	next   http.RoundTripper
	logger Logger
}

// NewRoundTripper wraps next (http.DefaultTransport when nil)
func NewRoundTripper(logger Logger, next http.RoundTripper) *RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return &RoundTripper{next: next, logger: logger}
}

// RoundTrip implements http.RoundTripper
func (rt *RoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	requestID := req.Header.Get(RequestIDHeader)
	if requestID == "" {
		requestID = RequestIDFromContext(req.Context())
	}
	if requestID == "" {
		requestID = uuid.New().String()
	}

	// RoundTrippers must not modify the caller's request
	req = req.Clone(ContextWithRequestID(req.Context(), requestID))
	req.Header.Set(RequestIDHeader, requestID)

	reqLogger := rt.logger.WithFields(
		String("request_id", requestID),
		String("http_method", req.Method),
		String("url", req.URL.Redacted()),
	)

	start := time.Now()
	resp, err := rt.next.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		reqLogger.WithError(err).Debug("HTTP request failed", Duration("duration", duration))
		return nil, err
	}

	reqLogger.Debug("HTTP request completed",
		Int("status", resp.StatusCode),
		Duration("duration", duration),
	)
	return resp, nil
}
