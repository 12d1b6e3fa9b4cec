package errors

import (
	"fmt"
	"net/url"
	"time"
)

// ConnectionErrorData contains structured data for connection-related errors
type ConnectionErrorData struct {
	Transport  string        `json:"transport"`
	Endpoint   string        `json:"endpoint,omitempty"`
	Operation  string        `json:"operation,omitempty"`
	StatusCode int           `json:"status_code,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	Reason     string        `json:"reason,omitempty"`
}

func reason(cause error) string {
	if cause == nil {
		return ""
	}
	return cause.Error()
}

func withCause(message string, cause error) string {
	if cause == nil {
		return message
	}
	return fmt.Sprintf("%s: %s", message, cause.Error())
}

// endpointHost reduces a URL to its host so credentials in query strings never reach logs
func endpointHost(endpoint string) string {
	if u, err := url.Parse(endpoint); err == nil && u.Host != "" {
		return u.Host
	}
	return endpoint
}

// ConnectionFailed creates an error for channels that could not be established
func ConnectionFailed(transport, endpoint string, cause error) MCPError {
	message := fmt.Sprintf("failed to connect via %s", transport)
	if endpoint != "" {
		message = fmt.Sprintf("failed to connect to %s via %s", endpointHost(endpoint), transport)
	}

	return WrapError(
		cause,
		CodeConnectionFailed,
		withCause(message, cause),
		CategoryTransport,
		SeverityCritical,
	).WithData(&ConnectionErrorData{
		Transport: transport,
		Endpoint:  endpointHost(endpoint),
		Reason:    reason(cause),
	})
}

// ConnectionLost creates an error for channels that died while in use
func ConnectionLost(transport, endpoint string, cause error) MCPError {
	message := fmt.Sprintf("lost connection via %s", transport)
	if endpoint != "" {
		message = fmt.Sprintf("lost connection to %s via %s", endpointHost(endpoint), transport)
	}

	return WrapError(
		cause,
		CodeConnectionLost,
		withCause(message, cause),
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Transport: transport,
		Endpoint:  endpointHost(endpoint),
		Reason:    reason(cause),
	})
}

// ConnectionTimeout creates an error for connection attempts that ran out of time
func ConnectionTimeout(transport, endpoint string, timeout time.Duration) MCPError {
	message := fmt.Sprintf("connection timeout via %s after %s", transport, timeout)
	return NewError(
		CodeConnectionTimeout,
		message,
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Transport: transport,
		Endpoint:  endpointHost(endpoint),
		Timeout:   timeout,
	})
}

// ConnectionClosed is returned for requests that were pending, or issued, after the connection closed
func ConnectionClosed(transport string) MCPError {
	return NewError(
		CodeConnectionClosed,
		fmt.Sprintf("%s connection closed", transport),
		CategoryTransport,
		SeverityWarning,
	).WithData(&ConnectionErrorData{Transport: transport})
}

// NotConnected is returned for operations issued before the handshake completed
func NotConnected(operation, state string) MCPError {
	return NewError(
		CodeNotConnected,
		fmt.Sprintf("cannot %s: client is %s", operation, state),
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{Operation: operation, Reason: state})
}

// HTTPTransportError creates an error for failed HTTP exchanges
func HTTPTransportError(operation, endpoint string, statusCode int, cause error) MCPError {
	message := fmt.Sprintf("HTTP %s failed", operation)
	if statusCode > 0 {
		message = fmt.Sprintf("HTTP %s failed with status %d", operation, statusCode)
	}

	return WrapError(
		cause,
		CodeTransportError,
		withCause(message, cause),
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Transport:  "http",
		Endpoint:   endpointHost(endpoint),
		Operation:  operation,
		StatusCode: statusCode,
		Reason:     reason(cause),
	})
}

// StdioTransportError creates an error for failed subprocess stream operations
func StdioTransportError(operation string, cause error) MCPError {
	return WrapError(
		cause,
		CodeTransportError,
		withCause(fmt.Sprintf("stdio %s failed", operation), cause),
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{
		Transport: "stdio",
		Operation: operation,
		Reason:    reason(cause),
	})
}

// MessageSendError creates an error for messages that could not be delivered
func MessageSendError(transport, method string, cause error) MCPError {
	message := fmt.Sprintf("failed to send message via %s", transport)
	if method != "" {
		message = fmt.Sprintf("failed to send %s via %s", method, transport)
	}
	return WrapError(
		cause,
		CodeTransportError,
		withCause(message, cause),
		CategoryTransport,
		SeverityError,
	).WithData(&ConnectionErrorData{Transport: transport, Operation: method, Reason: reason(cause)})
}
