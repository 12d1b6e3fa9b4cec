package errors

import (
	"fmt"
	"time"
)

// TimeoutErrorData describes an expired deadline
type TimeoutErrorData struct {
	Operation string        `json:"operation"`
	Timeout   time.Duration `json:"timeout"`
}

// OperationTimeout creates an error for operations that exceeded their deadline
func OperationTimeout(operation string, timeout time.Duration) MCPError {
	return NewError(
		CodeOperationTimeout,
		fmt.Sprintf("%s timed out after %s", operation, timeout),
		CategoryTimeout,
		SeverityError,
	).WithData(&TimeoutErrorData{Operation: operation, Timeout: timeout})
}

// ResponseTimeout creates an error for requests whose response did not arrive in time
func ResponseTimeout(method, requestID string, timeout time.Duration) MCPError {
	return OperationTimeout(method, timeout).WithContext(&Context{
		RequestID: requestID,
		Method:    method,
		Timestamp: time.Now(),
		Component: "client",
	})
}

// OperationCancelled creates an error for operations abandoned by the caller
func OperationCancelled(operation string, cause error) MCPError {
	return WrapError(
		cause,
		CodeOperationCancelled,
		withCause(fmt.Sprintf("%s cancelled", operation), cause),
		CategoryCancelled,
		SeverityInfo,
	)
}

// ProtocolError creates an error for malformed or out-of-sequence messages
func ProtocolError(reason string) MCPError {
	return NewError(CodeProtocolError, "protocol error", CategoryProtocol, SeverityError).WithDetail(reason)
}

// VersionMismatch creates an error for an incompatible protocol revision
func VersionMismatch(expected, actual string) MCPError {
	return NewError(
		CodeVersionMismatch,
		fmt.Sprintf("protocol version mismatch: expected %s, got %s", expected, actual),
		CategoryProtocol,
		SeverityError,
	)
}

// Unauthorized creates an authentication error
func Unauthorized(reason string) MCPError {
	err := NewError(CodeUnauthorized, "unauthorized", CategoryAuth, SeverityError)
	if reason != "" {
		err = err.WithDetail(reason)
	}
	return err
}

// InsufficientPermissions creates an authorization error
func InsufficientPermissions(required []string, reason string) MCPError {
	err := NewError(CodeInsufficientPerms, "insufficient permissions", CategoryAuthorization, SeverityError).
		WithData(map[string]interface{}{"required": required})
	if reason != "" {
		err = err.WithDetail(reason)
	}
	return err
}

// NotFound creates an error for an unknown server, tool, resource or method
func NotFound(kind, name string) MCPError {
	return NewError(
		CodeResourceNotFound,
		fmt.Sprintf("%s not found: %s", kind, name),
		CategoryNotFound,
		SeverityError,
	).WithData(map[string]string{"kind": kind, "name": name})
}

// Conflict creates an error for names that are already taken
func Conflict(kind, name string) MCPError {
	return NewError(
		CodeResourceConflict,
		fmt.Sprintf("%s already exists: %s", kind, name),
		CategoryValidation,
		SeverityError,
	)
}

// ValidationError creates a validation error carrying structured detail
func ValidationError(message string, data interface{}) MCPError {
	err := NewError(CodeValidationError, message, CategoryValidation, SeverityError)
	if data != nil {
		err = err.WithData(data)
	}
	return err
}

// InvalidParameter creates an error for a parameter with an unusable value
func InvalidParameter(param string, value interface{}, expected string) MCPError {
	return NewError(
		CodeInvalidParameter,
		fmt.Sprintf("invalid value for %s: expected %s", param, expected),
		CategoryValidation,
		SeverityError,
	).WithData(map[string]interface{}{"parameter": param, "value": value, "expected": expected})
}

// RetryExhaustedError is returned when every attempt allowed by a retry policy failed
type RetryExhaustedError struct {
	MCPError
	Attempts int
	Last     error
}

// NewRetryExhausted wraps the last failure of a retried operation
func NewRetryExhausted(attempts int, last error) *RetryExhaustedError {
	return &RetryExhaustedError{
		MCPError: WrapError(
			last,
			CodeRetryExhausted,
			withCause(fmt.Sprintf("giving up after %d attempts", attempts), last),
			CategoryRetryExhausted,
			SeverityError,
		).WithData(map[string]interface{}{"attempts": attempts}),
		Attempts: attempts,
		Last:     last,
	}
}

// Unwrap returns the last underlying failure
func (e *RetryExhaustedError) Unwrap() error {
	return e.Last
}
