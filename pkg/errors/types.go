// Package errors defines the client's error taxonomy.
//
// Every failure surfaced by the transports, the protocol client and the
// manager is an [MCPError] whose [Category] tells the caller what to do next:
// retry, report to the user, or reconnect. Wire-level error objects are
// mapped onto the taxonomy by [Classify].
package errors

import (
	"encoding/json"
	stderrors "errors"
	"time"
)

// Category groups errors by how a caller should react to them
type Category string

const (
	CategoryValidation     Category = "validation"
	CategoryAuth           Category = "auth"
	CategoryAuthorization  Category = "authorization"
	CategoryNotFound       Category = "not_found"
	CategoryTransport      Category = "transport"
	CategoryInternal       Category = "internal"
	CategoryTimeout        Category = "timeout"
	CategoryCancelled      Category = "cancelled"
	CategoryProtocol       Category = "protocol"
	CategoryRetryExhausted Category = "retry_exhausted"
)

// Severity indicates how critical an error is
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityError    Severity = "error"
	SeverityCritical Severity = "critical"
)

// Context records which request, server and component an error came from
type Context struct {
	RequestID string    `json:"request_id,omitempty"`
	Method    string    `json:"method,omitempty"`
	ServerID  string    `json:"server_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Component string    `json:"component,omitempty"`
	Operation string    `json:"operation,omitempty"`
}

// merge returns c with every non-zero field of other applied on top
func (c *Context) merge(other *Context) *Context {
	out := &Context{}
	if c != nil {
		*out = *c
	}
	if other == nil {
		return out
	}
	if other.RequestID != "" {
		out.RequestID = other.RequestID
	}
	if other.Method != "" {
		out.Method = other.Method
	}
	if other.ServerID != "" {
		out.ServerID = other.ServerID
	}
	if !other.Timestamp.IsZero() {
		out.Timestamp = other.Timestamp
	}
	if other.Component != "" {
		out.Component = other.Component
	}
	if other.Operation != "" {
		out.Operation = other.Operation
	}
	return out
}

// MCPError is implemented by every error this module returns.
// The With methods return copies; the receiver is never modified.
type MCPError interface {
	error

	Code() int
	Message() string
	Details() string
	Data() interface{}
	Category() Category
	Severity() Severity
	Context() *Context

	// WithContext fills in the non-empty fields of ctx, keeping the rest
	WithContext(ctx *Context) MCPError
	// WithDetail appends detail to the existing details
	WithDetail(detail string) MCPError
	WithData(data interface{}) MCPError

	Unwrap() error
	ToJSON() map[string]interface{}
}

type baseError struct {
	code     int
	message  string
	details  string
	data     interface{}
	category Category
	severity Severity
	context  *Context
	cause    error
}

func (e *baseError) Error() string {
	if e.details != "" {
		return e.message + ": " + e.details
	}
	return e.message
}

func (e *baseError) Code() int { return e.code }

func (e *baseError) Message() string { return e.message }

func (e *baseError) Details() string { return e.details }

func (e *baseError) Data() interface{} { return e.data }

func (e *baseError) Category() Category { return e.category }

func (e *baseError) Severity() Severity { return e.severity }

func (e *baseError) Context() *Context { return e.context }

func (e *baseError) Unwrap() error { return e.cause }

func (e *baseError) clone() *baseError {
	c := *e
	return &c
}

func (e *baseError) WithContext(ctx *Context) MCPError {
	out := e.clone()
	out.context = e.context.merge(ctx)
	return out
}

func (e *baseError) WithDetail(detail string) MCPError {
	out := e.clone()
	if out.details != "" {
		out.details += "; " + detail
	} else {
		out.details = detail
	}
	return out
}

func (e *baseError) WithData(data interface{}) MCPError {
	out := e.clone()
	out.data = data
	return out
}

// errorJSON is the serialized form used by MarshalJSON and ToJSON
type errorJSON struct {
	Code     int         `json:"code"`
	Message  string      `json:"message"`
	Category Category    `json:"category"`
	Severity Severity    `json:"severity"`
	Details  string      `json:"details,omitempty"`
	Data     interface{} `json:"data,omitempty"`
	Context  *Context    `json:"context,omitempty"`
	Cause    string      `json:"cause,omitempty"`
}

func (e *baseError) wire() errorJSON {
	out := errorJSON{
		Code:     e.code,
		Message:  e.message,
		Category: e.category,
		Severity: e.severity,
		Details:  e.details,
		Data:     e.data,
		Context:  e.context,
	}
	if e.cause != nil {
		out.Cause = e.cause.Error()
	}
	return out
}

// MarshalJSON implements json.Marshaler
func (e *baseError) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.wire())
}

// ToJSON returns the serialized form as a map, for loggers that take one
func (e *baseError) ToJSON() map[string]interface{} {
	w := e.wire()
	out := map[string]interface{}{
		"code":     w.Code,
		"message":  w.Message,
		"category": string(w.Category),
		"severity": string(w.Severity),
	}
	if w.Details != "" {
		out["details"] = w.Details
	}
	if w.Data != nil {
		out["data"] = w.Data
	}
	if w.Context != nil {
		out["context"] = w.Context
	}
	if w.Cause != "" {
		out["cause"] = w.Cause
	}
	return out
}

// NewError creates an MCPError stamped with the current time
func NewError(code int, message string, category Category, severity Severity) MCPError {
	return &baseError{
		code:     code,
		message:  message,
		category: category,
		severity: severity,
		context:  &Context{Timestamp: time.Now()},
	}
}

// WrapError is NewError with err as the cause
func WrapError(err error, code int, message string, category Category, severity Severity) MCPError {
	e := NewError(code, message, category, severity).(*baseError)
	e.cause = err
	return e
}

// AsMCPError finds the first MCPError in err's chain
func AsMCPError(err error) (MCPError, bool) {
	if err == nil {
		return nil, false
	}
	var mcpErr MCPError
	if stderrors.As(err, &mcpErr) {
		return mcpErr, true
	}
	return nil, false
}

// IsMCPError reports whether err's chain holds an MCPError
func IsMCPError(err error) bool {
	_, ok := AsMCPError(err)
	return ok
}

// IsCategory checks the category of the outermost MCPError in the chain
func IsCategory(err error, category Category) bool {
	mcpErr, ok := AsMCPError(err)
	return ok && mcpErr.Category() == category
}

// IsCode checks the code of the outermost MCPError in the chain
func IsCode(err error, code int) bool {
	mcpErr, ok := AsMCPError(err)
	return ok && mcpErr.Code() == code
}
