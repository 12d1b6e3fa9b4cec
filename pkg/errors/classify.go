package errors

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// Classify maps an error object received on the wire onto the taxonomy.
// The category depends only on the code; unknown codes land in CategoryInternal.
func Classify(wire *protocol.Error) MCPError {
	if wire == nil {
		return nil
	}

	code := int(wire.Code)
	err := &baseError{
		code:     code,
		message:  wire.Message,
		category: GetErrorCodeCategory(code),
		severity: GetErrorCodeSeverity(code),
		cause:    wire,
		context:  &Context{Timestamp: time.Now(), Component: "server"},
	}

	if len(wire.Data) > 0 {
		var data interface{}
		if json.Unmarshal(wire.Data, &data) == nil {
			err.data = data
		} else {
			err.data = string(wire.Data)
		}
	}

	return err
}

// ToWireError converts a local error into an error object suitable for a response
func ToWireError(err error) *protocol.Error {
	if err == nil {
		return nil
	}

	var wire *protocol.Error
	if stderrors.As(err, &wire) {
		return wire
	}

	if mcpErr, ok := AsMCPError(err); ok {
		out := &protocol.Error{Code: protocol.ErrorCode(mcpErr.Code()), Message: mcpErr.Error()}
		if mcpErr.Data() != nil {
			if raw, mErr := json.Marshal(mcpErr.Data()); mErr == nil {
				out.Data = raw
			}
		}
		return out
	}

	return &protocol.Error{Code: protocol.InternalError, Message: err.Error()}
}

// IsConnection reports whether err is a ConnectionError
func IsConnection(err error) bool { return IsCategory(err, CategoryTransport) }

// IsTimeout reports whether err is a TimeoutError
func IsTimeout(err error) bool { return IsCategory(err, CategoryTimeout) }

// IsProtocol reports whether err is a ProtocolError
func IsProtocol(err error) bool { return IsCategory(err, CategoryProtocol) }

// IsAuthentication reports whether err is an AuthenticationError
func IsAuthentication(err error) bool { return IsCategory(err, CategoryAuth) }

// IsAuthorization reports whether err is an AuthorizationError
func IsAuthorization(err error) bool { return IsCategory(err, CategoryAuthorization) }

// IsNotFound reports whether err is a NotFoundError
func IsNotFound(err error) bool { return IsCategory(err, CategoryNotFound) }

// IsValidation reports whether err is a ValidationError
func IsValidation(err error) bool { return IsCategory(err, CategoryValidation) }

// IsCancelled reports whether err was caused by caller cancellation
func IsCancelled(err error) bool { return IsCategory(err, CategoryCancelled) }

// IsRetryExhausted reports whether err is a RetryExhaustedError
func IsRetryExhausted(err error) bool {
	var exhausted *RetryExhaustedError
	return stderrors.As(err, &exhausted)
}

// IsRetryable reports whether another attempt could succeed.
// Errors outside the taxonomy are treated as transient.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if IsRetryExhausted(err) {
		return false
	}
	mcpErr, ok := AsMCPError(err)
	if !ok {
		return true
	}
	switch mcpErr.Category() {
	case CategoryAuth, CategoryAuthorization, CategoryValidation, CategoryNotFound, CategoryCancelled:
		return false
	}
	return true
}
