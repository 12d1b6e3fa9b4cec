package errors

// JSON-RPC 2.0 Standard Error Codes
const (
	// ParseError indicates invalid JSON was received by the server
	CodeParseError int = -32700

	// InvalidRequest indicates the JSON sent is not a valid Request object
	CodeInvalidRequest int = -32600

	// MethodNotFound indicates the method does not exist / is not available
	CodeMethodNotFound int = -32601

	// InvalidParams indicates invalid method parameter(s)
	CodeInvalidParams int = -32602

	// InternalError indicates internal JSON-RPC error
	CodeInternalError int = -32603
)

// MCP error codes. The -32000..-32004 block is what servers commonly send;
// the wider ranges are used for errors raised locally by the client.
const (
	CodeServerError        int = -32000 // Generic server-defined error
	CodeServerUnauthorized int = -32001 // Server rejected the client's credentials
	CodeServerNotFound     int = -32002 // Resource not found (server side)
	CodeServerCancelled    int = -32003 // Request cancelled by the server
	CodeServerForbidden    int = -32004 // Server refused the request

	// Authentication and Authorization Errors (-32100 to -32199)
	CodeUnauthorized      int = -32100 // Client is not authorized
	CodeAuthRequired      int = -32101 // Authentication required
	CodeInvalidToken      int = -32102 // Invalid authentication token
	CodeTokenExpired      int = -32103 // Authentication token expired
	CodeInsufficientPerms int = -32104 // Insufficient permissions

	// Resource Errors (-32200 to -32299)
	CodeResourceNotFound int = -32200 // Requested resource not found
	CodeResourceConflict int = -32202 // Resource conflict (e.g., already exists)

	// Operation Errors (-32300 to -32399)
	CodeOperationCancelled int = -32300 // Operation was cancelled
	CodeOperationTimeout   int = -32301 // Operation timed out
	CodeOperationFailed    int = -32302 // Operation failed
	CodeRetryExhausted     int = -32304 // All retry attempts failed

	// Transport Errors (-32500 to -32599)
	CodeTransportError    int = -32500 // Generic transport error
	CodeConnectionFailed  int = -32501 // Failed to establish connection
	CodeConnectionLost    int = -32502 // Connection lost during operation
	CodeConnectionTimeout int = -32503 // Connection timed out
	CodeNotConnected      int = -32504 // Operation issued before the connection is ready
	CodeConnectionClosed  int = -32505 // Connection closed locally
	CodeCircuitOpen       int = -32506 // Circuit breaker refused the call

	// Validation Errors (-32750 to -32799)
	CodeValidationError  int = -32750 // Generic validation error
	CodeMissingParameter int = -32751 // Required parameter missing
	CodeInvalidParameter int = -32752 // Parameter has invalid value

	// Protocol Errors (-32900 to -32999)
	CodeProtocolError   int = -32900 // Generic protocol error
	CodeVersionMismatch int = -32901 // Protocol version mismatch
	CodeInvalidSequence int = -32902 // Invalid message sequence
)

// ErrorCodeInfo provides human-readable information about error codes
type ErrorCodeInfo struct {
	Code        int
	Name        string
	Description string
	Category    Category
	Severity    Severity
}

// errorCodeRegistry maps error codes to their information
var errorCodeRegistry = map[int]ErrorCodeInfo{
	// JSON-RPC Standard Errors
	CodeParseError:     {CodeParseError, "ParseError", "Invalid JSON was received", CategoryProtocol, SeverityError},
	CodeInvalidRequest: {CodeInvalidRequest, "InvalidRequest", "Invalid Request object", CategoryProtocol, SeverityError},
	CodeMethodNotFound: {CodeMethodNotFound, "MethodNotFound", "Method does not exist", CategoryNotFound, SeverityError},
	CodeInvalidParams:  {CodeInvalidParams, "InvalidParams", "Invalid method parameters", CategoryValidation, SeverityError},
	CodeInternalError:  {CodeInternalError, "InternalError", "Internal JSON-RPC error", CategoryProtocol, SeverityError},

	// Server Errors
	CodeServerError:        {CodeServerError, "ServerError", "Server error", CategoryInternal, SeverityError},
	CodeServerUnauthorized: {CodeServerUnauthorized, "Unauthorized", "Client not authenticated", CategoryAuth, SeverityError},
	CodeServerNotFound:     {CodeServerNotFound, "ResourceNotFound", "Resource not found", CategoryNotFound, SeverityError},
	CodeServerCancelled:    {CodeServerCancelled, "Cancelled", "Request cancelled", CategoryCancelled, SeverityInfo},
	CodeServerForbidden:    {CodeServerForbidden, "Forbidden", "Request not permitted", CategoryAuthorization, SeverityError},

	// Authentication Errors
	CodeUnauthorized:      {CodeUnauthorized, "Unauthorized", "Client not authorized", CategoryAuth, SeverityError},
	CodeAuthRequired:      {CodeAuthRequired, "AuthRequired", "Authentication required", CategoryAuth, SeverityError},
	CodeInvalidToken:      {CodeInvalidToken, "InvalidToken", "Invalid authentication token", CategoryAuth, SeverityError},
	CodeTokenExpired:      {CodeTokenExpired, "TokenExpired", "Authentication token expired", CategoryAuth, SeverityWarning},
	CodeInsufficientPerms: {CodeInsufficientPerms, "InsufficientPermissions", "Insufficient permissions", CategoryAuthorization, SeverityError},

	// Resource Errors
	CodeResourceNotFound: {CodeResourceNotFound, "ResourceNotFound", "Resource not found", CategoryNotFound, SeverityError},
	CodeResourceConflict: {CodeResourceConflict, "ResourceConflict", "Resource conflict", CategoryValidation, SeverityError},

	// Operation Errors
	CodeOperationCancelled: {CodeOperationCancelled, "OperationCancelled", "Operation cancelled", CategoryCancelled, SeverityInfo},
	CodeOperationTimeout:   {CodeOperationTimeout, "OperationTimeout", "Operation timed out", CategoryTimeout, SeverityError},
	CodeOperationFailed:    {CodeOperationFailed, "OperationFailed", "Operation failed", CategoryInternal, SeverityError},
	CodeRetryExhausted:     {CodeRetryExhausted, "RetryExhausted", "Retry attempts exhausted", CategoryRetryExhausted, SeverityError},

	// Transport Errors
	CodeTransportError:    {CodeTransportError, "TransportError", "Transport error", CategoryTransport, SeverityError},
	CodeConnectionFailed:  {CodeConnectionFailed, "ConnectionFailed", "Connection failed", CategoryTransport, SeverityCritical},
	CodeConnectionLost:    {CodeConnectionLost, "ConnectionLost", "Connection lost", CategoryTransport, SeverityError},
	CodeConnectionTimeout: {CodeConnectionTimeout, "ConnectionTimeout", "Connection timeout", CategoryTransport, SeverityError},
	CodeNotConnected:      {CodeNotConnected, "NotConnected", "Not connected", CategoryTransport, SeverityError},
	CodeConnectionClosed:  {CodeConnectionClosed, "ConnectionClosed", "Connection closed", CategoryTransport, SeverityWarning},
	CodeCircuitOpen:       {CodeCircuitOpen, "CircuitOpen", "Circuit breaker open", CategoryTransport, SeverityWarning},

	// Validation Errors
	CodeValidationError:  {CodeValidationError, "ValidationError", "Validation error", CategoryValidation, SeverityError},
	CodeMissingParameter: {CodeMissingParameter, "MissingParameter", "Required parameter missing", CategoryValidation, SeverityError},
	CodeInvalidParameter: {CodeInvalidParameter, "InvalidParameter", "Invalid parameter value", CategoryValidation, SeverityError},

	// Protocol Errors
	CodeProtocolError:   {CodeProtocolError, "ProtocolError", "Protocol error", CategoryProtocol, SeverityError},
	CodeVersionMismatch: {CodeVersionMismatch, "VersionMismatch", "Protocol version mismatch", CategoryProtocol, SeverityError},
	CodeInvalidSequence: {CodeInvalidSequence, "InvalidSequence", "Invalid message sequence", CategoryProtocol, SeverityError},
}

// GetErrorCodeInfo returns information about an error code
func GetErrorCodeInfo(code int) (ErrorCodeInfo, bool) {
	info, exists := errorCodeRegistry[code]
	return info, exists
}

// GetErrorCodeName returns the name of an error code
func GetErrorCodeName(code int) string {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Name
	}
	return "UnknownError"
}

// GetErrorCodeCategory returns the category of an error code.
// Unknown codes map to CategoryInternal, the generic bucket.
func GetErrorCodeCategory(code int) Category {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Category
	}
	return CategoryInternal
}

// GetErrorCodeSeverity returns the severity of an error code
func GetErrorCodeSeverity(code int) Severity {
	if info, exists := errorCodeRegistry[code]; exists {
		return info.Severity
	}
	return SeverityError
}
