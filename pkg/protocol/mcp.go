package protocol

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	// Current protocol revision
	ProtocolRevision = "2025-03-26"

	// Methods for lifecycle management
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"

	// Methods for server features
	MethodListTools              = "tools/list"
	MethodCallTool               = "tools/call"
	MethodListResources          = "resources/list"
	MethodListResourceTemplates  = "resources/templates/list"
	MethodReadResource           = "resources/read"
	MethodSubscribeResource      = "resources/subscribe"
	MethodUnsubscribeResource    = "resources/unsubscribe"
	MethodListPrompts            = "prompts/list"
	MethodGetPrompt              = "prompts/get"
	MethodSetLogLevel            = "logging/setLevel"

	// Server-initiated requests
	MethodCreateMessage = "sampling/createMessage"

	// Notifications from the server
	MethodResourceUpdated      = "notifications/resources/updated"
	MethodResourcesListChanged = "notifications/resources/list_changed"
	MethodToolsListChanged     = "notifications/tools/list_changed"
	MethodPromptsListChanged   = "notifications/prompts/list_changed"
	MethodLogMessage           = "notifications/message"
)

// Capabilities is a fixed set of optional feature flags. It is used for both
// the client and the server side of the handshake.
//
// On the wire each enabled capability is an object ({"tools":{}}). Decoding
// also accepts the flat boolean form ({"tools":true}).
type Capabilities struct {
	Tools     bool
	Resources bool
	Prompts   bool
	Sampling  bool
	Roots     bool
	Logging   bool
}

// ClientCapabilities are advertised by the client in the initialize request
type ClientCapabilities = Capabilities

// ServerCapabilities are reported by the server in the initialize response
type ServerCapabilities = Capabilities

var capabilityNames = []string{"tools", "resources", "prompts", "sampling", "roots", "logging"}

func (c *Capabilities) field(name string) *bool {
	switch name {
	case "tools":
		return &c.Tools
	case "resources":
		return &c.Resources
	case "prompts":
		return &c.Prompts
	case "sampling":
		return &c.Sampling
	case "roots":
		return &c.Roots
	case "logging":
		return &c.Logging
	}
	return nil
}

// Has reports whether the named capability is enabled
func (c Capabilities) Has(name string) bool {
	if p := c.field(name); p != nil {
		return *p
	}
	return false
}

// MarshalJSON implements json.Marshaler
func (c Capabilities) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(capabilityNames))
	for _, name := range capabilityNames {
		if c.Has(name) {
			out[name] = json.RawMessage(`{}`)
		}
	}
	return json.Marshal(out)
}

// UnmarshalJSON implements json.Unmarshaler. Unknown capabilities are ignored.
func (c *Capabilities) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid capabilities: %w", err)
	}
	*c = Capabilities{}
	for name, value := range raw {
		p := c.field(name)
		if p == nil {
			continue
		}
		v := bytes.TrimSpace(value)
		switch {
		case len(v) == 0, bytes.Equal(v, []byte("false")), bytes.Equal(v, []byte("null")):
			*p = false
		case bytes.Equal(v, []byte("true")), len(v) > 0 && v[0] == '{':
			*p = true
		default:
			return fmt.Errorf("invalid value for capability %q: %s", name, v)
		}
	}
	return nil
}

// Implementation identifies a client or server
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams defines the parameters for the initialize request
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult defines the response for the initialize request
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion,omitempty"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      *Implementation    `json:"serverInfo,omitempty"`
	Instructions    string             `json:"instructions,omitempty"`
}

// LogLevel specifies the severity of log messages sent by the server
type LogLevel string

const (
	LogLevelDebug     LogLevel = "debug"
	LogLevelInfo      LogLevel = "info"
	LogLevelNotice    LogLevel = "notice"
	LogLevelWarning   LogLevel = "warning"
	LogLevelError     LogLevel = "error"
	LogLevelCritical  LogLevel = "critical"
	LogLevelAlert     LogLevel = "alert"
	LogLevelEmergency LogLevel = "emergency"
)

// SetLogLevelParams defines parameters for the logging/setLevel request
type SetLogLevelParams struct {
	Level LogLevel `json:"level"`
}

// LogMessageParams defines parameters for the notifications/message notification
type LogMessageParams struct {
	Level  LogLevel        `json:"level"`
	Logger string          `json:"logger,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// PaginatedParams is embedded by list requests that accept a cursor
type PaginatedParams struct {
	Cursor string `json:"cursor,omitempty"`
}

// PaginatedResult is embedded by list results that may continue
type PaginatedResult struct {
	NextCursor string `json:"nextCursor,omitempty"`
}
