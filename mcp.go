package mcp

import (
	"github.com/ajitpratap0/mcp-client-go/pkg/client"
	"github.com/ajitpratap0/mcp-client-go/pkg/config"
	"github.com/ajitpratap0/mcp-client-go/pkg/manager"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

// Version represents the current version of the library
const Version = "1.0.0"

// ProtocolRevision is the MCP revision requested during the handshake
const ProtocolRevision = protocol.ProtocolRevision

// These exports provide direct access to the core components
var (
	// NewClient creates a client over a transport
	NewClient = client.New

	// NewManager creates an empty multi-server manager
	NewManager = manager.New

	// NewTransport creates a transport from configuration
	NewTransport = transport.New

	// NewStdioTransport spawns a server subprocess and speaks over its standard streams
	NewStdioTransport = transport.NewStdioTransport

	// NewSSETransport connects to a server-sent events endpoint
	NewSSETransport = transport.NewSSETransport

	// NewHTTPTransport posts each message to an HTTP endpoint
	NewHTTPTransport = transport.NewHTTPTransport

	// LoadConfig reads a {"mcpServers": {...}} file
	LoadConfig = config.Load

	// SettingsFromEnv reads MCP_* environment settings
	SettingsFromEnv = config.FromEnv
)

// Client options
var (
	WithClientName       = client.WithName
	WithClientVersion    = client.WithVersion
	WithCapabilities     = client.WithCapabilities
	WithRequestTimeout   = client.WithRequestTimeout
	WithRetryPolicy      = client.WithRetryPolicy
	WithSchemaValidation = client.WithSchemaValidation
	WithClientLogger     = client.WithLogger
)

// Manager options
var (
	WithSettings         = manager.WithSettings
	WithManagerLogger    = manager.WithLogger
	WithContinueOnError  = manager.WithContinueOnError
	WithTransportFactory = manager.WithTransportFactory
	WithSamplingHandler  = manager.WithSamplingHandler
)
