package config

import (
	"encoding/json"
	"fmt"
	"os"
	"reflect"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/transport"
)

// ServerConfig describes how to reach one server. A Command selects the stdio
// transport; otherwise URL and Transport select a network transport.
type ServerConfig struct {
	Command  string            `json:"command,omitempty"`
	Args     []string          `json:"args,omitempty"`
	Env      map[string]string `json:"env,omitempty"`
	Cwd      string            `json:"cwd,omitempty"`
	Disabled bool              `json:"disabled,omitempty"`

	// Transport is one of stdio, sse, http or streamable-http
	Transport string            `json:"transport,omitempty"`
	URL       string            `json:"url,omitempty"`
	Headers   map[string]string `json:"headers,omitempty"`
}

// File is the on-disk server configuration
type File struct {
	MCPServers map[string]ServerConfig `json:"mcpServers"`
}

// TransportType resolves the transport this entry uses. An entry with a URL
// and no explicit transport speaks streamable HTTP.
func (c ServerConfig) TransportType() transport.Type {
	if c.Transport != "" {
		return transport.Type(c.Transport)
	}
	if c.Command == "" && c.URL != "" {
		return transport.TypeStreamableHTTP
	}
	return transport.TypeStdio
}

// Validate reports the first problem that would keep the entry from connecting
func (c ServerConfig) Validate() error {
	switch typ := c.TransportType(); typ {
	case transport.TypeStdio:
		if c.Command == "" {
			return mcperrors.ValidationError("stdio server requires a command", map[string]interface{}{"field": "command"})
		}
	case transport.TypeSSE, transport.TypeHTTP, transport.TypeStreamableHTTP:
		if c.URL == "" {
			return mcperrors.ValidationError(string(typ)+" server requires a url", map[string]interface{}{"field": "url"})
		}
	default:
		return mcperrors.InvalidParameter("transport", c.Transport, "stdio, sse, http or streamable-http")
	}
	return nil
}

// Equal reports whether two entries describe the same connection
func (c ServerConfig) Equal(other ServerConfig) bool {
	return reflect.DeepEqual(c.normalized(), other.normalized())
}

func (c ServerConfig) normalized() ServerConfig {
	if len(c.Args) == 0 {
		c.Args = nil
	}
	if len(c.Env) == 0 {
		c.Env = nil
	}
	if len(c.Headers) == 0 {
		c.Headers = nil
	}
	c.Transport = string(c.TransportType())
	return c
}

// TransportConfig maps the entry onto a transport configuration using the
// connection defaults, with the dial timeout taken from settings
func (c ServerConfig) TransportConfig(settings Settings, logger logging.Logger) transport.Config {
	cfg := transport.DefaultConfig(c.TransportType())
	cfg.Command = c.Command
	cfg.Args = c.Args
	cfg.Env = c.Env
	cfg.Dir = c.Cwd
	cfg.Endpoint = c.URL
	cfg.Headers = c.Headers
	if settings.ConnectTimeout > 0 {
		cfg.Connection.Timeout = settings.ConnectTimeout
	}
	cfg.Logger = logger
	return cfg
}

// Parse decodes a server file and validates every enabled entry
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, mcperrors.ValidationError("malformed server configuration: "+err.Error(), nil)
	}
	if f.MCPServers == nil {
		f.MCPServers = make(map[string]ServerConfig)
	}
	for id, server := range f.MCPServers {
		if id == "" {
			return nil, mcperrors.ValidationError("server id must not be empty", nil)
		}
		if server.Disabled {
			continue
		}
		if err := server.Validate(); err != nil {
			return nil, fmt.Errorf("server %q: %w", id, err)
		}
	}
	return &f, nil
}

// Load reads and parses the server file at path
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read server configuration: %w", err)
	}
	return Parse(data)
}
