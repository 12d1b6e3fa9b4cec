package config

import (
	"errors"
	"time"

	"github.com/joeshaw/envdecode"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/retry"
)

// Settings are the process-wide knobs shared by every managed client.
// Defaults come from the struct tags when a variable is unset.
type Settings struct {
	// ENV: MCP_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"MCP_REQUEST_TIMEOUT,default=30s"`
	// ENV: MCP_CONNECT_TIMEOUT
	ConnectTimeout time.Duration `env:"MCP_CONNECT_TIMEOUT,default=30s"`
	// ENV: MCP_MAX_RETRIES
	MaxRetries int `env:"MCP_MAX_RETRIES,default=3"`
	// ENV: MCP_RETRY_INITIAL_DELAY
	RetryInitialDelay time.Duration `env:"MCP_RETRY_INITIAL_DELAY,default=1s"`
	// ENV: MCP_RETRY_MAX_DELAY
	RetryMaxDelay time.Duration `env:"MCP_RETRY_MAX_DELAY,default=30s"`
	// MaxConcurrency bounds the number of servers queried at once by aggregate listings.
	// ENV: MCP_MAX_CONCURRENCY
	MaxConcurrency int `env:"MCP_MAX_CONCURRENCY,default=8"`
	// ENV: MCP_CLIENT_NAME
	ClientName string `env:"MCP_CLIENT_NAME,default=mcp-client-go"`
	// ENV: MCP_LOG_LEVEL
	LogLevel string `env:"MCP_LOG_LEVEL,default=info"`
}

// DefaultSettings matches what FromEnv returns in an empty environment
func DefaultSettings() Settings {
	return Settings{
		RequestTimeout:    30 * time.Second,
		ConnectTimeout:    30 * time.Second,
		MaxRetries:        3,
		RetryInitialDelay: time.Second,
		RetryMaxDelay:     30 * time.Second,
		MaxConcurrency:    8,
		ClientName:        "mcp-client-go",
		LogLevel:          "info",
	}
}

// FromEnv decodes Settings from the environment
func FromEnv() (Settings, error) {
	var s Settings
	if err := envdecode.Decode(&s); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Settings{}, mcperrors.ValidationError("invalid MCP_* environment: "+err.Error(), nil)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// Validate rejects values no client could work with
func (s Settings) Validate() error {
	switch {
	case s.RequestTimeout <= 0:
		return mcperrors.InvalidParameter("MCP_REQUEST_TIMEOUT", s.RequestTimeout.String(), "positive duration")
	case s.ConnectTimeout <= 0:
		return mcperrors.InvalidParameter("MCP_CONNECT_TIMEOUT", s.ConnectTimeout.String(), "positive duration")
	case s.MaxRetries < 0:
		return mcperrors.InvalidParameter("MCP_MAX_RETRIES", s.MaxRetries, "non-negative integer")
	case s.RetryMaxDelay < s.RetryInitialDelay:
		return mcperrors.InvalidParameter("MCP_RETRY_MAX_DELAY", s.RetryMaxDelay.String(), "duration not below MCP_RETRY_INITIAL_DELAY")
	case s.MaxConcurrency < 1:
		return mcperrors.InvalidParameter("MCP_MAX_CONCURRENCY", s.MaxConcurrency, "positive integer")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return mcperrors.InvalidParameter("MCP_LOG_LEVEL", s.LogLevel, "debug, info, warn or error")
	}
	return nil
}

// RetryPolicy builds the backoff policy described by the settings
func (s Settings) RetryPolicy() retry.Policy {
	p := retry.DefaultPolicy()
	p.MaxRetries = s.MaxRetries
	p.InitialDelay = s.RetryInitialDelay
	p.MaxDelay = s.RetryMaxDelay
	return p
}

// Level returns the parsed log level, info when it does not parse
func (s Settings) Level() logging.Level {
	level, err := logging.ParseLevel(s.LogLevel)
	if err != nil {
		return logging.InfoLevel
	}
	return level
}
