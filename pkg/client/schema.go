package client

import (
	"encoding/json"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/logging"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// toolCache keeps the last ListTools result. Schemas are resolved on first use.
type toolCache struct {
	mu       sync.Mutex
	tools    map[string]protocol.Tool
	resolved map[string]*jsonschema.Resolved
}

func newToolCache() *toolCache {
	return &toolCache{
		tools:    make(map[string]protocol.Tool),
		resolved: make(map[string]*jsonschema.Resolved),
	}
}

func (tc *toolCache) store(tools []protocol.Tool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.tools = make(map[string]protocol.Tool, len(tools))
	tc.resolved = make(map[string]*jsonschema.Resolved)
	for _, tool := range tools {
		tc.tools[tool.Name] = tool
	}
}

func (tc *toolCache) reset() {
	tc.store(nil)
}

func (tc *toolCache) lookup(name string) (protocol.Tool, bool) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tool, ok := tc.tools[name]
	return tool, ok
}

// schema returns the resolved input schema for name, nil when there is nothing to check against
func (tc *toolCache) schema(name string) (*jsonschema.Resolved, error) {
	tc.mu.Lock()
	defer tc.mu.Unlock()

	if rs, ok := tc.resolved[name]; ok {
		return rs, nil
	}
	tool, ok := tc.tools[name]
	if !ok || len(tool.InputSchema) == 0 {
		return nil, nil
	}

	var schema jsonschema.Schema
	if err := json.Unmarshal(tool.InputSchema, &schema); err != nil {
		return nil, err
	}
	rs, err := schema.Resolve(nil)
	if err != nil {
		return nil, err
	}
	tc.resolved[name] = rs
	return rs, nil
}

// validate checks args against the cached schema of tool name. Tools that were
// never listed, or whose schema cannot be compiled, are not checked.
func (tc *toolCache) validate(name string, args interface{}, logger logging.Logger) error {
	rs, err := tc.schema(name)
	if err != nil {
		logger.Warn("Skipping argument validation: unusable input schema",
			logging.String("tool", name),
			logging.ErrorField(err),
		)
		return nil
	}
	if rs == nil {
		return nil
	}

	instance, err := toInstance(args)
	if err != nil {
		return mcperrors.InvalidParameter("arguments", args, "JSON object")
	}
	if err := rs.Validate(instance); err != nil {
		return mcperrors.ValidationError("arguments do not match the input schema of tool "+name, map[string]interface{}{
			"tool":   name,
			"reason": err.Error(),
		})
	}
	return nil
}

// toInstance converts args to the generic JSON form the validator walks
func toInstance(args interface{}) (interface{}, error) {
	if args == nil {
		return map[string]interface{}{}, nil
	}
	data, err := json.Marshal(args)
	if err != nil {
		return nil, err
	}
	var instance interface{}
	if err := json.Unmarshal(data, &instance); err != nil {
		return nil, err
	}
	return instance, nil
}

// Tool returns the named tool from the last ListTools, if any
func (c *Client) Tool(name string) (protocol.Tool, bool) {
	return c.tools.lookup(name)
}
