package client

import (
	"context"
	"sort"

	"github.com/yosida95/uritemplate/v3"

	mcperrors "github.com/ajitpratap0/mcp-client-go/pkg/errors"
	"github.com/ajitpratap0/mcp-client-go/pkg/protocol"
)

// ExpandResourceTemplate fills an RFC 6570 URI template such as
// "file:///{path}" from vars. Every variable the template names must be given.
func ExpandResourceTemplate(template string, vars map[string]string) (string, error) {
	tmpl, err := uritemplate.New(template)
	if err != nil {
		return "", mcperrors.InvalidParameter("uriTemplate", template, "RFC 6570 URI template")
	}

	var missing []string
	values := uritemplate.Values{}
	for _, name := range tmpl.Varnames() {
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		values.Set(name, uritemplate.String(v))
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return "", mcperrors.ValidationError("missing URI template variables", map[string]interface{}{
			"uriTemplate": template,
			"missing":     missing,
		})
	}

	uri, err := tmpl.Expand(values)
	if err != nil {
		return "", mcperrors.ValidationError("cannot expand URI template: "+err.Error(), map[string]interface{}{
			"uriTemplate": template,
		})
	}
	return uri, nil
}

// ReadResourceFromTemplate expands template with vars and reads the resulting resource
func (c *Client) ReadResourceFromTemplate(ctx context.Context, template string, vars map[string]string) (*protocol.ReadResourceResult, error) {
	uri, err := ExpandResourceTemplate(template, vars)
	if err != nil {
		return nil, err
	}
	return c.ReadResource(ctx, uri)
}
