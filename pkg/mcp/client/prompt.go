package client

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// GetPrompt retrieves a prompt by name, optionally filling its arguments.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*schema.ResponseGetPrompt, error) {
	raw, err := c.Request(ctx, schema.MethodGetPrompt, schema.RequestGetPrompt{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	var result schema.ResponseGetPrompt
	if err := schema.DecodeResult(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
