package client

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ReadResource fetches the contents of a single resource by URI.
func (c *Client) ReadResource(ctx context.Context, uri string) (*schema.ResponseReadResource, error) {
	raw, err := c.Request(ctx, schema.MethodReadResource, struct {
		URI string `json:"uri"`
	}{URI: uri})
	if err != nil {
		return nil, err
	}
	var result schema.ResponseReadResource
	if err := schema.DecodeResult(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
