package client

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Ping sends a ping request and returns an error if the server does not
// answer successfully. Used both by callers wanting a liveness check and
// internally as a keepalive when a host schedules periodic pings.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Request(ctx, schema.MethodPing, nil)
	return err
}
