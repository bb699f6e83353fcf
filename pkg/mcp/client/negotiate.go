package client

import (
	"context"

	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// IncompatibleProtocolError reports that the server's negotiated protocol
// version is not one this client understands.
type IncompatibleProtocolError struct {
	ServerVersion string
}

func (e *IncompatibleProtocolError) Error() string {
	return "mcp: server protocol version " + e.ServerVersion + " is not supported"
}

// MissingSamplingHandlerError reports that ClientCapabilities.Sampling was
// declared without a registered SamplingHandler; per the cross-entity
// invariant this must be caught before the client reaches READY.
type MissingSamplingHandlerError struct{}

func (e *MissingSamplingHandlerError) Error() string {
	return "mcp: sampling capability declared but no handler registered"
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// negotiate performs the initialize/initialized handshake: it sends
// initialize with this client's declared capabilities, validates the
// server's protocol version against the versions this client understands,
// and sends the initialized notification to complete the handshake.
func (c *Client) negotiate(ctx context.Context) (*schema.NegotiationResult, error) {
	params := schema.RequestInitialize{
		ProtocolVersion: schema.SupportedProtocolVersions[0],
		Capabilities:    c.caps,
		ClientInfo:      c.info,
	}

	raw, id, err := c.requestID(ctx, schema.MethodInitialize, params)
	c.mu.Lock()
	c.cancellation.initID = id
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	var resp schema.ResponseInitialize
	if err := schema.DecodeResult(raw, &resp); err != nil {
		return nil, err
	}

	if !supportedVersion(resp.ProtocolVersion) {
		return nil, &IncompatibleProtocolError{ServerVersion: resp.ProtocolVersion}
	}

	if _, err := c.Notify(ctx, schema.NotificationInitialized, nil); err != nil {
		return nil, err
	}

	return &schema.NegotiationResult{
		ProtocolVersion:     resp.ProtocolVersion,
		ServerInfo:          resp.ServerInfo,
		ServerCapabilities:  resp.Capabilities,
		ClientCapabilities:  c.caps,
	}, nil
}

func supportedVersion(v string) bool {
	for _, sv := range schema.SupportedProtocolVersions {
		if sv == v {
			return true
		}
	}
	return false
}
