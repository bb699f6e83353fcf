package bridge

import (
	// Packages
	client "github.com/mutablelogic/go-mcp/pkg/mcp/client"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
	transport "github.com/mutablelogic/go-mcp/pkg/mcp/transport"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ServerConfig names one server to connect to: a display name, its
// Streamable HTTP endpoint, and any static headers (typically
// Authorization) to send on every request.
type ServerConfig struct {
	Name    string            `json:"-"`
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

// ConnectedServer is the bridge's per-URL record: the transport and client
// backing one connection, the negotiated handshake result, and (if a task
// manager factory was configured) that connection's local task manager.
type ConnectedServer struct {
	Name        string
	Config      ServerConfig
	Transport   transport.Transport
	Client      *client.Client
	Negotiation *schema.NegotiationResult
	Tasks       *task.Manager
}

// ServerInfo is a read-only registry entry snapshot returned by
// Bridge.Registry, safe to hold onto after the bridge mutates its
// connection map.
type ServerInfo struct {
	Name            string
	URL             string
	Connected       bool
	ProtocolVersion string
	ServerInfo      schema.Implementation
	Capabilities    schema.ServerCapabilities
}
