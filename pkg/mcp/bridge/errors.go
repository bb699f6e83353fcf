package bridge

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ServerNotFoundError reports a call routed to a server URL the bridge has
// no connection for, whether never configured or dropped by a failed
// Initialize attempt.
type ServerNotFoundError struct {
	URL string
}

func (e *ServerNotFoundError) Error() string { return "bridge: server not connected: " + e.URL }

// ToolNotSupportedError reports a tools/call routed to a server that never
// advertised the tools capability during negotiation.
type ToolNotSupportedError struct {
	URL string
}

func (e *ToolNotSupportedError) Error() string {
	return "bridge: server does not support tools: " + e.URL
}

// ToolCallError wraps a tool invocation that the server itself reported as
// failed (ResponseToolCall.IsError), carrying the error text the server
// returned in content.
type ToolCallError struct {
	ServerURL string
	ToolName  string
	Message   string
}

func (e *ToolCallError) Error() string {
	return "bridge: tool " + e.ToolName + " on " + e.ServerURL + " failed: " + e.Message
}
