package schema

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Implementation identifies either end of the connection in the initialize
// handshake (clientInfo / serverInfo).
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// ClientInfo is an alias kept for call-site readability; it is the same
// wire shape as Implementation.
type ClientInfo = Implementation

// RootsCapability declares the client's roots feature and its modifiers.
type RootsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// SamplingCapability declares that the client can service
// sampling/createMessage. It carries no modifiers today but is a struct
// (rather than a bool) so the wire form survives future additions.
type SamplingCapability struct{}

// ElicitationCapability declares which elicitation styles the client
// supports: structured form elicitation and/or URL-based elicitation.
type ElicitationCapability struct {
	Form bool `json:"form,omitempty"`
	URL  bool `json:"url,omitempty"`
}

// TasksCapability declares client support for the task subsystem's
// server-facing surface.
type TasksCapability struct {
	List     bool     `json:"list,omitempty"`
	Cancel   bool     `json:"cancel,omitempty"`
	Requests []string `json:"requests,omitempty"`
}

// ClientCapabilities is presence-encoded: a non-nil field is a declaration,
// its sub-fields carry modifiers. Experimental is an open-ended escape
// hatch for capabilities not yet modeled here.
type ClientCapabilities struct {
	Roots        *RootsCapability        `json:"roots,omitempty"`
	Sampling     *SamplingCapability     `json:"sampling,omitempty"`
	Elicitation  *ElicitationCapability  `json:"elicitation,omitempty"`
	Tasks        *TasksCapability        `json:"tasks,omitempty"`
	Experimental map[string]any          `json:"experimental,omitempty"`
}

// ListCapability declares a server-side listable collection, optionally
// with subscribe/listChanged modifiers.
type ListCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// ServerCapabilities mirrors ClientCapabilities for the server side of the
// handshake.
type ServerCapabilities struct {
	Tools        *ListCapability `json:"tools,omitempty"`
	Prompts      *ListCapability `json:"prompts,omitempty"`
	Resources    *ListCapability `json:"resources,omitempty"`
	Logging      map[string]any  `json:"logging,omitempty"`
	Completions  map[string]any  `json:"completions,omitempty"`
	Experimental map[string]any  `json:"experimental,omitempty"`
}

// RequestInitialize is the params body of the initialize request.
type RequestInitialize struct {
	ProtocolVersion string              `json:"protocolVersion"`
	Capabilities    ClientCapabilities  `json:"capabilities"`
	ClientInfo      Implementation      `json:"clientInfo"`
}

// ResponseInitialize is the server's reply to initialize.
type ResponseInitialize struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// NegotiationResult is the immutable outcome of a successful initialize
// handshake; it is the canonical source for "does this server support X"
// queries for the remainder of the connection's lifetime.
type NegotiationResult struct {
	ProtocolVersion     string
	ServerInfo          Implementation
	ServerCapabilities  ServerCapabilities
	ClientCapabilities  ClientCapabilities
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// HasTools reports whether the negotiated server declared the tools
// capability.
func (n *NegotiationResult) HasTools() bool {
	return n != nil && n.ServerCapabilities.Tools != nil
}

// HasPrompts reports whether the negotiated server declared the prompts
// capability.
func (n *NegotiationResult) HasPrompts() bool {
	return n != nil && n.ServerCapabilities.Prompts != nil
}

// HasResources reports whether the negotiated server declared the
// resources capability.
func (n *NegotiationResult) HasResources() bool {
	return n != nil && n.ServerCapabilities.Resources != nil
}

// HasLogging reports whether the negotiated server declared the logging
// capability.
func (n *NegotiationResult) HasLogging() bool {
	return n != nil && n.ServerCapabilities.Logging != nil
}

// HasCompletions reports whether the negotiated server declared the
// completions capability.
func (n *NegotiationResult) HasCompletions() bool {
	return n != nil && n.ServerCapabilities.Completions != nil
}

// HasNotifications reports whether the server declared any capability that
// can emit list-changed notifications, which is when the client should
// keep a background SSE listener open.
func (n *NegotiationResult) HasNotifications() bool {
	if n == nil {
		return false
	}
	if n.ServerCapabilities.Tools != nil && n.ServerCapabilities.Tools.ListChanged {
		return true
	}
	if n.ServerCapabilities.Prompts != nil && n.ServerCapabilities.Prompts.ListChanged {
		return true
	}
	if n.ServerCapabilities.Resources != nil && n.ServerCapabilities.Resources.ListChanged {
		return true
	}
	return n.ServerCapabilities.Logging != nil
}

// RequiresSamplingHandler reports whether the client declared the sampling
// capability, which per §3's cross-entity invariant means a handler for
// sampling/createMessage must be registered before the client enters READY.
func (c ClientCapabilities) RequiresSamplingHandler() bool {
	return c.Sampling != nil
}
