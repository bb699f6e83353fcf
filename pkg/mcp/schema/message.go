// Package schema defines the wire types for the Model Context Protocol:
// JSON-RPC 2.0 messages, the MCP error taxonomy, capability declarations
// and the shared domain types (tools, prompts, resources, content blocks).
package schema

import (
	"encoding/json"

	// Packages
	"github.com/google/uuid"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Request is an outbound or inbound JSON-RPC call expecting a Response.
// Per the MCP 2025-11-25 revision, request ids are client-generated UUID
// strings; there is no number/string ambiguity at the correlation layer.
type Request struct {
	Version string          `json:"jsonrpc"`
	ID      string          `json:"id"`
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"params,omitempty"`
}

// Notification is a one-way JSON-RPC message: it has a method but no id
// and receives no Response.
type Notification struct {
	Version string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Payload json.RawMessage `json:"params,omitempty"`
}

// Response answers a Request by id, carrying exactly one of Result or Err.
type Response struct {
	Version string `json:"jsonrpc"`
	ID      string `json:"id"`
	Result  any    `json:"result,omitempty"`
	Err     *Error `json:"error,omitempty"`
}

// wireMessage is used to sniff an inbound JSON-RPC payload and classify it
// as a Request, Notification or Response without knowing its shape up front.
type wireMessage struct {
	Version string          `json:"jsonrpc"`
	ID      *string         `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *Error          `json:"error,omitempty"`
}

// MessageKind tags a decoded inbound message.
type MessageKind int

const (
	KindUnknown MessageKind = iota
	KindRequest
	KindNotification
	KindResponse
)

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

const RPCVersion = "2.0"

// Method names used throughout the client. Keep grouped by the MCP
// namespace they live in.
const (
	MethodInitialize           = "initialize"
	NotificationInitialized    = "notifications/initialized"
	MethodPing                 = "ping"
	MethodListTools            = "tools/list"
	MethodCallTool             = "tools/call"
	MethodListPrompts          = "prompts/list"
	MethodGetPrompt            = "prompts/get"
	MethodListResources        = "resources/list"
	MethodListResourceTmpl     = "resources/templates/list"
	MethodReadResource         = "resources/read"
	MethodListRoots            = "roots/list"
	MethodCreateMessage        = "sampling/createMessage"
	MethodElicitationCreate    = "elicitation/create"
	MethodCompletionComplete   = "completion/complete"
	MethodLoggingSetLevel      = "logging/setLevel"
	MethodTasksList            = "tasks/list"
	MethodTasksGet             = "tasks/get"
	MethodTasksCancel          = "tasks/cancel"
	NotificationProgress       = "notifications/progress"
	NotificationCancelled      = "notifications/cancelled"
	NotificationMessage        = "notifications/message"
	NotificationToolsChanged   = "notifications/tools/list_changed"
	NotificationRootsChanged   = "notifications/roots/list_changed"
	NotificationPromptsChanged = "notifications/prompts/list_changed"
)

// Client-supported protocol versions, most preferred first.
var SupportedProtocolVersions = []string{"2025-11-25", "2024-11-05"}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewRequestID generates a client-generated UUID string request id.
func NewRequestID() string {
	return uuid.NewString()
}

// NewRequest builds a Request with a fresh id and a marshalled params payload.
func NewRequest(method string, params any) (Request, error) {
	req := Request{Version: RPCVersion, ID: NewRequestID(), Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Request{}, err
		}
		req.Payload = data
	}
	return req, nil
}

// NewNotification builds a Notification with a marshalled params payload.
func NewNotification(method string, params any) (Notification, error) {
	n := Notification{Version: RPCVersion, Method: method}
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return Notification{}, err
		}
		n.Payload = data
	}
	return n, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Classify sniffs a raw JSON-RPC payload and reports which of Request,
// Notification or Response it decodes as, per the §4.2 shape rules:
// requests have method+id, notifications have method and no id, responses
// have id and exactly one of result/error.
func Classify(data []byte) (MessageKind, error) {
	var msg wireMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return KindUnknown, err
	}
	switch {
	case msg.Method != "" && msg.ID != nil:
		return KindRequest, nil
	case msg.Method != "" && msg.ID == nil:
		return KindNotification, nil
	case msg.ID != nil:
		return KindResponse, nil
	default:
		return KindUnknown, nil
	}
}

// DecodeResult re-marshals an `any` decoded result and unmarshals it into
// dest. Used after a Response.Result (decoded as generic JSON) needs to be
// projected onto a concrete wire type.
func DecodeResult(result any, dest any) error {
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}
