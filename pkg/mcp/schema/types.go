package schema

import "encoding/json"

///////////////////////////////////////////////////////////////////////////////
// PAGINATION

// RequestList is the params body shared by every cursor-paginated list
// method (tools/list, prompts/list, resources/list,
// resources/templates/list). Cursors are opaque; callers never inspect
// them.
type RequestList struct {
	Cursor string `json:"cursor,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// TOOLS

// Tool describes a single callable exposed by an MCP server.
type Tool struct {
	Name        string          `json:"name"`
	Title       string          `json:"title,omitempty"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`

	// ServerURL tags the owning server once a tool has been aggregated by
	// the bridge; never sent on the wire, so it is excluded from JSON.
	ServerURL string `json:"-"`
}

type ResponseListTools struct {
	Tools      []*Tool `json:"tools"`
	NextCursor string  `json:"nextCursor,omitempty"`
}

type RequestToolCall struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Content is a single block of a tool result or sampling message: one of
// text, image, audio or an embedded resource, discriminated by Type.
type Content struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	Data     string          `json:"data,omitempty"`
	MimeType string          `json:"mimeType,omitempty"`
	Resource json.RawMessage `json:"resource,omitempty"`
}

type ResponseToolCall struct {
	Content           []Content `json:"content"`
	IsError           bool      `json:"isError,omitempty"`
	StructuredContent any       `json:"structuredContent,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// PROMPTS

type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

type Prompt struct {
	Name        string           `json:"name"`
	Title       string           `json:"title,omitempty"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

type ResponseListPrompts struct {
	Prompts    []*Prompt `json:"prompts"`
	NextCursor string    `json:"nextCursor,omitempty"`
}

type RequestGetPrompt struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

type ResponseGetPrompt struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

///////////////////////////////////////////////////////////////////////////////
// RESOURCES

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

type ResponseListResources struct {
	Resources  []*Resource `json:"resources"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

type ResourceTemplate struct {
	URITemplate string `json:"uriTemplate"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

type ResponseListResourceTemplates struct {
	ResourceTemplates []*ResourceTemplate `json:"resourceTemplates"`
	NextCursor        string              `json:"nextCursor,omitempty"`
}

type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

type ResponseReadResource struct {
	Contents []ResourceContents `json:"contents"`
}

///////////////////////////////////////////////////////////////////////////////
// ROOTS

// Root is a file-URI-identified directory boundary the client declares to
// the server. Identity (equality, hashing) is by URI alone.
type Root struct {
	URI  string `json:"uri"`
	Name string `json:"name,omitempty"`
}

type ResponseListRoots struct {
	Roots []Root `json:"roots"`
}

///////////////////////////////////////////////////////////////////////////////
// SAMPLING

type SamplingMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

type ModelPreferences struct {
	Hints                []map[string]string `json:"hints,omitempty"`
	CostPriority         float64              `json:"costPriority,omitempty"`
	SpeedPriority        float64              `json:"speedPriority,omitempty"`
	IntelligencePriority float64              `json:"intelligencePriority,omitempty"`
}

type RequestCreateMessage struct {
	Messages         []SamplingMessage `json:"messages"`
	ModelPreferences *ModelPreferences `json:"modelPreferences,omitempty"`
	SystemPrompt     string            `json:"systemPrompt,omitempty"`
	MaxTokens        int               `json:"maxTokens"`
	Temperature      *float64          `json:"temperature,omitempty"`
	StopSequences    []string          `json:"stopSequences,omitempty"`
}

type ResponseCreateMessage struct {
	Role       string  `json:"role"`
	Content    Content `json:"content"`
	Model      string  `json:"model,omitempty"`
	StopReason string  `json:"stopReason,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// ELICITATION

type RequestElicit struct {
	Message         string          `json:"message"`
	RequestedSchema json.RawMessage `json:"requestedSchema,omitempty"`
	URL             string          `json:"url,omitempty"`
}

type ResponseElicit struct {
	Action  string         `json:"action"` // accept | decline | cancel
	Content map[string]any `json:"content,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// COMPLETION

type CompletionReference struct {
	Type string `json:"type"` // ref/prompt | ref/resource
	Name string `json:"name,omitempty"`
	URI  string `json:"uri,omitempty"`
}

type CompletionArgument struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type RequestComplete struct {
	Ref      CompletionReference `json:"ref"`
	Argument CompletionArgument  `json:"argument"`
	Context  map[string]any      `json:"context,omitempty"`
}

type CompletionResult struct {
	Values  []string `json:"values"`
	Total   *int     `json:"total,omitempty"`
	HasMore bool     `json:"hasMore,omitempty"`
}

type ResponseComplete struct {
	Completion CompletionResult `json:"completion"`
}

///////////////////////////////////////////////////////////////////////////////
// PROGRESS / CANCELLATION / LOGGING NOTIFICATIONS

type ProgressNotification struct {
	ProgressToken any     `json:"progressToken"`
	Progress      float64 `json:"progress"`
	Total         float64 `json:"total,omitempty"`
	Message       string  `json:"message,omitempty"`
}

type CancelledNotification struct {
	RequestID string `json:"requestId"`
	Reason    string `json:"reason,omitempty"`
}

type LoggingMessageNotification struct {
	Level  string `json:"level"`
	Logger string `json:"logger,omitempty"`
	Data   any    `json:"data"`
}

type RequestSetLevel struct {
	Level string `json:"level"`
}
