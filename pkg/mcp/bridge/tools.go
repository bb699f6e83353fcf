package bridge

import (
	"context"
	"encoding/json"
	"log"
	"strings"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	tool "github.com/mutablelogic/go-mcp/pkg/tool"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListAllTools fans tools/list out across every connected server that
// advertised the tools capability, tagging each returned Tool with the URL
// of the server that owns it. A server that fails to answer is logged and
// skipped; the aggregate from the servers that did answer is still
// returned.
func (b *Bridge) ListAllTools(ctx context.Context) ([]*schema.Tool, error) {
	b.mu.Lock()
	servers := make([]*ConnectedServer, 0, len(b.servers))
	for _, cs := range b.servers {
		servers = append(servers, cs)
	}
	b.mu.Unlock()

	var all []*schema.Tool
	for _, cs := range servers {
		if cs.Negotiation == nil || !cs.Negotiation.HasTools() {
			continue
		}
		tools, err := cs.Client.ListAllTools(ctx)
		if err != nil {
			log.Printf("bridge: tools/list %s: %v", cs.Config.URL, err)
			continue
		}
		for _, t := range tools {
			t.ServerURL = cs.Config.URL
			all = append(all, t)
		}
	}
	return all, nil
}

// CallTool routes name/args to the server identified by serverURL.
func (b *Bridge) CallTool(ctx context.Context, serverURL, name string, args json.RawMessage) (*schema.ResponseToolCall, error) {
	cs := b.Get(serverURL)
	if cs == nil {
		return nil, &ServerNotFoundError{URL: serverURL}
	}
	if cs.Negotiation == nil || !cs.Negotiation.HasTools() {
		return nil, &ToolNotSupportedError{URL: serverURL}
	}
	return cs.Client.CallTool(ctx, name, args)
}

// CreateToolCallables synthesizes one tool.Tool per aggregated MCP tool,
// each routing to CallTool on its owning server and unwrapping the
// response's content[] text blocks into a single string. A tool name
// collision across servers is resolved by namespacing the later arrival as
// "<name>@<server>".
func (b *Bridge) CreateToolCallables(ctx context.Context) (*tool.Toolkit, error) {
	tools, err := b.ListAllTools(ctx)
	if err != nil {
		return nil, err
	}

	tk, err := tool.NewToolkit()
	if err != nil {
		return nil, err
	}
	for _, t := range tools {
		callable := &mcpTool{bridge: b, serverURL: t.ServerURL, name: t.Name, description: t.Description, inputSchema: t.InputSchema}
		if err := tk.Register(callable); err != nil {
			cs := b.Get(t.ServerURL)
			name := t.Name
			if cs != nil && cs.Name != "" {
				name = t.Name + "@" + cs.Name
			}
			callable.name = name
			if err := tk.Register(callable); err != nil {
				log.Printf("bridge: registering tool %s: %v", name, err)
			}
		}
	}
	return tk, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE TYPES

// mcpTool adapts one aggregated MCP tool to the tool.Tool interface so it
// can be registered in a tool.Toolkit and handed to an LLM tool-calling
// loop without the host needing to know it is backed by MCP at all.
type mcpTool struct {
	bridge      *Bridge
	serverURL   string
	name        string
	description string
	inputSchema json.RawMessage
}

var _ tool.Tool = (*mcpTool)(nil)

func (t *mcpTool) Name() string        { return t.name }
func (t *mcpTool) Description() string { return t.description }

func (t *mcpTool) Schema() (*jsonschema.Schema, error) {
	if len(t.inputSchema) == 0 {
		return nil, nil
	}
	var s jsonschema.Schema
	if err := json.Unmarshal(t.inputSchema, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (t *mcpTool) Run(ctx context.Context, input json.RawMessage) (any, error) {
	resp, err := t.bridge.CallTool(ctx, t.serverURL, t.name, input)
	if err != nil {
		return nil, err
	}
	if resp.IsError {
		return nil, &ToolCallError{ServerURL: t.serverURL, ToolName: t.name, Message: contentText(resp.Content)}
	}
	return contentText(resp.Content), nil
}

// contentText concatenates every text block in content, in order, joined
// by newlines. Non-text blocks (image, audio, embedded resource) are
// dropped: the callable's contract is a single string result.
func contentText(content []schema.Content) string {
	var parts []string
	for _, c := range content {
		if c.Type == "text" && c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}
