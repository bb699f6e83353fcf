package tool

import (
	"context"
	"encoding/json"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Tool is an interface for a tool with a name, description and JSON schema.
// The bridge's tool-call callables (one per aggregated MCP tool) and the
// host-supplied OutputTool both satisfy it.
type Tool interface {
	// Return the name of the tool
	Name() string

	// Return the description of the tool
	Description() string

	// Return the JSON schema for the tool input
	Schema() (*jsonschema.Schema, error)

	// Run the tool with the given input as JSON (may be nil)
	Run(ctx context.Context, input json.RawMessage) (any, error)
}

// Toolkit is a collection of tools with unique names.
type Toolkit struct {
	tools map[string]Tool
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewToolkit creates a new toolkit with the given tools.
// Returns an error if any tool has an invalid or duplicate name.
func NewToolkit(tools ...Tool) (*Toolkit, error) {
	tk := &Toolkit{
		tools: make(map[string]Tool),
	}
	if err := tk.Register(tools...); err != nil {
		return nil, err
	}
	return tk, nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Tools returns all tools in the toolkit.
func (tk *Toolkit) Tools() []Tool {
	result := make([]Tool, 0, len(tk.tools))
	for _, t := range tk.tools {
		result = append(result, t)
	}
	return result
}

// Register adds one or more tools to the toolkit. Returns an error if any
// tool has an invalid or duplicate name, or if the name is reserved (e.g.
// "submit_output") for anything other than the internal OutputTool.
func (tk *Toolkit) Register(tools ...Tool) error {
	for _, t := range tools {
		name := t.Name()
		if !isIdentifier(name) {
			return &InvalidNameError{Name: name}
		}
		if isReservedToolName(name) {
			if _, ok := t.(*OutputTool); !ok {
				return &ReservedNameError{Name: name}
			}
		}
		if _, exists := tk.tools[name]; exists {
			return &DuplicateNameError{Name: name}
		}
		tk.tools[name] = t
	}
	return nil
}

// isReservedToolName returns true if the name is reserved for internal use.
func isReservedToolName(name string) bool {
	return name == OutputToolName
}

// Lookup returns a tool by name, or nil if not found.
func (tk *Toolkit) Lookup(name string) Tool {
	return tk.tools[name]
}

// Run executes a tool by name with the given input. The input should be
// json.RawMessage, []byte, or nil, and is validated against the tool's
// schema before the tool runs.
func (tk *Toolkit) Run(ctx context.Context, name string, input any) (any, error) {
	tool := tk.Lookup(name)
	if tool == nil {
		return nil, &NotFoundError{Name: name}
	}

	var rawInput json.RawMessage
	if input != nil {
		switch v := input.(type) {
		case json.RawMessage:
			rawInput = v
		case []byte:
			rawInput = json.RawMessage(v)
		default:
			data, err := json.Marshal(input)
			if err != nil {
				return nil, &InvalidInputError{Name: name, Cause: err}
			}
			rawInput = json.RawMessage(data)
		}
	}

	if len(rawInput) > 0 {
		schema, err := tool.Schema()
		if err != nil {
			return nil, &InvalidInputError{Name: name, Cause: err}
		}
		if schema != nil {
			var instance any
			if err := json.Unmarshal(rawInput, &instance); err != nil {
				return nil, &InvalidInputError{Name: name, Cause: err}
			}
			resolved, err := schema.Resolve(nil)
			if err != nil {
				return nil, &InvalidInputError{Name: name, Cause: err}
			}
			if err := resolved.Validate(instance); err != nil {
				return nil, &InvalidInputError{Name: name, Cause: err}
			}
		}
	}

	return tool.Run(ctx, rawInput)
}

// Feedback returns a human-readable one-line description of a registered
// tool, for logging a call a host is about to make.
func (tk *Toolkit) Feedback(name string) string {
	if t := tk.Lookup(name); t != nil && t.Description() != "" {
		return name + ": " + t.Description()
	}
	return name
}

///////////////////////////////////////////////////////////////////////////////
// STRINGIFY

func (tk *Toolkit) String() string {
	data, err := json.MarshalIndent(tk.Tools(), "", "  ")
	if err != nil {
		return err.Error()
	}
	return string(data)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// isIdentifier reports whether name is non-empty and composed only of
// ASCII letters, digits, underscores and hyphens, matching the character
// set MCP tool names use on the wire.
func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			continue
		default:
			return false
		}
	}
	return true
}
