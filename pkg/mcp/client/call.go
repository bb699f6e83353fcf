package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	// Packages
	jsonschema "github.com/google/jsonschema-go/jsonschema"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// toolCache caches the tool list fetched via tools/list, keyed by name, so
// CallTool can validate arguments locally before round-tripping.
type toolCache struct {
	mu    sync.Mutex
	tools map[string]*schema.Tool
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CallTool invokes a tool by name with the given arguments, validating the
// arguments against the tool's cached input schema before sending the
// request. If the tool list has not been fetched yet, it is fetched first.
func (c *Client) CallTool(ctx context.Context, name string, args json.RawMessage) (*schema.ResponseToolCall, error) {
	if err := c.validateToolCall(ctx, name, args); err != nil {
		return nil, err
	}

	raw, err := c.Request(ctx, schema.MethodCallTool, schema.RequestToolCall{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}

	var result schema.ResponseToolCall
	if err := schema.DecodeResult(raw, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) validateToolCall(ctx context.Context, name string, args json.RawMessage) error {
	c.toolCache.mu.Lock()
	cached := c.toolCache.tools
	c.toolCache.mu.Unlock()

	if cached == nil {
		if _, err := c.ListAllTools(ctx); err != nil {
			return fmt.Errorf("mcp: fetching tools before call: %w", err)
		}
		c.toolCache.mu.Lock()
		cached = c.toolCache.tools
		c.toolCache.mu.Unlock()
	}

	tool, ok := cached[name]
	if !ok {
		return schema.NewError(schema.ErrorCodeMethodNotFound, fmt.Sprintf("tool not found: %q", name))
	}
	if len(tool.InputSchema) == 0 {
		return nil
	}

	var sch jsonschema.Schema
	if err := json.Unmarshal(tool.InputSchema, &sch); err != nil {
		return fmt.Errorf("mcp: invalid input schema for tool %q: %w", name, err)
	}
	resolved, err := sch.Resolve(nil)
	if err != nil {
		return fmt.Errorf("mcp: invalid input schema for tool %q: %w", name, err)
	}

	var argsValue any
	if len(args) > 0 {
		if err := json.Unmarshal(args, &argsValue); err != nil {
			return schema.NewError(schema.ErrorCodeValidationFailed, fmt.Sprintf("invalid arguments JSON: %v", err))
		}
	} else {
		argsValue = map[string]any{}
	}

	if err := resolved.Validate(argsValue); err != nil {
		return schema.NewError(schema.ErrorCodeValidationFailed, fmt.Sprintf("argument validation failed: %v", err))
	}
	return nil
}
