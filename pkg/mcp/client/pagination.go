package client

import (
	"context"
	"errors"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// InvalidCursorError reports that the server rejected a pagination cursor
// as invalid (JSON-RPC code INVALID_PARAMS), distinguished from other
// INVALID_PARAMS failures so callers can retry a fresh list from the start.
type InvalidCursorError struct {
	Cursor string
}

func (e *InvalidCursorError) Error() string {
	return "mcp: invalid pagination cursor: " + e.Cursor
}

// PaginationError wraps any other failure encountered while walking a
// cursor chain.
type PaginationError struct {
	Method string
	Cause  error
}

func (e *PaginationError) Error() string {
	return "mcp: pagination failed for " + e.Method + ": " + e.Cause.Error()
}

func (e *PaginationError) Unwrap() error { return e.Cause }

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// DefaultMaxPages bounds how many pages listAll will walk before giving up,
// guarding against a server that never terminates its cursor chain.
const DefaultMaxPages = 100

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// ListAllTools walks tools/list to completion (bounded by DefaultMaxPages)
// and refreshes the tool cache used by CallTool's argument validation.
func (c *Client) ListAllTools(ctx context.Context) ([]*schema.Tool, error) {
	var all []*schema.Tool
	cursor := ""
	for page := 0; page < DefaultMaxPages; page++ {
		var resp schema.ResponseListTools
		raw, err := c.Request(ctx, schema.MethodListTools, schema.RequestList{Cursor: cursor})
		if err != nil {
			var rpcErr *schema.Error
			if errors.As(err, &rpcErr) && rpcErr.Code == schema.ErrorCodeInvalidParams && cursor != "" {
				return nil, &InvalidCursorError{Cursor: cursor}
			}
			return nil, &PaginationError{Method: schema.MethodListTools, Cause: err}
		}
		if err := schema.DecodeResult(raw, &resp); err != nil {
			return nil, &PaginationError{Method: schema.MethodListTools, Cause: err}
		}
		all = append(all, resp.Tools...)
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}

	cache := make(map[string]*schema.Tool, len(all))
	for _, t := range all {
		cache[t.Name] = t
	}
	c.toolCache.mu.Lock()
	c.toolCache.tools = cache
	c.toolCache.mu.Unlock()

	return all, nil
}

// ListAllPrompts walks prompts/list to completion.
func (c *Client) ListAllPrompts(ctx context.Context) ([]*schema.Prompt, error) {
	var all []*schema.Prompt
	cursor := ""
	for page := 0; page < DefaultMaxPages; page++ {
		var resp schema.ResponseListPrompts
		raw, err := c.Request(ctx, schema.MethodListPrompts, schema.RequestList{Cursor: cursor})
		if err != nil {
			var rpcErr *schema.Error
			if errors.As(err, &rpcErr) && rpcErr.Code == schema.ErrorCodeInvalidParams && cursor != "" {
				return nil, &InvalidCursorError{Cursor: cursor}
			}
			return nil, &PaginationError{Method: schema.MethodListPrompts, Cause: err}
		}
		if err := schema.DecodeResult(raw, &resp); err != nil {
			return nil, &PaginationError{Method: schema.MethodListPrompts, Cause: err}
		}
		all = append(all, resp.Prompts...)
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}

// ListAllResources walks resources/list to completion.
func (c *Client) ListAllResources(ctx context.Context) ([]*schema.Resource, error) {
	var all []*schema.Resource
	cursor := ""
	for page := 0; page < DefaultMaxPages; page++ {
		var resp schema.ResponseListResources
		raw, err := c.Request(ctx, schema.MethodListResources, schema.RequestList{Cursor: cursor})
		if err != nil {
			var rpcErr *schema.Error
			if errors.As(err, &rpcErr) && rpcErr.Code == schema.ErrorCodeInvalidParams && cursor != "" {
				return nil, &InvalidCursorError{Cursor: cursor}
			}
			return nil, &PaginationError{Method: schema.MethodListResources, Cause: err}
		}
		if err := schema.DecodeResult(raw, &resp); err != nil {
			return nil, &PaginationError{Method: schema.MethodListResources, Cause: err}
		}
		all = append(all, resp.Resources...)
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}

// ListAllResourceTemplates walks resources/templates/list to completion.
func (c *Client) ListAllResourceTemplates(ctx context.Context) ([]*schema.ResourceTemplate, error) {
	var all []*schema.ResourceTemplate
	cursor := ""
	for page := 0; page < DefaultMaxPages; page++ {
		var resp schema.ResponseListResourceTemplates
		raw, err := c.Request(ctx, schema.MethodListResourceTmpl, schema.RequestList{Cursor: cursor})
		if err != nil {
			var rpcErr *schema.Error
			if errors.As(err, &rpcErr) && rpcErr.Code == schema.ErrorCodeInvalidParams && cursor != "" {
				return nil, &InvalidCursorError{Cursor: cursor}
			}
			return nil, &PaginationError{Method: schema.MethodListResourceTmpl, Cause: err}
		}
		if err := schema.DecodeResult(raw, &resp); err != nil {
			return nil, &PaginationError{Method: schema.MethodListResourceTmpl, Cause: err}
		}
		all = append(all, resp.ResourceTemplates...)
		if resp.NextCursor == "" {
			break
		}
		cursor = resp.NextCursor
	}
	return all, nil
}
