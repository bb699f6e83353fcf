package client

import (
	"context"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// CompletionNotSupportedError reports that the negotiated server did not
// declare the completions capability.
type CompletionNotSupportedError struct{}

func (e *CompletionNotSupportedError) Error() string {
	return "mcp: server does not support completion/complete"
}

// CompletionError wraps any other failure from a completion/complete call.
type CompletionError struct {
	Cause error
}

func (e *CompletionError) Error() string { return "mcp: completion failed: " + e.Cause.Error() }
func (e *CompletionError) Unwrap() error { return e.Cause }

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// Complete requests argument completion suggestions for a prompt or
// resource reference. The server response carries up to 100 sorted
// suggestions, plus an optional total and has_more flag.
func (c *Client) Complete(ctx context.Context, ref schema.CompletionReference, arg schema.CompletionArgument, context_ map[string]any) (*schema.CompletionResult, error) {
	if result := c.NegotiationResult(); result != nil && !result.HasCompletions() {
		return nil, &CompletionNotSupportedError{}
	}

	raw, err := c.Request(ctx, schema.MethodCompletionComplete, schema.RequestComplete{Ref: ref, Argument: arg, Context: context_})
	if err != nil {
		return nil, &CompletionError{Cause: err}
	}

	var resp schema.ResponseComplete
	if err := schema.DecodeResult(raw, &resp); err != nil {
		return nil, &CompletionError{Cause: err}
	}
	return &resp.Completion, nil
}
