package client

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	assert "github.com/stretchr/testify/assert"
)

func echoTool() *schema.Tool {
	return &schema.Tool{
		Name: "echo",
		InputSchema: json.RawMessage(`{
			"type": "object",
			"properties": {"message": {"type": "string"}},
			"required": ["message"]
		}`),
	}
}

func Test_CallTool_001_ValidatesAndCalls(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	tr.on(schema.MethodListTools, func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseListTools{Tools: []*schema.Tool{echoTool()}}, nil, true
	})
	tr.on(schema.MethodCallTool, func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseToolCall{Content: []schema.Content{{Type: "text", Text: "echoed"}}}, nil, true
	})

	result, err := c.CallTool(context.Background(), "echo", json.RawMessage(`{"message":"hi"}`))
	if assert.NoError(err) && assert.NotNil(result) {
		assert.Len(result.Content, 1)
		assert.Equal("echoed", result.Content[0].Text)
	}
}

func Test_CallTool_002_ValidationFailure(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	tr.on(schema.MethodListTools, func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseListTools{Tools: []*schema.Tool{echoTool()}}, nil, true
	})
	called := false
	tr.on(schema.MethodCallTool, func(req schema.Request) (any, *schema.Error, bool) {
		called = true
		return schema.ResponseToolCall{}, nil, true
	})

	_, err := c.CallTool(context.Background(), "echo", json.RawMessage(`{}`))
	var rpcErr *schema.Error
	if assert.True(errors.As(err, &rpcErr)) {
		assert.Equal(schema.ErrorCodeValidationFailed, rpcErr.Code)
	}
	assert.False(called)
}

func Test_CallTool_003_UnknownTool(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	tr.on(schema.MethodListTools, func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseListTools{Tools: []*schema.Tool{echoTool()}}, nil, true
	})

	_, err := c.CallTool(context.Background(), "missing", nil)
	var rpcErr *schema.Error
	if assert.True(errors.As(err, &rpcErr)) {
		assert.Equal(schema.ErrorCodeMethodNotFound, rpcErr.Code)
	}
}

func Test_ListAllTools_001_WalksCursor(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	pages := [][]*schema.Tool{
		{{Name: "a"}},
		{{Name: "b"}},
	}
	tr.on(schema.MethodListTools, func(req schema.Request) (any, *schema.Error, bool) {
		var params schema.RequestList
		_ = json.Unmarshal(req.Payload, &params)
		if params.Cursor == "" {
			return schema.ResponseListTools{Tools: pages[0], NextCursor: "page2"}, nil, true
		}
		assert.Equal("page2", params.Cursor)
		return schema.ResponseListTools{Tools: pages[1]}, nil, true
	})

	all, err := c.ListAllTools(context.Background())
	if assert.NoError(err) {
		assert.Len(all, 2)
		assert.Equal("a", all[0].Name)
		assert.Equal("b", all[1].Name)
	}
}

func Test_ListAllTools_002_InvalidCursor(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	tr.on(schema.MethodListTools, func(req schema.Request) (any, *schema.Error, bool) {
		var params schema.RequestList
		_ = json.Unmarshal(req.Payload, &params)
		if params.Cursor == "" {
			return schema.ResponseListTools{Tools: []*schema.Tool{{Name: "a"}}, NextCursor: "bogus"}, nil, true
		}
		return nil, schema.NewError(schema.ErrorCodeInvalidParams, "bad cursor"), true
	})

	_, err := c.ListAllTools(context.Background())
	var cursorErr *InvalidCursorError
	assert.True(errors.As(err, &cursorErr))
}
