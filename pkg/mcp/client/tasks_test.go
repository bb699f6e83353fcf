package client

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	// Packages
	assert "github.com/stretchr/testify/assert"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
)

func Test_UseTasks_001_AnswersInboundTasksList(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{})
	mgr := task.NewManager()
	t.Cleanup(func() { _ = mgr.Close() })
	c.UseTasks(mgr)
	assert.Same(mgr, c.Tasks())

	done := make(chan struct{})
	_, err := mgr.CreateTask("widget", func(ctx context.Context, _ task.ProgressFunc) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil, 5*time.Second)
	assert.NoError(err)
	_ = done

	payload, _ := json.Marshal(task.RequestList{})
	req := schema.Request{Version: schema.RPCVersion, ID: schema.NewRequestID(), Method: schema.MethodTasksList, Payload: payload}
	result, rpcErr, immediate := dispatchInbound(t, tr, c, req)
	assert.True(immediate)
	assert.Nil(rpcErr)

	var resp task.ResponseList
	assert.NoError(schema.DecodeResult(result, &resp))
	assert.Len(resp.Tasks, 1)
}

func Test_CallToolAsTask_001_RunsAndCompletes(t *testing.T) {
	assert := assert.New(t)

	c, tr := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	tr.on(schema.MethodListTools, func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseListTools{Tools: []*schema.Tool{echoTool()}}, nil, true
	})
	tr.on(schema.MethodCallTool, func(req schema.Request) (any, *schema.Error, bool) {
		return schema.ResponseToolCall{Content: []schema.Content{{Type: "text", Text: "echoed"}}}, nil, true
	})

	mgr := task.NewManager()
	t.Cleanup(func() { _ = mgr.Close() })
	c.UseTasks(mgr)

	tk, err := c.CallToolAsTask("echo", json.RawMessage(`{"message":"hi"}`))
	assert.NoError(err)
	assert.Equal("echo", tk.Metadata["tool"])

	assert.Eventually(func() bool {
		got, err := mgr.Get(tk.ID)
		return err == nil && got.State.IsTerminal()
	}, time.Second, 5*time.Millisecond)

	got, err := mgr.Get(tk.ID)
	assert.NoError(err)
	assert.Equal(task.Completed, got.State)
}

func Test_CallToolAsTask_002_NoTaskManager(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{Tools: &schema.ListCapability{}})
	_, err := c.CallToolAsTask("echo", nil)
	assert.Error(err)
}

func Test_CreateMessageAsTask_001_NoHandler(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{})
	mgr := task.NewManager()
	t.Cleanup(func() { _ = mgr.Close() })
	c.UseTasks(mgr)

	_, err := c.CreateMessageAsTask(context.Background(), schema.RequestCreateMessage{})
	var missing *MissingSamplingHandlerError
	assert.ErrorAs(err, &missing)
}

func Test_CreateMessageAsTask_002_RunsAsTask(t *testing.T) {
	assert := assert.New(t)

	c, _ := connectedClient(t, schema.ServerCapabilities{})
	mgr := task.NewManager()
	t.Cleanup(func() { _ = mgr.Close() })
	c.UseTasks(mgr)
	c.OnSampling(func(ctx context.Context, params schema.RequestCreateMessage) (*schema.ResponseCreateMessage, error) {
		return &schema.ResponseCreateMessage{}, nil
	})

	tk, err := c.CreateMessageAsTask(context.Background(), schema.RequestCreateMessage{})
	assert.NoError(err)
	assert.Equal("sampling/createMessage", tk.Type)

	assert.Eventually(func() bool {
		got, err := mgr.Get(tk.ID)
		return err == nil && got.State.IsTerminal()
	}, time.Second, 5*time.Millisecond)
}

// dispatchInbound drives an inbound server->client request through the same
// handler table OnRequest populates, bypassing the transport round trip so
// the test can inspect the raw (result, rpcErr) pair UseTasks produced.
func dispatchInbound(t *testing.T, _ *fakeTransport, c *Client, req schema.Request) (any, *schema.Error, bool) {
	t.Helper()
	c.handlersMu.Lock()
	fn, ok := c.handlers[req.Method]
	c.handlersMu.Unlock()
	if !ok {
		t.Fatalf("no handler registered for %s", req.Method)
	}
	result, err := fn(context.Background(), req.Payload)
	if err != nil {
		if rpcErr, ok := err.(*schema.Error); ok {
			return nil, rpcErr, true
		}
		return nil, schema.NewError(schema.ErrorCodeInternalError, err.Error()), true
	}
	return result, nil, true
}
