package client

import (
	"context"
	"encoding/json"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
)

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// UseTasks binds manager as this client's local task manager and wires its
// tasks/list, tasks/get, tasks/cancel answers as inbound request handlers,
// so a server that sent a sampling or elicitation request the client chose
// to service as a task can poll it back (§4.5's TasksHandler).
func (c *Client) UseTasks(manager *task.Manager) {
	c.tasksMu.Lock()
	c.tasks = manager
	c.tasksMu.Unlock()

	h := task.NewHandler(manager)
	c.OnRequest(schema.MethodTasksList, h.List)
	c.OnRequest(schema.MethodTasksGet, h.Get)
	c.OnRequest(schema.MethodTasksCancel, h.Cancel)
}

// Tasks returns the local task manager registered via UseTasks, or nil if
// none was configured.
func (c *Client) Tasks() *task.Manager {
	c.tasksMu.Lock()
	defer c.tasksMu.Unlock()
	return c.tasks
}

// GetTask sends tasks/get to the connected server and decodes the result,
// implementing task.Getter so task.PollUntilComplete can drive it. Use
// this to poll a task the *server* created (e.g. a tools/call the server
// chose to run asynchronously and handed back a taskId for).
func (c *Client) GetTask(ctx context.Context, id string) (*task.Task, error) {
	raw, err := c.Request(ctx, schema.MethodTasksGet, task.RequestGet{TaskID: id})
	if err != nil {
		return nil, err
	}
	var t task.Task
	if err := schema.DecodeResult(raw, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

// CancelServerTask sends tasks/cancel to the connected server for a
// server-owned task.
func (c *Client) CancelServerTask(ctx context.Context, id, reason string) error {
	_, err := c.Request(ctx, schema.MethodTasksCancel, task.RequestCancel{TaskID: id, Reason: reason})
	return err
}

// CreateMessageAsTask services a sampling/createMessage request the server
// already sent (params) by handing the registered SamplingHandler to the
// local task manager instead of answering synchronously; the returned Task
// is then pollable by the server via tasks/get once UseTasks has wired the
// inbound surface. A nil return from Tasks() means UseTasks was never
// called; callers should register a manager first.
func (c *Client) CreateMessageAsTask(ctx context.Context, params schema.RequestCreateMessage) (*task.Task, error) {
	c.samplingMu.Lock()
	fn := c.samplingFn
	c.samplingMu.Unlock()
	if fn == nil {
		return nil, &MissingSamplingHandlerError{}
	}

	mgr := c.Tasks()
	if mgr == nil {
		return nil, errNoTaskManager
	}

	executor := func(ctx context.Context, _ task.ProgressFunc) (any, error) {
		return fn(ctx, params)
	}
	return mgr.CreateTask("sampling/createMessage", executor, nil, 0)
}

// CreateAsTask services an elicitation/create request as a task, following
// the same pattern as CreateMessageAsTask.
func (c *Client) CreateAsTask(ctx context.Context, params schema.RequestElicit) (*task.Task, error) {
	if err := c.checkElicitationURL(params); err != nil {
		return nil, err
	}

	c.elicitMu.Lock()
	fn := c.elicitFn
	c.elicitMu.Unlock()
	if fn == nil {
		return nil, &ElicitationError{Cause: errNoElicitHandler}
	}

	mgr := c.Tasks()
	if mgr == nil {
		return nil, errNoTaskManager
	}

	executor := func(ctx context.Context, _ task.ProgressFunc) (any, error) {
		return fn(ctx, params)
	}
	return mgr.CreateTask("elicitation/create", executor, nil, 0)
}

// CallToolAsTask wraps an outbound CallTool as a locally tracked task, so a
// host can fire a potentially slow tool call and poll/cancel it through the
// task manager instead of blocking on the round trip.
func (c *Client) CallToolAsTask(name string, args json.RawMessage) (*task.Task, error) {
	mgr := c.Tasks()
	if mgr == nil {
		return nil, errNoTaskManager
	}

	executor := func(ctx context.Context, _ task.ProgressFunc) (any, error) {
		return c.CallTool(ctx, name, args)
	}
	return mgr.CreateTask(schema.MethodCallTool, executor, map[string]any{"tool": name}, 0)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE

var (
	errNoTaskManager   = &noTaskManagerError{}
	errNoElicitHandler = &noElicitHandlerError{}
)

type noTaskManagerError struct{}

func (e *noTaskManagerError) Error() string {
	return "mcp: no task manager registered; call UseTasks first"
}

type noElicitHandlerError struct{}

func (e *noElicitHandlerError) Error() string { return "no handler registered" }
