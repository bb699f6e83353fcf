package task

import (
	"context"
	"encoding/json"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// RequestList filters tasks/list by state and/or type; both are optional.
type RequestList struct {
	State string `json:"state,omitempty"`
	Type  string `json:"type,omitempty"`
}

// ResponseList is the tasks/list result.
type ResponseList struct {
	Tasks []*Task `json:"tasks"`
}

// RequestGet is the tasks/get params body.
type RequestGet struct {
	TaskID string `json:"taskId"`
}

// RequestCancel is the tasks/cancel params body.
type RequestCancel struct {
	TaskID string `json:"taskId"`
	Reason string `json:"reason,omitempty"`
}

// Handler answers the server-facing tasks/list, tasks/get, tasks/cancel
// surface (§4.5) by delegating to a Manager. A Client wires it in with
// three OnRequest registrations; see client.Client.UseTasks.
type Handler struct {
	manager *Manager
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewHandler builds a Handler bound to manager.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// List answers tasks/list.
func (h *Handler) List(_ context.Context, payload json.RawMessage) (any, error) {
	var req RequestList
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &req); err != nil {
			return nil, err
		}
	}
	return ResponseList{Tasks: h.manager.List(State(req.State), req.Type)}, nil
}

// Get answers tasks/get.
func (h *Handler) Get(_ context.Context, payload json.RawMessage) (any, error) {
	var req RequestGet
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	return h.manager.Get(req.TaskID)
}

// Cancel answers tasks/cancel, converting the manager's idempotent
// no-change-on-terminal result into a distinct NotCancellableError for the
// RPC surface, per §4.5's "not-found or not-cancellable ... each raise a
// distinct error kind".
func (h *Handler) Cancel(_ context.Context, payload json.RawMessage) (any, error) {
	var req RequestCancel
	if err := json.Unmarshal(payload, &req); err != nil {
		return nil, err
	}
	changed, err := h.manager.CancelTask(req.TaskID, req.Reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		t, getErr := h.manager.Get(req.TaskID)
		state := Cancelled
		if getErr == nil {
			state = t.State
		}
		return nil, &NotCancellableError{ID: req.TaskID, State: state}
	}
	return h.manager.Get(req.TaskID)
}
