// Package task implements the MCP task subsystem: a durable, cancellable
// record of a long-running operation, the small state machine that governs
// it, a concurrency-capped manager that runs its executor in the
// background, and an optional on-disk store for surviving a restart.
package task

import (
	"fmt"
	"time"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// State is one stage of a task's lifecycle.
type State string

const (
	Pending   State = "pending"
	Running   State = "running"
	Completed State = "completed"
	Failed    State = "failed"
	Cancelled State = "cancelled"
)

// IsTerminal reports whether s is one of the three terminal states.
func (s State) IsTerminal() bool {
	return s == Completed || s == Failed || s == Cancelled
}

// InvalidTransition is raised when an unpermitted task state edge is
// attempted; a programming error, never surfaced to a caller over the wire.
type InvalidTransition struct {
	From, To State
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("mcp: invalid task transition: %s -> %s", e.From, e.To)
}

// Progress is the last progress report an executor made for a task.
type Progress struct {
	Current float64  `json:"current"`
	Total   *float64 `json:"total,omitempty"`
	Message string   `json:"message,omitempty"`
}

// Task is the durable record of a long-running operation. Its wire form
// (the JSON below) is both the tasks/get response shape and the on-disk
// persistence format.
type Task struct {
	ID          string         `json:"id"`
	Type        string         `json:"type"`
	State       State          `json:"state"`
	Progress    *Progress      `json:"progress,omitempty"`
	Result      any            `json:"result,omitempty"`
	Error       *schema.Error  `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	StartedAt   *time.Time     `json:"startedAt,omitempty"`
	CompletedAt *time.Time     `json:"completedAt,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// validTransitions is the table of §4.5: PENDING -> RUNNING|CANCELLED,
// RUNNING -> COMPLETED|FAILED|CANCELLED, terminal states have no outbound
// edges.
var validTransitions = map[State][]State{
	Pending:   {Running, Cancelled},
	Running:   {Completed, Failed, Cancelled},
	Completed: {},
	Failed:    {},
	Cancelled: {},
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// DurationSeconds reports how long the task has been (or was) running: zero
// if it never reached RUNNING, otherwise StartedAt to CompletedAt, or
// StartedAt to now if it is still in flight.
func (t *Task) DurationSeconds() float64 {
	if t.StartedAt == nil {
		return 0
	}
	end := time.Now()
	if t.CompletedAt != nil {
		end = *t.CompletedAt
	}
	return end.Sub(*t.StartedAt).Seconds()
}

// clone returns a deep-enough copy for safe handoff across the manager's
// mutex boundary: callers must not be able to mutate manager-owned state
// through a returned *Task.
func (t *Task) clone() *Task {
	if t == nil {
		return nil
	}
	c := *t
	if t.Progress != nil {
		p := *t.Progress
		c.Progress = &p
	}
	if t.StartedAt != nil {
		s := *t.StartedAt
		c.StartedAt = &s
	}
	if t.CompletedAt != nil {
		ca := *t.CompletedAt
		c.CompletedAt = &ca
	}
	if t.Metadata != nil {
		m := make(map[string]any, len(t.Metadata))
		for k, v := range t.Metadata {
			m[k] = v
		}
		c.Metadata = m
	}
	return &c
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// transition moves t to s if the edge is permitted, stamping updatedAt (and
// startedAt/completedAt as appropriate). Callers hold the manager's mutex.
func (t *Task) transition(s State) error {
	permitted := false
	for _, to := range validTransitions[t.State] {
		if to == s {
			permitted = true
			break
		}
	}
	if !permitted {
		return &InvalidTransition{From: t.State, To: s}
	}

	now := time.Now()
	t.State = s
	t.UpdatedAt = now
	if s == Running && t.StartedAt == nil {
		t.StartedAt = &now
	}
	if s.IsTerminal() {
		t.CompletedAt = &now
	}
	return nil
}
