package task

import (
	"context"
	"fmt"
	"sync"
	"time"

	// Packages
	uuid "github.com/google/uuid"
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ProgressFunc reports incremental progress from inside an Executor. It is
// a no-op once the task has left RUNNING (cancelled or timed out).
type ProgressFunc func(current float64, total *float64, message string)

// Executor is the background work a task wraps. It receives a context
// bounded by the task's timeout (cancelled early on Manager.CancelTask)
// and a ProgressFunc bound to this task's id.
type Executor func(ctx context.Context, progress ProgressFunc) (any, error)

// TooManyTasksError reports that Manager.CreateTask was refused because
// max_concurrent active tasks are already running.
type TooManyTasksError struct {
	Max int
}

func (e *TooManyTasksError) Error() string {
	return fmt.Sprintf("mcp: too many concurrent tasks (max %d)", e.Max)
}

// NotFoundError reports that no task with the given id is known to the
// manager.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string { return "mcp: task not found: " + e.ID }

// NotCancellableError reports that a tasks/cancel call named a task that
// is already in a terminal state.
type NotCancellableError struct {
	ID    string
	State State
}

func (e *NotCancellableError) Error() string {
	return "mcp: task " + e.ID + " is not cancellable (state " + string(e.State) + ")"
}

// Manager owns the task map and the background executors servicing each
// non-terminal task. Safe for concurrent use; callers may hold at most
// this one mutex at a time (§5).
type Manager struct {
	mu      sync.Mutex
	tasks   map[string]*Task
	cancels map[string]context.CancelFunc

	maxConcurrent  int
	defaultTimeout time.Duration
	completedTTL   time.Duration
	sweepInterval  time.Duration
	store          Store

	sweepStop chan struct{}
	sweepDone chan struct{}
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

// Defaults per spec §5.
const (
	DefaultMaxConcurrent  = 16
	DefaultTaskTimeout    = 300 * time.Second
	DefaultCompletedTTL   = time.Hour
	DefaultSweepInterval  = 60 * time.Second
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// NewManager builds a Manager and starts its background sweeper.
func NewManager(opts ...ManagerOpt) *Manager {
	m := &Manager{
		tasks:          make(map[string]*Task),
		cancels:        make(map[string]context.CancelFunc),
		maxConcurrent:  DefaultMaxConcurrent,
		defaultTimeout: DefaultTaskTimeout,
		completedTTL:   DefaultCompletedTTL,
		sweepInterval:  DefaultSweepInterval,
		sweepStop:      make(chan struct{}),
		sweepDone:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	go m.sweepLoop()
	return m
}

// Close stops the background sweeper. It does not cancel in-flight tasks.
func (m *Manager) Close() error {
	close(m.sweepStop)
	<-m.sweepDone
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CreateTask inserts a PENDING task of the given type and spawns executor
// in the background. metadata is copied onto the task record; timeout of
// zero uses the manager's default.
func (m *Manager) CreateTask(taskType string, executor Executor, metadata map[string]any, timeout time.Duration) (*Task, error) {
	if timeout <= 0 {
		timeout = m.defaultTimeout
	}

	m.mu.Lock()
	if m.activeCountLocked() >= m.maxConcurrent {
		m.mu.Unlock()
		return nil, &TooManyTasksError{Max: m.maxConcurrent}
	}

	now := time.Now()
	t := &Task{
		ID:        uuid.NewString(),
		Type:      taskType,
		State:     Pending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if len(metadata) > 0 {
		t.Metadata = make(map[string]any, len(metadata))
		for k, v := range metadata {
			t.Metadata[k] = v
		}
	}
	m.tasks[t.ID] = t
	out := t.clone()
	m.mu.Unlock()

	m.persist(t)
	go m.run(t.ID, executor, timeout)

	return out, nil
}

// Get returns the current state of a task by id.
func (m *Manager) Get(id string) (*Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return t.clone(), nil
}

// List returns every known task, optionally filtered by state and/or type.
// An empty filter value matches everything.
func (m *Manager) List(state State, taskType string) []*Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Task, 0, len(m.tasks))
	for _, t := range m.tasks {
		if state != "" && t.State != state {
			continue
		}
		if taskType != "" && t.Type != taskType {
			continue
		}
		out = append(out, t.clone())
	}
	return out
}

// CancelTask cancels the executor (if still running) and transitions the
// task to CANCELLED, recording reason in its metadata. It returns
// (false, nil) for a task already in a terminal state, making no change,
// per the idempotence invariant of §8.
func (m *Manager) CancelTask(id, reason string) (bool, error) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok {
		m.mu.Unlock()
		return false, &NotFoundError{ID: id}
	}
	if t.State.IsTerminal() {
		m.mu.Unlock()
		return false, nil
	}

	cancel := m.cancels[id]
	_ = t.transition(Cancelled)
	if reason != "" {
		if t.Metadata == nil {
			t.Metadata = make(map[string]any)
		}
		t.Metadata["cancelReason"] = reason
	}
	out := t.clone()
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	m.persist(out)
	return true, nil
}

// UpdateProgress records a progress report for id. Per §4.5 it is ignored
// (not an error) unless the task is currently RUNNING.
func (m *Manager) UpdateProgress(id string, current float64, total *float64, message string) {
	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok || t.State != Running {
		m.mu.Unlock()
		return
	}
	t.Progress = &Progress{Current: current, Total: total, Message: message}
	t.UpdatedAt = time.Now()
	out := t.clone()
	m.mu.Unlock()
	m.persist(out)
}

// RestoreTasks loads every persisted task into memory without re-spawning
// executors, per §4.5/§9: a restart cannot resume an arbitrary executor, so
// non-terminal tasks are conservatively kept as still-active records. They
// stay so until CancelTask ends them: the sweeper removes only terminal
// tasks.
func (m *Manager) RestoreTasks() error {
	if m.store == nil {
		return nil
	}
	tasks, err := m.store.List()
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range tasks {
		m.tasks[t.ID] = t
	}
	return nil
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// activeCountLocked counts PENDING/RUNNING tasks. Callers hold m.mu.
func (m *Manager) activeCountLocked() int {
	n := 0
	for _, t := range m.tasks {
		if !t.State.IsTerminal() {
			n++
		}
	}
	return n
}

// run drives a single task's executor from PENDING through to a terminal
// state. It never lets a terminal state be overwritten by a race with
// CancelTask: the final transition is attempted only if the task is still
// RUNNING when the executor returns.
func (m *Manager) run(id string, executor Executor, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	m.mu.Lock()
	t, ok := m.tasks[id]
	if !ok || t.State != Pending {
		m.mu.Unlock()
		return
	}
	_ = t.transition(Running)
	m.cancels[id] = cancel
	out := t.clone()
	m.mu.Unlock()
	m.persist(out)

	progress := func(current float64, total *float64, message string) {
		m.UpdateProgress(id, current, total, message)
	}

	result, err := executor(ctx, progress)

	m.mu.Lock()
	delete(m.cancels, id)
	t, ok = m.tasks[id]
	if !ok || t.State != Running {
		// Already CANCELLED (or otherwise settled) by a concurrent caller.
		m.mu.Unlock()
		return
	}

	switch {
	case err != nil && ctx.Err() == context.DeadlineExceeded:
		t.Error = schema.ErrTimeout(timeout.Seconds())
		_ = t.transition(Failed)
	case err != nil:
		t.Error = schema.NewError(schema.ErrorCodeInternalError, err.Error())
		_ = t.transition(Failed)
	default:
		t.Result = result
		_ = t.transition(Completed)
	}
	out = t.clone()
	m.mu.Unlock()
	m.persist(out)
}

// sweepLoop periodically removes terminal tasks older than completedTTL.
func (m *Manager) sweepLoop() {
	defer close(m.sweepDone)
	ticker := time.NewTicker(m.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-m.sweepStop:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}

func (m *Manager) sweep() {
	cutoff := time.Now().Add(-m.completedTTL)
	m.mu.Lock()
	var expired []string
	for id, t := range m.tasks {
		if t.State.IsTerminal() && t.CompletedAt != nil && t.CompletedAt.Before(cutoff) {
			expired = append(expired, id)
			delete(m.tasks, id)
		}
	}
	m.mu.Unlock()

	if m.store == nil {
		return
	}
	for _, id := range expired {
		_ = m.store.Delete(id)
	}
}

func (m *Manager) persist(t *Task) {
	if m.store == nil {
		return
	}
	_ = m.store.Save(t)
}
