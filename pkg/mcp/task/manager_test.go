package task_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
)

func newTestManager(t *testing.T, opts ...task.ManagerOpt) *task.Manager {
	t.Helper()
	opts = append([]task.ManagerOpt{task.WithSweepInterval(time.Hour)}, opts...)
	m := task.NewManager(opts...)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestCreateTaskCompletes(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	done := make(chan struct{})
	tk, err := m.CreateTask("test", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		progress(0.5, nil, "halfway")
		close(done)
		return "ok", nil
	}, nil, time.Second)
	assert.NoError(err)
	assert.Equal(task.Pending, tk.State)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("executor never ran")
	}

	got := waitForTerminal(t, m, tk.ID)
	assert.Equal(task.Completed, got.State)
	assert.Equal("ok", got.Result)
	assert.NotNil(got.CompletedAt)
}

func TestCreateTaskFails(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	wantErr := errors.New("boom")
	tk, err := m.CreateTask("test", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		return nil, wantErr
	}, nil, time.Second)
	assert.NoError(err)

	got := waitForTerminal(t, m, tk.ID)
	assert.Equal(task.Failed, got.State)
	assert.NotNil(got.Error)
}

func TestCreateTaskTimeout(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	tk, err := m.CreateTask("test", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil, 20*time.Millisecond)
	assert.NoError(err)

	got := waitForTerminal(t, m, tk.ID)
	assert.Equal(task.Failed, got.State)
	assert.NotNil(got.Error)
}

func TestCancelTask(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	started := make(chan struct{})
	tk, err := m.CreateTask("test", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil, 5*time.Second)
	assert.NoError(err)

	<-started
	ok, err := m.CancelTask(tk.ID, "user requested")
	assert.NoError(err)
	assert.True(ok)

	got := waitForTerminal(t, m, tk.ID)
	assert.Equal(task.Cancelled, got.State)
	assert.Equal("user requested", got.Metadata["cancelReason"])

	// Cancelling an already-terminal task is a no-op, not an error.
	ok, err = m.CancelTask(tk.ID, "again")
	assert.NoError(err)
	assert.False(ok)
}

func TestCancelUnknownTask(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	_, err := m.CancelTask("does-not-exist", "")
	assert.Error(err)
	var nf *task.NotFoundError
	assert.ErrorAs(err, &nf)
}

func TestTooManyTasks(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t, task.WithMaxConcurrent(1))
	block := make(chan struct{})
	_, err := m.CreateTask("test", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		<-block
		return nil, nil
	}, nil, 5*time.Second)
	assert.NoError(err)

	_, err = m.CreateTask("test", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		return nil, nil
	}, nil, 5*time.Second)
	assert.Error(err)
	var tm *task.TooManyTasksError
	assert.ErrorAs(err, &tm)

	close(block)
}

func TestUpdateProgressIgnoredUnlessRunning(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	// No task with this id exists yet; UpdateProgress must not panic.
	m.UpdateProgress("missing", 0.1, nil, "x")

	block := make(chan struct{})
	started := make(chan struct{})
	tk, err := m.CreateTask("test", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		close(started)
		<-block
		return nil, nil
	}, nil, 5*time.Second)
	assert.NoError(err)
	<-started

	total := 10.0
	m.UpdateProgress(tk.ID, 3, &total, "working")
	got, err := m.Get(tk.ID)
	assert.NoError(err)
	assert.NotNil(got.Progress)
	assert.Equal(3.0, got.Progress.Current)

	close(block)
	waitForTerminal(t, m, tk.ID)
}

func TestListFiltersByStateAndType(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	done := make(chan struct{})
	_, err := m.CreateTask("alpha", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		<-done
		return nil, nil
	}, nil, 5*time.Second)
	assert.NoError(err)

	_, err = m.CreateTask("beta", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		return "ok", nil
	}, nil, 5*time.Second)
	assert.NoError(err)

	assert.Eventually(func() bool {
		return len(m.List(task.Completed, "")) == 1
	}, time.Second, 10*time.Millisecond)

	assert.Len(m.List("", "alpha"), 1)
	assert.Len(m.List(task.Running, ""), 1)
	close(done)
}

func TestPersistenceRoundTrip(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	store, err := task.NewFileStore(dir)
	assert.NoError(err)

	m := newTestManager(t, task.WithStore(store))
	block := make(chan struct{})
	started := make(chan struct{})
	tk, err := m.CreateTask("long", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		close(started)
		<-block
		return "done", nil
	}, map[string]any{"origin": "test"}, 5*time.Second)
	assert.NoError(err)
	<-started

	// Simulate a restart: a fresh manager backed by the same store must see
	// the still-running task as a record, without re-spawning its executor.
	m2 := newTestManager(t, task.WithStore(store))
	assert.NoError(m2.RestoreTasks())

	restored, err := m2.Get(tk.ID)
	assert.NoError(err)
	assert.Equal(task.Running, restored.State)
	assert.Equal("test", restored.Metadata["origin"])

	close(block)
	waitForTerminal(t, m, tk.ID)

	// The original manager's store write must be visible on disk.
	loaded, err := store.Load(tk.ID)
	assert.NoError(err)
	assert.Equal(task.Completed, loaded.State)
}

func TestFileStoreDeleteMissingIsNoop(t *testing.T) {
	assert := assert.New(t)

	dir := t.TempDir()
	store, err := task.NewFileStore(dir)
	assert.NoError(err)
	assert.NoError(store.Delete("never-existed"))
}

func TestFileStoreRequiresDir(t *testing.T) {
	assert := assert.New(t)

	_, err := task.NewFileStore("")
	assert.Error(err)
	assert.True(errors.Is(err, os.ErrInvalid))
}

func waitForTerminal(t *testing.T, m *task.Manager, id string) *task.Task {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := m.Get(id)
		if err != nil {
			t.Fatal(err)
		}
		if got.State.IsTerminal() {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("task never reached a terminal state")
	return nil
}
