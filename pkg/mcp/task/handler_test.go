package task_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
)

func TestHandlerListGetCancel(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	h := task.NewHandler(m)

	started := make(chan struct{})
	tk, err := m.CreateTask("widget", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		close(started)
		<-ctx.Done()
		return nil, ctx.Err()
	}, nil, 5*time.Second)
	assert.NoError(err)
	<-started

	listResp, err := h.List(context.Background(), nil)
	assert.NoError(err)
	rl, ok := listResp.(task.ResponseList)
	assert.True(ok)
	assert.Len(rl.Tasks, 1)

	getPayload, _ := json.Marshal(task.RequestGet{TaskID: tk.ID})
	got, err := h.Get(context.Background(), getPayload)
	assert.NoError(err)
	gotTask, ok := got.(*task.Task)
	assert.True(ok)
	assert.Equal(tk.ID, gotTask.ID)

	cancelPayload, _ := json.Marshal(task.RequestCancel{TaskID: tk.ID, Reason: "done testing"})
	cancelled, err := h.Cancel(context.Background(), cancelPayload)
	assert.NoError(err)
	cancelledTask, ok := cancelled.(*task.Task)
	assert.True(ok)
	assert.Equal(task.Cancelled, cancelledTask.State)

	// Cancelling again hits the already-terminal branch and must report
	// NotCancellableError rather than silently succeeding.
	_, err = h.Cancel(context.Background(), cancelPayload)
	assert.Error(err)
	var nc *task.NotCancellableError
	assert.ErrorAs(err, &nc)
	assert.Equal(task.Cancelled, nc.State)
}

func TestHandlerGetUnknownTask(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	h := task.NewHandler(m)

	payload, _ := json.Marshal(task.RequestGet{TaskID: "missing"})
	_, err := h.Get(context.Background(), payload)
	assert.Error(err)
	var nf *task.NotFoundError
	assert.ErrorAs(err, &nf)
}

func TestHandlerListFiltersByType(t *testing.T) {
	assert := assert.New(t)

	m := newTestManager(t)
	h := task.NewHandler(m)

	_, err := m.CreateTask("alpha", func(ctx context.Context, progress task.ProgressFunc) (any, error) {
		return nil, nil
	}, nil, time.Second)
	assert.NoError(err)

	payload, _ := json.Marshal(task.RequestList{Type: "beta"})
	listResp, err := h.List(context.Background(), payload)
	assert.NoError(err)
	rl := listResp.(task.ResponseList)
	assert.Len(rl.Tasks, 0)
}
