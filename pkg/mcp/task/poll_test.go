package task_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
)

type fakeGetter struct {
	calls   int
	results []*task.Task
}

func (f *fakeGetter) GetTask(_ context.Context, _ string) (*task.Task, error) {
	i := f.calls
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	f.calls++
	return f.results[i], nil
}

func TestPollUntilCompleteReturnsImmediatelyIfTerminal(t *testing.T) {
	assert := assert.New(t)

	g := &fakeGetter{results: []*task.Task{{ID: "t1", State: task.Completed}}}
	got, err := task.PollUntilComplete(context.Background(), g, "t1", 10*time.Millisecond)
	assert.NoError(err)
	assert.Equal(task.Completed, got.State)
	assert.Equal(1, g.calls)
}

func TestPollUntilCompletePollsUntilTerminal(t *testing.T) {
	assert := assert.New(t)

	g := &fakeGetter{results: []*task.Task{
		{ID: "t1", State: task.Running},
		{ID: "t1", State: task.Running},
		{ID: "t1", State: task.Completed},
	}}
	got, err := task.PollUntilComplete(context.Background(), g, "t1", 5*time.Millisecond)
	assert.NoError(err)
	assert.Equal(task.Completed, got.State)
	assert.GreaterOrEqual(g.calls, 3)
}

func TestPollUntilCompleteContextCancelled(t *testing.T) {
	assert := assert.New(t)

	g := &fakeGetter{results: []*task.Task{{ID: "t1", State: task.Running}}}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := task.PollUntilComplete(ctx, g, "t1", 5*time.Millisecond)
	assert.Error(err)
}
