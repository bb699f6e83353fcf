package task_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	task "github.com/mutablelogic/go-mcp/pkg/mcp/task"
)

func TestStateIsTerminal(t *testing.T) {
	assert := assert.New(t)

	assert.False(task.Pending.IsTerminal())
	assert.False(task.Running.IsTerminal())
	assert.True(task.Completed.IsTerminal())
	assert.True(task.Failed.IsTerminal())
	assert.True(task.Cancelled.IsTerminal())
}
