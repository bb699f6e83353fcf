package task

import (
	"context"
	"time"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// Getter fetches a task by id over the wire. client.Client implements it
// via GetTask (a tasks/get round trip); poll.go is kept decoupled from the
// client package so the task package has no import back to it.
type Getter interface {
	GetTask(ctx context.Context, id string) (*Task, error)
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// PollUntilComplete repeatedly calls getter.GetTask(id) every interval
// until the task reaches a terminal state or ctx is done, for servers that
// do not push task progress notifications. It returns the final Task.
func PollUntilComplete(ctx context.Context, getter Getter, id string, interval time.Duration) (*Task, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	t, err := getter.GetTask(ctx, id)
	if err != nil {
		return nil, err
	}
	if t.State.IsTerminal() {
		return t, nil
	}

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			t, err := getter.GetTask(ctx, id)
			if err != nil {
				return nil, err
			}
			if t.State.IsTerminal() {
				return t, nil
			}
		}
	}
}
