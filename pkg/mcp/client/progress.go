package client

import "sync"

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ProgressListener receives progress updates for a single progress token.
type ProgressListener func(progress, total float64, message string)

// progressTracker dispatches notifications/progress to per-token listeners,
// consumed automatically once a progress report reaches its total.
type progressTracker struct {
	mu        sync.Mutex
	listeners map[any]ProgressListener
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// OnProgress registers a listener for progress notifications tagged with
// token. The listener is removed once progress reaches total (is_complete).
func (c *Client) OnProgress(token any, fn ProgressListener) {
	c.progress.mu.Lock()
	defer c.progress.mu.Unlock()
	if c.progress.listeners == nil {
		c.progress.listeners = make(map[any]ProgressListener)
	}
	c.progress.listeners[token] = fn
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) dispatchProgress(token any, progress, total float64, message string) {
	c.progress.mu.Lock()
	fn, ok := c.progress.listeners[token]
	complete := total > 0 && progress >= total
	if ok && complete {
		delete(c.progress.listeners, token)
	}
	c.progress.mu.Unlock()
	if ok {
		fn(progress, total, message)
	}
}
