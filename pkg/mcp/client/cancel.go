package client

import (
	"context"
	"sync"

	// Packages
	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// CancellationError reports an attempt to cancel a request that cannot be
// cancelled, namely "initialize" per spec: the handshake must complete or
// fail outright, never be interrupted mid-flight.
type CancellationError struct {
	ID string
}

func (e *CancellationError) Error() string {
	return "mcp: request " + e.ID + " cannot be cancelled"
}

// CancelListener is notified when the server cancels a request it
// previously sent to this client (e.g. an in-flight sampling/createMessage
// the client is still servicing).
type CancelListener func(id, reason string)

type cancellation struct {
	mu        sync.Mutex
	perID     map[string]CancelListener
	global    []CancelListener
	initID    string
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// CancelRequest cancels an outbound pending request by id: it notifies the
// server via notifications/cancelled and completes the local waiter with
// REQUEST_CANCELLED. Cancelling "initialize" is refused.
func (c *Client) CancelRequest(ctx context.Context, id, reason string) error {
	if id == c.initializeRequestID() {
		return &CancellationError{ID: id}
	}

	c.mu.Lock()
	ch, ok := c.pending[id]
	if ok {
		delete(c.pending, id)
	}
	c.mu.Unlock()

	if !ok {
		return nil
	}

	if _, err := c.Notify(ctx, schema.NotificationCancelled, schema.CancelledNotification{RequestID: id, Reason: reason}); err != nil {
		return err
	}
	ch <- rpcResult{rpcErr: schema.ErrCancelled(reason)}
	return nil
}

// OnCancel registers a listener for notifications/cancelled sent by the
// server against requestID. The listener fires at most once.
func (c *Client) OnCancel(requestID string, fn CancelListener) {
	c.cancellation.mu.Lock()
	defer c.cancellation.mu.Unlock()
	if c.cancellation.perID == nil {
		c.cancellation.perID = make(map[string]CancelListener)
	}
	c.cancellation.perID[requestID] = fn
}

// OnAnyCancel registers a listener invoked for every notifications/cancelled
// the server sends, in addition to any per-id listener.
func (c *Client) OnAnyCancel(fn CancelListener) {
	c.cancellation.mu.Lock()
	defer c.cancellation.mu.Unlock()
	c.cancellation.global = append(c.cancellation.global, fn)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

func (c *Client) initializeRequestID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cancellation.initID
}

func (c *Client) dispatchServerCancel(note schema.CancelledNotification) {
	c.cancellation.mu.Lock()
	fn, ok := c.cancellation.perID[note.RequestID]
	if ok {
		delete(c.cancellation.perID, note.RequestID)
	}
	globals := append([]CancelListener(nil), c.cancellation.global...)
	c.cancellation.mu.Unlock()

	if ok && fn != nil {
		fn(note.RequestID, note.Reason)
	}
	for _, g := range globals {
		g(note.RequestID, note.Reason)
	}
}
