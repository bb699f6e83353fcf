package client

import (
	"sync"

	schema "github.com/mutablelogic/go-mcp/pkg/mcp/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// RootsLockedError is returned by Set once the roots list has been locked
// with Lock.
type RootsLockedError struct{}

func (e *RootsLockedError) Error() string { return "mcp: roots list is locked" }

// RootsManager owns the client-side filesystem root list exposed to the
// server via roots/list.
type RootsManager struct {
	mu     sync.Mutex
	roots  []schema.Root
	locked bool
	onChange func()
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func newRootsManager() *RootsManager {
	return &RootsManager{}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// List returns the current roots for serving roots/list.
func (r *RootsManager) List() schema.ResponseListRoots {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schema.Root, len(r.roots))
	copy(out, r.roots)
	return schema.ResponseListRoots{Roots: out}
}

// Set replaces the root list wholesale. Fails with RootsLockedError once
// the list has been locked.
func (r *RootsManager) Set(roots []schema.Root) error {
	r.mu.Lock()
	if r.locked {
		r.mu.Unlock()
		return &RootsLockedError{}
	}
	r.roots = append([]schema.Root(nil), roots...)
	onChange := r.onChange
	r.mu.Unlock()
	if onChange != nil {
		onChange()
	}
	return nil
}

// Lock freezes the root list; subsequent Set calls fail.
func (r *RootsManager) Lock() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.locked = true
}

// OnChange registers a callback fired after Set succeeds. The client does
// not register one itself, so it sends no notifications/roots/list_changed
// when the list changes.
func (r *RootsManager) OnChange(fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.onChange = fn
}
