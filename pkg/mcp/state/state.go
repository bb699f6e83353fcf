// Package state implements the MCP protocol lifecycle state machine shared
// by the client and, indirectly, every higher layer that asks "am I ready
// to talk to this server".
package state

import (
	"fmt"
	"sync"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ProtocolState is one stage of the MCP connection lifecycle.
type ProtocolState int

const (
	Disconnected ProtocolState = iota
	Connecting
	Initializing
	Ready
	Closing
	Closed
)

func (s ProtocolState) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Initializing:
		return "INITIALIZING"
	case Ready:
		return "READY"
	case Closing:
		return "CLOSING"
	case Closed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// InvalidTransition is raised when an unpermitted edge is attempted.
type InvalidTransition struct {
	From, To ProtocolState
}

func (e *InvalidTransition) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// TransitionFunc is notified on every transition, forced or not.
type TransitionFunc func(from, to ProtocolState)

// Machine enforces the transition table of spec §4.3 and notifies
// listeners. It is safe for concurrent use.
type Machine struct {
	mu        sync.Mutex
	state     ProtocolState
	listeners []TransitionFunc
}

///////////////////////////////////////////////////////////////////////////////
// GLOBALS

var validTransitions = map[ProtocolState][]ProtocolState{
	Disconnected: {Connecting},
	Connecting:   {Initializing, Disconnected},
	Initializing: {Ready, Disconnected},
	Ready:        {Closing, Disconnected},
	Closing:      {Closed, Disconnected},
	Closed:       {},
}

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

// New creates a Machine starting in DISCONNECTED.
func New() *Machine {
	return &Machine{state: Disconnected}
}

///////////////////////////////////////////////////////////////////////////////
// PUBLIC METHODS

// State returns the current state.
func (m *Machine) State() ProtocolState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// IsConnected reports whether the machine is INITIALIZING or READY.
func (m *Machine) IsConnected() bool {
	s := m.State()
	return s == Initializing || s == Ready
}

// IsReady reports whether the machine is fully initialized.
func (m *Machine) IsReady() bool {
	return m.State() == Ready
}

// IsClosed reports whether the machine is CLOSED or DISCONNECTED.
func (m *Machine) IsClosed() bool {
	s := m.State()
	return s == Closed || s == Disconnected
}

// CanTransitionTo reports whether to is a permitted edge from the current
// state.
func (m *Machine) CanTransitionTo(to ProtocolState) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canTransitionTo(to)
}

// Transition moves to the given state, returning *InvalidTransition if the
// edge is not in the table.
func (m *Machine) Transition(to ProtocolState) error {
	m.mu.Lock()
	if !m.canTransitionTo(to) {
		from := m.state
		m.mu.Unlock()
		return &InvalidTransition{From: from, To: to}
	}
	from := m.state
	m.state = to
	listeners := append([]TransitionFunc(nil), m.listeners...)
	m.mu.Unlock()

	notify(listeners, from, to)
	return nil
}

// ForceState bypasses the transition table. It exists for error recovery
// when the transport reports an unrecoverable failure mid-flight; use with
// caution.
func (m *Machine) ForceState(to ProtocolState) {
	m.mu.Lock()
	from := m.state
	m.state = to
	listeners := append([]TransitionFunc(nil), m.listeners...)
	m.mu.Unlock()

	notify(listeners, from, to)
}

// OnTransition registers a callback invoked after every successful or
// forced transition.
func (m *Machine) OnTransition(fn TransitionFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listeners = append(m.listeners, fn)
}

// Reset forces the machine back to DISCONNECTED.
func (m *Machine) Reset() {
	m.ForceState(Disconnected)
}

///////////////////////////////////////////////////////////////////////////////
// PRIVATE METHODS

// canTransitionTo must be called with m.mu held.
func (m *Machine) canTransitionTo(to ProtocolState) bool {
	for _, s := range validTransitions[m.state] {
		if s == to {
			return true
		}
	}
	return false
}

func notify(listeners []TransitionFunc, from, to ProtocolState) {
	for _, fn := range listeners {
		func() {
			defer func() { recover() }()
			fn(from, to)
		}()
	}
}
