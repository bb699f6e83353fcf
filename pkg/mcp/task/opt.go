package task

import "time"

///////////////////////////////////////////////////////////////////////////////
// TYPES

// ManagerOpt configures a Manager at construction time, matching the
// functional-options idiom used throughout this module (see
// transport.ConfigOpt).
type ManagerOpt func(*Manager)

///////////////////////////////////////////////////////////////////////////////
// OPTIONS

// WithMaxConcurrent overrides the active-task gate (PENDING+RUNNING count)
// Manager.CreateTask enforces.
func WithMaxConcurrent(n int) ManagerOpt {
	return func(m *Manager) {
		if n > 0 {
			m.maxConcurrent = n
		}
	}
}

// WithDefaultTimeout overrides the per-task timeout used when CreateTask is
// called with timeout <= 0.
func WithDefaultTimeout(d time.Duration) ManagerOpt {
	return func(m *Manager) {
		if d > 0 {
			m.defaultTimeout = d
		}
	}
}

// WithCompletedTTL overrides how long a terminal task is kept before the
// sweeper removes it.
func WithCompletedTTL(d time.Duration) ManagerOpt {
	return func(m *Manager) {
		if d > 0 {
			m.completedTTL = d
		}
	}
}

// WithSweepInterval overrides how often the sweeper runs.
func WithSweepInterval(d time.Duration) ManagerOpt {
	return func(m *Manager) {
		if d > 0 {
			m.sweepInterval = d
		}
	}
}

// WithStore enables persistence: every task state change is written
// through store, and RestoreTasks loads its contents back into memory.
func WithStore(store Store) ManagerOpt {
	return func(m *Manager) {
		m.store = store
	}
}
