package loop

import (
	"fmt"

	"github.com/parleyhq/parley/internal/state"
)

// DocName is the document the loop state persists under.
const DocName = "loop_state"

// Manager owns the durable loop state. Every mutating call runs against
// a copy, persists the copy, and only then swaps it in: on a persistence
// failure the in-memory state still matches what a subsequent reader
// would load from disk.
type Manager struct {
	store state.Store
	st    *State
}

// NewManager loads the session state from store, creating a fresh one
// with the given ceiling when none exists. A persisted document's own
// ceiling always wins; maxIterations only seeds new sessions, and zero
// means DefaultMaxIterations.
func NewManager(store state.Store, maxIterations int) (*Manager, error) {
	st := NewState(maxIterations)
	found, err := store.Load(DocName, st)
	if err != nil {
		return nil, err
	}
	if !found {
		if err := store.Save(DocName, st); err != nil {
			return nil, err
		}
	}
	return &Manager{store: store, st: st}, nil
}

// State returns a copy of the current state for display.
func (m *Manager) State() State {
	return *m.st.clone()
}

// RecordEvent appends an entry to the history, stamped with the current
// iteration and phase. It never mutates iteration or phase itself.
func (m *Manager) RecordEvent(name string, details map[string]any) error {
	return m.mutate(func(st *State) error {
		if details == nil {
			details = map[string]any{}
		}
		st.History = append(st.History, Event{
			Iteration: st.Iteration,
			Phase:     st.Phase,
			Name:      name,
			Details:   details,
		})
		return nil
	})
}

// AdvanceIteration consumes one iteration slot.
func (m *Manager) AdvanceIteration() error {
	return m.mutate(func(st *State) error {
		if st.Resolved {
			return ErrAlreadyResolved
		}
		if st.Iteration >= st.MaxIterations {
			return fmt.Errorf("%w: iteration %d of %d",
				ErrCeilingExceeded, st.Iteration, st.MaxIterations)
		}
		st.Iteration++
		return nil
	})
}

// SetPhase moves the loop to the given phase.
func (m *Manager) SetPhase(phase Phase) error {
	return m.mutate(func(st *State) error {
		if !ValidPhase(phase) {
			return fmt.Errorf("%w: %q", ErrInvalidPhase, phase)
		}
		st.Phase = phase
		return nil
	})
}

// SetConflicts replaces the conflicts recorded for the latest round.
func (m *Manager) SetConflicts(conflicts []string) error {
	return m.mutate(func(st *State) error {
		st.LastConflicts = append([]string{}, conflicts...)
		return nil
	})
}

// MarkResolved terminally resolves the session. Valid from any phase and
// idempotent; only AdvanceIteration refuses to run afterwards.
func (m *Manager) MarkResolved() error {
	return m.mutate(func(st *State) error {
		st.Resolved = true
		return nil
	})
}

// Reset deletes the persisted document and starts a fresh session with
// the same ceiling.
func (m *Manager) Reset() error {
	if err := m.store.Delete(DocName); err != nil {
		return err
	}
	m.st = NewState(m.st.MaxIterations)
	return nil
}

// mutate applies fn to a copy of the state, persists it, and swaps it in.
// Precondition failures and persistence failures both leave the current
// state untouched.
func (m *Manager) mutate(fn func(*State) error) error {
	next := m.st.clone()
	if err := fn(next); err != nil {
		return err
	}
	if err := m.store.Save(DocName, next); err != nil {
		return err
	}
	m.st = next
	return nil
}
