package web

import (
	"sync"
	"time"

	"github.com/parleyhq/parley/internal/debate"
	"github.com/parleyhq/parley/internal/loop"
	"github.com/parleyhq/parley/internal/state"
	"github.com/parleyhq/parley/internal/workflow"
)

// Store caches the persisted session documents for the viewer.
// Reloads replace whole documents, so readers always see a complete
// snapshot; a loaded document is never mutated afterwards.
type Store struct {
	mu       sync.RWMutex
	docs     state.Store
	debate   *debate.Result
	loop     loop.State
	workflow *workflow.State
	loadedAt time.Time
}

// NewStore creates a viewer store reading documents from docs.
// The loop snapshot starts at the default empty session.
func NewStore(docs state.Store) *Store {
	return &Store{
		docs: docs,
		loop: *loop.NewState(loop.DefaultMaxIterations),
	}
}

// ReloadAll refreshes every tracked document. All documents are
// attempted; the first error is returned.
func (s *Store) ReloadAll() error {
	var firstErr error
	for _, name := range []string{debate.DocName, loop.DocName, workflow.DocName} {
		if _, err := s.Reload(name); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Reload refreshes one document by name and reports whether the viewer
// tracks it. A missing document resets to its empty form; a decode
// failure keeps the previous copy and returns the error.
func (s *Store) Reload(name string) (bool, error) {
	switch name {
	case debate.DocName:
		res := &debate.Result{}
		found, err := s.docs.Load(name, res)
		if err != nil {
			return true, err
		}
		if !found {
			res = nil
		}
		s.mu.Lock()
		s.debate = res
		s.loadedAt = time.Now().UTC()
		s.mu.Unlock()
		return true, nil

	case loop.DocName:
		st := loop.NewState(loop.DefaultMaxIterations)
		if _, err := s.docs.Load(name, st); err != nil {
			return true, err
		}
		s.mu.Lock()
		s.loop = *st
		s.loadedAt = time.Now().UTC()
		s.mu.Unlock()
		return true, nil

	case workflow.DocName:
		st := &workflow.State{}
		found, err := s.docs.Load(name, st)
		if err != nil {
			return true, err
		}
		if !found {
			st = nil
		}
		s.mu.Lock()
		s.workflow = st
		s.loadedAt = time.Now().UTC()
		s.mu.Unlock()
		return true, nil
	}
	return false, nil
}

// Debate returns the loaded debate history, or nil when none exists.
func (s *Store) Debate() *debate.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.debate
}

// Loop returns the loaded loop state.
func (s *Store) Loop() loop.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loop
}

// Workflow returns the loaded workflow state, or nil when none exists.
func (s *Store) Workflow() *workflow.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.workflow
}

// Session returns the active workflow session id, or "".
func (s *Store) Session() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.workflow == nil {
		return ""
	}
	return s.workflow.SessionID
}

// Status assembles the aggregate snapshot. The SSE client count is
// filled in by the handler.
func (s *Store) Status() StatusSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := StatusSnapshot{
		Time:     time.Now().UTC(),
		Loop:     s.loop,
		Workflow: s.workflow,
	}
	if s.debate != nil {
		ds := &DebateStatus{
			RoundCount: s.debate.RoundCount(),
			MaxRounds:  debate.MaxRounds,
		}
		if last := s.debate.LatestRound(); last != nil {
			for _, out := range last.Outcomes {
				ds.Critics = append(ds.Critics, out.Name)
			}
		}
		snap.Debate = ds
	}
	return snap
}
