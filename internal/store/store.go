package store

import (
	"log/slog"
	"slices"
	"sync"
)

// Listener is called after every dispatch with the action and the resulting state.
// Listeners run while the dispatch lock is held and must not dispatch themselves.
type Listener func(action Action, state State)

// Store owns the state and serialises dispatches: actions are applied strictly in arrival order.
type Store struct {
	dispatchMu sync.Mutex
	mu         sync.RWMutex
	state      State
	listeners  []subscription
	nextID     int
	logger     *slog.Logger
}

// New creates a store holding NewState().
func New(logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		state:     NewState(),
		logger:    logger,
	}
}

// Dispatch reduces action into the current state and notifies listeners.
func (s *Store) Dispatch(action Action) State {
	s.dispatchMu.Lock()
	defer s.dispatchMu.Unlock()

	s.mu.Lock()
	prev := s.state
	next := Reduce(prev, action)
	s.state = next
	listeners := make([]Listener, 0, len(s.listeners))
	for _, sub := range s.listeners {
		listeners = append(listeners, sub.listener)
	}
	s.mu.Unlock()

	if next.Version == prev.Version {
		s.logger.Debug("Action left state unchanged", slog.String("action", action.Name()))
	}
	for _, l := range listeners {
		l(action, next)
	}
	return next
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.DeepCopy()
}

// View returns the current state without copying. Callers must treat it as read-only.
func (s *Store) View() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Version returns the current state version.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Version
}

type subscription struct {
	id       int
	listener Listener
}

// Subscribe registers l and returns a func that removes it. Listeners are called in
// subscription order.
func (s *Store) Subscribe(l Listener) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, listener: l})
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.listeners = slices.DeleteFunc(s.listeners, func(sub subscription) bool { return sub.id == id })
	}
}
