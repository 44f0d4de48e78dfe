// Package memory provides in-process implementations of the numbering stores.
//
// They back unit tests and single-node development runs. State is lost on
// restart, so they are never selected for production deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"policyhub/internal/domain/numbering"
)

// CounterStore is a mutex-guarded map of counters.
// The whole read-modify-write of IncrementAndGet happens under one lock.
type CounterStore struct {
	mu       sync.Mutex
	counters map[numbering.CounterKey]*numbering.CounterState
	now      func() time.Time
}

// Compile-time check that CounterStore implements numbering interfaces.
var (
	_ numbering.CounterStore  = (*CounterStore)(nil)
	_ numbering.CounterSeeder = (*CounterStore)(nil)
)

// NewCounterStore creates an empty store.
func NewCounterStore() *CounterStore {
	return &CounterStore{
		counters: make(map[numbering.CounterKey]*numbering.CounterState),
		now:      time.Now,
	}
}

// IncrementAndGet implements numbering.CounterStore.
func (s *CounterStore) IncrementAndGet(ctx context.Context, key numbering.CounterKey, current numbering.Period, maxValue int64) (numbering.Increment, error) {
	if err := ctx.Err(); err != nil {
		return numbering.Increment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	state, exists := s.counters[key]
	if !exists {
		state = &numbering.CounterState{}
		s.counters[key] = state
	}
	inc := numbering.Advance(state, exists, current, maxValue)
	state.UpdatedAt = s.now().UTC()
	return inc, nil
}

// Seed implements numbering.CounterSeeder.
func (s *CounterStore) Seed(ctx context.Context, key numbering.CounterKey, current numbering.Period) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.counters[key]; exists {
		return nil
	}
	s.counters[key] = &numbering.CounterState{
		Period:         current,
		LastTransition: numbering.TransitionInit,
		UpdatedAt:      s.now().UTC(),
	}
	return nil
}

// Put overwrites a counter. Tests use it to stage boundary states.
func (s *CounterStore) Put(key numbering.CounterKey, state numbering.CounterState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = &state
}

// Snapshot returns a copy of a counter's state.
func (s *CounterStore) Snapshot(key numbering.CounterKey) (numbering.CounterState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.counters[key]
	if !ok {
		return numbering.CounterState{}, false
	}
	return *state, true
}

// Len returns the number of counters held.
func (s *CounterStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.counters)
}
