package authflowrepo

import (
	"fmt"
	"sync"
)

var _ Repo = (*InMemoryRepo)(nil)

// InMemoryRepo keeps pending consent flows for the life of the process
type InMemoryRepo struct {
	mu     sync.Mutex
	states map[string]AuthFlowState
}

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{states: make(map[string]AuthFlowState)}
}

func (r *InMemoryRepo) Upsert(state string, authState *AuthFlowState) error {
	if state == "" {
		return ErrEmptyState
	}
	if authState == nil {
		return fmt.Errorf("[Upsert] nil flow for state %q", state)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state] = *authState
	return nil
}

func (r *InMemoryRepo) Get(state string) (*AuthFlowState, error) {
	return r.lookup(state, false)
}

func (r *InMemoryRepo) Take(state string) (*AuthFlowState, error) {
	return r.lookup(state, true)
}

func (r *InMemoryRepo) lookup(state string, remove bool) (*AuthFlowState, error) {
	if state == "" {
		return nil, ErrEmptyState
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	flow, ok := r.states[state]
	if !ok {
		return nil, fmt.Errorf("[authflowrepo] state %q: %w", state, ErrNotFound)
	}
	if remove {
		delete(r.states, state)
	}
	return &flow, nil
}

// Delete is a no-op for unknown states
func (r *InMemoryRepo) Delete(state string) error {
	if state == "" {
		return ErrEmptyState
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, state)
	return nil
}
