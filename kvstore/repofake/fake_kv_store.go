package kvrepofake

import (
	"context"
	"sync"

	apperrors "github.com/shtamir/family-tv-dashboard/internal/errors"
	"github.com/shtamir/family-tv-dashboard/kvstore"
)

var _ kvstore.Store = (*FakeKVStore)(nil)

type FakeKVStore struct {
	values      map[string]string
	unavailable bool
	lock        sync.RWMutex
}

func NewFakeKVStore() *FakeKVStore {
	return &FakeKVStore{
		values: make(map[string]string),
	}
}

// SetUnavailable makes every operation fail as if the storage medium was gone
func (s *FakeKVStore) SetUnavailable(unavailable bool) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.unavailable = unavailable
}

func (s *FakeKVStore) Get(_ context.Context, key string) (string, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	if s.unavailable {
		return "", apperrors.ErrStorageUnavailable
	}
	v, ok := s.values[key]
	if !ok {
		return "", apperrors.ErrNotFound
	}
	return v, nil
}

func (s *FakeKVStore) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unavailable {
		return apperrors.ErrStorageUnavailable
	}
	s.values[key] = value
	return nil
}

func (s *FakeKVStore) Remove(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	if s.unavailable {
		return apperrors.ErrStorageUnavailable
	}
	delete(s.values, key)
	return nil
}

// Has reports whether key is present, ignoring availability
func (s *FakeKVStore) Has(key string) bool {
	s.lock.RLock()
	defer s.lock.RUnlock()
	_, ok := s.values[key]
	return ok
}
