package sessionstore

import (
	"context"
	"sync"
)

// MemStore is an in-memory Store, used by tests and single-process setups
// that do not need sessions to survive a restart.
type MemStore struct {
	mu      sync.RWMutex
	records map[Key]*Record
	active  *Key
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{records: make(map[Key]*Record)}
}

func (s *MemStore) Get(_ context.Context, key Key) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[key]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *record
	return &copied, nil
}

func (s *MemStore) Set(_ context.Context, key Key, record *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *record
	copied.Key = key
	s.records[key] = &copied
	return nil
}

func (s *MemStore) Delete(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, key)
	if s.active != nil && *s.active == key {
		s.active = nil
	}
	return nil
}

func (s *MemStore) List(_ context.Context) ([]Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]Key, 0, len(s.records))
	for key := range s.records {
		keys = append(keys, key)
	}
	return keys, nil
}

func (s *MemStore) ActiveKey(_ context.Context) (Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil {
		return Key{}, ErrNoActive
	}
	return *s.active, nil
}

func (s *MemStore) SetActiveKey(_ context.Context, key Key) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := key
	s.active = &copied
	return nil
}

func (s *MemStore) ClearActive(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.active = nil
	return nil
}
