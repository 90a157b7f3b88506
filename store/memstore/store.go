// Package memstore provides an in-memory PersistentStore for tests and
// non-persistent hosts.
package memstore

import "sync"

// Store is a concurrency-safe in-memory key-value store. The zero value is
// not usable; create one with New.
type Store struct {
	mu   sync.RWMutex
	data map[string]string

	failing bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{data: make(map[string]string)}
}

// Get implements the PersistentStore contract.
func (s *Store) Get(key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failing {
		return "", false, ErrUnavailable
	}
	v, ok := s.data[key]
	return v, ok, nil
}

// Set implements the PersistentStore contract.
func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	s.data[key] = value
	return nil
}

// Remove implements the PersistentStore contract.
func (s *Store) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failing {
		return ErrUnavailable
	}
	delete(s.data, key)
	return nil
}

// SetFailing switches every operation to fail, simulating quota or
// availability errors.
func (s *Store) SetFailing(failing bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing = failing
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}
