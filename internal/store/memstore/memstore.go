// Package memstore is an in-memory store.Store, used by tests and by
// callers that must not touch the disk.
package memstore

import "sync"

type Store struct {
	mu     sync.Mutex
	values map[string]string

	// SetErr, when non-nil for a key, is returned by Set for that key.
	SetErr map[string]error
}

func New() *Store {
	return &Store{values: map[string]string{}, SetErr: map[string]error{}}
}

func (s *Store) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.SetErr[key]; err != nil {
		return err
	}
	s.values[key] = value
	return nil
}

func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// Len is the number of stored keys.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.values)
}
