package store

import (
	"sync"

	"github.com/provkit/provisiond/internal/credentials"
)

// MemoryStore is an in-memory Store used by tests and simulator runs.
type MemoryStore struct {
	mu    sync.RWMutex
	creds credentials.Credentials
	set   bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Get() (credentials.Credentials, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, s.set, nil
}

func (s *MemoryStore) Put(creds credentials.Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	s.set = true
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = credentials.Credentials{}
	s.set = false
	return nil
}
