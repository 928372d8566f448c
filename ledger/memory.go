package ledger

import (
	"context"
	"sync"
)

// MemoryStore keeps the ledger document in memory. It is meant for tests and
// dry runs.
type MemoryStore struct {
	mu      sync.Mutex
	doc     []byte
	saves   int
	SaveErr error // Returned by Save when set
	LoadErr error // Returned by Load when set
}

// NewMemoryStore creates a MemoryStore, optionally seeded with a document
func NewMemoryStore(doc []byte) *MemoryStore {
	return &MemoryStore{doc: doc}
}

// Load returns a copy of the stored document
func (s *MemoryStore) Load(_ context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.LoadErr != nil {
		return nil, s.LoadErr
	}
	if s.doc == nil {
		return nil, ErrNotFound
	}
	return append([]byte(nil), s.doc...), nil
}

// Save replaces the stored document
func (s *MemoryStore) Save(_ context.Context, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SaveErr != nil {
		return s.SaveErr
	}
	s.doc = append([]byte(nil), doc...)
	s.saves++
	return nil
}

// Document returns the last saved document
func (s *MemoryStore) Document() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.doc...)
}

// Saves returns how many times Save succeeded
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
