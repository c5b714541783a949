package store

import (
	"context"
	"sync"

	"github.com/tournevent/fedexbridge/pkg/shipper"
)

// MemoryStore keeps the credential record in process memory. Last write wins.
type MemoryStore struct {
	mu    sync.RWMutex
	creds *shipper.Credentials
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Get returns a copy of the stored record, or nil when nothing was saved.
func (s *MemoryStore) Get(ctx context.Context) (*shipper.Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.creds == nil {
		return nil, nil
	}
	c := *s.creds
	return &c, nil
}

// Upsert replaces the stored record.
func (s *MemoryStore) Upsert(ctx context.Context, creds shipper.Credentials) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.creds = &creds
	return true, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error {
	return nil
}
