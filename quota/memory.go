package quota

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps usage records in memory. Useful for tests and for
// running without a database configured.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Count returns the stored count, 0 for unknown users.
func (s *MemoryStore) Count(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[userID].UsageCount, nil
}

// SetCount upserts a usage record.
func (s *MemoryStore) SetCount(_ context.Context, userID string, count int, updatedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[userID] = Record{UserID: userID, UsageCount: count, UpdatedAt: updatedAt}
	return nil
}
