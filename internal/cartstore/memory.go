package cartstore

import (
	"context"
	"sync"

	"github.com/angelmondragon/storefront-cart/internal/lineitem"
)

// MemoryStore keeps carts in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string][]lineitem.LineIntent
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: map[string][]lineitem.LineIntent{}}
}

// Get implements Store.
func (s *MemoryStore) Get(_ context.Context, tenantID string) ([]lineitem.LineIntent, error) {
	lines, _ := s.lookup(tenantID)
	return lines, nil
}

// Put implements Store.
func (s *MemoryStore) Put(_ context.Context, tenantID string, lines []lineitem.LineIntent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[tenantID] = lineitem.Clone(lines)
	return nil
}

func (s *MemoryStore) lookup(tenantID string) ([]lineitem.LineIntent, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lines, ok := s.carts[tenantID]
	if !ok {
		return []lineitem.LineIntent{}, false
	}
	return lineitem.Clone(lines), true
}
