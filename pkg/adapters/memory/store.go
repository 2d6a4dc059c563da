// Package memory provides in-process adapters for tests and single-node deployments.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/outline/pkg/domain"
)

// Store implements ports.ContentStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]domain.StoredNode
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]domain.StoredNode),
	}
}

// Save persists a copy of the node.
func (s *Store) Save(ctx context.Context, node domain.StoredNode) error {
	copied := node.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[node.ID] = copied
	return nil
}

// Get returns a copy so callers cannot mutate the stored node.
func (s *Store) Get(ctx context.Context, id string) (domain.StoredNode, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	node, ok := s.data[id]
	if !ok {
		return domain.StoredNode{}, domain.ErrNodeNotFound
	}
	return node.Clone(), nil
}

// Delete removes the node.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns the stored ids in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
