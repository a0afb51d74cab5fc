package store

import (
	"context"
	"sync"
)

// MemoryStore keeps collections in process memory. Writes are applied to a
// copy and swapped in only when the write function succeeds.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]Document
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]Document)}
}

type memoryTx struct {
	collections map[string][]Document
}

func (tx *memoryTx) DeleteAll(ctx context.Context, collection string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	delete(tx.collections, collection)
	return nil
}

func (tx *memoryTx) Insert(ctx context.Context, collection string, docs ...Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	existing := tx.collections[collection]
	merged := make([]Document, 0, len(existing)+len(docs))
	merged = append(merged, existing...)
	for _, doc := range docs {
		merged = append(merged, doc.Clone())
	}
	tx.collections[collection] = merged
	return nil
}

// Write implements DocumentStore
func (s *MemoryStore) Write(ctx context.Context, fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Slices are replaced, never mutated in place, so a shallow map copy
	// is enough to roll back.
	staged := make(map[string][]Document, len(s.collections))
	for name, docs := range s.collections {
		staged[name] = docs
	}

	if err := fn(&memoryTx{collections: staged}); err != nil {
		return err
	}
	s.collections = staged
	return nil
}

// Find implements DocumentStore
func (s *MemoryStore) Find(ctx context.Context, collection string) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	docs := s.collections[collection]
	out := make([]Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, doc.Clone())
	}
	return out, nil
}

// Close implements DocumentStore
func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}
