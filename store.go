package props

import (
	"sync"

	"github.com/goliatone/go-props/pkg/identity"
)

// StoreHandle is the untyped view of a property store the lifecycle layer
// uses to purge entries during cleanup.
type StoreHandle interface {
	Remove(id identity.ID)
	Len() int
}

// Store is an identity-indexed container holding one property's values for
// every registered instance. It applies no hooks and no access control; both
// are accessor concerns. Get, Set and Remove are individually atomic, with no
// cross-property transactional guarantee.
type Store[V any] struct {
	mu     sync.RWMutex
	values map[identity.ID]V
}

// NewStore constructs an empty property store.
func NewStore[V any]() *Store[V] {
	return &Store[V]{values: map[identity.ID]V{}}
}

// Get returns the value for id. The second return is false when no entry
// exists; absence is not an error.
func (s *Store[V]) Get(id identity.ID) (V, bool) {
	s.mu.RLock()
	value, ok := s.values[id]
	s.mu.RUnlock()
	return value, ok
}

// Set writes the value for id, creating the entry on first write.
func (s *Store[V]) Set(id identity.ID, value V) {
	s.mu.Lock()
	s.values[id] = value
	s.mu.Unlock()
}

// Remove deletes the entry for id. Removing an absent entry is a no-op;
// objects that never wrote the property must still clean up safely.
func (s *Store[V]) Remove(id identity.ID) {
	s.mu.Lock()
	delete(s.values, id)
	s.mu.Unlock()
}

// Len returns the number of entries currently held.
func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.values)
}
