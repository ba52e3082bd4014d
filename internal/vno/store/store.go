// Package store provides the fixed-capacity entity caches mirrored from a
// game server and the ordered directory server list.
package store

import (
	"errors"
	"fmt"
	"sync"
)

// ErrOutOfRange is returned when an entity ID falls outside 1..capacity.
var ErrOutOfRange = errors.New("entity id out of range")

// ErrAlreadyAllocated is returned when a store's capacity is set twice.
var ErrAlreadyAllocated = errors.New("store capacity already allocated")

// ErrCapacityTooLarge is returned when a requested capacity exceeds MaxCapacity.
var ErrCapacityTooLarge = errors.New("store capacity too large")

// MaxCapacity bounds the number of entities of one kind a server may announce.
const MaxCapacity = 1 << 16

// Entity is any server-defined object identified by a positive integer ID.
type Entity interface {
	comparable
	EntityID() int
}

// Store is a dense cache of entities indexed by ID-1. Its capacity is fixed
// by a single call to Allocate and never changes afterwards.
// All methods are safe for concurrent use.
type Store[E Entity] struct {
	kind string

	mu        sync.RWMutex
	slots     []E
	allocated bool
}

// New creates an unallocated Store. kind names the entity kind in errors.
func New[E Entity](kind string) *Store[E] {
	return &Store[E]{kind: kind}
}

// Allocate fixes the store capacity.
//
// Precondition: n must be in 0..MaxCapacity.
// Postcondition: The store holds n empty slots, or ErrAlreadyAllocated is returned.
func (s *Store[E]) Allocate(n int) error {
	if n < 0 {
		return fmt.Errorf("%s store: negative capacity %d", s.kind, n)
	}
	if n > MaxCapacity {
		return fmt.Errorf("%s store: %w (%d > %d)", s.kind, ErrCapacityTooLarge, n, MaxCapacity)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.allocated {
		return fmt.Errorf("%s store: %w (capacity %d)", s.kind, ErrAlreadyAllocated, len(s.slots))
	}
	s.slots = make([]E, n)
	s.allocated = true
	return nil
}

// Reset discards every entity and the capacity, leaving the store as New made it.
func (s *Store[E]) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots = nil
	s.allocated = false
}

// Capacity returns the allocated capacity (0 before Allocate).
func (s *Store[E]) Capacity() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.slots)
}

// Put stores e at slot e.EntityID()-1, replacing any previous entity.
//
// Postcondition: Returns ErrOutOfRange unless 1 <= ID <= Capacity().
func (s *Store[E]) Put(e E) error {
	id := e.EntityID()
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 1 || id > len(s.slots) {
		return fmt.Errorf("%s %d: %w (capacity %d)", s.kind, id, ErrOutOfRange, len(s.slots))
	}
	s.slots[id-1] = e
	return nil
}

// Get returns the entity with the given ID.
//
// Postcondition: Returns (entity, true) for a populated slot, (zero, false) for an
// empty one, and ErrOutOfRange for IDs outside 1..Capacity().
func (s *Store[E]) Get(id int) (E, bool, error) {
	var zero E
	s.mu.RLock()
	defer s.mu.RUnlock()
	if id < 1 || id > len(s.slots) {
		return zero, false, fmt.Errorf("%s %d: %w (capacity %d)", s.kind, id, ErrOutOfRange, len(s.slots))
	}
	e := s.slots[id-1]
	return e, e != zero, nil
}

// Find returns the first populated entity, in ID order, for which match is true.
func (s *Store[E]) Find(match func(E) bool) (E, bool) {
	var zero E
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.slots {
		if e != zero && match(e) {
			return e, true
		}
	}
	return zero, false
}

// All returns the populated entities in ID order.
func (s *Store[E]) All() []E {
	var zero E
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]E, 0, len(s.slots))
	for _, e := range s.slots {
		if e != zero {
			out = append(out, e)
		}
	}
	return out
}
