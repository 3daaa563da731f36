// Package dedup tracks token addresses that have already been evaluated or
// purchased, guaranteeing at-most-once processing per address with bounded
// memory.
package dedup

import (
	"sort"
	"sync"
)

// DefaultCapacity bounds the set when no capacity is configured.
const DefaultCapacity = 10000

// evictFraction is the share of oldest entries dropped on overflow.
// Batch eviction keeps inserts O(1) amortized instead of maintaining a
// precise recency order per insert.
const evictFraction = 0.10

// Set is a capacity-bounded address set. Safe for concurrent use.
type Set struct {
	mu       sync.Mutex
	entries  map[string]uint64 // address -> admission sequence
	seq      uint64
	capacity int
}

// NewSet creates a Set with the given capacity (<=0 uses DefaultCapacity).
func NewSet(capacity int) *Set {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Set{
		entries:  make(map[string]uint64),
		capacity: capacity,
	}
}

// Admit marks an address as seen. It returns true if the address was not
// previously admitted (the caller now owns the in-flight evaluation), false
// if it is already present.
func (s *Set) Admit(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, seen := s.entries[address]; seen {
		return false
	}

	if len(s.entries) >= s.capacity {
		s.evictOldestLocked()
	}

	s.seq++
	s.entries[address] = s.seq
	return true
}

// Release removes an address so a later Admit succeeds again. Used after a
// failed purchase attempt to allow a retry.
func (s *Set) Release(address string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, address)
}

// Contains reports whether an address is currently admitted.
func (s *Set) Contains(address string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, seen := s.entries[address]
	return seen
}

// Len returns the current entry count.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// evictOldestLocked drops the oldest tenth of entries (at least one).
func (s *Set) evictOldestLocked() {
	n := int(float64(len(s.entries)) * evictFraction)
	if n < 1 {
		n = 1
	}

	type entry struct {
		address string
		seq     uint64
	}
	ordered := make([]entry, 0, len(s.entries))
	for addr, seq := range s.entries {
		ordered = append(ordered, entry{addr, seq})
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].seq < ordered[j].seq })

	for i := 0; i < n && i < len(ordered); i++ {
		delete(s.entries, ordered[i].address)
	}
}
