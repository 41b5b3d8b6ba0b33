// Package cache provides the session-scoped result cache.
//
// Entries live until InvalidateAll is called. There is no TTL, no size bound
// and no eviction: a cache belongs to one browsing session and is cleared
// wholesale when that session starts a new search.
package cache

import (
	"sync"

	"github.com/spiffcs/scout/internal/metrics"
)

// Kind names the resource a store holds. It labels cache metrics.
type Kind string

const (
	KindPages        Kind = "pages"
	KindIssues       Kind = "issues"
	KindCounts       Kind = "counts"
	KindExplanations Kind = "explanations"
)

// AllKinds returns all cache kinds in display order.
func AllKinds() []Kind {
	return []Kind{KindPages, KindIssues, KindCounts, KindExplanations}
}

// Store is a typed key/value store safe for concurrent use.
type Store[T any] struct {
	kind Kind

	mu      sync.RWMutex
	entries map[string]T
	hits    int
	misses  int
}

// NewStore creates an empty store of the given kind.
func NewStore[T any](kind Kind) *Store[T] {
	return &Store[T]{
		kind:    kind,
		entries: make(map[string]T),
	}
}

// Get returns the value stored under key.
func (s *Store[T]) Get(key string) (T, bool) {
	s.mu.Lock()
	v, ok := s.entries[key]
	if ok {
		s.hits++
	} else {
		s.misses++
	}
	s.mu.Unlock()

	result := "miss"
	if ok {
		result = "hit"
	}
	metrics.CacheLookupsTotal.WithLabelValues(string(s.kind), result).Inc()
	return v, ok
}

// Has reports whether key is present without counting a lookup.
func (s *Store[T]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.entries[key]
	return ok
}

// Put stores value under key, replacing any previous value.
func (s *Store[T]) Put(key string, value T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

// InvalidateAll drops every entry. Lookup counters are kept.
func (s *Store[T]) InvalidateAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.entries)
}

// Len returns the number of entries.
func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Stat returns the store's entry and lookup counts.
func (s *Store[T]) Stat() KindStat {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return KindStat{Entries: len(s.entries), Hits: s.hits, Misses: s.misses}
}
