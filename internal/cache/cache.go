// Package cache holds the bounded, expiring caches shared across requests.
package cache

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// DefaultMaxEntries bounds a cache created with a non-positive size.
const DefaultMaxEntries = 64

// Cache is a key/value cache. *expirable.LRU satisfies it.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Add(key K, value V) (evicted bool)
	Remove(key K) (present bool)
	Len() int
}

// NewExpiring returns a thread-safe cache holding at most maxEntries values,
// each for ttl. The least recently used entry is evicted when the cache is
// full, and expired entries are swept in the background. A ttl of zero keeps
// entries until they are evicted.
func NewExpiring[K comparable, V any](maxEntries int, ttl time.Duration) *expirable.LRU[K, V] {
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return expirable.NewLRU[K, V](maxEntries, nil, ttl)
}

// Noop never stores anything.
type Noop[K comparable, V any] struct{}

// Get always misses.
func (Noop[K, V]) Get(key K) (V, bool) {
	var zero V
	return zero, false
}

// Add does nothing.
func (Noop[K, V]) Add(key K, value V) bool { return false }

// Remove does nothing.
func (Noop[K, V]) Remove(key K) bool { return false }

// Len is always zero.
func (Noop[K, V]) Len() int { return 0 }
