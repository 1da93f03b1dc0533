// Package cache provides the in-memory result cache.
package cache

import (
	"sync"

	"tailscale.com/util/lru"
)

// LRU is a bounded least-recently-used map safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu sync.Mutex
	c  lru.Cache[K, V]
}

// NewLRU returns a cache holding at most size entries. A size below one is
// treated as one.
func NewLRU[K comparable, V any](size int) *LRU[K, V] {
	l := &LRU[K, V]{}
	l.c.MaxEntries = max(1, size)
	return l
}

// Get returns the value for key and marks it most recently used.
func (l *LRU[K, V]) Get(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.GetOk(key)
}

// Put stores a value, evicting the least recently used entry when full.
func (l *LRU[K, V]) Put(key K, value V) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.c.Set(key, value)
}

// Pop removes key and returns its value. Absent keys are a no-op.
func (l *LRU[K, V]) Pop(key K) (V, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	v, ok := l.c.PeekOk(key)
	if ok {
		l.c.Delete(key)
	}
	return v, ok
}

// Len returns the number of entries.
func (l *LRU[K, V]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.c.Len()
}
