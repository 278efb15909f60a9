// Package lru implements a bounded, thread-safe LRU cache whose entries also lapse after
// sitting idle. Get, Put and Delete are O(1).
package lru

import (
	"sync"
	"time"
)

type node[K comparable, V any] struct {
	key      K
	val      V
	lastUsed time.Time
	prev     *node[K, V]
	next     *node[K, V]
}

// Cache is a generic LRU cache with an optional idle TTL.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	idleTTL  time.Duration
	items    map[K]*node[K, V]
	head     *node[K, V] // most recently used (sentinel)
	tail     *node[K, V] // least recently used (sentinel)
	now      func() time.Time
}

// New creates a cache holding at most capacity entries. An idleTTL of zero disables expiry.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int, idleTTL time.Duration) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	head := &node[K, V]{}
	tail := &node[K, V]{}
	head.next = tail
	tail.prev = head

	return &Cache[K, V]{
		capacity: capacity,
		idleTTL:  idleTTL,
		items:    make(map[K]*node[K, V], capacity),
		head:     head,
		tail:     tail,
		now:      time.Now,
	}
}

// Get returns the value for key and marks it used. Entries idle longer than the TTL are
// dropped and reported as missing.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.lookup(key)
	if !ok {
		var zero V
		return zero, false
	}
	return n.val, true
}

// GetOrAdd returns the live value for key, or stores and returns the result of create.
func (c *Cache[K, V]) GetOrAdd(key K, create func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.lookup(key); ok {
		return n.val
	}
	val := create()
	c.insert(key, val)
	return val
}

// Put inserts or updates key. When the cache is full the least recently used entry is
// evicted and returned.
func (c *Cache[K, V]) Put(key K, val V) (K, V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		n.val = val
		n.lastUsed = c.now()
		c.moveToFront(n)
		var zk K
		var zv V
		return zk, zv, false
	}
	return c.insert(key, val)
}

// Delete removes key. Returns true if it was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return false
	}
	c.remove(n)
	delete(c.items, key)
	return true
}

// Len returns the number of stored entries, including idle ones not yet swept.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Sweep drops every entry idle longer than the TTL and returns how many went.
func (c *Cache[K, V]) Sweep() int {
	if c.idleTTL <= 0 {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.idleTTL)
	dropped := 0
	// Oldest entries sit at the tail; stop at the first live one.
	for cur := c.tail.prev; cur != c.head; {
		if !cur.lastUsed.Before(cutoff) {
			break
		}
		prev := cur.prev
		c.remove(cur)
		delete(c.items, cur.key)
		dropped++
		cur = prev
	}
	return dropped
}

// Keys returns the keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for cur := c.head.next; cur != c.tail; cur = cur.next {
		keys = append(keys, cur.key)
	}
	return keys
}

// lookup finds a live entry and refreshes it. Caller holds the lock.
func (c *Cache[K, V]) lookup(key K) (*node[K, V], bool) {
	n, ok := c.items[key]
	if !ok {
		return nil, false
	}
	now := c.now()
	if c.idleTTL > 0 && now.Sub(n.lastUsed) > c.idleTTL {
		c.remove(n)
		delete(c.items, key)
		return nil, false
	}
	n.lastUsed = now
	c.moveToFront(n)
	return n, true
}

func (c *Cache[K, V]) insert(key K, val V) (K, V, bool) {
	var evictedKey K
	var evictedVal V
	evicted := false
	if len(c.items) >= c.capacity {
		victim := c.tail.prev
		c.remove(victim)
		delete(c.items, victim.key)
		evictedKey, evictedVal, evicted = victim.key, victim.val, true
	}

	n := &node[K, V]{key: key, val: val, lastUsed: c.now()}
	c.items[key] = n
	c.pushFront(n)
	return evictedKey, evictedVal, evicted
}

func (c *Cache[K, V]) remove(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	c.remove(n)
	c.pushFront(n)
}
