// Package lru provides a bounded key-value store with least-recently-used
// eviction, based on container/list.
package lru

import (
	"container/list"
	"errors"
)

// ErrInvalidCapacity is returned by New for capacities below one.
var ErrInvalidCapacity = errors.New("lru: capacity must be positive")

// Disposer releases resources held by an evicted or removed value. It is
// invoked on eviction, Remove, replacement of an existing key, and Purge.
type Disposer[K comparable, V any] func(key K, value V)

// Cache is a fixed-capacity LRU cache. It is not safe for concurrent use;
// callers that share a Cache across goroutines must serialize access.
type Cache[K comparable, V any] struct {
	capacity  int
	items     map[K]*list.Element
	evictList *list.List
	onDispose Disposer[K, V]
}

type entry[K comparable, V any] struct {
	key   K
	value V
}

// New creates a cache holding at most capacity entries. The optional
// disposer is called for every value the cache lets go of.
func New[K comparable, V any](capacity int, onDispose Disposer[K, V]) (*Cache[K, V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Cache[K, V]{
		capacity:  capacity,
		items:     make(map[K]*list.Element, capacity),
		evictList: list.New(),
		onDispose: onDispose,
	}, nil
}

// Get returns the value for key and promotes the entry to
// most-recently-used. A miss has no side effects.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Peek returns the value for key without updating recency.
func (c *Cache[K, V]) Peek(key K) (V, bool) {
	if elem, ok := c.items[key]; ok {
		return elem.Value.(*entry[K, V]).value, true
	}
	var zero V
	return zero, false
}

// Contains reports whether key is cached, without updating recency.
func (c *Cache[K, V]) Contains(key K) bool {
	_, ok := c.items[key]
	return ok
}

// Add inserts or replaces the value for key and marks it
// most-recently-used. Replaced values are disposed. If the cache is full the
// least-recently-used entry is evicted first; Add reports whether an
// eviction occurred.
func (c *Cache[K, V]) Add(key K, value V) bool {
	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		ent := elem.Value.(*entry[K, V])
		if c.onDispose != nil {
			c.onDispose(ent.key, ent.value)
		}
		ent.value = value
		return false
	}

	evicted := false
	if c.evictList.Len() >= c.capacity {
		c.removeOldest()
		evicted = true
	}
	c.items[key] = c.evictList.PushFront(&entry[K, V]{key: key, value: value})
	return evicted
}

// Remove drops key from the cache, disposing its value. Removing an absent
// key is a no-op.
func (c *Cache[K, V]) Remove(key K) bool {
	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Purge removes and disposes every entry.
func (c *Cache[K, V]) Purge() {
	for elem := c.evictList.Front(); elem != nil; elem = elem.Next() {
		ent := elem.Value.(*entry[K, V])
		if c.onDispose != nil {
			c.onDispose(ent.key, ent.value)
		}
	}
	c.items = make(map[K]*list.Element, c.capacity)
	c.evictList.Init()
}

// Len returns the number of cached entries.
func (c *Cache[K, V]) Len() int { return c.evictList.Len() }

// Keys returns the cached keys from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	keys := make([]K, 0, c.evictList.Len())
	for elem := c.evictList.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[K, V]).key)
	}
	return keys
}

func (c *Cache[K, V]) removeOldest() {
	if elem := c.evictList.Back(); elem != nil {
		c.removeElement(elem)
	}
}

func (c *Cache[K, V]) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
	if c.onDispose != nil {
		c.onDispose(ent.key, ent.value)
	}
}
