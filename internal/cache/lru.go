package cache

import (
	"container/list"
	"strings"
	"sync"
	"time"
)

// LRUCache is an LRU cache with TTL and size-based eviction. Fragment keys
// follow the "entity:id" convention so a mutation can drop every cached
// fragment for an entity kind with DeletePrefix.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	items   map[string]*list.Element
	lru     *list.List
}

type cacheItem[T any] struct {
	key       string
	data      T
	expiresAt time.Time
}

// NewLRUCache creates a new LRU cache with TTL.
func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		items:   make(map[string]*list.Element),
		lru:     list.New(),
	}
}

// Get retrieves a value from the cache.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, exists := c.items[key]
	if !exists {
		return zero, false
	}

	item := elem.Value.(*cacheItem[T])
	if time.Now().After(item.expiresAt) {
		c.removeElement(elem)
		return zero, false
	}

	c.lru.MoveToFront(elem)
	return item.data, true
}

// Set stores a value in the cache.
func (c *LRUCache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item := &cacheItem[T]{
		key:       key,
		data:      data,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, exists := c.items[key]; exists {
		elem.Value = item
		c.lru.MoveToFront(elem)
		return
	}

	elem := c.lru.PushFront(item)
	c.items[key] = elem

	if c.lru.Len() > c.maxSize {
		if oldest := c.lru.Back(); oldest != nil {
			c.removeElement(oldest)
		}
	}
}

// Delete removes a key from the cache.
func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, exists := c.items[key]; exists {
		c.removeElement(elem)
	}
}

// DeletePrefix removes every key with the given prefix and returns how
// many entries were dropped.
func (c *LRUCache[T]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if strings.HasPrefix(elem.Value.(*cacheItem[T]).key, prefix) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

func (c *LRUCache[T]) removeElement(elem *list.Element) {
	item := elem.Value.(*cacheItem[T])
	delete(c.items, item.key)
	c.lru.Remove(elem)
}

// CleanExpired removes all expired entries and returns how many were removed.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var toRemove []*list.Element
	for elem := c.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*cacheItem[T]).expiresAt) {
			toRemove = append(toRemove, elem)
		}
	}
	for _, elem := range toRemove {
		c.removeElement(elem)
	}
	return len(toRemove)
}

// Size returns the current number of items in the cache.
func (c *LRUCache[T]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
