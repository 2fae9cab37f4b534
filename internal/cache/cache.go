// Package cache provides a small in-memory LRU used to hold rendered
// detail fragments between refetches. Entries are invalidated whenever a
// mutation touches the underlying entity, so the cache only ever
// short-circuits repeat reads.
package cache

import "time"

// Cache defines a generic cache interface.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, data T)
	Delete(key string)
	Size() int
}

// Manager handles cache lifecycle and cleanup.
type Manager struct {
	caches      []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// Cleaner interface for caches that support cleanup.
type Cleaner interface {
	CleanExpired() int
}

// NewManager creates a new cache manager.
func NewManager() *Manager {
	return &Manager{
		caches:      make([]Cleaner, 0),
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cache to the manager for cleanup.
func (m *Manager) Register(cache Cleaner) {
	m.caches = append(m.caches, cache)
}

// StartCleanup begins periodic cleanup of all registered caches.
func (m *Manager) StartCleanup(interval time.Duration) {
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for _, cache := range m.caches {
				cache.CleanExpired()
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop stops the cleanup routine and waits for it to exit.
func (m *Manager) Stop() {
	close(m.stopCleanup)
	<-m.cleanupDone
}
