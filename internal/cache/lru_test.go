package cache

import (
	"testing"
	"time"
)

func TestLRUCacheGetSet(t *testing.T) {
	c := NewLRUCache[string](2, time.Minute)

	if _, ok := c.Get("expense:1"); ok {
		t.Fatalf("empty cache should miss")
	}

	c.Set("expense:1", "a")
	if got, ok := c.Get("expense:1"); !ok || got != "a" {
		t.Fatalf("Get = (%q, %v), want (a, true)", got, ok)
	}

	c.Set("expense:1", "b")
	if got, _ := c.Get("expense:1"); got != "b" {
		t.Fatalf("Set should overwrite, got %q", got)
	}
	if c.Size() != 1 {
		t.Fatalf("overwrite should not grow the cache, size %d", c.Size())
	}
}

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Minute)
	c.Set("expense:1", 1)
	c.Set("expense:2", 2)

	// Touch expense:1 so expense:2 becomes the eviction candidate.
	c.Get("expense:1")
	c.Set("expense:3", 3)

	if _, ok := c.Get("expense:2"); ok {
		t.Fatalf("least recently used entry should be evicted")
	}
	if _, ok := c.Get("expense:1"); !ok {
		t.Fatalf("recently used entry must survive")
	}
	if c.Size() != 2 {
		t.Fatalf("size = %d, want 2", c.Size())
	}
}

func TestLRUCacheTTLExpiry(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)
	c.Set("expense:1", "a")
	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("expense:1"); ok {
		t.Fatalf("expired entry should miss")
	}
	c.Set("expense:2", "b")
	if n := c.CleanExpired(); n != 0 {
		t.Fatalf("CleanExpired removed %d fresh entries", n)
	}
	time.Sleep(20 * time.Millisecond)
	if n := c.CleanExpired(); n != 1 {
		t.Fatalf("CleanExpired = %d, want 1", n)
	}
}

func TestLRUCacheDeletePrefix(t *testing.T) {
	c := NewLRUCache[string](10, time.Minute)
	c.Set("expense:1", "a")
	c.Set("expense:2", "b")
	c.Set("commitment:1", "c")

	if n := c.DeletePrefix("expense:"); n != 2 {
		t.Fatalf("DeletePrefix = %d, want 2", n)
	}
	if _, ok := c.Get("expense:1"); ok {
		t.Fatalf("expense fragments should be gone")
	}
	if _, ok := c.Get("commitment:1"); !ok {
		t.Fatalf("other entity fragments must survive")
	}
	if n := c.DeletePrefix("payment:"); n != 0 {
		t.Fatalf("DeletePrefix with no matches = %d, want 0", n)
	}
}
