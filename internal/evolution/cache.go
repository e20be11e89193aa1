package evolution

import (
	"sync"
	"time"
)

// DefaultCacheTTL is how long a loaded document stays fresh. One second is
// enough to cover all checkers within a guard pass plus rapid back-to-back
// passes, while keeping external writes visible quickly.
const DefaultCacheTTL = time.Second

// Cache stores loaded state documents keyed by file path. Implementations
// must be safe for concurrent use.
type Cache interface {
	// Get returns the cached snapshot for path, if still fresh.
	Get(path string) (*Snapshot, bool)

	// Put stores a snapshot for path.
	Put(path string, snap *Snapshot)

	// Invalidate drops the entry for path.
	Invalidate(path string)

	// Clear drops all entries.
	Clear()
}

// Snapshot pairs a loaded document with the outcome of the load. Cached so
// repeated reads within the TTL observe a consistent view.
type Snapshot struct {
	// Doc is the normalized state document. Treat as read-only.
	Doc *Document

	// Status reports how the load went (ok, missing, corrupt, unreadable).
	Status LoadStatus
}

type cacheEntry struct {
	snap    *Snapshot
	expires time.Time
}

// TTLCache is a Cache with per-entry expiry.
type TTLCache struct {
	ttl     time.Duration
	mu      sync.Mutex
	entries map[string]cacheEntry

	// now is swappable for tests.
	now func() time.Time
}

// NewTTLCache creates a cache with the given TTL. A non-positive TTL
// disables caching entirely.
func NewTTLCache(ttl time.Duration) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns the cached snapshot for path, if present and unexpired.
func (c *TTLCache) Get(path string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[path]
	if !ok {
		return nil, false
	}
	if c.now().After(entry.expires) {
		delete(c.entries, path)
		return nil, false
	}
	return entry.snap, true
}

// Put stores a snapshot for path with a fresh expiry.
func (c *TTLCache) Put(path string, snap *Snapshot) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[path] = cacheEntry{snap: snap, expires: c.now().Add(c.ttl)}
}

// Invalidate drops the entry for path.
func (c *TTLCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, path)
}

// Clear drops all entries.
func (c *TTLCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
