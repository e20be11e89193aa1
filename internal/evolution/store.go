package evolution

import (
	"encoding/json"
	"os"
)

// LoadStatus classifies the outcome of reading the state file. Callers pick
// the fallback explicitly instead of having errors swallowed for them.
type LoadStatus string

const (
	// LoadOK means the file existed and parsed.
	LoadOK LoadStatus = "ok"

	// LoadMissing means the file does not exist. This is the normal
	// condition for a fresh project.
	LoadMissing LoadStatus = "missing"

	// LoadCorrupt means the file existed but was not valid JSON.
	LoadCorrupt LoadStatus = "corrupt"

	// LoadUnreadable means the file could not be read (permissions etc.).
	LoadUnreadable LoadStatus = "unreadable"
)

// Store reads evolution state documents with snapshot caching.
type Store struct {
	cache Cache
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithCache sets the cache implementation.
func WithCache(cache Cache) StoreOption {
	return func(s *Store) {
		s.cache = cache
	}
}

// NewStore creates a store with a DefaultCacheTTL cache unless overridden.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{}
	for _, opt := range opts {
		opt(s)
	}
	if s.cache == nil {
		s.cache = NewTTLCache(DefaultCacheTTL)
	}
	return s
}

// GetState returns the state document at path, never failing: on any load
// problem the fully-populated default document is returned instead.
func (s *Store) GetState(path string) *Document {
	snap := s.Load(path)
	return snap.Doc
}

// Load returns the cached snapshot for path, reading from disk when the
// cache has no fresh entry. The returned document is always non-nil and
// normalized; Status says whether it came from the file or from defaults.
func (s *Store) Load(path string) *Snapshot {
	if snap, ok := s.cache.Get(path); ok {
		return snap
	}
	snap := readSnapshot(path)
	s.cache.Put(path, snap)
	return snap
}

// Invalidate drops the cached snapshot for path so the next read hits disk.
func (s *Store) Invalidate(path string) {
	s.cache.Invalidate(path)
}

// readSnapshot loads the document from disk, falling back to defaults on
// missing, unreadable, or corrupt files.
func readSnapshot(path string) *Snapshot {
	data, err := os.ReadFile(path)
	if err != nil {
		status := LoadUnreadable
		if os.IsNotExist(err) {
			status = LoadMissing
		}
		return &Snapshot{Doc: DefaultDocument(), Status: status}
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return &Snapshot{Doc: DefaultDocument(), Status: LoadCorrupt}
	}

	doc.Normalize()
	return &Snapshot{Doc: &doc, Status: LoadOK}
}
