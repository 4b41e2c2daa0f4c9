// Package cache provides byte-payload cachers for remote dataset fetches.
//
// A Cacher stores the raw payload of a dataset identifier so each identifier
// is fetched at most once per cache lifetime. Implementations: NullCacher
// (no caching), MemoryCacher (unbounded map), LRUCacher (bounded),
// DiskCacher (gzip files), and ConcurrentCacher (per-key fetch-once gating
// around any of the others).
package cache

// Cacher stores byte payloads by string key.
type Cacher interface {
	// Contains reports whether key is cached.
	Contains(key string) bool
	// Get returns the cached payload for key.
	Get(key string) ([]byte, bool)
	// Put caches value for key. On key collision nothing is replaced.
	Put(key string, value []byte)
	// Remove evicts key. Removing an absent key is a no-op.
	Remove(key string)
	// GetPut returns the payload for key, calling fetch to populate the
	// cache when absent. A fetch error leaves the cache unchanged.
	GetPut(key string, fetch func() ([]byte, error)) ([]byte, error)
}

// NullCacher caches nothing; every GetPut fetches.
type NullCacher struct{}

func (NullCacher) Contains(string) bool      { return false }
func (NullCacher) Get(string) ([]byte, bool) { return nil, false }
func (NullCacher) Put(string, []byte)        {}
func (NullCacher) Remove(string)             {}

func (NullCacher) GetPut(_ string, fetch func() ([]byte, error)) ([]byte, error) {
	return fetch()
}

// MemoryCacher caches payloads in an unbounded in-process map.
// Not safe for concurrent use; wrap in a ConcurrentCacher when shared.
type MemoryCacher struct {
	items map[string][]byte
}

// NewMemoryCacher creates an empty MemoryCacher.
func NewMemoryCacher() *MemoryCacher {
	return &MemoryCacher{items: make(map[string][]byte)}
}

func (m *MemoryCacher) Contains(key string) bool {
	_, ok := m.items[key]
	return ok
}

func (m *MemoryCacher) Get(key string) ([]byte, bool) {
	v, ok := m.items[key]
	return v, ok
}

func (m *MemoryCacher) Put(key string, value []byte) {
	if _, ok := m.items[key]; ok {
		return
	}
	m.items[key] = value
}

func (m *MemoryCacher) Remove(key string) {
	delete(m.items, key)
}

func (m *MemoryCacher) GetPut(key string, fetch func() ([]byte, error)) ([]byte, error) {
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	m.Put(key, v)
	return v, nil
}
