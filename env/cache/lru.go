package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUCacher caches payloads in a bounded in-memory LRU. When the bound is
// reached the least recently used payload is evicted, so long experiment
// sweeps over many datasets keep memory flat.
//
// Safe for concurrent use (the underlying LRU locks internally), but the
// fetch in GetPut is not deduplicated; wrap in a ConcurrentCacher when
// concurrent fetches of the same key must collapse to one.
type LRUCacher struct {
	inner *lru.Cache[string, []byte]
}

// NewLRUCacher creates an LRUCacher holding at most size payloads.
// size must be > 0.
func NewLRUCacher(size int) (*LRUCacher, error) {
	inner, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	return &LRUCacher{inner: inner}, nil
}

func (c *LRUCacher) Contains(key string) bool {
	return c.inner.Contains(key)
}

func (c *LRUCacher) Get(key string) ([]byte, bool) {
	return c.inner.Get(key)
}

func (c *LRUCacher) Put(key string, value []byte) {
	if c.inner.Contains(key) {
		return
	}
	c.inner.Add(key, value)
}

func (c *LRUCacher) Remove(key string) {
	c.inner.Remove(key)
}

func (c *LRUCacher) GetPut(key string, fetch func() ([]byte, error)) ([]byte, error) {
	if v, ok := c.inner.Get(key); ok {
		return v, nil
	}
	v, err := fetch()
	if err != nil {
		return nil, err
	}
	c.Put(key, v)
	return v, nil
}
