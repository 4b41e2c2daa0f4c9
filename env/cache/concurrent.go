package cache

import "sync"

// ConcurrentCacher makes any Cacher safe for concurrent use and collapses
// concurrent GetPut calls for the same key into a single fetch: the first
// caller fetches and populates, everyone else blocks until the payload is
// ready. Distinct keys never wait on each other, and no lock is held across
// a fetch.
type ConcurrentCacher struct {
	inner Cacher

	mu      sync.Mutex
	pending map[string]*fetchCall
}

type fetchCall struct {
	done    chan struct{}
	payload []byte
	err     error
}

// NewConcurrentCacher wraps inner with per-key fetch-once gating.
func NewConcurrentCacher(inner Cacher) *ConcurrentCacher {
	return &ConcurrentCacher{inner: inner, pending: make(map[string]*fetchCall)}
}

func (c *ConcurrentCacher) Contains(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Contains(key)
}

func (c *ConcurrentCacher) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.inner.Get(key)
}

func (c *ConcurrentCacher) Put(key string, value []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Put(key, value)
}

func (c *ConcurrentCacher) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inner.Remove(key)
}

func (c *ConcurrentCacher) GetPut(key string, fetch func() ([]byte, error)) ([]byte, error) {
	for {
		c.mu.Lock()
		if v, ok := c.inner.Get(key); ok {
			c.mu.Unlock()
			return v, nil
		}
		if call, ok := c.pending[key]; ok {
			c.mu.Unlock()
			<-call.done
			if call.err == nil {
				return call.payload, nil
			}
			// The fetch that we waited on failed; retry with our own fetch
			// rather than propagating a failure we didn't cause.
			continue
		}

		call := &fetchCall{done: make(chan struct{})}
		c.pending[key] = call
		c.mu.Unlock()

		call.payload, call.err = fetch()

		c.mu.Lock()
		if call.err == nil {
			c.inner.Put(key, call.payload)
		}
		delete(c.pending, key)
		c.mu.Unlock()
		close(call.done)

		return call.payload, call.err
	}
}
