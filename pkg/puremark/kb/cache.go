package kb

import "sync"

// Cache memoises knowledge bases by key. Each key is loaded at most once
// per successful load and never invalidated; a failed load is forgotten so
// the next caller retries.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
}

type cacheEntry struct {
	once sync.Once
	kb   *KnowledgeBase
	err  error
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]*cacheEntry)}
}

var shared = NewCache()

// Shared returns the process-wide cache.
func Shared() *Cache { return shared }

// Get returns the cached value for key, calling load on first access.
// Concurrent callers for the same key wait for one load.
func (c *Cache) Get(key string, load func() (*KnowledgeBase, error)) (*KnowledgeBase, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &cacheEntry{}
		c.entries[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() {
		e.kb, e.err = load()
	})
	if e.err != nil {
		c.mu.Lock()
		if c.entries[key] == e {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, e.err
	}
	return e.kb, nil
}

// Put stores k under its own Key unless that key is already populated, and
// returns the value held by the cache.
func (c *Cache) Put(k *KnowledgeBase) *KnowledgeBase {
	got, _ := c.Get(k.Key(), func() (*KnowledgeBase, error) { return k, nil })
	return got
}

// Keys lists the populated keys.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}
