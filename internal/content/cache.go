package content

import (
	"net/url"
	"sync"
)

type cacheEntry struct {
	doc     *Document
	failure *LoadFailure
}

// Cache is the single source of truth for "do we have this content": a map
// from canonical resource key to either a Document or a failure sentinel.
// Unbounded, session-lifetime, no eviction; terminal states are written
// exactly once and only by the Loader.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry

	pageKey string
	pageDoc *Document
}

func NewCache() *Cache {
	return &Cache{entries: make(map[string]cacheEntry)}
}

// SetPage registers the live page document so links targeting the current
// page resolve to it instead of fetching a redundant copy of the page the
// user is already on.
func (c *Cache) SetPage(location *url.URL, doc *Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pageKey = CanonicalKey(location)
	c.pageDoc = doc
}

// PageKey returns the canonical key of the live page, or "".
func (c *Cache) PageKey() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageKey
}

// PageDocument returns the live page document, or nil.
func (c *Cache) PageDocument() *Document {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pageDoc
}

// Lookup returns the cached result for key. ok is false for never-requested
// resources; otherwise exactly one of doc and failure is non-nil. The live
// page document short-circuits lookups of its own key.
func (c *Cache) Lookup(key string) (doc *Document, failure *LoadFailure, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.pageKey != "" && key == c.pageKey {
		return c.pageDoc, nil, true
	}
	e, ok := c.entries[key]
	return e.doc, e.failure, ok
}

// Has reports whether key holds a terminal result (loaded or failed).
func (c *Cache) Has(key string) bool {
	_, _, ok := c.Lookup(key)
	return ok
}

// Store records a loaded document. The first terminal write wins; a second
// write for the same key is rejected.
func (c *Cache) Store(key string, doc *Document) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return false
	}
	c.entries[key] = cacheEntry{doc: doc}
	return true
}

// StoreFailure records the failure sentinel for key. Same write-once rule
// as Store.
func (c *Cache) StoreFailure(key string, failure *LoadFailure) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		return false
	}
	c.entries[key] = cacheEntry{failure: failure}
	return true
}

// Update mutates an already-loaded document in place, for refreshing nested
// transclusions without re-fetching. No-op on absent or failed keys.
func (c *Cache) Update(key string, mutate func(*Document)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok || e.doc == nil {
		return false
	}
	mutate(e.doc)
	return true
}

// Stats reports the number of loaded and failed entries.
func (c *Cache) Stats() (loaded, failed int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, e := range c.entries {
		if e.failure != nil {
			failed++
		} else {
			loaded++
		}
	}
	return loaded, failed
}
