// Package cache provides a small TTL cache for verified phrase-discovery
// results. Entries are bound to the collection write generation captured when
// they were stored, so any document write invalidates them without the cache
// ever being told about the write.
package cache

import (
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	// DefaultTTL bounds how long a result may be served even with no writes.
	DefaultTTL = 5 * time.Minute
	// DefaultMaxEntries caps the cache before size-based eviction kicks in.
	DefaultMaxEntries = 1024

	keySep = "\x00"
)

type entry struct {
	docIDs     []uint32
	generation uint64
	expiresAt  time.Time
}

// ResultCache memoizes verified document ID lists per collection, phrase and
// filter combination.
type ResultCache struct {
	mu         sync.RWMutex
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
}

// New creates a result cache. Non-positive ttl or maxEntries fall back to the
// defaults.
func New(ttl time.Duration, maxEntries int) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultMaxEntries
	}
	return &ResultCache{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
	}
}

// Key builds the canonical cache key for a query. The phrase is lowercased
// (matching is case-insensitive) and filter values are sorted so that filter
// order never splits the cache.
func Key(collection, phrase string, docTypes, statuses []string) string {
	return collection + keySep +
		strings.ToLower(phrase) + keySep +
		canonicalList(docTypes) + keySep +
		canonicalList(statuses)
}

func canonicalList(values []string) string {
	if len(values) == 0 {
		return ""
	}
	sorted := make([]string, len(values))
	copy(sorted, values)
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

// Get returns the memoized document IDs for key, or false when the entry is
// absent, expired, or was stored under a different write generation. Stale
// entries are evicted on the spot.
func (c *ResultCache) Get(key string, generation uint64) ([]uint32, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if e.generation != generation || time.Now().After(e.expiresAt) {
		c.mu.Lock()
		// Re-check before deleting; a writer may have refreshed the entry.
		if cur, ok := c.entries[key]; ok && (cur.generation != generation || time.Now().After(cur.expiresAt)) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return nil, false
	}

	ids := make([]uint32, len(e.docIDs))
	copy(ids, e.docIDs)
	return ids, true
}

// Put stores a verified document ID list under key, tagged with the
// collection write generation it was computed against.
func (c *ResultCache) Put(key string, generation uint64, docIDs []uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evictLocked()
	}

	ids := make([]uint32, len(docIDs))
	copy(ids, docIDs)
	c.entries[key] = entry{
		docIDs:     ids,
		generation: generation,
		expiresAt:  time.Now().Add(c.ttl),
	}
}

// PurgeCollection drops every entry belonging to the named collection. Used
// when a collection is deleted so its keys cannot shadow a later collection
// with the same name and a reset generation counter.
func (c *ResultCache) PurgeCollection(collection string) {
	prefix := collection + keySep
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
}

// Len returns the number of live entries, counting expired ones that have not
// been touched since they lapsed.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// evictLocked first drops expired entries, then the entries closest to expiry
// until a quarter of the capacity is free.
func (c *ResultCache) evictLocked() {
	now := time.Now()
	for key, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, key)
		}
	}

	target := c.maxEntries - c.maxEntries/4
	if target < 1 {
		target = 1
	}
	if len(c.entries) < target {
		return
	}

	type aged struct {
		key       string
		expiresAt time.Time
	}
	byAge := make([]aged, 0, len(c.entries))
	for key, e := range c.entries {
		byAge = append(byAge, aged{key: key, expiresAt: e.expiresAt})
	}
	sort.Slice(byAge, func(i, j int) bool {
		return byAge[i].expiresAt.Before(byAge[j].expiresAt)
	})

	for _, a := range byAge {
		if len(c.entries) < target {
			break
		}
		delete(c.entries, a.key)
	}
}
