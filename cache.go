package sqliteucf

import (
	"container/list"
	"sync"
)

// DefaultPatternCacheSize is the number of compiled LIKE patterns kept
// per Env unless WithPatternCacheSize says otherwise.
const DefaultPatternCacheSize = 256

// CacheStats contains pattern cache statistics.
type CacheStats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Size      int
	MaxSize   int
}

type patternKey struct {
	pattern string
	escape  Escape
}

// patternEntry holds a compiled pattern or the error compiling it, so a
// bad pattern evaluated once per row is compiled once.
type patternEntry struct {
	key     patternKey
	pattern *Pattern
	err     error
}

// patternCache is a thread-safe LRU of compiled patterns. A maxSize of
// zero disables caching.
type patternCache struct {
	mu        sync.Mutex
	maxSize   int
	compile   func(string, Escape) (*Pattern, error)
	entries   map[patternKey]*list.Element
	evictList *list.List
	stats     CacheStats
}

func newPatternCache(maxSize int, compile func(string, Escape) (*Pattern, error)) *patternCache {
	return &patternCache{
		maxSize:   max(maxSize, 0),
		compile:   compile,
		entries:   make(map[patternKey]*list.Element),
		evictList: list.New(),
	}
}

// getOrCompile returns the cached result for (pattern, escape), compiling
// and storing it on a miss. Lookup and insert happen under one lock.
func (c *patternCache) getOrCompile(pattern string, escape Escape) (*Pattern, error) {
	key := patternKey{pattern: pattern, escape: escape}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ent, ok := c.entries[key]; ok {
		c.evictList.MoveToFront(ent)
		c.stats.Hits++
		e := ent.Value.(*patternEntry)
		return e.pattern, e.err
	}

	c.stats.Misses++
	p, err := c.compile(pattern, escape)
	if c.maxSize == 0 {
		return p, err
	}

	c.entries[key] = c.evictList.PushFront(&patternEntry{key: key, pattern: p, err: err})
	if c.evictList.Len() > c.maxSize {
		c.removeOldest()
	}
	return p, err
}

func (c *patternCache) removeOldest() {
	ent := c.evictList.Back()
	if ent == nil {
		return
	}
	c.evictList.Remove(ent)
	delete(c.entries, ent.Value.(*patternEntry).key)
	c.stats.Evictions++
}

func (c *patternCache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	stats := c.stats
	stats.Size = c.evictList.Len()
	stats.MaxSize = c.maxSize
	return stats
}
