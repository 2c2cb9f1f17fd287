package cache

import (
	"sync"
	"sync/atomic"

	"github.com/Konsultn-Engineering/sqlkit/internal/debug"
	"github.com/Konsultn-Engineering/sqlkit/utils"
	lru "github.com/hashicorp/golang-lru/v2"
)

const DefaultTemplateCacheSize = 1024

type templateEntry[V any] struct {
	text  string
	value V
}

// TemplateCache holds values derived from SQL text, keyed by text equality.
// Entries are immutable once stored; concurrent builders of the same text
// converge on whichever value was inserted first.
type TemplateCache[V any] struct {
	// FNV bucket -> entries; collisions are resolved by comparing text
	lru *lru.Cache[uint64, []templateEntry[V]]
	mu  sync.Mutex

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewTemplateCache creates a cache bounded to size buckets. A non-positive
// size selects DefaultTemplateCacheSize.
func NewTemplateCache[V any](size int) *TemplateCache[V] {
	if size <= 0 {
		size = DefaultTemplateCacheSize
	}
	c, _ := lru.NewWithEvict(size, func(key uint64, _ []templateEntry[V]) {
		debug.Debug("template cache eviction", "fingerprint", key)
	})
	return &TemplateCache[V]{lru: c}
}

// Get returns the value cached for text.
func (c *TemplateCache[V]) Get(text string) (V, bool) {
	bucket, ok := c.lru.Get(utils.FingerprintString(text))
	if ok {
		for _, e := range bucket {
			if e.text == text {
				c.hits.Add(1)
				return e.value, true
			}
		}
	}
	c.misses.Add(1)
	var zero V
	return zero, false
}

// GetOrSet returns the cached value for text, building and inserting it when
// absent. build runs outside the lock; if another goroutine inserted first,
// its value wins and the local result is dropped.
func (c *TemplateCache[V]) GetOrSet(text string, build func() (V, error)) (V, error) {
	if v, ok := c.Get(text); ok {
		return v, nil
	}

	debug.Debug("template cache miss", "length", len(text))
	built, err := build()
	if err != nil {
		var zero V
		return zero, err
	}

	key := utils.FingerprintString(text)

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the lock
	bucket, _ := c.lru.Peek(key)
	for _, e := range bucket {
		if e.text == text {
			return e.value, nil
		}
	}
	next := make([]templateEntry[V], len(bucket), len(bucket)+1)
	copy(next, bucket)
	next = append(next, templateEntry[V]{text: text, value: built})
	c.lru.Add(key, next)
	return built, nil
}

// Len returns the number of cached buckets.
func (c *TemplateCache[V]) Len() int { return c.lru.Len() }

// Stats returns hit and miss counters.
func (c *TemplateCache[V]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}

// Purge drops every entry.
func (c *TemplateCache[V]) Purge() { c.lru.Purge() }
