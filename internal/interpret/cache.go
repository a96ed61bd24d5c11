package interpret

import (
	"github.com/MarcoLSC/echo-emergent/internal/classifier"
	"github.com/MarcoLSC/echo-emergent/internal/types"
)

const (
	// DefaultCacheSize is the number of distinct keys retained.
	DefaultCacheSize = 20

	// cacheKeyLength is the prefix of the normalized text used as key.
	cacheKeyLength = 50
)

// Cache is a bounded cache of interpretation results keyed by a prefix of
// the normalized input text. Eviction follows insertion order: once full,
// the earliest-inserted key is dropped. Overwriting an existing key does
// not change its eviction position.
//
// Cache carries no lock; the owning Interpreter serializes access.
type Cache struct {
	capacity int
	entries  map[string]types.InterpretationResult
	keys     []string
}

// NewCache creates a cache retaining up to capacity distinct keys.
// A non-positive capacity falls back to DefaultCacheSize.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]types.InterpretationResult, capacity),
	}
}

// CacheKey derives the cache key for text: the first 50 characters of its
// normalized form.
func CacheKey(text string) string {
	normalized := classifier.Normalize(text)
	runes := []rune(normalized)
	if len(runes) > cacheKeyLength {
		runes = runes[:cacheKeyLength]
	}
	return string(runes)
}

// Get returns the cached result for text, if present.
func (c *Cache) Get(text string) (types.InterpretationResult, bool) {
	result, ok := c.entries[CacheKey(text)]
	return result, ok
}

// Put stores the result for text, evicting the earliest-inserted key when
// the capacity is exceeded.
func (c *Cache) Put(text string, result types.InterpretationResult) {
	key := CacheKey(text)

	if _, exists := c.entries[key]; !exists {
		c.keys = append(c.keys, key)
		if len(c.keys) > c.capacity {
			oldest := c.keys[0]
			c.keys = c.keys[1:]
			delete(c.entries, oldest)
		}
	}

	c.entries[key] = result
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return len(c.entries)
}
