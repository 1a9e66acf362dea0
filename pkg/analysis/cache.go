package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strconv"
	"sync"
	"time"

	json "github.com/goccy/go-json"

	"github.com/vanderheijden86/claimlens/pkg/model"
)

// DefaultCacheTTL is the default time-to-live for cached insight sets.
const DefaultCacheTTL = 5 * time.Minute

// Cache memoizes generated insight sets keyed by table content and request
// parameters. Generation is pure, so the cache is an optimization only;
// correctness never depends on it. Thread-safe for concurrent access.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
}

type cacheEntry struct {
	set        *InsightSet
	computedAt time.Time
}

// NewCache creates a cache with the given TTL. A non-positive TTL falls
// back to the default.
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Get returns the cached set for a key if it exists and has not expired.
func (c *Cache) Get(key string) (*InsightSet, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if !ok || time.Since(entry.computedAt) >= c.ttl {
		return nil, false
	}
	return entry.set, true
}

// Set stores a generated set under a key.
func (c *Cache) Set(key string, set *InsightSet) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{set: set, computedAt: time.Now()}
}

// Invalidate clears the cache.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of live entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// CacheKey builds a deterministic key from the table content and the
// request parameters. Rows hash in order (position is identity); columns
// hash sorted so declaration order does not split the cache.
func CacheKey(view string, t *model.Table, params any) string {
	h := sha256.New()
	h.Write([]byte(view))
	h.Write([]byte{0})

	if t != nil {
		cols := append([]string(nil), t.Columns...)
		sort.Strings(cols)
		for _, c := range cols {
			h.Write([]byte(c))
			h.Write([]byte{0})
		}
		h.Write([]byte{1})
		for _, r := range t.Rows {
			for _, c := range cols {
				v := r[c]
				h.Write([]byte(strconv.Itoa(int(v.Kind))))
				h.Write([]byte(v.AsString()))
				h.Write([]byte{0})
			}
			h.Write([]byte{1})
		}
	}

	if params != nil {
		// Parameter structs are small and flat; their JSON form is a
		// stable enough fingerprint.
		if b, err := json.Marshal(params); err == nil {
			h.Write(b)
		}
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}
