package delegate

import (
	"hash/fnv"
	"sync"
	"time"

	"github.com/hupe1980/modelmesh/complexity"
)

// DefaultCacheTTL bounds how long a constructed topology is reused.
const DefaultCacheTTL = 10 * time.Minute

type cacheEntry struct {
	topology  *Topology
	createdAt time.Time
}

// topologyCache is a TTL-bounded cache keyed by hash(category, bucket).
// Expired entries are purged lazily on next access. Topology construction
// involves no network call, so builds run under the lock and stay
// single-flight per key.
type topologyCache struct {
	mu      sync.Mutex
	entries map[uint64]cacheEntry
	ttl     time.Duration
	now     func() time.Time
	builds  int64
}

func newTopologyCache(ttl time.Duration, now func() time.Time) *topologyCache {
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	if now == nil {
		now = time.Now
	}
	return &topologyCache{entries: make(map[uint64]cacheEntry), ttl: ttl, now: now}
}

// getOrBuild returns the cached topology for (category, bucket) while
// unexpired, otherwise builds a fresh one and replaces the entry. The
// second return reports whether the topology came from cache.
func (c *topologyCache) getOrBuild(category complexity.Category, bucket string, build TopologyBuilder) (*Topology, bool) {
	key := cacheKey(category, bucket)

	c.mu.Lock()
	defer c.mu.Unlock()

	if entry, ok := c.entries[key]; ok {
		if c.now().Sub(entry.createdAt) < c.ttl {
			return entry.topology, true
		}
		delete(c.entries, key)
	}

	topology := build(category, bucket)
	c.entries[key] = cacheEntry{topology: topology, createdAt: c.now()}
	c.builds++
	return topology, false
}

// Builds returns the total number of topology constructions.
func (c *topologyCache) Builds() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.builds
}

// Len returns the number of live entries (including any not yet lazily
// purged).
func (c *topologyCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(category complexity.Category, bucket string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(category))
	h.Write([]byte{'|'})
	h.Write([]byte(bucket))
	return h.Sum64()
}
