package engine

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"
)

// PositionCache is a strict LRU cache of static evaluations keyed by
// position digest. Values are from White's point of view. It is safe for
// concurrent use.
type PositionCache struct {
	cache *lru.Cache[uint64, float64]

	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64

	log zerolog.Logger
}

// NewPositionCache creates a cache holding at most size evaluations.
func NewPositionCache(size int, log zerolog.Logger) (*PositionCache, error) {
	pc := &PositionCache{log: log}
	c, err := lru.NewWithEvict[uint64, float64](size, pc.onEvict)
	if err != nil {
		return nil, fmt.Errorf("position cache: %w", err)
	}
	pc.cache = c
	return pc, nil
}

func (pc *PositionCache) onEvict(key uint64, _ float64) {
	pc.evictions.Add(1)
	pc.log.Trace().Uint64("key", key).Msg("position cache eviction")
}

// Get returns the cached value for key and marks it most recently used.
func (pc *PositionCache) Get(key uint64) (float64, bool) {
	v, ok := pc.cache.Get(key)
	if ok {
		pc.hits.Add(1)
	} else {
		pc.misses.Add(1)
	}
	return v, ok
}

// Put stores a value. When the cache is full the least recently used
// entry is evicted.
func (pc *PositionCache) Put(key uint64, v float64) {
	pc.cache.Add(key, v)
}

// Contains reports whether key is cached without touching its recency.
func (pc *PositionCache) Contains(key uint64) bool {
	return pc.cache.Contains(key)
}

// Len returns the number of cached entries.
func (pc *PositionCache) Len() int { return pc.cache.Len() }

// Hits returns the number of successful lookups.
func (pc *PositionCache) Hits() uint64 { return pc.hits.Load() }

// Misses returns the number of failed lookups.
func (pc *PositionCache) Misses() uint64 { return pc.misses.Load() }

// Evictions returns the number of entries evicted or purged.
func (pc *PositionCache) Evictions() uint64 { return pc.evictions.Load() }

// Purge empties the cache.
func (pc *PositionCache) Purge() {
	pc.cache.Purge()
}
