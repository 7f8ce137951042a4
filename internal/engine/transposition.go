package engine

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/hailam/adaptiveplay/internal/board"
)

// TTFlag indicates the type of bound stored in the transposition table.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // Exact score
	TTLowerBound               // Failed high (beta cutoff)
	TTUpperBound               // Failed low
)

// TTEntry is a cached search result.
type TTEntry struct {
	Score    float64
	Depth    int
	Flag     TTFlag
	BestMove board.Move
}

// TranspositionTable caches search results by position digest. When full
// it drops the oldest tenth of its keys in insertion order; lookups do not
// refresh an entry's age. It is safe for concurrent use.
type TranspositionTable struct {
	mu       sync.Mutex
	entries  map[uint64]TTEntry
	order    []uint64 // keys in insertion order
	capacity int

	hits   atomic.Uint64
	misses atomic.Uint64
	purges atomic.Uint64

	log zerolog.Logger
}

// NewTranspositionTable creates a table holding at most capacity entries.
func NewTranspositionTable(capacity int) *TranspositionTable {
	if capacity < 1 {
		capacity = 1
	}
	return &TranspositionTable{
		entries:  make(map[uint64]TTEntry),
		capacity: capacity,
		log:      zerolog.Nop(),
	}
}

// SetLogger sets the logger used for purge events.
func (tt *TranspositionTable) SetLogger(l zerolog.Logger) {
	tt.log = l
}

// Lookup returns the entry for b if one exists with depth >= depth.
func (tt *TranspositionTable) Lookup(b *board.Board, depth int) (TTEntry, bool) {
	return tt.Probe(b.Digest(), depth)
}

// Store records an exact score for b, replacing any previous entry.
func (tt *TranspositionTable) Store(b *board.Board, score float64, depth int) {
	tt.Save(b.Digest(), score, depth, TTExact, board.NoMove)
}

// Probe returns the entry for key if one exists with depth >= depth.
// A shallower entry is a miss.
func (tt *TranspositionTable) Probe(key uint64, depth int) (TTEntry, bool) {
	tt.mu.Lock()
	e, ok := tt.entries[key]
	tt.mu.Unlock()

	if !ok || e.Depth < depth {
		tt.misses.Add(1)
		return TTEntry{}, false
	}
	tt.hits.Add(1)
	return e, true
}

// Save records an entry for key, replacing any previous one.
func (tt *TranspositionTable) Save(key uint64, score float64, depth int, flag TTFlag, best board.Move) {
	tt.mu.Lock()
	defer tt.mu.Unlock()

	if _, ok := tt.entries[key]; !ok {
		if len(tt.entries) >= tt.capacity {
			tt.purgeLocked()
		}
		tt.order = append(tt.order, key)
	}
	tt.entries[key] = TTEntry{Score: score, Depth: depth, Flag: flag, BestMove: best}
}

// purgeLocked drops the oldest ceil(capacity/10) keys.
func (tt *TranspositionTable) purgeLocked() {
	n := (tt.capacity + 9) / 10
	if n > len(tt.order) {
		n = len(tt.order)
	}
	for _, k := range tt.order[:n] {
		delete(tt.entries, k)
	}
	tt.order = append(tt.order[:0:0], tt.order[n:]...)
	tt.purges.Add(1)
	tt.log.Trace().Int("purged", n).Int("remaining", len(tt.entries)).Msg("transposition table purge")
}

// Clear removes all entries and resets the counters.
func (tt *TranspositionTable) Clear() {
	tt.mu.Lock()
	tt.entries = make(map[uint64]TTEntry)
	tt.order = nil
	tt.mu.Unlock()
	tt.hits.Store(0)
	tt.misses.Store(0)
	tt.purges.Store(0)
}

// Len returns the number of stored entries.
func (tt *TranspositionTable) Len() int {
	tt.mu.Lock()
	defer tt.mu.Unlock()
	return len(tt.entries)
}

// Capacity returns the maximum number of entries.
func (tt *TranspositionTable) Capacity() int {
	return tt.capacity
}

// Hits returns the number of successful probes.
func (tt *TranspositionTable) Hits() uint64 { return tt.hits.Load() }

// Misses returns the number of failed probes.
func (tt *TranspositionTable) Misses() uint64 { return tt.misses.Load() }

// Purges returns how many times the table has been pruned.
func (tt *TranspositionTable) Purges() uint64 { return tt.purges.Load() }

// HitRate returns the hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	hits, misses := tt.Hits(), tt.Misses()
	if hits+misses == 0 {
		return 0
	}
	return float64(hits) / float64(hits+misses) * 100
}

// HashFull returns the permille of the table in use.
func (tt *TranspositionTable) HashFull() int {
	return tt.Len() * 1000 / tt.capacity
}
