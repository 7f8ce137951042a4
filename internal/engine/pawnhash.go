package engine

import "sync"

// PawnEntry stores a cached pawn structure score.
type PawnEntry struct {
	Key   uint64
	Score float64 // White minus Black, in pawns
	valid bool
}

// PawnTable is a direct-mapped cache of pawn structure scores keyed by
// the pawn digest. It is safe for concurrent use.
type PawnTable struct {
	mu      sync.Mutex
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable creates a pawn table with at least the given number of
// entries, rounded up to a power of two.
func NewPawnTable(entries int) *PawnTable {
	size := 1
	for size < entries {
		size *= 2
	}
	return &PawnTable{
		entries: make([]PawnEntry, size),
		mask:    uint64(size - 1),
	}
}

// Probe looks up a pawn structure score.
func (pt *PawnTable) Probe(key uint64) (float64, bool) {
	pt.mu.Lock()
	defer pt.mu.Unlock()
	e := pt.entries[key&pt.mask]
	if e.valid && e.Key == key {
		return e.Score, true
	}
	return 0, false
}

// Store saves a pawn structure score, replacing whatever shared the slot.
func (pt *PawnTable) Store(key uint64, score float64) {
	pt.mu.Lock()
	pt.entries[key&pt.mask] = PawnEntry{Key: key, Score: score, valid: true}
	pt.mu.Unlock()
}

// Clear empties the table.
func (pt *PawnTable) Clear() {
	pt.mu.Lock()
	clear(pt.entries)
	pt.mu.Unlock()
}

// Size returns the number of slots.
func (pt *PawnTable) Size() int {
	return len(pt.entries)
}
