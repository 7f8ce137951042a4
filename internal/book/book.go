// Package book provides a small opening book built from named lines and
// classifies played games by opening.
package book

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"

	"lukechampine.com/frand"

	"github.com/hailam/adaptiveplay/internal/board"
)

// BookEntry is a candidate move for a book position. Its weight is the sum
// of the weights of every line through it.
type BookEntry struct {
	Move   board.Move
	Weight uint32
}

// Line is a named opening given as UCI moves from the starting position.
type Line struct {
	Name   string
	Moves  string
	Weight uint16
}

// Book maps position digests to weighted book moves.
type Book struct {
	entries map[uint64][]BookEntry
	lines   []parsedLine

	mu  sync.Mutex
	rng *frand.RNG
}

type parsedLine struct {
	name  string
	moves []board.Move
}

// New creates a book from lines. A zero seed draws one from the system.
// Every move of every line must be legal.
func New(lines []Line, seed uint64) (*Book, error) {
	var key [32]byte
	if seed == 0 {
		key = frand.Entropy256()
	} else {
		binary.LittleEndian.PutUint64(key[:], seed)
	}

	b := &Book{
		entries: make(map[uint64][]BookEntry),
		rng:     frand.NewCustom(key[:], 1024, 12),
	}
	for _, l := range lines {
		if err := b.add(l); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Default creates a book from DefaultLines.
func Default(seed uint64) *Book {
	b, err := New(DefaultLines, seed)
	if err != nil {
		panic(err)
	}
	return b
}

// add replays a line from the starting position, crediting each move
// with the line's weight.
func (b *Book) add(l Line) error {
	weight := uint32(l.Weight)
	if weight == 0 {
		weight = 1
	}

	pos := board.NewBoard()
	pl := parsedLine{name: l.Name}
	for _, s := range strings.Fields(l.Moves) {
		m, err := pos.ParseMove(s)
		if err != nil {
			return fmt.Errorf("book line %q: %w", l.Name, err)
		}

		key := pos.Digest()
		found := false
		for i := range b.entries[key] {
			e := &b.entries[key][i]
			if e.Move.SameAs(m) {
				e.Weight += weight
				found = true
				break
			}
		}
		if !found {
			b.entries[key] = append(b.entries[key], BookEntry{Move: m, Weight: weight})
		}

		pos.MakeMove(m)
		pl.moves = append(pl.moves, m)
	}
	b.lines = append(b.lines, pl)
	return nil
}

// Probe picks a book move for the side to move by weighted random choice.
func (b *Book) Probe(pos *board.Board) (board.Move, bool) {
	entries := b.ProbeAll(pos)
	if len(entries) == 0 {
		return board.NoMove, false
	}

	total := 0
	for _, e := range entries {
		total += int(e.Weight)
	}
	if total <= 0 {
		return entries[0].Move, true
	}

	b.mu.Lock()
	r := b.rng.Intn(total)
	b.mu.Unlock()

	for _, e := range entries {
		r -= int(e.Weight)
		if r < 0 {
			return e.Move, true
		}
	}
	return entries[0].Move, true
}

// ProbeAll returns the legal book moves for the position, heaviest first.
func (b *Book) ProbeAll(pos *board.Board) []BookEntry {
	if b == nil || pos == nil {
		return nil
	}
	entries := b.entries[pos.Digest()]
	if len(entries) == 0 {
		return nil
	}

	// Re-resolve each move against the live position so flags and
	// captured pieces match.
	legal := pos.LegalMoves(pos.SideToMove)
	out := make([]BookEntry, 0, len(entries))
	for _, e := range entries {
		for _, m := range legal {
			if m.SameAs(e.Move) {
				out = append(out, BookEntry{Move: m, Weight: e.Weight})
				break
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Weight > out[j].Weight
	})
	return out
}

// Classify returns the name of the longest line that the game's moves
// start with, or "" when none matches.
func (b *Book) Classify(moves []board.Move) string {
	if b == nil {
		return ""
	}
	best, bestLen := "", 0
	for _, l := range b.lines {
		if len(l.moves) <= bestLen || len(l.moves) > len(moves) {
			continue
		}
		match := true
		for i, m := range l.moves {
			if !m.SameAs(moves[i]) {
				match = false
				break
			}
		}
		if match {
			best, bestLen = l.name, len(l.moves)
		}
	}
	return best
}

// Size returns the number of distinct book positions.
func (b *Book) Size() int {
	if b == nil {
		return 0
	}
	return len(b.entries)
}

// Lines returns the number of lines in the book.
func (b *Book) Lines() int {
	if b == nil {
		return 0
	}
	return len(b.lines)
}

// ReadLines parses lines of the form "name | weight | moves". Blank lines
// and lines starting with '#' are skipped.
func ReadLines(r io.Reader) ([]Line, error) {
	var out []Line
	sc := bufio.NewScanner(r)
	n := 0
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		parts := strings.Split(text, "|")
		if len(parts) != 3 {
			return nil, fmt.Errorf("book line %d: want 3 fields, got %d", n, len(parts))
		}
		w, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 16)
		if err != nil {
			return nil, fmt.Errorf("book line %d: weight: %w", n, err)
		}
		out = append(out, Line{
			Name:   strings.TrimSpace(parts[0]),
			Weight: uint16(w),
			Moves:  strings.TrimSpace(parts[2]),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
