package kernel

import (
	"sync/atomic"
	"unsafe"

	"github.com/herohde/proofgame/internal/board"
)

// Hash returns a 64bit digest of s, suitable for transposition-table keying. It folds in
// column contents and per-color piece counts but not RemainingMoves/RemainingCaptures; the
// Table keeps the RemainingMoves bound beside each entry as its depth instead.
func (s *State) Hash() uint64 {
	const prime = 1099511628211
	h := uint64(14695981039346656037)

	mix := func(v uint64) {
		h ^= v
		h *= prime
	}

	for f := 0; f < 8; f++ {
		mix(uint64(f)<<56 | uint64(len(s.Columns[f])))
		for i, c := range s.Columns[f] {
			mix(uint64(i)<<8 | uint64(c))
		}
	}
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for k := Queen; k < NumKinds; k++ {
			mix(uint64(c)<<32 | uint64(k)<<16 | uint64(s.PieceCnt[c][k]))
		}
	}
	return h
}

// Verdict is the cached outcome of a DFS exploration from a given state/remaining-moves pair.
type Verdict uint8

const (
	Unknown Verdict = iota
	Fail            // proven unreachable within the explored RemainingMoves.
)

// entry is a direct-mapped transposition table slot. A state proven unreachable with a
// larger RemainingMoves budget is also unreachable with a smaller one, so Store keeps an
// existing entry for the same hash whose depth is at least as large.
type entry struct {
	hash  uint64
	depth int
	v     Verdict
}

// Table is a direct-mapped, atomic-pointer transposition table for the kernel DFS, grounded
// on pkg/search's TranspositionTable (single-slot buckets, replace-if-not-better policy).
type Table struct {
	slots []unsafe.Pointer // *entry
	mask  uint64
}

// NewTable allocates a table with size slots, rounded down to a power of two.
func NewTable(size int) *Table {
	n := 1
	for n*2 <= size {
		n *= 2
	}
	if n == 0 {
		n = 1
	}
	return &Table{slots: make([]unsafe.Pointer, n), mask: uint64(n - 1)}
}

// Lookup returns the cached verdict for (hash, depth): a Fail verdict recorded at a depth
// greater than or equal to depth is reusable, since failure is monotone in remaining moves.
func (t *Table) Lookup(hash uint64, depth int) (Verdict, bool) {
	slot := atomic.LoadPointer(&t.slots[hash&t.mask])
	e := (*entry)(slot)
	if e == nil || e.hash != hash {
		return Unknown, false
	}
	if e.v == Fail && e.depth < depth {
		return Unknown, false
	}
	return e.v, true
}

// Store records a Fail verdict for (hash, depth), keeping the existing entry if it already
// covers a depth at least as large.
func (t *Table) Store(hash uint64, depth int, v Verdict) {
	idx := hash & t.mask
	for {
		old := atomic.LoadPointer(&t.slots[idx])
		oe := (*entry)(old)
		if oe != nil && oe.hash == hash && oe.depth >= depth {
			return
		}
		fresh := &entry{hash: hash, depth: depth, v: v}
		if atomic.CompareAndSwapPointer(&t.slots[idx], old, unsafe.Pointer(fresh)) {
			return
		}
	}
}

// Size returns the number of slots in the table.
func (t *Table) Size() int {
	return len(t.slots)
}
