// Package oracle computes, for a piece type and a target square, the minimum number of
// single-piece moves needed to reach the target from every other square -- a shortest-path
// lower bound consumed by internal/astar (blocked-pawn detection and the per-color
// move-assignment heuristic) and internal/repair (hop selection toward a target square). Results are cached in a direct-mapped table keyed
// by (piece, color, target, blocked mask, capture budget), the same shape as
// pkg/search/transposition.go's direct-mapped, atomically-swapped table.
package oracle

import (
	"sync/atomic"

	"github.com/herohde/proofgame/internal/board"
)

// Unreachable marks a square from which the target cannot be reached within budget.
const Unreachable = -1

// Table holds, for every square, the minimum number of moves to the oracle's target.
type Table struct {
	PathLen [64]int8       // Unreachable (-1) if no path exists within the capture budget.
	From    board.Bitboard // squares with PathLen >= 0.
}

// Compute runs a breadth-first expansion from to, using piece's reverse-move neighbourhood,
// treating blocked as impassable (neither a through-square nor a landing square) and denied
// as additional squares a piece must not occupy (e.g. squares attacked by blocked enemy
// pawns, for King). For pawns, maxCapt bounds how many diagonal (capturing) reverse-moves
// may be used; non-pawn pieces ignore maxCapt.
func Compute(piece board.Piece, color board.Color, to board.Square, blocked, denied board.Bitboard, maxCapt int) Table {
	forbidden := blocked | denied

	if piece == board.Pawn {
		return computePawn(color, to, forbidden, maxCapt)
	}
	return computeOfficer(piece, to, forbidden)
}

func computeOfficer(piece board.Piece, to board.Square, forbidden board.Bitboard) Table {
	var t Table
	for i := range t.PathLen {
		t.PathLen[i] = Unreachable
	}
	if forbidden.IsSet(to) {
		return t
	}

	rotated := board.NewRotatedBitboard(forbidden)

	t.PathLen[to] = 0
	t.From = board.BitMask(to)
	frontier := []board.Square{to}

	for dist := int8(1); len(frontier) > 0; dist++ {
		var next []board.Square
		for _, sq := range frontier {
			reverse := board.Attackboard(rotated, sq, piece) &^ forbidden
			for _, cand := range reverse.ToSquares() {
				if t.PathLen[cand] != Unreachable {
					continue
				}
				t.PathLen[cand] = dist
				t.From |= board.BitMask(cand)
				next = append(next, cand)
			}
		}
		frontier = next
	}
	return t
}

type pawnState struct {
	sq   board.Square
	used int // captures (diagonal reverse-moves) consumed so far
}

func computePawn(color board.Color, to board.Square, forbidden board.Bitboard, maxCapt int) Table {
	var t Table
	for i := range t.PathLen {
		t.PathLen[i] = Unreachable
	}
	if maxCapt < 0 {
		maxCapt = 0
	}
	if forbidden.IsSet(to) {
		return t
	}

	forward := 1
	jumpRank := board.Rank4
	if color == board.Black {
		forward = -1
		jumpRank = board.Rank5
	}

	best := make(map[pawnState]int8)
	start := pawnState{sq: to, used: 0}
	best[start] = 0
	t.PathLen[to] = 0
	t.From = board.BitMask(to)

	queue := []pawnState{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		dist := best[cur]

		for _, edge := range pawnReverseEdges(cur.sq, forward, jumpRank) {
			if forbidden.IsSet(edge.to) {
				continue
			}
			if d := int(edge.to.Rank()) - int(cur.sq.Rank()); !edge.capture && (d == 2 || d == -2) {
				mid := board.NewSquare(cur.sq.File(), board.Rank(int(cur.sq.Rank())+d/2))
				if forbidden.IsSet(mid) {
					continue // a double step cannot pass through a blocked square.
				}
			}
			used := cur.used
			if edge.capture {
				if used >= maxCapt {
					continue
				}
				used++
			}
			ns := pawnState{sq: edge.to, used: used}
			if _, ok := best[ns]; ok {
				continue
			}
			best[ns] = dist + 1
			queue = append(queue, ns)

			if t.PathLen[edge.to] == Unreachable || t.PathLen[edge.to] > dist+1 {
				t.PathLen[edge.to] = dist + 1
				t.From |= board.BitMask(edge.to)
			}
		}
	}
	return t
}

type pawnEdge struct {
	to      board.Square
	capture bool
}

// pawnReverseEdges returns the squares from which a pawn could have reached sq in one move:
// one step behind (push), two steps behind if sq is on the jump-target rank (double push),
// and the two diagonals behind (captures).
func pawnReverseEdges(sq board.Square, forward int, jumpRank board.Rank) []pawnEdge {
	f, r := int(sq.File()), int(sq.Rank())
	var ret []pawnEdge

	if behind, ok := square(f, r-forward); ok {
		ret = append(ret, pawnEdge{to: behind})
		if sq.Rank() == jumpRank {
			if behind2, ok := square(f, r-2*forward); ok {
				ret = append(ret, pawnEdge{to: behind2})
			}
		}
	}
	if d, ok := square(f-1, r-forward); ok {
		ret = append(ret, pawnEdge{to: d, capture: true})
	}
	if d, ok := square(f+1, r-forward); ok {
		ret = append(ret, pawnEdge{to: d, capture: true})
	}
	return ret
}

func square(f, r int) (board.Square, bool) {
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return 0, false
	}
	return board.NewSquare(board.File(f), board.Rank(r)), true
}

// key identifies a cached Table.
type key struct {
	piece   board.Piece
	color   board.Color
	to      board.Square
	blocked board.Bitboard
	denied  board.Bitboard
	maxCapt int
}

func (k key) hash(size int) int {
	h := uint64(k.piece)<<61 | uint64(k.color)<<60 | uint64(k.to)<<54 | uint64(k.maxCapt)<<46
	h ^= uint64(k.blocked) * 0x9E3779B97F4A7C15
	h ^= uint64(k.denied) * 0xC2B2AE3D27D4EB4F
	return int(h % uint64(size))
}

type entry struct {
	key   key
	table Table
	valid bool
}

// Cache is a direct-mapped, per-task table of computed oracle results; entries are not
// shared across tasks (spec: thread-local shortest-path cache, owned by the worker's task).
type Cache struct {
	slots []atomic.Pointer[entry]
}

// DefaultSize is the direct-mapped table size (2^19 entries) used for the per-task default
// cache. SmallSize amortises bulk-pipeline startup when many short-lived tasks are created.
const (
	DefaultSize = 1 << 19
	SmallSize   = 1
)

func NewCache(size int) *Cache {
	if size <= 0 {
		size = SmallSize
	}
	return &Cache{slots: make([]atomic.Pointer[entry], size)}
}

// Get returns a cached table for the key, computing and storing it on a miss.
func (c *Cache) Get(piece board.Piece, color board.Color, to board.Square, blocked, denied board.Bitboard, maxCapt int) Table {
	k := key{piece: piece, color: color, to: to, blocked: blocked, denied: denied, maxCapt: maxCapt}
	idx := k.hash(len(c.slots))

	if e := c.slots[idx].Load(); e != nil && e.valid && e.key == k {
		return e.table
	}

	t := Compute(piece, color, to, blocked, denied, maxCapt)
	c.slots[idx].Store(&entry{key: k, table: t, valid: true})
	return t
}

// Size returns the number of direct-mapped slots.
func (c *Cache) Size() int {
	return len(c.slots)
}
