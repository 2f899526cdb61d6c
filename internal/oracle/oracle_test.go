package oracle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/oracle"
)

func TestComputeKnightMonotoneDecrease(t *testing.T) {
	table := oracle.Compute(board.Knight, board.White, board.E4, 0, 0, 0)

	assert.EqualValues(t, 0, table.PathLen[board.E4])
	for _, sq := range table.From.ToSquares() {
		if sq == board.E4 {
			continue
		}
		// P2: along a shortest path, pathLen strictly decreases by 1 at each step.
		reached := false
		rotated := board.NewRotatedBitboard(0)
		for _, next := range (board.Attackboard(rotated, sq, board.Knight)).ToSquares() {
			if table.PathLen[next] == table.PathLen[sq]-1 {
				reached = true
				break
			}
		}
		assert.True(t, reached, "square %v has no valid predecessor step", sq)
	}
}

func TestComputeBishopStaysOnColor(t *testing.T) {
	table := oracle.Compute(board.Bishop, board.White, board.C1, 0, 0, 0)
	for _, sq := range table.From.ToSquares() {
		assert.Equal(t, squareColor(board.C1), squareColor(sq))
	}
}

func squareColor(sq board.Square) int {
	return (int(sq.File()) + int(sq.Rank())) % 2
}

func TestComputePawnPushOnly(t *testing.T) {
	table := oracle.Compute(board.Pawn, board.White, board.E4, 0, 0, 0)
	assert.EqualValues(t, 0, table.PathLen[board.E4])
	assert.EqualValues(t, 1, table.PathLen[board.E3])
	// E2 reaches E4 in one move too, via the double-step.
	assert.EqualValues(t, 1, table.PathLen[board.E2])
	// Diagonal predecessors are unreachable with a zero capture budget.
	assert.EqualValues(t, oracle.Unreachable, table.PathLen[board.D3])
}

func TestComputePawnWithCaptureBudget(t *testing.T) {
	table := oracle.Compute(board.Pawn, board.White, board.E4, 0, 0, 1)
	assert.EqualValues(t, 1, table.PathLen[board.D3])
	assert.EqualValues(t, 1, table.PathLen[board.F3])
}

func TestComputeRespectsBlocked(t *testing.T) {
	blocked := board.BitMask(board.E3)
	table := oracle.Compute(board.Pawn, board.White, board.E4, blocked, 0, 0)
	assert.EqualValues(t, oracle.Unreachable, table.PathLen[board.E3])
	assert.EqualValues(t, oracle.Unreachable, table.PathLen[board.E2])
}

func TestCacheHitReturnsSameResult(t *testing.T) {
	c := oracle.NewCache(oracle.SmallSize)
	a := c.Get(board.Rook, board.White, board.A1, 0, 0, 0)
	b := c.Get(board.Rook, board.White, board.A1, 0, 0, 0)
	assert.Equal(t, a, b)
}
