package kernel_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/board/fen"
	"github.com/herohde/proofgame/internal/kernel"
)

func fullStartingState() *kernel.State {
	s := &kernel.State{RemainingMoves: 0}
	for f := 0; f < 8; f++ {
		s.Columns[f] = []board.Color{board.White, board.Black}
	}
	s.PieceCnt[board.White] = [kernel.NumKinds]int{1, 2, 1, 1, 2, 8}
	s.PieceCnt[board.Black] = [kernel.NumKinds]int{1, 2, 1, 1, 2, 8}
	s.GoalCnt = s.PieceCnt
	return s
}

func TestIsGoalTrivial(t *testing.T) {
	s := fullStartingState()
	assert.True(t, s.IsGoal())
}

func TestIsGoalRequiresPromotionCoverage(t *testing.T) {
	s := fullStartingState()
	s.GoalCnt[board.White][kernel.Queen] = 2 // need an extra queen, must come from a pawn.
	assert.False(t, s.IsGoal())              // no spare pawns (8 pawns == 8 goal pawns): infeasible without a capture first.

	s.GoalCnt[board.White][kernel.Pawn] = 7
	assert.True(t, s.IsGoal()) // one spare pawn can cover the shortfall.
}

func TestApplyUnapplyRoundTrips(t *testing.T) {
	s := fullStartingState()
	s.RemainingMoves = 5
	s.RemainingCaptures[board.White] = 2
	before := s.Clone()

	m := kernel.Move{Kind: kernel.PawnPawn, Color: board.White, File1: 0, Idx1: 0, File2: 1, Idx2: 0}
	u := s.Apply(m)
	assert.NotEqual(t, before.PieceCnt, s.PieceCnt)

	s.Unapply(u)
	assert.Equal(t, before.PieceCnt, s.PieceCnt)
	assert.Equal(t, before.Columns, s.Columns)
	assert.Equal(t, before.RemainingMoves, s.RemainingMoves)
}

func TestMovesRespectsCaptureBudget(t *testing.T) {
	s := fullStartingState()
	s.RemainingMoves = 3
	s.RemainingCaptures[board.White] = 0
	s.RemainingCaptures[board.Black] = 1

	for _, m := range s.Moves() {
		assert.Equal(t, board.Black, m.Color)
	}
}

func TestMoveStringFormsPawnPawn(t *testing.T) {
	m := kernel.Move{Kind: kernel.PawnPawn, Color: board.White, File1: 4, Idx1: 1, File2: 3, Idx2: 0}
	assert.Equal(t, "wPe1xPd0", m.String())
}

func TestSearchFindsImmediateGoal(t *testing.T) {
	s := fullStartingState()
	res, err := kernel.Search(context.Background(), s, kernel.Options{MaxNodes: 1000, Seed: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Moves)
}

func TestSearchFindsSingleCapture(t *testing.T) {
	s := fullStartingState()
	s.RemainingMoves = 1
	s.RemainingCaptures[board.White] = 1
	s.GoalCnt[board.Black][kernel.Pawn] = 7 // must remove exactly one black pawn.

	res, err := kernel.Search(context.Background(), s, kernel.Options{MaxNodes: 10000, Seed: 42})
	require.NoError(t, err)
	require.Len(t, res.Moves, 1)
	assert.Equal(t, board.White, res.Moves[0].Color)
}

func TestSearchReportsNoProof(t *testing.T) {
	s := fullStartingState()
	s.GoalCnt[board.White][kernel.Queen] = 5 // unreachable with zero remaining moves.

	_, err := kernel.Search(context.Background(), s, kernel.Options{MaxNodes: 1000, Seed: 7})
	assert.ErrorIs(t, err, kernel.ErrNoProof)
}

func TestFromPositionsIdenticalIsGoal(t *testing.T) {
	pos, _, _, _, err := fen.Decode(fen.Initial)
	require.NoError(t, err)

	s := kernel.FromPositions(pos, pos)
	assert.True(t, s.IsGoal())
	assert.Equal(t, 0, s.RemainingMoves)
	assert.Len(t, s.Columns[0], 2) // kernel file 0 ('a') has one pawn per color at the start.

	total := 0
	for f := 0; f < 8; f++ {
		total += len(s.Columns[f])
	}
	assert.Equal(t, 16, total)
}

func TestFromPositionsCountsCapturesNeeded(t *testing.T) {
	start, _, _, _, err := fen.Decode("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)
	goal, _, _, _, err := fen.Decode("rnbqkbnr/ppppppp1/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1")
	require.NoError(t, err)

	s := kernel.FromPositions(start, goal)
	assert.False(t, s.IsGoal())
	assert.Equal(t, 1, s.RemainingMoves)
	assert.Equal(t, 1, s.RemainingCaptures[board.White])
	assert.Equal(t, 0, s.RemainingCaptures[board.Black])
}

func TestTableLookupMiss(t *testing.T) {
	tbl := kernel.NewTable(16)
	_, ok := tbl.Lookup(12345, 3)
	assert.False(t, ok)

	tbl.Store(12345, 3, kernel.Fail)
	v, ok := tbl.Lookup(12345, 3)
	assert.True(t, ok)
	assert.Equal(t, kernel.Fail, v)

	// A shallower query depth is still covered by a deeper-proven failure.
	v, ok = tbl.Lookup(12345, 1)
	assert.True(t, ok)
	assert.Equal(t, kernel.Fail, v)

	// A deeper query depth is not covered by a shallower-proven failure.
	_, ok = tbl.Lookup(12345, 5)
	assert.False(t, ok)
}
