package astar

import (
	"context"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/kernel"
	"github.com/herohde/proofgame/internal/oracle"
	"github.com/herohde/proofgame/internal/reverse"
)

// retractionProbeBudget bounds the recursive proof-kernel and proof-game checks used to
// judge whether a candidate predecessor is itself plausibly reachable, per spec 4.5's
// "recursive proof-game infeasibility test with a tiny node budget".
const retractionProbeBudget int64 = 64

// maxForcedRetractions bounds the retraction loop itself so a malformed position can't spin
// forever; spec 4.5 expects retraction to stop well before this.
const maxForcedRetractions = 64

// RetractForcedLastMoves implements spec 4.5's forced-last-move retraction, run once before
// the rest of the cascade (kernel search included) against the reduced goal it returns.
// While goal has exactly one plausible predecessor, it replaces goal with that predecessor
// and records the retracted move; quiet (non-capture, non-pawn) predecessors are preferred
// over irreversible (capture or pawn-move) ones, which are only considered when no quiet
// predecessor is plausible. Retraction stops as soon as two or more
// predecessors are plausible, goal already matches start, or no candidate survives at all.
// The returned moves are in forward chronological order, ready to append after an A* path
// that reaches the returned (reduced) goal.
func RetractForcedLastMoves(ctx context.Context, start *board.Position, startTurn board.Color, goal *board.Position, goalTurn board.Color, cache *oracle.Cache) (*board.Position, board.Color, []board.Move) {
	if cache == nil {
		cache = oracle.NewCache(oracle.DefaultSize)
	}

	var retracted []board.Move
	for i := 0; i < maxForcedRetractions; i++ {
		if matches(goal, goalTurn, start, startTurn) {
			break
		}

		mover := goalTurn.Opponent()
		cands := reverse.Generate(goal, mover, false)

		var quiet, irreversible []reverse.Candidate
		for _, c := range cands {
			if isIrreversible(c.Move) {
				irreversible = append(irreversible, c)
			} else {
				quiet = append(quiet, c)
			}
		}

		prev, move, n := pickForced(ctx, start, startTurn, quiet, mover, cache)
		if n == 0 {
			prev, move, n = pickForced(ctx, start, startTurn, irreversible, mover, cache)
		}
		if n != 1 {
			break
		}

		retracted = append(retracted, move)
		goal, goalTurn = prev, mover
	}

	for i, j := 0, len(retracted)-1; i < j; i, j = i+1, j-1 {
		retracted[i], retracted[j] = retracted[j], retracted[i]
	}
	return goal, goalTurn, retracted
}

func isIrreversible(m board.Move) bool {
	return m.IsCapture() || m.Piece == board.Pawn
}

// pickForced counts the candidates among cands that are plausible predecessors of the goal
// (reachable from start), stopping at two, and returns the sole one when the count is 1.
func pickForced(ctx context.Context, start *board.Position, startTurn board.Color, cands []reverse.Candidate, predTurn board.Color, cache *oracle.Cache) (*board.Position, board.Move, int) {
	var foundPrev *board.Position
	var foundMove board.Move
	n := 0
	for _, c := range cands {
		if !plausiblePredecessor(ctx, start, startTurn, c.Prev, predTurn, cache) {
			continue
		}
		n++
		if n > 1 {
			return nil, board.Move{}, n // two or more plausible: ambiguous, stop.
		}
		foundPrev, foundMove = c.Prev, c.Move
	}
	return foundPrev, foundMove, n
}

// plausiblePredecessor reports whether pred could be reached from (start, startTurn): either
// it already is start, or a tiny-budget proof-kernel search followed by a tiny-budget A*
// probe both find a proof within retractionProbeBudget nodes.
func plausiblePredecessor(ctx context.Context, start *board.Position, startTurn board.Color, pred *board.Position, predTurn board.Color, cache *oracle.Cache) bool {
	if matches(pred, predTurn, start, startTurn) {
		return true
	}

	ks := kernel.FromPositions(start, pred)
	if !ks.IsGoal() {
		if _, err := kernel.Search(ctx, ks, kernel.Options{MaxNodes: retractionProbeBudget, Seed: 1}); err != nil {
			return false
		}
	}

	_, err := Search(ctx, start, startTurn, pred, predTurn, Options{MaxNodes: retractionProbeBudget, OracleCache: cache})
	return err == nil
}
