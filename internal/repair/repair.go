// Package repair turns an extended proof-kernel move sequence (internal/extkernel) into a
// pseudo-legal board.Move sequence: each extended move's piece identity and path are
// resolved against the board's actual occupancy, inserting intermediate hops for sliding
// pieces blocked by the current position (internal/oracle) and resolving promotion-piece
// assignment directly from the kernel/extkernel move that already carries it.
//
// Per spec 4.8, the combined output is pseudo-legal but not necessarily legal (it may allow
// an illegal king capture); internal/astar is responsible for the final legality check.
package repair

import (
	"errors"
	"fmt"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/extkernel"
	"github.com/herohde/proofgame/internal/oracle"
)

// ErrNoDispersal is returned when a step has no legal (or oracle-reachable) move available
// from the current position — the lifted sequence cannot be realized as board moves from
// here. Per the spec's Open Question resolution, this is treated as `unknown`, not
// `infeasible`, by internal/pipeline: it reflects a failure of this particular repair
// attempt, not a proof that the target position is unreachable.
var ErrNoDispersal = errors.New("repair: no legal dispersal for move")

// Result is a repaired board-move sequence together with the final position reached.
type Result struct {
	Moves []board.Move
	Final *board.Position
}

// maxHops bounds the number of intermediate hops inserted per extended move, guarding
// against oracle/position inconsistencies producing an infinite walk.
const maxHops = 16

// Repair resolves ext (an extended proof-kernel move sequence starting with mover to move)
// into a concrete pseudo-legal board.Move sequence applied to pos.
func Repair(pos *board.Position, mover board.Color, ext []extkernel.Move) (Result, error) {
	cur := pos
	turn := mover
	var moves []board.Move

	for i, m := range ext {
		steps, next, err := resolveOne(cur, turn, m)
		if err != nil {
			return Result{}, fmt.Errorf("repair: step %v (%v): %w", i, m, err)
		}
		moves = append(moves, steps...)
		cur = next
		turn = turn.Opponent()
	}
	return Result{Moves: moves, Final: cur}, nil
}

// resolveOne resolves a single extended move into one or more board.Move hops, applying
// them to pos in sequence and returning the resulting position.
func resolveOne(pos *board.Position, turn board.Color, m extkernel.Move) ([]board.Move, *board.Position, error) {
	if m.Piece == board.Pawn || (m.Piece == board.NoPiece && !m.Capture) {
		return resolvePawn(pos, turn, m)
	}
	return resolvePiece(pos, turn, m)
}

// resolvePawn resolves a pawn move or pawn capture directly: pawns never need
// intermediate-hop expansion (their destination is always one or two ranks away).
func resolvePawn(pos *board.Position, turn board.Color, m extkernel.Move) ([]board.Move, *board.Position, error) {
	for _, cand := range pos.PseudoLegalMoves(turn) {
		if cand.Piece != board.Pawn || !m.ToKnown || cand.To != m.To {
			continue
		}
		if cand.IsCapture() != m.Capture {
			continue
		}
		if m.Promotion != board.NoPiece && cand.Promotion != m.Promotion {
			continue
		}
		next, _, ok := pos.Move(turn, cand)
		if !ok {
			continue
		}
		return []board.Move{cand}, next, nil
	}
	return nil, nil, ErrNoDispersal
}

// resolvePiece resolves a non-pawn move. If the extended move's piece and square are both
// known and directly reachable, it is applied as-is. Otherwise, candidate own-color pieces
// are walked toward the target square one pseudo-legal hop at a time, using
// internal/oracle's shortest-path table to pick the hop that strictly reduces remaining
// distance, until the target is reached or maxHops is exceeded.
func resolvePiece(pos *board.Position, turn board.Color, m extkernel.Move) ([]board.Move, *board.Position, error) {
	from, to, piece, ok := pickSource(pos, turn, m)
	if !ok {
		return nil, nil, ErrNoDispersal
	}

	var hops []board.Move
	cur, curFrom := pos, from
	for i := 0; i < maxHops; i++ {
		if curFrom == to {
			break
		}
		direct := findDirectMove(cur, turn, piece, curFrom, to, m.Capture)
		if direct != nil {
			next, _, ok := cur.Move(turn, *direct)
			if !ok {
				return nil, nil, ErrNoDispersal
			}
			hops = append(hops, *direct)
			cur, curFrom = next, to
			break
		}

		occ := cur.Rotated().Mask() &^ board.BitMask(curFrom) &^ board.BitMask(to)
		table := oracle.Compute(piece, turn, to, occ, 0, 0)
		dist := table.PathLen[curFrom]
		if dist == oracle.Unreachable {
			return nil, nil, ErrNoDispersal
		}

		hop, ok := stepToward(cur, turn, piece, curFrom, table)
		if !ok {
			return nil, nil, ErrNoDispersal
		}
		next, _, ok := cur.Move(turn, hop)
		if !ok {
			return nil, nil, ErrNoDispersal
		}
		hops = append(hops, hop)
		cur, curFrom = next, hop.To
	}
	if curFrom != to {
		return nil, nil, ErrNoDispersal
	}
	return hops, cur, nil
}

// pickSource finds a concrete (from, piece) for an extended move whose piece and/or square
// may be unresolved, by scanning own-color pseudo-legal captures for one that matches the
// required captured kind (piece x piece) or required destination (piece x pawn).
func pickSource(pos *board.Position, turn board.Color, m extkernel.Move) (from, to board.Square, piece board.Piece, ok bool) {
	for _, cand := range pos.PseudoLegalMoves(turn) {
		if cand.Piece == board.Pawn || cand.Piece == board.King {
			continue
		}
		if m.Piece != board.NoPiece && cand.Piece != m.Piece {
			continue
		}
		if cand.IsCapture() != m.Capture {
			continue
		}
		if m.ToKnown && cand.To != m.To {
			continue
		}
		if m.Capture {
			_, captured, hasPiece := pos.Square(cand.To)
			if !hasPiece || (m.Captured != board.NoPiece && captured != m.Captured) {
				continue
			}
		}
		return cand.From, cand.To, cand.Piece, true
	}
	return 0, 0, board.NoPiece, false
}

// findDirectMove returns a pseudo-legal move for piece from `from` landing on `to`, if one
// exists in the current (possibly blocked) position.
func findDirectMove(pos *board.Position, turn board.Color, piece board.Piece, from, to board.Square, capture bool) *board.Move {
	for _, cand := range pos.PseudoLegalMoves(turn) {
		if cand.Piece == piece && cand.From == from && cand.To == to && cand.IsCapture() == capture {
			c := cand
			return &c
		}
	}
	return nil
}

// stepToward picks the pseudo-legal non-capturing move for piece at `from` whose
// destination strictly decreases table.PathLen, i.e. makes progress toward the target per
// internal/oracle's shortest-path table.
func stepToward(pos *board.Position, turn board.Color, piece board.Piece, from board.Square, table oracle.Table) (board.Move, bool) {
	best := table.PathLen[from]
	for _, cand := range pos.PseudoLegalMoves(turn) {
		if cand.Piece != piece || cand.From != from || cand.IsCapture() {
			continue
		}
		if d := table.PathLen[cand.To]; d != oracle.Unreachable && d < best {
			return cand, true
		}
	}
	return board.Move{}, false
}
