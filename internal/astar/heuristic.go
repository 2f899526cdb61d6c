package astar

import (
	"github.com/herohde/proofgame/internal/assign"
	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/oracle"
)

// infeasibleBound is returned by distLowerBound components that prove a color's material
// or reachability requirement cannot be met; large enough to never win a priority
// comparison against a genuinely solvable sibling, but finite so arithmetic stays safe.
const infeasibleBound = 1 << 20

// maxCaptureBudget bounds how many diagonal captures a pawn's shortest path may spend;
// spec 4.9 ties this to the opponent's material excess, which we approximate with a fixed
// generous ceiling since the CSP/kernel stages already bound feasible capture counts.
const maxCaptureBudget = 8

// computeBlockedSet returns the squares that moving a piece onto (or off of, in the case of
// a deadlocked piece) would certainly make goal unreachable from pos, per spec 4.9's five
// rules, plus an infeasible flag for the one rule (a deadlocked piece sitting on a mismatched
// goal square) that proves the position itself unreachable rather than merely constraining
// the search.
func computeBlockedSet(pos *board.Position, turn board.Color, goal *board.Position, goalTurn board.Color) (board.Bitboard, bool) {
	var blocked board.Bitboard

	for c := board.ZeroColor; c < board.NumColors; c++ {
		homeRank := board.Rank2
		if c == board.Black {
			homeRank = board.Rank7
		}
		for f := board.ZeroFile; f < board.NumFiles; f++ {
			sq := board.NewSquare(f, homeRank)
			gc, gp, ok := goal.Square(sq)
			if !ok || gp != board.Pawn || gc != c {
				continue
			}
			if pc, pp, ok := pos.Square(sq); ok && pc == c && pp == board.Pawn {
				blocked |= board.BitMask(sq)
			}
		}

		kingSq, rookSq, has := castlingAnchors(c, goal.Castling())
		if has {
			if pc, pp, ok := pos.Square(kingSq); ok && pc == c && pp == board.King {
				blocked |= board.BitMask(kingSq)
			}
			if pc, pp, ok := pos.Square(rookSq); ok && pc == c && pp == board.Rook {
				blocked |= board.BitMask(rookSq)
			}
		}
	}

	blocked |= conicPawnBlockedSet(pos, goal, board.White)
	blocked |= conicPawnBlockedSet(pos, goal, board.Black)
	blocked |= stalledPawnBlockedSet(pos, goal, board.White)
	blocked |= stalledPawnBlockedSet(pos, goal, board.Black)

	for c := board.ZeroColor; c < board.NumColors; c++ {
		for _, sq := range pos.Color(c).ToSquares() {
			if pieceHasAnyMove(pos, c, sq) {
				continue
			}
			gc, gp, ok := goal.Square(sq)
			_, pp, _ := pos.Square(sq)
			if ok && gc == c && gp == pp {
				blocked |= board.BitMask(sq)
				continue
			}
			if ok {
				return blocked, true
			}
		}
	}

	return blocked, false
}

// castlingAnchors returns the king and the (single, arbitrarily-chosen) rook square that
// goal's castling rights for c pin down, if goal grants c any castling right at all.
func castlingAnchors(c board.Color, rights board.Castling) (king, rook board.Square, ok bool) {
	if c == board.White {
		switch {
		case rights.IsAllowed(board.WhiteKingSideCastle):
			return board.E1, board.H1, true
		case rights.IsAllowed(board.WhiteQueenSideCastle):
			return board.E1, board.A1, true
		}
		return 0, 0, false
	}
	switch {
	case rights.IsAllowed(board.BlackKingSideCastle):
		return board.E8, board.H8, true
	case rights.IsAllowed(board.BlackQueenSideCastle):
		return board.E8, board.A8, true
	}
	return 0, 0, false
}

// conicPawnBlockedSet implements spec 4.9's "conic pawn reachability" rule per goal pawn,
// rather than unioned across all goal pawns of the color (documented simplification, noted
// in DESIGN.md): for each goal pawn g, the set of squares from which a pawn of c could still
// reach g (within maxCaptureBudget captures) is g's cone; if the current position has
// exactly as many pawns of c in that cone as goal has (counting every goal pawn of c that
// lies inside the cone, g included), those current pawns cannot spare a file move and are
// blocked.
func conicPawnBlockedSet(pos, goal *board.Position, c board.Color) board.Bitboard {
	var blocked board.Bitboard

	for _, g := range goal.Piece(c, board.Pawn).ToSquares() {
		cone := oracle.Compute(board.Pawn, c, g, 0, 0, maxCaptureBudget).From

		var curInCone, goalInCone board.Bitboard
		for _, sq := range pos.Piece(c, board.Pawn).ToSquares() {
			if cone.IsSet(sq) {
				curInCone |= board.BitMask(sq)
			}
		}
		for _, sq := range goal.Piece(c, board.Pawn).ToSquares() {
			if cone.IsSet(sq) {
				goalInCone |= board.BitMask(sq)
			}
		}
		if curInCone.PopCount() == goalInCone.PopCount() {
			blocked |= curInCone
		}
	}
	return blocked
}

// stalledPawnBlockedSet blocks a pawn whose only forward-usable square (the square directly
// ahead, given goal-pawn placement) is occupied in pos by a piece that is itself permanently
// in place (a goal pawn on its home square) — the pawn can never advance past it.
func stalledPawnBlockedSet(pos, goal *board.Position, c board.Color) board.Bitboard {
	forward := 1
	homeRank := board.Rank2
	if c == board.Black {
		forward = -1
		homeRank = board.Rank7
	}

	var blocked board.Bitboard
	for _, sq := range pos.Piece(c, board.Pawn).ToSquares() {
		f, r := int(sq.File()), int(sq.Rank())
		nr := r + forward
		if nr < 0 || nr > 7 {
			continue
		}
		ahead := board.NewSquare(board.File(f), board.Rank(nr))
		if pos.IsEmpty(ahead) {
			continue
		}
		gc, gp, ok := goal.Square(ahead)
		if ok && gp == board.Pawn && gc == c && ahead.Rank() == homeRank {
			blocked |= board.BitMask(sq)
		}
	}
	return blocked
}

// pieceHasAnyMove reports whether pos has any pseudo-legal move originating from sq for c.
func pieceHasAnyMove(pos *board.Position, c board.Color, sq board.Square) bool {
	for _, m := range pos.PseudoLegalMoves(c) {
		if m.From == sq {
			return true
		}
	}
	return false
}

// distLowerBound implements spec 4.9's admissible distance bound, with the cut-set
// constraint (step 4) omitted as a documented simplification: the bound is still admissible
// without it (it only tightens, never loosens, a correct lower bound), just looser when many
// pawns compete for the same capture squares. Steps 1-3 are implemented per-color via
// internal/assign's min-cost matching and internal/oracle's shortest-path tables.
func distLowerBound(pos *board.Position, turn board.Color, goal *board.Position, goalTurn board.Color, cache *oracle.Cache, opt Options) int {
	if !materialSufficient(pos, goal) {
		return infeasibleBound
	}

	total := 0
	for _, c := range [...]board.Color{board.White, board.Black} {
		minCaptures, ok := captureAssignmentCost(pos, goal, c)
		if !ok {
			return infeasibleBound
		}

		moveCost, obstacles := moveAssignmentCost(pos, goal, c, cache)
		if moveCost >= assign.Big {
			return infeasibleBound
		}
		total += minCaptures + moveCost
		if opt.UseNonAdmissible {
			total += 2 * obstacles
		}
	}

	if turn != goalTurn {
		total++
	}
	return total
}

// materialSufficient checks that, for each color, pos has enough pieces of each kind (after
// accounting for pawns that can still promote into a shortfall) to reach goal's composition.
func materialSufficient(pos, goal *board.Position) bool {
	for c := board.ZeroColor; c < board.NumColors; c++ {
		spare := pos.Piece(c, board.Pawn).PopCount() - goal.Piece(c, board.Pawn).PopCount()
		for p := board.Bishop; p <= board.Queen; p++ {
			need := goal.Piece(c, p).PopCount() - pos.Piece(c, p).PopCount()
			if need <= 0 {
				continue
			}
			spare -= need
			if spare < 0 {
				return false
			}
		}
	}
	return true
}

// captureAssignmentCost pairs each current pawn of c to a goal pawn of c (or a "captured"
// sink column, cost 0) by file distance, via internal/assign's min-cost matching, returning
// the optimum as a lower bound on captures this color's pawns must still make.
func captureAssignmentCost(pos, goal *board.Position, c board.Color) (int, bool) {
	cur := pos.Piece(c, board.Pawn).ToSquares()
	want := goal.Piece(c, board.Pawn).ToSquares()

	n := len(cur)
	if n == 0 {
		return 0, true
	}
	cost := make([][]int, n)
	for i, from := range cur {
		row := make([]int, n)
		for j := 0; j < n; j++ {
			if j < len(want) {
				d := int(from.File()) - int(want[j].File())
				if d < 0 {
					d = -d
				}
				row[j] = d
			} else {
				row[j] = 0 // sink: this pawn is expected to be captured away.
			}
		}
		cost[i] = row
	}

	result, err := assign.Solve(cost)
	if err != nil || !result.Feasible() {
		return 0, false
	}
	return result.Cost, true
}

// moveAssignmentCost solves spec 4.9 step 3's per-color move-assignment problem: rows are
// c's current pieces (all of them, blocked or not, at most the first 16), columns are c's
// goal pieces (plus sink columns for pieces expected to be captured, cost 0), cost is the
// oracle shortest-path distance from the current square to the goal square (ignoring other
// pieces as blockers, since positions along the path will generally change before this piece
// actually moves). obstacles counts, across the winning assignment, the occupied squares
// whose distance to the assigned goal square is strictly less than the piece's own distance
// on that table — used only when Options.UseNonAdmissible is set.
func moveAssignmentCost(pos, goal *board.Position, c board.Color, cache *oracle.Cache) (int, int) {
	var cur, want []board.Square
	var pieces []board.Piece
	for p := board.Pawn; p < board.NumPieces; p++ {
		cur = append(cur, pos.Piece(c, p).ToSquares()...)
		for range pos.Piece(c, p).ToSquares() {
			pieces = append(pieces, p)
		}
		want = append(want, goal.Piece(c, p).ToSquares()...)
	}

	n := len(cur)
	if n == 0 {
		return 0, 0
	}
	if n > 16 {
		n = 16 // clamp: assign.Solve bounds matrices to 16x16; excess pieces fall back to 0 cost.
	}

	cost := make([][]int, n)
	for i := 0; i < n; i++ {
		row := make([]int, n)
		for j := 0; j < n; j++ {
			if j >= len(want) {
				row[j] = 0
				continue
			}
			d := int(cache.Get(pieces[i], c, want[j], 0, 0, maxCaptureBudget).PathLen[cur[i]])
			if d < 0 {
				row[j] = assign.Big
			} else {
				row[j] = d
			}
		}
		cost[i] = row
	}

	result, err := assign.Solve(cost)
	if err != nil {
		return assign.Big, 0
	}

	obstacles := 0
	occ := pos.Rotated().Mask()
	for i := 0; i < n; i++ {
		if result.Sigma[i] >= len(want) {
			continue
		}
		t := cache.Get(pieces[i], c, want[result.Sigma[i]], 0, 0, maxCaptureBudget)
		d := t.PathLen[cur[i]]
		for sq, path := range t.PathLen {
			if path >= 0 && path < d && occ.IsSet(board.Square(sq)) {
				obstacles++
			}
		}
	}
	return result.Cost, obstacles
}
