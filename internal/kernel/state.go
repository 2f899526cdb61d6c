// Package kernel implements the proof-kernel search (spec component C6): a depth-first
// search in an abstract material/pawn-column state space enumerating sequences of captures
// and promotions that transform one side's material configuration into another's, subject
// to pawn-column ordering and bishop-color constraints.
package kernel

import "github.com/herohde/proofgame/internal/board"

// Kind is an abstract piece kind, with bishops split by the color of square they sit on so
// promotion-square constraints can be expressed directly on piece counts.
type Kind int

const (
	Queen Kind = iota
	Rook
	DarkBishop
	LightBishop
	Knight
	Pawn
	NumKinds
)

func (k Kind) String() string {
	switch k {
	case Queen:
		return "Q"
	case Rook:
		return "R"
	case DarkBishop:
		return "DB"
	case LightBishop:
		return "LB"
	case Knight:
		return "N"
	case Pawn:
		return "P"
	default:
		return "?"
	}
}

// State is the abstract proof-kernel position: pawn columns plus per-color piece counts.
type State struct {
	Columns [8][]board.Color // bottom-to-top, at most 6 entries per file.

	PieceCnt [2][NumKinds]int
	GoalCnt  [2][NumKinds]int

	RemainingMoves    int
	RemainingCaptures [2]int

	// Per-column flags, fixed for the problem instance.
	CanPromote        [2][8]bool // a pawn on this file may still reach the promotion rank.
	RookQueenAllowed  [2][8]bool // a promotion on this file may produce a rook or queen.
	FirstCannotMove   [2][8]bool // the back-most pawn of this color on this file is blocked.

	// PromSquareDark[c][f] reports whether c's promotion square on file f (rank 8 for White,
	// rank 1 for Black) is a dark square. The two colors promote on opposite ranks of the same
	// file, so this is never the same for both colors on a given file -- a bishop promotion is
	// only legal toward the bishop kind matching this flag (spec 3's promSquareColor).
	PromSquareDark [2][8]bool
}

// ExcessCnt returns pieceCnt - goalCnt for the given color/kind: positive means the color
// has more of that kind than the goal requires.
func (s *State) ExcessCnt(c board.Color, k Kind) int {
	return s.PieceCnt[c][k] - s.GoalCnt[c][k]
}

// Clone deep-copies the state (the DFS mutates in place and relies on explicit undo, but
// Clone is useful for property tests and for seeding a search from a fresh instance).
func (s *State) Clone() *State {
	n := &State{
		PieceCnt:          s.PieceCnt,
		GoalCnt:           s.GoalCnt,
		RemainingMoves:    s.RemainingMoves,
		RemainingCaptures: s.RemainingCaptures,
		CanPromote:        s.CanPromote,
		RookQueenAllowed:  s.RookQueenAllowed,
		FirstCannotMove:   s.FirstCannotMove,
		PromSquareDark:    s.PromSquareDark,
	}
	for f := 0; f < 8; f++ {
		n.Columns[f] = append([]board.Color(nil), s.Columns[f]...)
	}
	return n
}

// IsGoal reports whether the state's material already matches the goal, per spec 4.6's goal
// test: for each color, the pawns beyond the goal pawn count (the ones still to promote) must
// exactly cover the piece shortfall, no piece kind may exceed its goal count (a surplus piece
// still needs a capture), and bishop shortfalls must be coverable by promotion squares of the
// matching color. Pawn columns are compared by pawn count only; the state holds no goal
// column layout.
func (s *State) IsGoal() bool {
	for c := board.ZeroColor; c < board.NumColors; c++ {
		spare := s.countPawns(c) - s.GoalCnt[c][Pawn]
		if spare < 0 {
			return false
		}

		shortfall := 0
		for k := Queen; k < Pawn; k++ {
			if d := s.GoalCnt[c][k] - s.PieceCnt[c][k]; d > 0 {
				shortfall += d
			} else if d < 0 {
				return false
			}
		}
		if shortfall != spare {
			return false
		}

		darkNeeded := excessShortfall(s.GoalCnt[c][DarkBishop], s.PieceCnt[c][DarkBishop])
		lightNeeded := excessShortfall(s.GoalCnt[c][LightBishop], s.PieceCnt[c][LightBishop])
		darkAvail, lightAvail := s.promotableByColor(c)
		if darkNeeded > darkAvail || lightNeeded > lightAvail {
			return false
		}
	}
	return true
}

// excessShortfall is max(0, goal-have).
func excessShortfall(goal, have int) int {
	if d := goal - have; d > 0 {
		return d
	}
	return 0
}

// promotableByColor counts, split by the color of the promotion square, the pawns of c still
// on a file whose promotion rank is reachable. This is a necessary-condition proxy for spec
// 3's per-column promNeededDark/promNeededLight accounting: a pawn counted here isn't
// necessarily free to promote right now (others on the same column may queue ahead of it),
// matching the coarser bound minMovesToGoal already documents for this abstraction.
func (s *State) promotableByColor(c board.Color) (dark, light int) {
	for f := 0; f < 8; f++ {
		if !s.CanPromote[c][f] {
			continue
		}
		n := 0
		for _, pc := range s.Columns[f] {
			if pc == c {
				n++
			}
		}
		if s.PromSquareDark[c][f] {
			dark += n
		} else {
			light += n
		}
	}
	return dark, light
}

func (s *State) countPawns(c board.Color) int {
	n := 0
	for f := 0; f < 8; f++ {
		for _, pc := range s.Columns[f] {
			if pc == c {
				n++
			}
		}
	}
	return n
}

// minMovesToGoal is the kernel's pruning heuristic (spec 4.6 / P4): a lower bound on the
// number of kernel moves still required, counting the per-color piece shortfall that must
// still be produced by promotion, and the pawn-count difference that must still be resolved
// by capture. Column-level pawn-order matching is left to internal/extkernel, which has
// access to concrete goal squares; this bound is deliberately coarser than the source's
// per-column "at most two adjacent columns per move" estimate.
func (s *State) minMovesToGoal() int {
	bound := 0
	for c := board.ZeroColor; c < board.NumColors; c++ {
		shortfall := 0
		for k := Queen; k < Pawn; k++ {
			if d := s.GoalCnt[c][k] - s.PieceCnt[c][k]; d > 0 {
				shortfall += d
			}
		}
		if d := s.countPawns(c) - s.GoalCnt[c][Pawn]; d > 0 {
			shortfall += d
		}
		bound += shortfall
	}
	return bound
}
