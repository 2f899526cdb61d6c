package kernel

import (
	"fmt"

	"github.com/herohde/proofgame/internal/board"
)

// MoveKind is a PkMove category of spec 3, with pawn x promoted-pawn kept apart from pawn x
// piece.
type MoveKind int

const (
	PawnPawn MoveKind = iota
	PawnPiece
	PawnPromotedPawn
	PiecePawn
	PiecePiece
)

// Move is a tagged abstract kernel move (PkMove). Each move decreases total piece count by
// exactly one. Fields not relevant to Kind are zero.
type Move struct {
	Kind  MoveKind
	Color board.Color // the capturing color.

	File1, Idx1 int // pawn x pawn / piece x pawn: capturing/moving pawn's file + column index.
	File2, Idx2 int // pawn x pawn: captured pawn's file + column index.

	OtherPromotionFile int // pawn x promoted-pawn: the file the captured piece promoted on.

	Captured  Kind // pawn x piece / piece x piece: the captured piece kind.
	Promotion Kind // the kind the capturing pawn promotes to; meaningful only when Promoted is set.
	Promoted  bool
}

// String renders the PkMove text form of spec 6: [w|b]P<file><idx>x(<piece>|<file>)[...].
func (m Move) String() string {
	color := "w"
	if m.Color == board.Black {
		color = "b"
	}
	switch m.Kind {
	case PawnPawn:
		s := fmt.Sprintf("%vP%v%vxP%v%v", color, fileLetter(m.File1), m.Idx1, fileLetter(m.File2), m.Idx2)
		if m.Promoted {
			s += m.Promotion.String()
		}
		return s
	case PawnPiece:
		s := fmt.Sprintf("%vP%v%vx%v", color, fileLetter(m.File1), m.Idx1, m.Captured)
		if m.Promoted {
			s += m.Promotion.String()
		}
		return s
	case PawnPromotedPawn:
		return fmt.Sprintf("%vP%v%vxP%v", color, fileLetter(m.File1), m.Idx1, fileLetter(m.OtherPromotionFile))
	case PiecePawn:
		return fmt.Sprintf("%vxP%v%v", color, fileLetter(m.File1), m.Idx1)
	case PiecePiece:
		return fmt.Sprintf("%vx%v", color, m.Captured)
	default:
		return "?"
	}
}

func fileLetter(f int) rune {
	return rune('a' + f)
}

// Undo captures what Apply mutated, so Unapply can restore State exactly (used by the DFS
// and by P1 property tests).
type Undo struct {
	move Move

	col1Touched bool
	col1Removed board.Color

	col2Touched bool       // PawnPawn: Columns[File2][Idx2] was replaced.
	col2Removed board.Color // the captured pawn's color, to restore on undo.
	col2Entered bool        // true unless the capturing pawn promoted away instead of entering File2.

	pieceCntBefore [2][NumKinds]int
	remMovesBefore int
	remCaptBefore  [2]int
}

// Apply mutates s to reflect m and returns an Undo record to reverse it. A pawn that changes
// file (PawnPawn) relocates from Columns[File1] into the captured piece's slot in
// Columns[File2], unless it promotes, in which case it leaves the column chain entirely, like
// any other promoting pawn. Pawn captures of a piece (PawnPiece, PawnPromotedPawn) are
// modeled as not changing file, a documented simplification given the abstract kernel state
// does not track the destination file of a non-pawn capture.
func (s *State) Apply(m Move) Undo {
	u := Undo{
		move:           m,
		pieceCntBefore: s.PieceCnt,
		remMovesBefore: s.RemainingMoves,
		remCaptBefore:  s.RemainingCaptures,
	}

	opp := m.Color.Opponent()
	s.RemainingMoves--

	switch m.Kind {
	case PawnPawn:
		col1 := s.Columns[m.File1]
		u.col1Touched, u.col1Removed = true, col1[m.Idx1]
		s.Columns[m.File1] = removeAt(col1, m.Idx1)

		col2 := s.Columns[m.File2]
		u.col2Touched, u.col2Removed = true, col2[m.Idx2]
		s.Columns[m.File2] = removeAt(col2, m.Idx2)

		s.PieceCnt[opp][Pawn]--
		s.RemainingCaptures[m.Color]--

		if m.Promoted {
			s.PieceCnt[m.Color][Pawn]--
			s.PieceCnt[m.Color][m.Promotion]++
		} else {
			u.col2Entered = true
			s.Columns[m.File2] = insertAt(s.Columns[m.File2], m.Idx2, m.Color)
		}

	case PawnPiece:
		s.PieceCnt[opp][m.Captured]--
		s.RemainingCaptures[m.Color]--
		if m.Promoted {
			col1 := s.Columns[m.File1]
			u.col1Touched, u.col1Removed = true, col1[m.Idx1]
			s.Columns[m.File1] = removeAt(col1, m.Idx1)

			s.PieceCnt[m.Color][Pawn]--
			s.PieceCnt[m.Color][m.Promotion]++
		}

	case PawnPromotedPawn:
		s.PieceCnt[opp][Queen]-- // the captured piece is whatever the other pawn promoted to; Queen is the typical case.
		s.RemainingCaptures[m.Color]--

	case PiecePawn:
		col1 := s.Columns[m.File1]
		u.col1Touched, u.col1Removed = true, col1[m.Idx1]
		s.Columns[m.File1] = removeAt(col1, m.Idx1)

		s.PieceCnt[opp][Pawn]--
		s.RemainingCaptures[m.Color]--

	case PiecePiece:
		s.PieceCnt[opp][m.Captured]--
		s.RemainingCaptures[m.Color]--
	}

	return u
}

// Unapply reverses Apply given its Undo record (P1: kernel reversibility).
func (s *State) Unapply(u Undo) {
	s.PieceCnt = u.pieceCntBefore
	s.RemainingMoves = u.remMovesBefore
	s.RemainingCaptures = u.remCaptBefore

	m := u.move
	if u.col2Entered {
		s.Columns[m.File2] = removeAt(s.Columns[m.File2], m.Idx2)
	}
	if u.col2Touched {
		s.Columns[m.File2] = insertAt(s.Columns[m.File2], m.Idx2, u.col2Removed)
	}
	if u.col1Touched {
		s.Columns[m.File1] = insertAt(s.Columns[m.File1], m.Idx1, u.col1Removed)
	}
}

func removeAt(col []board.Color, i int) []board.Color {
	ret := append([]board.Color(nil), col[:i]...)
	return append(ret, col[i+1:]...)
}

func insertAt(col []board.Color, i int, c board.Color) []board.Color {
	ret := append([]board.Color(nil), col[:i]...)
	ret = append(ret, c)
	return append(ret, col[i:]...)
}

// Moves generates the candidate kernel moves available from s, per spec 4.6's generation
// rules. firstCanMove / rookQueenPromoteAllowed gate the pawn-column edge cases; captures
// always require a remaining capture budget on the capturing color and a remaining piece of
// the target kind on the opponent.
func (s *State) Moves() []Move {
	var ret []Move

	for c := board.ZeroColor; c < board.NumColors; c++ {
		if s.RemainingCaptures[c] <= 0 {
			continue
		}
		opp := c.Opponent()

		ret = append(ret, s.pawnPawnMoves(c)...)

		for f := 0; f < 8; f++ {
			col := s.Columns[f]
			for i, pc := range col {
				if pc != c || !s.columnIndexMovable(c, f, i) {
					continue
				}
				for k := Queen; k < Pawn; k++ {
					if s.PieceCnt[opp][k] <= 0 {
						continue
					}
					ret = append(ret, s.withPromotions(Move{Kind: PawnPiece, Color: c, File1: f, Idx1: i, Captured: k}, c, f, i)...)
				}
			}
		}

		for f := 0; f < 8; f++ {
			for i, pc := range s.Columns[f] {
				if pc == opp {
					ret = append(ret, Move{Kind: PiecePawn, Color: c, File1: f, Idx1: i})
				}
			}
		}

		for k := Queen; k < Pawn; k++ {
			if s.PieceCnt[c][k] > 0 && s.PieceCnt[opp][k] > 0 {
				ret = append(ret, Move{Kind: PiecePiece, Color: c, Captured: k})
			}
		}
	}
	return ret
}

func (s *State) pawnPawnMoves(c board.Color) []Move {
	var ret []Move
	for f1 := 0; f1 < 8; f1++ {
		for i1, pc1 := range s.Columns[f1] {
			if pc1 != c || !s.columnIndexMovable(c, f1, i1) {
				continue
			}
			for _, f2 := range adjacentFiles(f1) {
				for i2, pc2 := range s.Columns[f2] {
					if pc2 == c.Opponent() {
						ret = append(ret, s.withPromotions(Move{Kind: PawnPawn, Color: c, File1: f1, Idx1: i1, File2: f2, Idx2: i2}, c, f1, i1)...)
					}
				}
			}
		}
	}
	return ret
}

// withPromotions returns m unmodified plus, if the moving pawn is the most advanced of its
// color on file f and the column's promotion flags allow it, a variant for every allowed
// promotion kind.
func (s *State) withPromotions(m Move, c board.Color, f, i int) []Move {
	ret := []Move{m}
	if !s.canPromoteFrom(c, f, i) {
		return ret
	}
	for k := Queen; k < Pawn; k++ {
		if k == Rook || k == Queen {
			if !s.RookQueenAllowed[c][f] {
				continue
			}
		}
		if k == DarkBishop && !s.PromSquareDark[c][f] {
			continue
		}
		if k == LightBishop && s.PromSquareDark[c][f] {
			continue
		}
		pm := m
		pm.Promoted = true
		pm.Promotion = k
		ret = append(ret, pm)
	}
	return ret
}

func (s *State) canPromoteFrom(c board.Color, f, i int) bool {
	if !s.CanPromote[c][f] {
		return false
	}
	col := s.Columns[f]
	if c == board.White {
		return i == len(col)-1
	}
	return i == 0
}

// columnIndexMovable reports whether the pawn at (f,i) of color c is currently eligible to
// move: the back-most pawn of a color on a file is movable only if not flagged blocked.
func (s *State) columnIndexMovable(c board.Color, f, i int) bool {
	col := s.Columns[f]
	if c == board.White && i == 0 || c == board.Black && i == len(col)-1 {
		return !s.FirstCannotMove[c][f]
	}
	return true
}

func adjacentFiles(f int) []int {
	switch {
	case f == 0:
		return []int{1}
	case f == 7:
		return []int{6}
	default:
		return []int{f - 1, f + 1}
	}
}
