// Package extkernel lifts a proof-kernel move sequence (internal/kernel) to a sequence of
// extended proof moves with concrete squares, by solving a rank-assignment CSP
// (internal/csp) over per-pawn rank variables referenced at each event the pawn
// participates in.
package extkernel

import (
	"fmt"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/csp"
	"github.com/herohde/proofgame/internal/kernel"
)

// Move is an extended proof-kernel move (ExtPkMove): a typed piece move with concrete
// squares, resolved from a kernel.Move's abstract file/column-index coordinates.
type Move struct {
	Color     board.Color
	Piece     board.Piece // board.NoPiece if not yet resolved (piece x piece / piece x pawn).
	From      board.Square // board.ZeroSquare with FromKnown=false if unresolved.
	FromKnown bool
	To        board.Square
	ToKnown   bool
	Capture   bool
	Captured  board.Piece // the kind being captured, when Capture is set; board.NoPiece otherwise.
	Promotion board.Piece // board.NoPiece if none.
}

// String renders the ExtPkMove text form of spec 6: [w|b]<piece><fromSq>[-|x]<toSq>[<promPiece>].
func (m Move) String() string {
	color := "w"
	if m.Color == board.Black {
		color = "b"
	}
	from := "??"
	if m.FromKnown {
		from = m.From.String()
	}
	sep := "-"
	if m.Capture {
		sep = "x"
	}
	s := fmt.Sprintf("%v%v%v%v%v", color, pieceLetter(m.Piece), from, sep, m.To)
	if m.Promotion != board.NoPiece {
		s += pieceLetter(m.Promotion)
	}
	return s
}

func pieceLetter(p board.Piece) string {
	switch p {
	case board.Pawn:
		return "P"
	case board.Knight:
		return "N"
	case board.Bishop:
		return "B"
	case board.Rook:
		return "R"
	case board.Queen:
		return "Q"
	case board.King:
		return "K"
	default:
		return ""
	}
}

// Lift converts moves into an extended move sequence, using goalRank to resolve each
// surviving pawn's final rank per file/color (spec 4.7's "restricted to match G").
func Lift(moves []kernel.Move, goalRank func(c board.Color, file int) (int, bool)) ([]Move, error) {
	b := newBuilder(goalRank)
	for _, m := range moves {
		if err := b.addMove(m); err != nil {
			return nil, err
		}
	}
	return b.solve()
}

type builder struct {
	solver   *csp.Solver
	goalRank func(c board.Color, file int) (int, bool)

	// vars[color][file] is the ordered list of rank-variable indices referenced on that
	// file for that color, in chronological order (oldest first); AddLE/AddGE column
	// ordering constraints are added as each new one is appended.
	vars [2][8][]int

	pending []pendingMove
}

// pendingMove records enough of a kernel.Move plus its assigned rank-variable indices to
// resolve concrete squares once the CSP is solved.
type pendingMove struct {
	km       kernel.Move
	v1       int // the move's primary rank variable; addMove documents what it denotes per kind.
	hasV2    bool
	v2       int // for pawn x pawn: captured pawn's rank variable at capture time.
}

func newBuilder(goalRank func(c board.Color, file int) (int, bool)) *builder {
	return &builder{solver: csp.NewSolver(), goalRank: goalRank}
}

func rankDomain(c board.Color) (int, int) {
	if c == board.White {
		return 1, 7
	}
	return 0, 6
}

// newRankVar allocates a fresh rank variable for (c, file), chained to the previous
// variable on that file (if any) via the column-ordering constraint of spec 4.7's last
// bullet, and returns its index.
func (b *builder) newRankVar(c board.Color, file int) int {
	lo, hi := rankDomain(c)
	pref := csp.Small
	if c == board.Black {
		pref = csp.Large
	}
	name := fmt.Sprintf("%v-%v-%v", c, file, len(b.vars[c][file]))
	idx, _ := b.solver.AddVar(name, lo, hi, pref)

	if prev := b.vars[c][file]; len(prev) > 0 {
		last := prev[len(prev)-1]
		if c == board.White {
			b.solver.AddLE(last, idx, -1) // last+1 <= idx
		} else {
			b.solver.AddLE(idx, last, -1) // idx+1 <= last
		}
	}
	b.vars[c][file] = append(b.vars[c][file], idx)
	return idx
}

func (b *builder) addMove(km kernel.Move) error {
	pm := pendingMove{km: km}

	switch km.Kind {
	case kernel.PawnPawn:
		// v1 is the capturing pawn's rank on its own file (File1) immediately before the
		// move; v2 is the captured pawn's rank on File2, which is also where the
		// capturing pawn lands (a diagonal capture moves one rank forward from v1).
		v1 := b.newRankVar(km.Color, km.File1)
		v2 := b.newRankVar(km.Color.Opponent(), km.File2)
		offset := 1
		if km.Color == board.Black {
			offset = -1
		}
		b.solver.AddEQ(v2, v1, offset) // v2 = v1 + offset.
		if km.Promoted {
			if !promotedBishopColorOK(km.Color, km.File2, km.Promotion) {
				return fmt.Errorf("extkernel: file %v promotion cannot produce a %v", km.File2, km.Promotion)
			}
			r := promRank(km.Color)
			b.solver.AddBoundLE(v2, r)
			b.solver.AddBoundGE(v2, r)
		}
		pm.v1, pm.v2, pm.hasV2 = v1, v2, true

	case kernel.PawnPiece:
		v1 := b.newRankVar(km.Color, km.File1)
		if km.Captured == kernel.DarkBishop || km.Captured == kernel.LightBishop {
			parity := csp.Even
			if (km.Captured == kernel.DarkBishop) != (km.File1%2 == 0) {
				parity = csp.Odd
			}
			b.solver.SetParity(v1, parity)
		}
		if km.Promoted {
			// v1 is the rank of the capture event itself (resolve treats it as the
			// destination square); a promoting capture always lands on the back rank.
			// Spec 4.7 additionally fixes the pawn's rank immediately before this move
			// to 6 (white) / 1 (black), a pre-move constraint this single-variable-per-
			// capture model does not represent separately; documented simplification.
			if !promotedBishopColorOK(km.Color, km.File1, km.Promotion) {
				return fmt.Errorf("extkernel: file %v promotion cannot produce a %v", km.File1, km.Promotion)
			}
			r := promRank(km.Color)
			b.solver.AddBoundLE(v1, r)
			b.solver.AddBoundGE(v1, r)
		}
		pm.v1 = v1

	case kernel.PawnPromotedPawn:
		v1 := b.newRankVar(km.Color, km.File1)
		pm.v1 = v1

	case kernel.PiecePawn:
		v1 := b.newRankVar(km.Color.Opponent(), km.File1) // the captured pawn's rank.
		pm.v1 = v1

	case kernel.PiecePiece:
		// No pawn-rank variables involved.
	}

	b.pending = append(b.pending, pm)
	return nil
}

// solve finalizes the per-file rank domains against goalRank, runs the CSP, and resolves
// each pending move's variables to concrete squares, dropping any whose endpoints collapse.
func (b *builder) solve() ([]Move, error) {
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for f := 0; f < 8; f++ {
			if len(b.vars[c][f]) == 0 {
				continue
			}
			if r, ok := b.goalRank(c, f); ok {
				last := b.vars[c][f][len(b.vars[c][f])-1]
				b.solver.AddBoundLE(last, r)
				b.solver.AddBoundGE(last, r)
			}
		}
	}

	assignment, ok := b.solver.Solve()
	if !ok {
		return nil, fmt.Errorf("extkernel: rank CSP infeasible (%v nodes)", b.solver.Nodes())
	}

	var ret []Move
	for _, pm := range b.pending {
		mv, ok := b.resolve(pm, assignment)
		if ok {
			ret = append(ret, mv)
		}
	}
	return ret, nil
}

func (b *builder) resolve(pm pendingMove, assignment []int) (Move, bool) {
	km := pm.km
	switch km.Kind {
	case kernel.PawnPawn:
		toRank := assignment[pm.v2] // the shared square: capturing pawn's landing rank = captured pawn's rank.
		to := board.NewSquare(kernelFileToBoard(km.File2), board.Rank(toRank))
		m := Move{Color: km.Color, Piece: board.Pawn, To: to, ToKnown: true, Capture: true, Captured: board.Pawn}
		if km.Promoted {
			m.Promotion = promotionPiece(km.Promotion)
		}
		return m, true

	case kernel.PawnPiece:
		toRank := assignment[pm.v1]
		to := board.NewSquare(kernelFileToBoard(km.File1), board.Rank(toRank))
		m := Move{Color: km.Color, Piece: board.Pawn, To: to, ToKnown: true, Capture: true, Captured: promotionPiece(km.Captured)}
		if km.Promoted {
			m.Promotion = promotionPiece(km.Promotion)
		}
		return m, true

	case kernel.PawnPromotedPawn:
		toRank := assignment[pm.v1]
		to := board.NewSquare(kernelFileToBoard(km.File1), board.Rank(toRank))
		return Move{Color: km.Color, Piece: board.Pawn, To: to, ToKnown: true, Capture: true, Captured: board.Queen}, true

	case kernel.PiecePawn:
		toRank := assignment[pm.v1]
		to := board.NewSquare(kernelFileToBoard(km.File1), board.Rank(toRank))
		return Move{Color: km.Color, Piece: board.NoPiece, To: to, ToKnown: true, Capture: true, Captured: board.Pawn}, true

	case kernel.PiecePiece:
		return Move{Color: km.Color, Piece: board.NoPiece, Capture: true, Captured: promotionPiece(km.Captured)}, true
	}
	return Move{}, false
}

// kernelFileToBoard converts a kernel file index (0='a'..7='h') to board.File's reversed
// H=0..A=7 convention, matching internal/kernel/convert.go's FromPositions.
func kernelFileToBoard(f int) board.File {
	return board.File(7 - f)
}

// promRank is the rank (kernel Rank1=0..Rank8=7 convention) c's pawns promote on.
func promRank(c board.Color) int {
	if c == board.Black {
		return 0
	}
	return 7
}

// promotedBishopColorOK reports whether a pawn of color c promoting on file f (using the
// kernel's own 'a'=0..'h'=7 file convention) to kind k is geometrically possible: a promotion
// square's color is fixed by (file, rank), so a DarkBishop/LightBishop promotion is only
// legal toward the bishop kind matching that square's actual color (spec 4.6's "the capture-
// plus-promotion combination must respect the target square's color").
func promotedBishopColorOK(c board.Color, f int, k kernel.Kind) bool {
	if k != kernel.DarkBishop && k != kernel.LightBishop {
		return true
	}
	dark := (f+promRank(c))%2 == 0
	return dark == (k == kernel.DarkBishop)
}

func promotionPiece(k kernel.Kind) board.Piece {
	switch k {
	case kernel.Queen:
		return board.Queen
	case kernel.Rook:
		return board.Rook
	case kernel.DarkBishop, kernel.LightBishop:
		return board.Bishop
	case kernel.Knight:
		return board.Knight
	default:
		return board.NoPiece
	}
}
