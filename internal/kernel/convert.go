package kernel

import "github.com/herohde/proofgame/internal/board"

// FromPositions derives the abstract proof-kernel start state for a search from start
// toward goal: pawn columns from start's actual placement, piece counts (bishops split by
// square color) from start and goal, and a moves/captures budget following directly from the
// spec 4.6 invariant that every kernel move removes exactly one piece from the board. The
// per-column flags CanPromote, RookQueenAllowed, and FirstCannotMove are not derivable from
// piece counts alone (they depend on board geometry the kernel's abstraction deliberately
// discards); this constructor defaults them permissively (true, true, false) and leaves
// tighter verification to internal/extkernel and internal/repair, which operate against the
// concrete board.
func FromPositions(start, goal *board.Position) *State {
	s := &State{}

	for f := 0; f < 8; f++ {
		bf := board.File(7 - f)
		for r := board.Rank1; r <= board.Rank8; r++ {
			sq := board.NewSquare(bf, r)
			c, p, ok := start.Square(sq)
			if !ok || p != board.Pawn {
				continue
			}
			s.Columns[f] = append(s.Columns[f], c)
		}
	}

	for c := board.ZeroColor; c < board.NumColors; c++ {
		countPieces(start, c, &s.PieceCnt[c])
		countPieces(goal, c, &s.GoalCnt[c])

		for f := 0; f < 8; f++ {
			s.CanPromote[c][f] = true
			s.RookQueenAllowed[c][f] = true
			s.PromSquareDark[c][f] = isDarkAt(f, promRankIdx(c))
		}
	}

	removal := [2]int{}
	for c := board.ZeroColor; c < board.NumColors; c++ {
		for k := Queen; k <= Pawn; k++ {
			if d := s.PieceCnt[c][k] - s.GoalCnt[c][k]; d > 0 {
				removal[c] += d
			}
		}
	}
	s.RemainingMoves = removal[board.White] + removal[board.Black]
	s.RemainingCaptures[board.White] = removal[board.Black]
	s.RemainingCaptures[board.Black] = removal[board.White]

	return s
}

// countPieces tallies pos's non-king pieces of color c into cnt, splitting bishops into
// DarkBishop/LightBishop by the color of square they occupy.
func countPieces(pos *board.Position, c board.Color, cnt *[NumKinds]int) {
	for _, sq := range pos.Color(c).ToSquares() {
		_, p, ok := pos.Square(sq)
		if !ok {
			continue
		}
		switch p {
		case board.Queen:
			cnt[Queen]++
		case board.Rook:
			cnt[Rook]++
		case board.Knight:
			cnt[Knight]++
		case board.Pawn:
			cnt[Pawn]++
		case board.Bishop:
			if isDarkSquare(sq) {
				cnt[DarkBishop]++
			} else {
				cnt[LightBishop]++
			}
		}
	}
}

// isDarkSquare reports whether sq is a dark square, using the kernel's own 'a'=0..'h'=7 file
// convention (opposite of board.File's H=0..A=7), matching internal/extkernel's bishop-parity
// constraint (a1 is dark: fileIdx=0, rankIdx=0, sum even).
func isDarkSquare(sq board.Square) bool {
	return isDarkAt(7-int(sq.File()), int(sq.Rank()))
}

// isDarkAt reports whether (f, r) is a dark square, f and r both in the kernel's own
// 0-indexed 'a'=0..'h'=7 file / Rank1=0..Rank8=7 rank convention.
func isDarkAt(f, r int) bool {
	return (f+r)%2 == 0
}

// promRankIdx is the rank index (Rank1=0..Rank8=7 convention) of c's promotion square.
func promRankIdx(c board.Color) int {
	if c == board.White {
		return int(board.Rank8)
	}
	return int(board.Rank1)
}
