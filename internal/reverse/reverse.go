// Package reverse enumerates candidate predecessor moves of a position: pairs (move,
// undoInfo) such that unmake(pos, move, undo) yields some position pos' from which
// make(pos', move) reproduces pos. It is a super-set enumeration -- geometrically
// plausible candidates are filtered for basic soundness, but the caller (internal/astar's
// forced-last-move retraction) is responsible for any further feasibility analysis.
package reverse

import "github.com/herohde/proofgame/internal/board"

// Candidate is one retractable move together with the predecessor it produces.
type Candidate struct {
	Move board.Move
	Undo board.UndoInfo
	Prev *board.Position
}

// capturable lists the piece types that can be the captured piece in a candidate
// (everything but King).
var capturable = [...]board.Piece{board.Pawn, board.Knight, board.Bishop, board.Rook, board.Queen}

// Generate returns every candidate predecessor move for the given position, assuming mover
// made the last move (so mover is to move again in every returned predecessor). When
// allEPVariants is true, non-Jump candidates are additionally repeated once per possible
// dangling en-passant square, per spec 4.4's batch-retraction use case; otherwise only
// Undo.EnPassantBefore == ZeroSquare is produced for non-Jump moves.
func Generate(pos *board.Position, mover board.Color, allEPVariants bool) []Candidate {
	var ret []Candidate

	for _, piece := range board.KingQueenRookKnightBishop {
		bb := pos.Piece(mover, piece)
		for _, to := range bb.ToSquares() {
			ret = append(ret, officerCandidates(pos, mover, piece, to)...)
		}
	}
	for _, to := range pos.Piece(mover, board.Pawn).ToSquares() {
		ret = append(ret, pawnCandidates(pos, mover, to)...)
	}

	ret = expandEnPassant(ret, mover, allEPVariants)
	return filter(pos, mover, ret)
}

func officerCandidates(pos *board.Position, mover board.Color, piece board.Piece, to board.Square) []Candidate {
	var ret []Candidate

	occWithoutTo := pos.Rotated().Mask() &^ board.BitMask(to)
	rotated := board.NewRotatedBitboard(occWithoutTo)
	empty := ^pos.Rotated().Mask() | board.BitMask(to)

	for _, from := range (board.Attackboard(rotated, to, piece) & empty &^ board.BitMask(to)).ToSquares() {
		ret = append(ret, buildCandidate(board.Move{Type: board.Normal, Piece: piece, From: from, To: to}, board.NoPiece))
		for _, cap := range capturable {
			ret = append(ret, buildCandidate(board.Move{Type: board.Capture, Piece: piece, From: from, To: to, Capture: cap}, cap))
		}
	}

	if piece == board.King {
		ret = append(ret, castlingCandidates(pos, mover, to)...)
	}

	if piece != board.King && isBackRank(mover, to) {
		ret = append(ret, promotionCandidates(mover, piece, to)...)
	}

	return ret
}

func castlingCandidates(pos *board.Position, mover board.Color, to board.Square) []Candidate {
	var ret []Candidate

	kingHome, kingSideTo, queenSideTo := board.E1, board.G1, board.C1
	rookKSTo := board.F1
	rookQSTo := board.D1
	if mover == board.Black {
		kingHome, kingSideTo, queenSideTo = board.E8, board.G8, board.C8
		rookKSTo = board.F8
		rookQSTo = board.D8
	}

	switch to {
	case kingSideTo:
		if pos.IsEmpty(kingHome) && !pos.IsEmpty(rookKSTo) {
			_, p, _ := pos.Square(rookKSTo)
			if p == board.Rook {
				ret = append(ret, buildCandidate(board.Move{Type: board.KingSideCastle, Piece: board.King, From: kingHome, To: to}, board.NoPiece))
			}
		}
	case queenSideTo:
		if pos.IsEmpty(kingHome) && !pos.IsEmpty(rookQSTo) {
			_, p, _ := pos.Square(rookQSTo)
			if p == board.Rook {
				ret = append(ret, buildCandidate(board.Move{Type: board.QueenSideCastle, Piece: board.King, From: kingHome, To: to}, board.NoPiece))
			}
		}
	}
	return ret
}

func pawnCandidates(pos *board.Position, mover board.Color, to board.Square) []Candidate {
	var ret []Candidate

	if isBackRank(mover, to) {
		return nil // a pawn cannot rest, unpromoted, on the back rank.
	}

	forward := 1
	startRank := board.Rank2
	if mover == board.Black {
		forward = -1
		startRank = board.Rank7
	}
	f, r := int(to.File()), int(to.Rank())

	if behind, ok := square(f, r-forward); ok && pos.IsEmpty(behind) {
		ret = append(ret, buildCandidate(board.Move{Type: board.Push, Piece: board.Pawn, From: behind, To: to}, board.NoPiece))
		if int(behind.Rank())-forward == int(startRank) {
			if behind2, ok := square(f, r-2*forward); ok && pos.IsEmpty(behind2) {
				ret = append(ret, buildCandidate(board.Move{Type: board.Jump, Piece: board.Pawn, From: behind2, To: to}, board.NoPiece))
			}
		}
	}

	for _, df := range [...]int{-1, 1} {
		from, ok := square(f+df, r-forward)
		if !ok {
			continue
		}
		for _, cap := range capturable {
			ret = append(ret, buildCandidate(board.Move{Type: board.Capture, Piece: board.Pawn, From: from, To: to, Capture: cap}, cap))
		}
		if adj, ok := square(f+df, r); ok && pos.IsEmpty(adj) {
			ret = append(ret, buildCandidate(board.Move{Type: board.EnPassant, Piece: board.Pawn, From: from, To: to, Capture: board.Pawn}, board.Pawn))
		}
	}
	return ret
}

func promotionCandidates(mover board.Color, piece board.Piece, to board.Square) []Candidate {
	var ret []Candidate

	forward := 1
	if mover == board.Black {
		forward = -1
	}
	f, r := int(to.File()), int(to.Rank())

	if from, ok := square(f, r-forward); ok {
		ret = append(ret, buildCandidate(board.Move{Type: board.Promotion, Piece: board.Pawn, From: from, To: to, Promotion: piece}, board.NoPiece))
	}
	for _, df := range [...]int{-1, 1} {
		from, ok := square(f+df, r-forward)
		if !ok {
			continue
		}
		for _, cap := range capturable {
			ret = append(ret, buildCandidate(board.Move{Type: board.CapturePromotion, Piece: board.Pawn, From: from, To: to, Promotion: piece, Capture: cap}, cap))
		}
	}
	return ret
}

func buildCandidate(m board.Move, captured board.Piece) Candidate {
	return Candidate{Move: m, Undo: board.UndoInfo{Captured: captured}}
}

// expandEnPassant leaves CastlingBefore untouched (it is unknown here and left to the
// caller); it only varies EnPassantBefore across the 8 possible dangling en-passant files when
// allEPVariants is requested, per spec 4.4's batch-retraction mode.
func expandEnPassant(cands []Candidate, mover board.Color, allEPVariants bool) []Candidate {
	if !allEPVariants {
		return cands
	}

	epRank := board.Rank6
	if mover == board.Black {
		epRank = board.Rank3
	}

	var ret []Candidate
	for _, c := range cands {
		if c.Move.Type == board.Jump {
			ret = append(ret, c) // its own EnPassantTarget covers this case exclusively.
			continue
		}
		ret = append(ret, c)
		for f := 0; f < 8; f++ {
			cc := c
			cc.Undo.EnPassantBefore = board.NewSquare(board.File(f), epRank)
			ret = append(ret, cc)
		}
	}
	return ret
}

// filter drops candidates whose predecessor fails the soundness checks of spec 4.4: the
// per-color piece-count bound, and "the side not to move (the mover's opponent) must not be
// in check" -- the predecessor's last move (made by the opponent) cannot have left their own
// king in check.
func filter(pos *board.Position, mover board.Color, cands []Candidate) []Candidate {
	var ret []Candidate
	for _, c := range cands {
		prev := pos.Unmake(mover, c.Move, c.Undo)
		if !pieceCountOK(prev) {
			continue
		}
		if prev.IsChecked(mover.Opponent()) {
			continue
		}
		c.Prev = prev
		ret = append(ret, c)
	}
	return ret
}

func pieceCountOK(pos *board.Position) bool {
	for c := board.ZeroColor; c < board.NumColors; c++ {
		if pos.Piece(c, board.Pawn).PopCount() > 8 {
			return false
		}
		nonKing := 0
		for _, p := range [...]board.Piece{board.Pawn, board.Knight, board.Bishop, board.Rook, board.Queen} {
			nonKing += pos.Piece(c, p).PopCount()
		}
		if nonKing > 15 {
			return false
		}
	}
	return true
}

func isBackRank(c board.Color, sq board.Square) bool {
	if c == board.White {
		return sq.Rank() == board.Rank8
	}
	return sq.Rank() == board.Rank1
}

func square(f, r int) (board.Square, bool) {
	if f < 0 || f > 7 || r < 0 || r > 7 {
		return 0, false
	}
	return board.NewSquare(board.File(f), board.Rank(r)), true
}
