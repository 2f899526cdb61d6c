package board

import (
	"fmt"
	"strings"
)

// MoveType indicates the type of move. The no-progress counter is reset with any non-Normal move.
type MoveType uint8

const (
	Normal    MoveType = iota
	Push               // Pawn move
	Jump               // Pawn 2-square move
	EnPassant          // Implicitly a pawn capture
	QueenSideCastle
	KingSideCastle
	Capture
	Promotion
	CapturePromotion
)

// Move represents a not-necessarily legal move along with contextual metadata. 64bits.
type Move struct {
	Type      MoveType
	Piece     Piece // moving piece type
	From, To  Square
	Promotion Piece // desired piece for promotion, if any.
	Capture   Piece // captured piece, if any.
	Score     Score
}

// ParseMove parses a move in pure algebraic coordinate notation, such as "a2a4" or "a7a8q".
// The parsed move does not contain contextual information like castling or en passant.
func ParseMove(str string) (Move, error) {
	runes := []rune(str)

	if len(runes) < 4 || len(runes) > 5 {
		return Move{}, fmt.Errorf("invalid move: '%v'", str)
	}

	from, err := ParseSquare(runes[0], runes[1])
	if err != nil {
		return Move{}, fmt.Errorf("invalid from: '%v': %v", str, err)
	}
	to, err := ParseSquare(runes[2], runes[3])
	if err != nil {
		return Move{}, fmt.Errorf("invalid to: '%v': %v", str, err)
	}

	if len(runes) == 5 {
		promo, ok := ParsePiece(runes[4])
		if !ok || promo == Pawn || promo == King {
			return Move{}, fmt.Errorf("invalid promotion: '%v'", str)
		}
		return Move{From: from, To: to, Promotion: promo}, nil
	}

	return Move{From: from, To: to}, nil
}

func (m Move) Equals(o Move) bool {
	return m.From == o.From && m.To == o.To && m.Promotion == o.Promotion
}

func (m Move) IsCapture() bool {
	return m.Type == Capture || m.Type == CapturePromotion || m.Type == EnPassant
}

// CastlingRightsLost returns the castling rights this move destroys, independent of
// who is moving: a king or rook leaving its home square, or a capture landing on an
// opponent's rook corner, forfeits that corner's right.
func (m Move) CastlingRightsLost() Castling {
	var lost Castling

	switch m.From {
	case E1:
		lost |= WhiteKingSideCastle | WhiteQueenSideCastle
	case E8:
		lost |= BlackKingSideCastle | BlackQueenSideCastle
	case A1:
		lost |= WhiteQueenSideCastle
	case H1:
		lost |= WhiteKingSideCastle
	case A8:
		lost |= BlackQueenSideCastle
	case H8:
		lost |= BlackKingSideCastle
	}
	switch m.To {
	case A1:
		lost |= WhiteQueenSideCastle
	case H1:
		lost |= WhiteKingSideCastle
	case A8:
		lost |= BlackQueenSideCastle
	case H8:
		lost |= BlackKingSideCastle
	}
	return lost
}

// CastlingRookMove returns the rook's from/to squares for a castling move.
func (m Move) CastlingRookMove() (Square, Square, bool) {
	switch m.Type {
	case KingSideCastle:
		if m.From == E1 {
			return H1, F1, true
		}
		return H8, F8, true
	case QueenSideCastle:
		if m.From == E1 {
			return A1, D1, true
		}
		return A8, D8, true
	default:
		return 0, 0, false
	}
}

// EnPassantCapture returns the square of the pawn captured en passant, if any. The
// captured pawn shares the mover's starting rank and the destination's file.
func (m Move) EnPassantCapture() (Square, bool) {
	if m.Type != EnPassant {
		return 0, false
	}
	return NewSquare(m.To.File(), m.From.Rank()), true
}

// EnPassantTarget returns the en-passant target square created by a Jump move, i.e.
// the square "behind" the pawn -- the midpoint of From and To on the same file.
func (m Move) EnPassantTarget() (Square, bool) {
	if m.Type != Jump {
		return 0, false
	}
	mid := (Rank(m.From.Rank()) + Rank(m.To.Rank())) / 2
	return NewSquare(m.From.File(), mid), true
}

func (m Move) String() string {
	if m.Promotion.IsValid() {
		return fmt.Sprintf("%v%v%v", m.From, m.To, m.Promotion)
	}
	return fmt.Sprintf("%v%v", m.From, m.To)
}

// UCI formats the move in standard UCI form: lower-case squares and lower-case
// promotion letter, e.g. "a2a4" or "a7a8q".
func (m Move) UCI() string {
	ret := strings.ToLower(m.From.String()) + strings.ToLower(m.To.String())
	if m.Promotion.IsValid() {
		ret += strings.ToLower(m.Promotion.String())
	}
	return ret
}
