package pipeline

import (
	"fmt"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/kernel"
)

// ParsePkMove reparses one kernel.Move.String() text form, so a KERNEL-stage line produced
// by an earlier pipeline invocation can resume without rerunning the proof-kernel search.
func ParsePkMove(s string) (kernel.Move, error) {
	if len(s) < 2 {
		return kernel.Move{}, fmt.Errorf("%w: PkMove too short: %q", ErrParse, s)
	}
	color := board.White
	if s[0] == 'b' {
		color = board.Black
	} else if s[0] != 'w' {
		return kernel.Move{}, fmt.Errorf("%w: bad PkMove color: %q", ErrParse, s)
	}
	rest := s[1:]

	if len(rest) > 0 && rest[0] == 'x' {
		return parsePieceMove(color, rest[1:])
	}
	if len(rest) == 0 || rest[0] != 'P' {
		return kernel.Move{}, fmt.Errorf("%w: bad PkMove: %q", ErrParse, s)
	}
	file1, idx1, rest, err := parseFileIdx(rest[1:])
	if err != nil {
		return kernel.Move{}, fmt.Errorf("%w: %v: %q", ErrParse, err, s)
	}
	if len(rest) == 0 || rest[0] != 'x' {
		return kernel.Move{}, fmt.Errorf("%w: missing 'x' in PkMove: %q", ErrParse, s)
	}
	rest = rest[1:]

	if len(rest) > 0 && rest[0] == 'P' {
		return parsePawnPawnOrPromoted(color, file1, idx1, rest[1:])
	}
	return parsePawnPiece(color, file1, idx1, rest)
}

// parsePieceMove parses the tail of a PiecePawn ("xPb0") or PiecePiece ("xQ") move.
func parsePieceMove(color board.Color, rest string) (kernel.Move, error) {
	if len(rest) > 0 && rest[0] == 'P' {
		file1, idx1, rest, err := parseFileIdx(rest[1:])
		if err != nil || rest != "" {
			return kernel.Move{}, fmt.Errorf("%w: bad PiecePawn tail: %v", ErrParse, err)
		}
		return kernel.Move{Kind: kernel.PiecePawn, Color: color, File1: file1, Idx1: idx1}, nil
	}
	ks, ok := parseKindTokens(rest, 1)
	if !ok {
		return kernel.Move{}, fmt.Errorf("%w: bad PiecePiece captured kind: %q", ErrParse, rest)
	}
	return kernel.Move{Kind: kernel.PiecePiece, Color: color, Captured: ks[0]}, nil
}

// parsePawnPawnOrPromoted parses the tail of a PawnPawn ("Pb1" + optional promotion letter)
// or PawnPromotedPawn ("Pb", no trailing index) move, given the capturing pawn's file1/idx1.
func parsePawnPawnOrPromoted(color board.Color, file1, idx1 int, rest string) (kernel.Move, error) {
	if rest == "" {
		return kernel.Move{}, fmt.Errorf("%w: missing second file in PkMove", ErrParse)
	}
	file2 := int(rest[0] - 'a')
	if file2 < 0 || file2 > 7 {
		return kernel.Move{}, fmt.Errorf("%w: bad second file %q", ErrParse, rest[:1])
	}
	rest = rest[1:]
	if rest == "" || !isDigit(rest[0]) {
		// PawnPromotedPawn: no index follows the second file.
		return kernel.Move{Kind: kernel.PawnPromotedPawn, Color: color, File1: file1, Idx1: idx1, OtherPromotionFile: file2}, nil
	}
	idx2, rest, err := parseInt(rest)
	if err != nil {
		return kernel.Move{}, fmt.Errorf("%w: bad second idx: %v", ErrParse, err)
	}
	m := kernel.Move{Kind: kernel.PawnPawn, Color: color, File1: file1, Idx1: idx1, File2: file2, Idx2: idx2}
	if rest != "" {
		ks, ok := parseKindTokens(rest, 1)
		if !ok {
			return kernel.Move{}, fmt.Errorf("%w: bad promotion suffix %q", ErrParse, rest)
		}
		m.Promoted = true
		m.Promotion = ks[0]
	}
	return m, nil
}

// parsePawnPiece parses the tail of a PawnPiece move: the captured piece kind, optionally
// followed by a promotion kind.
func parsePawnPiece(color board.Color, file1, idx1 int, rest string) (kernel.Move, error) {
	if ks, ok := parseKindTokens(rest, 2); ok {
		return kernel.Move{Kind: kernel.PawnPiece, Color: color, File1: file1, Idx1: idx1, Captured: ks[0], Promoted: true, Promotion: ks[1]}, nil
	}
	ks, ok := parseKindTokens(rest, 1)
	if !ok {
		return kernel.Move{}, fmt.Errorf("%w: bad captured kind %q", ErrParse, rest)
	}
	return kernel.Move{Kind: kernel.PawnPiece, Color: color, File1: file1, Idx1: idx1, Captured: ks[0]}, nil
}

// parseFileIdx parses a leading <file><idx> pair (e.g. "e1" from "e1xPd0") and returns the
// unconsumed remainder.
func parseFileIdx(s string) (file, idx int, rest string, err error) {
	if s == "" {
		return 0, 0, "", fmt.Errorf("missing file")
	}
	file = int(s[0] - 'a')
	if file < 0 || file > 7 {
		return 0, 0, "", fmt.Errorf("bad file %q", s[:1])
	}
	idx, rest, err = parseInt(s[1:])
	return file, idx, rest, err
}

func parseInt(s string) (int, string, error) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i == 0 {
		return 0, s, fmt.Errorf("missing index in %q", s)
	}
	n := 0
	for _, c := range s[:i] {
		n = n*10 + int(c-'0')
	}
	return n, s[i:], nil
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

// parseKindTokens parses exactly count consecutive Kind letter-groups off the front of s
// (each "DB", "LB", "Q", "R", or "N" — never "P" or "K", which cannot be captured-piece or
// promotion kinds here), requiring the whole string to be consumed. Used to disambiguate a
// concatenated captured+promotion suffix (e.g. "RQ" = captured Rook, promoted to Queen).
func parseKindTokens(s string, count int) ([]kernel.Kind, bool) {
	var out []kernel.Kind
	for i := 0; i < count; i++ {
		switch {
		case len(s) >= 2 && s[:2] == "DB":
			out, s = append(out, kernel.DarkBishop), s[2:]
		case len(s) >= 2 && s[:2] == "LB":
			out, s = append(out, kernel.LightBishop), s[2:]
		case len(s) >= 1 && s[0] == 'Q':
			out, s = append(out, kernel.Queen), s[1:]
		case len(s) >= 1 && s[0] == 'R':
			out, s = append(out, kernel.Rook), s[1:]
		case len(s) >= 1 && s[0] == 'N':
			out, s = append(out, kernel.Knight), s[1:]
		default:
			return nil, false
		}
	}
	if s != "" {
		return nil, false
	}
	return out, true
}
