// Package pipeline implements the proof-game search driver (spec component C10): it reads
// `FEN : tokens…` lines, dispatches each to whichever stage of the proof-kernel/extended-
// kernel/A* cascade its current tokens indicate, and writes the updated line back in the
// same shape. Re-feeding a pipeline's own output as input to a later invocation resumes
// each line from wherever it left off, growing the search budget geometrically between
// iterations (spec 4.10, 6).
package pipeline

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/herohde/proofgame/internal/board"
)

// Legality is the top-level verdict tag of a line, driving which stage the driver dispatches
// it to next.
type Legality int

const (
	// Initial is a bare FEN with no prior-analysis tokens: the proof-kernel search has not
	// yet run.
	Initial Legality = iota
	// Kernel holds a proof-kernel move sequence (kernel: tokens) but no extended/repaired
	// path yet.
	Kernel
	// Path holds a repaired pseudo-legal move sequence (path: tokens) awaiting the final A*
	// legality check.
	Path
	// Illegal is a terminal verdict: the goal is proven unreachable.
	Illegal
	// LegalState is a terminal verdict: a full legal proof game was found.
	LegalState
	// FailState is a terminal verdict: the node budget ceiling was reached without a proof.
	FailState
)

// Status is the parsed token state of one line, beyond its FEN.
type Status struct {
	Legality Legality

	Reason string // illegal: <reason>

	// Forced holds the uciMove… retracted by spec 4.5's forced-last-move retraction, in
	// forward chronological order, computed once against the line's own goal before the
	// proof-kernel search ever runs. A legal verdict's proof is PathMoves/A*'s result with
	// Forced appended, per spec 4.9's "ply of solving node + number of retracted last moves".
	Forced []string // forced: uciMove…

	// ReducedGoal is the goal: <fen> the forced-last-move retraction reduced the line's own
	// FEN to; every later stage (kernel search, extended-kernel lift, A*) targets this
	// position rather than the line's original FEN. Empty until the first INITIAL pass
	// computes it. When retraction finds nothing to retract it equals the line's own FEN;
	// FormatLine then omits it, so a pass over the re-read line computes it again.
	ReducedGoal string // goal: <fen, spaces encoded as _>

	KernelMoves []string // kernel: PkMove… (raw text, reparsed on demand via ParsePkMove).
	ExtMoves    []string // extKernel: ExtPkMove… (informational only; not reparsed).
	PathMoves   []string // path: uciMove…
	Proof       []string // legal: proof: uciMove…

	N    int64    // status: N=<maxNodes used by the current stage's last attempt>.
	Info []string // info: <msg>…
}

// encodeGoalFEN/decodeGoalFEN round-trip a FEN string through a single space-free wire word,
// since a token's words are whitespace-split.
func encodeGoalFEN(fen string) string {
	return strings.ReplaceAll(fen, " ", "_")
}

func decodeGoalFEN(word string) string {
	return strings.ReplaceAll(word, "_", " ")
}

// ErrParse is returned for a malformed input line (bad FEN or bad token); the driver treats
// it as spec 7's category (1) and writes the line back with an info: note rather than
// retrying.
var ErrParse = errors.New("pipeline: parse error")

// token is one `name: word word …` segment of a line.
type token struct {
	name  string
	words []string
}

func tokenize(fields []string) []token {
	var toks []token
	var cur *token
	for _, f := range fields {
		if strings.HasSuffix(f, ":") {
			toks = append(toks, token{name: strings.TrimSuffix(f, ":")})
			cur = &toks[len(toks)-1]
			continue
		}
		if cur == nil {
			continue // stray word before any token name: ignore.
		}
		cur.words = append(cur.words, f)
	}
	return toks
}

// ParseLine splits a pipeline input line into its FEN (the first 6 whitespace-separated
// fields) and its parsed Status. Empty lines and lines without 6 FEN fields are rejected
// with ErrParse.
func ParseLine(line string) (string, Status, error) {
	fields := strings.Fields(line)
	if len(fields) < 6 {
		return "", Status{}, fmt.Errorf("%w: too few fields: %q", ErrParse, line)
	}
	fen := strings.Join(fields[:6], " ")

	var st Status
	for _, t := range tokenize(fields[6:]) {
		switch t.name {
		case "illegal":
			st.Legality = Illegal
			st.Reason = strings.Join(t.words, " ")
		case "forced":
			st.Forced = append(st.Forced, t.words...)
		case "goal":
			if len(t.words) > 0 {
				st.ReducedGoal = decodeGoalFEN(t.words[0])
			}
		case "legal":
			st.Legality = LegalState
		case "proof":
			st.Proof = append(st.Proof, t.words...)
		case "unknown":
			// Marker only; the sub-tokens below carry the actual state.
		case "kernel":
			st.KernelMoves = append(st.KernelMoves, t.words...)
		case "extKernel":
			st.ExtMoves = append(st.ExtMoves, t.words...)
		case "path":
			st.PathMoves = append(st.PathMoves, t.words...)
		case "status":
			for _, w := range t.words {
				k, v, ok := strings.Cut(w, "=")
				if !ok || k != "N" {
					continue
				}
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil {
					return "", Status{}, fmt.Errorf("%w: bad status word %q: %v", ErrParse, w, err)
				}
				st.N = n
			}
		case "fail":
			st.Legality = FailState
		case "info":
			st.Info = append(st.Info, strings.Join(t.words, " "))
		default:
			return "", Status{}, fmt.Errorf("%w: unknown token %q", ErrParse, t.name)
		}
	}

	if st.Legality == Initial {
		switch {
		case len(st.PathMoves) > 0:
			st.Legality = Path
		case len(st.KernelMoves) > 0:
			st.Legality = Kernel
		}
	}
	return fen, st, nil
}

// FormatLine renders fen and st back into the `FEN : tokens…` wire form of spec 6.
func FormatLine(fen string, st Status) string {
	var b strings.Builder
	b.WriteString(fen)

	switch st.Legality {
	case Illegal:
		fmt.Fprintf(&b, " illegal: %v", st.Reason)
		if len(st.Forced) > 0 {
			fmt.Fprintf(&b, " forced: %v", strings.Join(st.Forced, " "))
		}
	case LegalState:
		fmt.Fprintf(&b, " legal: proof: %v", strings.Join(st.Proof, " "))
	default: // Initial, Kernel, Path, FailState all serialize under "unknown:".
		b.WriteString(" unknown:")
		if st.ReducedGoal != "" && st.ReducedGoal != fen {
			fmt.Fprintf(&b, " goal: %v", encodeGoalFEN(st.ReducedGoal))
		}
		if len(st.Forced) > 0 {
			fmt.Fprintf(&b, " forced: %v", strings.Join(st.Forced, " "))
		}
		if len(st.KernelMoves) > 0 {
			fmt.Fprintf(&b, " kernel: %v", strings.Join(st.KernelMoves, " "))
		}
		if len(st.ExtMoves) > 0 {
			fmt.Fprintf(&b, " extKernel: %v", strings.Join(st.ExtMoves, " "))
		}
		if len(st.PathMoves) > 0 {
			fmt.Fprintf(&b, " path: %v", strings.Join(st.PathMoves, " "))
		}
		if st.N > 0 {
			fmt.Fprintf(&b, " status: N=%v", st.N)
		}
		if st.Legality == FailState {
			b.WriteString(" fail:")
		}
		if len(st.Info) > 0 {
			fmt.Fprintf(&b, " info: %v", strings.Join(st.Info, " "))
		}
	}
	return b.String()
}

// movesToUCI renders a board move sequence as UCI words for a path: or proof: token.
func movesToUCI(moves []board.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.UCI()
	}
	return out
}
