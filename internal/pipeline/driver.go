package pipeline

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync"

	"github.com/seekerror/build"
	"github.com/seekerror/logw"
	"github.com/seekerror/stdlib/pkg/lang"

	"github.com/herohde/proofgame/internal/astar"
	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/board/fen"
	"github.com/herohde/proofgame/internal/extkernel"
	"github.com/herohde/proofgame/internal/kernel"
	"github.com/herohde/proofgame/internal/oracle"
	"github.com/herohde/proofgame/internal/repair"
)

// Version identifies this pipeline build, reported by cmd/proofgame's -version flag.
var Version = build.NewVersion(0, 1, 0)

// Options configures a pipeline Run.
type Options struct {
	// Start and StartTurn are the fixed initial position I that every line's FEN (the goal
	// G) is searched from. Defaults to the standard starting position.
	Start     *board.Position
	StartTurn board.Color

	// Workers bounds the number of concurrent line-processing goroutines. Zero defaults to
	// runtime.GOMAXPROCS(0), per spec 5's "N_workers <= hardware parallelism".
	Workers int

	// InitialBudget, MaxBudget, and the growth factor (Num/Denom) configure the per-line
	// node-budget escalation of spec 4.10's "initial 5e4, max 8e5, factor 19/16".
	InitialBudget lang.Optional[int64]
	MaxBudget     lang.Optional[int64]

	// Seed salts each line's search-randomization seed so repeated invocations explore
	// different sub-trees (spec 9's "Non-determinism").
	Seed int64
}

const (
	defaultInitialBudget int64 = 50_000
	defaultMaxBudget     int64 = 800_000
	growthNum            int64 = 19
	growthDenom           int64 = 16
)

func (o Options) initialBudget() int64 {
	if v, ok := o.InitialBudget.V(); ok {
		return v
	}
	return defaultInitialBudget
}

func (o Options) maxBudget() int64 {
	if v, ok := o.MaxBudget.V(); ok {
		return v
	}
	return defaultMaxBudget
}

func nextBudget(used, max int64) int64 {
	if used <= 0 {
		return 0 // caller substitutes initialBudget().
	}
	n := used * growthNum / growthDenom
	if n <= used {
		n = used + 1
	}
	if n > max {
		n = max
	}
	return n
}

type lineJob struct {
	idx  int
	fen  string
	st   Status
	line string // original line text, for parse-error passthrough.
}

// driver holds the mutex-protected task queue and completion map shared across worker
// goroutines (spec 5's "Shared state: only the task queue and a completion map").
type driver struct {
	opt Options

	mu        sync.Mutex
	queue     []lineJob
	completed map[int]string
}

func (d *driver) nextJob() (lineJob, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.queue) == 0 {
		return lineJob{}, false
	}
	j := d.queue[0]
	d.queue = d.queue[1:]
	return j, true
}

func (d *driver) complete(idx int, line string) {
	d.mu.Lock()
	d.completed[idx] = line
	d.mu.Unlock()
}

// Run reads `FEN : tokens…` lines from r, dispatches each to its current stage, and writes
// the updated lines to w in input order (spec 4.10's "serialises results in order of input
// line even though tasks complete out of order").
func Run(ctx context.Context, r io.Reader, w io.Writer, opt Options) error {
	if opt.Start == nil {
		start, turn, _, _, err := fen.Decode(fen.Initial)
		if err != nil {
			return fmt.Errorf("pipeline: decoding default start position: %w", err)
		}
		opt.Start, opt.StartTurn = start, turn
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	d := &driver{opt: opt, completed: map[int]string{}}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	idx := 0
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		d.queue = append(d.queue, lineJob{idx: idx, line: line})
		idx++
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("pipeline: reading input: %w", err)
	}
	total := idx

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			for {
				j, ok := d.nextJob()
				if !ok {
					return
				}
				d.complete(j.idx, d.process(ctx, j, seed))
			}
		}(opt.Seed + int64(i))
	}
	wg.Wait()

	bw := bufio.NewWriter(w)
	for i := 0; i < total; i++ {
		fmt.Fprintln(bw, d.completed[i])
	}
	return bw.Flush()
}

// process dispatches one line to the stage its current Status indicates, logging and
// catching category (4) internal-invariant failures per spec 7 rather than letting them
// abort the whole run.
func (d *driver) process(ctx context.Context, j lineJob, seed int64) (out string) {
	defer func() {
		if r := recover(); r != nil {
			logw.Errorf(ctx, "pipeline: internal invariant violated on line %v: %v", j.idx, r)
			out = j.line + " unknown: fail: info: internal-error"
		}
	}()

	fen, st, err := ParseLine(j.line)
	if err != nil {
		return j.line + " unknown: info: parse-error:" + strings.ReplaceAll(err.Error(), " ", "_")
	}

	switch st.Legality {
	case Illegal, LegalState, FailState:
		return FormatLine(fen, st) // pass through, per spec 4.10.
	case Initial:
		st = d.runInitial(ctx, fen, st, seed)
	case Kernel:
		st = d.runKernel(ctx, fen, st)
	case Path:
		st = d.runPath(ctx, fen, st, seed)
	}
	return FormatLine(fen, st)
}

// runInitial first applies spec 4.5's forced-last-move retraction to the line's own goal,
// once per line (cached across budget-escalation retries via Status.ReducedGoal), then runs
// the proof-kernel search against the reduced goal. Every non-terminal status it returns
// after the retraction carries the reduced goal and retracted moves forward so later stages
// target the same reduced goal.
func (d *driver) runInitial(ctx context.Context, fenStr string, st Status, seed int64) Status {
	goal, goalTurn, noprogress, fullmoves, err := fen.Decode(fenStr)
	if err != nil {
		return Status{Legality: Initial, Info: []string{"parse-error:" + err.Error()}}
	}

	reducedFEN, forced := st.ReducedGoal, st.Forced
	if reducedFEN == "" {
		var moves []board.Move
		goal, goalTurn, moves = astar.RetractForcedLastMoves(ctx, d.opt.Start, d.opt.StartTurn, goal, goalTurn, nil)
		reducedFEN = fen.Encode(goal, goalTurn, noprogress, fullmoves)
		forced = movesToUCI(moves)
	} else {
		goal, goalTurn, _, _, err = fen.Decode(reducedFEN)
		if err != nil {
			return Status{Legality: FailState, Info: []string{"internal:" + err.Error()}}
		}
	}

	if d.opt.Start.String() == goal.String() && d.opt.StartTurn == goalTurn {
		return Status{Legality: LegalState, Proof: forced} // I == reduced G: forced moves are the whole proof.
	}

	ks := kernel.FromPositions(d.opt.Start, goal)
	budget := st.N
	if budget <= 0 {
		budget = d.opt.initialBudget()
	} else {
		budget = nextBudget(budget, d.opt.maxBudget())
	}
	res, err := kernel.Search(ctx, ks, kernel.Options{MaxNodes: budget, Seed: seed})
	if err == nil {
		words := make([]string, len(res.Moves))
		for i, m := range res.Moves {
			words[i] = m.String()
		}
		return Status{Legality: Kernel, KernelMoves: words, ReducedGoal: reducedFEN, Forced: forced}
	}
	if !errors.Is(err, kernel.ErrNoProof) {
		return Status{Legality: FailState, Info: []string{"internal:" + err.Error()}}
	}
	if res.Nodes <= budget {
		return Status{Legality: Illegal, Reason: "no proof-kernel path", Forced: forced}
	}
	if budget >= d.opt.maxBudget() {
		return Status{Legality: FailState, N: budget, ReducedGoal: reducedFEN, Forced: forced}
	}
	return Status{Legality: Initial, N: budget, ReducedGoal: reducedFEN, Forced: forced}
}

// resolveGoal decodes the goal a downstream stage should target: the reduced goal spec 4.5's
// retraction left in st.ReducedGoal if runInitial already computed one, else the line's own
// FEN (a line can reach runKernel/runPath without one only if fed from outside this driver).
func resolveGoal(fenStr string, st Status) (*board.Position, board.Color, error) {
	target := fenStr
	if st.ReducedGoal != "" {
		target = st.ReducedGoal
	}
	pos, turn, _, _, err := fen.Decode(target)
	return pos, turn, err
}

func (d *driver) runKernel(ctx context.Context, fenStr string, st Status) Status {
	goal, _, err := resolveGoal(fenStr, st)
	if err != nil {
		return Status{Legality: Initial, Info: []string{"parse-error:" + err.Error()}}
	}

	moves := make([]kernel.Move, len(st.KernelMoves))
	for i, w := range st.KernelMoves {
		m, err := ParsePkMove(w)
		if err != nil {
			return Status{Legality: FailState, Info: []string{"internal:" + err.Error()}}
		}
		moves[i] = m
	}

	ext, err := extkernel.Lift(moves, goalRankFunc(goal))
	if err != nil {
		return Status{Legality: Illegal, Reason: "extended-kernel CSP infeasible", Forced: st.Forced}
	}

	res, err := repair.Repair(d.opt.Start, d.opt.StartTurn, ext)
	if err != nil {
		if errors.Is(err, repair.ErrNoDispersal) {
			// Per spec 9's Open Question: a failed dispersal reflects this particular
			// kernel path, not a proof of infeasibility. Drop back to INITIAL so a retry
			// draws a different (seed-varied) proof-kernel sequence; the reduced goal and
			// retracted moves already computed still apply and are kept.
			return Status{Legality: Initial, ReducedGoal: st.ReducedGoal, Forced: st.Forced}
		}
		return Status{Legality: FailState, Info: []string{"internal:" + err.Error()}}
	}
	return Status{Legality: Path, PathMoves: movesToUCI(res.Moves), ReducedGoal: st.ReducedGoal, Forced: st.Forced}
}

func (d *driver) runPath(ctx context.Context, fenStr string, st Status, seed int64) Status {
	goal, goalTurn, err := resolveGoal(fenStr, st)
	if err != nil {
		return Status{Legality: Initial, Info: []string{"parse-error:" + err.Error()}}
	}

	budget := st.N
	if budget <= 0 {
		budget = d.opt.initialBudget()
	} else {
		budget = nextBudget(budget, d.opt.maxBudget())
	}

	res, err := astar.Search(ctx, d.opt.Start, d.opt.StartTurn, goal, goalTurn, astar.Options{
		MaxNodes:    budget,
		OracleCache: oracle.NewCache(oracle.DefaultSize),
		Weight:      [2]int{1, 1},
	})
	if err == nil {
		// spec 4.9: the returned proof is the solving node's ply plus the retracted moves,
		// appended after it in forward chronological order.
		proof := append(movesToUCI(res.Moves), st.Forced...)
		return Status{Legality: LegalState, Proof: proof}
	}
	if errors.Is(err, astar.ErrInfeasible) {
		return Status{Legality: Illegal, Reason: "no legal proof game", Forced: st.Forced}
	}
	if !errors.Is(err, astar.ErrBudgetExceeded) {
		return Status{Legality: FailState, PathMoves: st.PathMoves, Info: []string{"internal:" + err.Error()}}
	}
	if budget >= d.opt.maxBudget() {
		return Status{Legality: FailState, PathMoves: st.PathMoves, N: budget, ReducedGoal: st.ReducedGoal, Forced: st.Forced}
	}
	return Status{Legality: Path, PathMoves: st.PathMoves, N: budget, ReducedGoal: st.ReducedGoal, Forced: st.Forced}
}

// goalRankFunc derives extkernel.Lift's per-(color,file) goal-rank callback directly from
// the goal position: the resting rank of the surviving pawn(s) of that color on that file.
// When more than one goal pawn occupies the same kernel file (e.g. after an unusual
// promotion-reversal scenario), the most advanced one is picked for White and the least
// advanced for Black — a documented simplification, since true chain-order disambiguation
// would require tracking each pawn's individual history through the lift.
func goalRankFunc(goal *board.Position) func(c board.Color, file int) (int, bool) {
	return func(c board.Color, file int) (int, bool) {
		bf := board.File(7 - file)
		var best board.Square
		found := false
		for r := board.Rank1; r <= board.Rank8; r++ {
			sq := board.NewSquare(bf, r)
			col, p, ok := goal.Square(sq)
			if !ok || p != board.Pawn || col != c {
				continue
			}
			if !found {
				best, found = sq, true
				continue
			}
			if c == board.White && sq.Rank() > best.Rank() {
				best = sq
			}
			if c == board.Black && sq.Rank() < best.Rank() {
				best = sq
			}
		}
		if !found {
			return 0, false
		}
		return int(best.Rank()), true
	}
}
