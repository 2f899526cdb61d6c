package kernel

import (
	"context"
	"errors"
	"math/rand"

	"github.com/seekerror/logw"
)

// ErrNoProof is returned when the DFS exhausts the budget without finding a proof-kernel
// path from the start state to a goal state.
var ErrNoProof = errors.New("kernel: no proof-kernel path found")

// Options configures the proof-kernel DFS (spec 4.6).
type Options struct {
	// MaxNodes bounds the number of states explored before giving up. Zero means unbounded.
	MaxNodes int64
	// Seed randomizes move-generation order, so repeated searches over the same instance
	// can explore different parts of the tree (grounded on eval.Random's rand.Rand use).
	Seed int64
	// TT caches proven-unreachable subtrees. Nil disables caching.
	TT *Table
}

// Result is a solved proof-kernel path: the sequence of moves applied in order from the
// start state to a goal state.
type Result struct {
	Moves []Move
	Nodes int64
}

// Search runs a depth-first search from start for a move sequence reaching a goal state,
// per spec 4.6: at each node, generate moves, prune any whose RemainingMoves afterward would
// be less than the state's minMovesToGoal lower bound, and recurse. Move order is shuffled
// by Seed to vary the search across repeated calls on the same instance.
func Search(ctx context.Context, start *State, opt Options) (Result, error) {
	rng := rand.New(rand.NewSource(opt.Seed))

	var nodes int64
	var path []Move

	var dfs func(s *State) bool
	dfs = func(s *State) bool {
		nodes++
		if opt.MaxNodes > 0 && nodes > opt.MaxNodes {
			return false
		}
		select {
		case <-ctx.Done():
			return false
		default:
		}

		if s.IsGoal() {
			return true
		}
		if s.RemainingMoves <= 0 {
			return false
		}

		hash := s.Hash()
		if opt.TT != nil {
			if v, ok := opt.TT.Lookup(hash, s.RemainingMoves); ok && v == Fail {
				return false
			}
		}

		moves := s.Moves()
		rng.Shuffle(len(moves), func(i, j int) { moves[i], moves[j] = moves[j], moves[i] })

		for _, m := range moves {
			u := s.Apply(m)
			ok := s.RemainingMoves >= s.minMovesToGoal() && dfs(s)
			if ok {
				path = append(path, m)
				return true
			}
			s.Unapply(u)
		}

		if opt.TT != nil {
			opt.TT.Store(hash, s.RemainingMoves, Fail)
		}
		return false
	}

	if !dfs(start) {
		logw.Debugf(ctx, "kernel: no proof found after %v nodes", nodes)
		return Result{Nodes: nodes}, ErrNoProof
	}

	reverse(path)
	return Result{Moves: path, Nodes: nodes}, nil
}

func reverse(m []Move) {
	for i, j := 0, len(m)-1; i < j; i, j = i+1, j-1 {
		m[i], m[j] = m[j], m[i]
	}
}
