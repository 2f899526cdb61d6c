// Package astar implements the proof-game A* search (spec component C9): a best-first
// search over legal chess positions from a start position toward a goal position G, using
// an admissible distance-lower-bound heuristic built from internal/assign's min-cost
// matching and internal/oracle's shortest-path tables, with a blocked-set precomputation
// that prunes moves certain to make G unreachable.
package astar

import (
	"container/heap"
	"context"
	"errors"
	"fmt"

	"github.com/seekerror/logw"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/oracle"
)

// ErrBudgetExceeded is returned when the search exhausts its node budget without reaching G.
var ErrBudgetExceeded = errors.New("astar: node budget exceeded")

// ErrInfeasible is returned when the blocked-set analysis proves G unreachable from start.
var ErrInfeasible = errors.New("astar: position proven infeasible")

// Options configures the search.
type Options struct {
	MaxNodes         int64
	UseNonAdmissible bool    // spec 4.9: add twice the obstacle-piece count to the bound.
	Weight           [2]int  // (a,b) in a*ply + b*bound; (0,0) defaults to (1,1).
	OracleCache      *oracle.Cache
}

// Result is a solved proof-game path: the legal move sequence from start to a position
// matching goal.
type Result struct {
	Moves []board.Move
	Nodes int64
}

// node is one A* open-set entry.
type node struct {
	pos    *board.Position
	turn   board.Color
	ply    int
	bound  int
	move   board.Move // the move that produced this node (zero value at the root).
	parent *node
	index  int // heap bookkeeping.
}

// Search runs best-first search from start toward a position matching goal.
func Search(ctx context.Context, start *board.Position, turn board.Color, goal *board.Position, goalTurn board.Color, opt Options) (Result, error) {
	if opt.Weight == [2]int{} {
		opt.Weight = [2]int{1, 1}
	}
	cache := opt.OracleCache
	if cache == nil {
		cache = oracle.NewCache(oracle.DefaultSize)
	}

	blocked, infeasible := computeBlockedSet(start, turn, goal, goalTurn)
	if infeasible {
		return Result{}, ErrInfeasible
	}

	root := &node{pos: start, turn: turn, ply: 0}
	root.bound = distLowerBound(root.pos, root.turn, goal, goalTurn, cache, opt)

	open := newOpenSet(opt.Weight[0], opt.Weight[1])
	open.nodes = append(open.nodes, root)
	heap.Init(open)
	seen := map[uint64]int{nodeKey(root): root.ply}

	var nodes int64
	for open.Len() > 0 {
		nodes++
		if opt.MaxNodes > 0 && nodes > opt.MaxNodes {
			return Result{Nodes: nodes}, ErrBudgetExceeded
		}
		select {
		case <-ctx.Done():
			return Result{Nodes: nodes}, ctx.Err()
		default:
		}

		cur := heap.Pop(open).(*node)
		if matches(cur.pos, cur.turn, goal, goalTurn) {
			return Result{Moves: reconstruct(cur), Nodes: nodes}, nil
		}

		for _, m := range cur.pos.PseudoLegalMoves(cur.turn) {
			if blocked.IsSet(m.From) || blocked.IsSet(m.To) {
				continue
			}
			next, _, ok := cur.pos.Move(cur.turn, m)
			if !ok || next.IsChecked(cur.turn) {
				continue
			}

			child := &node{pos: next, turn: cur.turn.Opponent(), ply: cur.ply + 1, move: m, parent: cur}
			key := nodeKey(child)
			if prevPly, ok := seen[key]; ok && prevPly <= child.ply {
				continue
			}
			seen[key] = child.ply
			child.bound = distLowerBound(child.pos, child.turn, goal, goalTurn, cache, opt)
			heap.Push(open, child)
		}
	}

	logw.Debugf(ctx, "astar: open set exhausted after %v nodes", nodes)
	return Result{Nodes: nodes}, ErrInfeasible
}

func matches(pos *board.Position, turn board.Color, goal *board.Position, goalTurn board.Color) bool {
	return turn == goalTurn && pos.String() == goal.String()
}

func reconstruct(n *node) []board.Move {
	var ret []board.Move
	for cur := n; cur.parent != nil; cur = cur.parent {
		ret = append(ret, cur.move)
	}
	for i, j := 0, len(ret)-1; i < j; i, j = i+1, j-1 {
		ret[i], ret[j] = ret[j], ret[i]
	}
	return ret
}

func nodeKey(n *node) uint64 {
	const prime = 1099511628211
	h := uint64(14695981039346656037)
	for _, r := range n.pos.String() {
		h ^= uint64(r)
		h *= prime
	}
	h ^= uint64(n.turn) << 1
	h *= prime
	return h
}

// priority is a·ply + b·bound, the value the open set orders by (spec 4.9: smaller is
// better, matching a standard A* f = g + h cost where g is ply and h is bound).
func (n *node) priority(a, b int) int {
	return a*n.ply + b*n.bound
}

func (o Options) String() string {
	return fmt.Sprintf("astar.Options{MaxNodes=%v, NonAdmissible=%v, Weight=%v}", o.MaxNodes, o.UseNonAdmissible, o.Weight)
}
