// Package assign solves small min-cost bipartite perfect-matching problems: the piece
// routing costs produced by the proof-game heuristic (internal/astar) and the pawn
// capture-assignment used by the kernel's feasibility checks (internal/kernel).
package assign

import "fmt"

// Big is the sentinel cost representing an infeasible assignment edge.
const Big = 1000

// Result is the outcome of a Solve call.
type Result struct {
	Sigma []int // Sigma[i] = column assigned to row i
	Cost  int   // sum of cost[i][Sigma[i]], or >= Big if infeasible
}

// Feasible reports whether the matching found an assignment with total cost < Big.
func (r Result) Feasible() bool {
	return r.Cost < Big
}

// Solve returns the minimum-cost perfect matching of an N x N cost matrix, N <= 16, with
// entries in [0, Big]. It first runs forced-choice propagation (a row or column with a
// single feasible entry forces that pairing, which can in turn force others) before
// falling back to the Hungarian algorithm on the propagated matrix. If propagation empties
// a row or column domain, the problem is reported infeasible without running the solver.
func Solve(cost [][]int) (Result, error) {
	n := len(cost)
	for _, row := range cost {
		if len(row) != n {
			return Result{}, fmt.Errorf("assign: cost matrix must be square, got %vx%v", n, len(row))
		}
	}
	if n == 0 {
		return Result{}, nil
	}
	if n > 16 {
		return Result{}, fmt.Errorf("assign: matrix too large: %v > 16", n)
	}

	reduced, ok := propagate(cost)
	if !ok {
		return Result{Sigma: make([]int, n), Cost: Big * n}, nil
	}

	sigma, total := hungarian(reduced)
	return Result{Sigma: sigma, Cost: total}, nil
}

// propagate performs forced-choice propagation to a fixed point: any row with exactly one
// column costing < Big forces all other rows out of that column (set to Big), and
// symmetrically for columns; iterated until no change. Returns false if any row or column
// ends up with no feasible (< Big) entry at all.
func propagate(cost [][]int) ([][]int, bool) {
	n := len(cost)
	m := make([][]int, n)
	for i := range cost {
		m[i] = append([]int(nil), cost[i]...)
	}

	for changed := true; changed; {
		changed = false

		for i := 0; i < n; i++ {
			col, count := -1, 0
			for j := 0; j < n; j++ {
				if m[i][j] < Big {
					col, count = j, count+1
				}
			}
			if count == 0 {
				return nil, false
			}
			if count == 1 {
				for k := 0; k < n; k++ {
					if k != i && m[k][col] < Big {
						m[k][col] = Big
						changed = true
					}
				}
			}
		}

		for j := 0; j < n; j++ {
			row, count := -1, 0
			for i := 0; i < n; i++ {
				if m[i][j] < Big {
					row, count = i, count+1
				}
			}
			if count == 0 {
				return nil, false
			}
			if count == 1 {
				for k := 0; k < n; k++ {
					if k != j && m[row][k] < Big {
						m[row][k] = Big
						changed = true
					}
				}
			}
		}
	}
	return m, true
}

// hungarian runs the O(n^3) shortest-augmenting-path (Jonker-Volgenant-style) min-cost
// perfect matching with row/column potentials. 1-indexed internally per the classical
// formulation; translated back to 0-indexed Sigma on return.
func hungarian(cost [][]int) ([]int, int) {
	n := len(cost)

	const inf = 1 << 30
	u := make([]int, n+1)
	v := make([]int, n+1)
	p := make([]int, n+1) // p[j] = row matched to column j (1-indexed), 0 = unmatched
	way := make([]int, n+1)

	for i := 1; i <= n; i++ {
		p[0] = i
		j0 := 0
		minv := make([]int, n+1)
		used := make([]bool, n+1)
		for j := 0; j <= n; j++ {
			minv[j] = inf
		}

		for {
			used[j0] = true
			i0, delta, j1 := p[j0], inf, -1
			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[i0-1][j-1] - u[i0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = j0
				}
				if minv[j] < delta {
					delta, j1 = minv[j], j
				}
			}
			for j := 0; j <= n; j++ {
				if used[j] {
					u[p[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}
			j0 = j1
			if p[j0] == 0 {
				break
			}
		}

		for j0 != 0 {
			j1 := way[j0]
			p[j0] = p[j1]
			j0 = j1
		}
	}

	sigma := make([]int, n)
	total := 0
	for j := 1; j <= n; j++ {
		if p[j] != 0 {
			sigma[p[j]-1] = j - 1
			total += cost[p[j]-1][j-1]
		}
	}
	return sigma, total
}
