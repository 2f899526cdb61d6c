package assign_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herohde/proofgame/internal/assign"
)

func TestSolveIdentity(t *testing.T) {
	cost := [][]int{
		{0, assign.Big, assign.Big},
		{assign.Big, 0, assign.Big},
		{assign.Big, assign.Big, 0},
	}
	result, err := assign.Solve(cost)
	require.NoError(t, err)
	assert.True(t, result.Feasible())
	assert.Equal(t, 0, result.Cost)
	assert.Equal(t, []int{0, 1, 2}, result.Sigma)
}

func TestSolveMinCost(t *testing.T) {
	cost := [][]int{
		{4, 1, 3},
		{2, 0, 5},
		{3, 2, 2},
	}
	result, err := assign.Solve(cost)
	require.NoError(t, err)
	assert.True(t, result.Feasible())
	assert.Equal(t, 5, result.Cost)

	seen := make([]bool, 3)
	for _, j := range result.Sigma {
		assert.False(t, seen[j], "column assigned twice")
		seen[j] = true
	}
}

func TestSolveInfeasible(t *testing.T) {
	cost := [][]int{
		{assign.Big, assign.Big},
		{assign.Big, assign.Big},
	}
	result, err := assign.Solve(cost)
	require.NoError(t, err)
	assert.False(t, result.Feasible())
}

func TestSolveForcedChoicePropagation(t *testing.T) {
	// Row 0 has a single feasible column (0); forces row 1 out of column 0.
	cost := [][]int{
		{1, assign.Big},
		{2, 3},
	}
	result, err := assign.Solve(cost)
	require.NoError(t, err)
	assert.True(t, result.Feasible())
	assert.Equal(t, []int{0, 1}, result.Sigma)
	assert.Equal(t, 4, result.Cost)
}

func TestSolveRejectsNonSquare(t *testing.T) {
	_, err := assign.Solve([][]int{{1, 2}, {3, 4, 5}})
	assert.Error(t, err)
}
