package csp_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herohde/proofgame/internal/csp"
)

func TestSolveSimpleOrdering(t *testing.T) {
	s := csp.NewSolver()
	x, err := s.AddVar("x", 1, 7, csp.Small)
	require.NoError(t, err)
	y, err := s.AddVar("y", 1, 7, csp.Small)
	require.NoError(t, err)

	s.AddLE(x, y, -1) // x <= y - 1, i.e. x < y

	assignment, ok := s.Solve()
	require.True(t, ok)
	assert.Less(t, assignment[x], assignment[y])
	assert.Equal(t, 1, assignment[x]) // Small prefers the minimum
}

func TestSolvePreferenceLarge(t *testing.T) {
	s := csp.NewSolver()
	x, err := s.AddVar("x", 1, 7, csp.Large)
	require.NoError(t, err)

	assignment, ok := s.Solve()
	require.True(t, ok)
	assert.Equal(t, 7, assignment[x])
}

func TestSolveParity(t *testing.T) {
	s := csp.NewSolver()
	x, err := s.AddVar("x", 1, 7, csp.Small)
	require.NoError(t, err)
	s.SetParity(x, csp.Even)

	assignment, ok := s.Solve()
	require.True(t, ok)
	assert.Equal(t, 2, assignment[x])
}

func TestSolveInfeasible(t *testing.T) {
	s := csp.NewSolver()
	x, err := s.AddVar("x", 1, 2, csp.Small)
	require.NoError(t, err)
	y, err := s.AddVar("y", 1, 2, csp.Small)
	require.NoError(t, err)

	s.AddEQ(x, y, 0)
	s.AddBoundLE(x, 1)
	s.AddBoundGE(y, 2)

	_, ok := s.Solve()
	assert.False(t, ok)
}

func TestSolveEquality(t *testing.T) {
	s := csp.NewSolver()
	x, err := s.AddVar("x", 1, 7, csp.Small)
	require.NoError(t, err)
	y, err := s.AddVar("y", 1, 7, csp.Small)
	require.NoError(t, err)

	s.AddEQ(x, y, 2)
	s.AddBoundGE(x, 5)

	assignment, ok := s.Solve()
	require.True(t, ok)
	assert.Equal(t, assignment[x], assignment[y]+2)
	assert.GreaterOrEqual(t, assignment[x], 5)
}
