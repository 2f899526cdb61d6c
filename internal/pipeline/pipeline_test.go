package pipeline_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/herohde/proofgame/internal/board"
	"github.com/herohde/proofgame/internal/board/fen"
	"github.com/herohde/proofgame/internal/kernel"
	"github.com/herohde/proofgame/internal/pipeline"
)

func TestParseLineBareFENIsInitial(t *testing.T) {
	f, st, err := pipeline.ParseLine(fen.Initial)
	require.NoError(t, err)
	assert.Equal(t, fen.Initial, f)
	assert.Equal(t, pipeline.Initial, st.Legality)
}

func TestParseLineRejectsTooFewFields(t *testing.T) {
	_, _, err := pipeline.ParseLine("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq -")
	assert.ErrorIs(t, err, pipeline.ErrParse)
}

func TestParseLineRejectsUnknownToken(t *testing.T) {
	_, _, err := pipeline.ParseLine(fen.Initial + " bogus: foo")
	assert.ErrorIs(t, err, pipeline.ErrParse)
}

func TestFormatParseRoundTripsIllegal(t *testing.T) {
	st := pipeline.Status{Legality: pipeline.Illegal, Reason: "no-proof-kernel-path"}
	line := pipeline.FormatLine(fen.Initial, st)

	f, got, err := pipeline.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, fen.Initial, f)
	assert.Equal(t, st.Reason, got.Reason)
	assert.Equal(t, pipeline.Illegal, got.Legality)
}

func TestFormatParseRoundTripsUnknownWithKernelTokens(t *testing.T) {
	st := pipeline.Status{Legality: pipeline.Kernel, KernelMoves: []string{"wPe1xPd0", "bxQ"}, N: 50000}
	line := pipeline.FormatLine(fen.Initial, st)

	_, got, err := pipeline.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Kernel, got.Legality)
	assert.Equal(t, st.KernelMoves, got.KernelMoves)
	assert.Equal(t, st.N, got.N)
}

func TestFormatParseRoundTripsForcedAndGoal(t *testing.T) {
	reduced := "7k/8/8/8/8/8/pp6/1K6 w - - 0 1"
	st := pipeline.Status{Legality: pipeline.Path, PathMoves: []string{"a2a4"}, Forced: []string{"b1a1"}, ReducedGoal: reduced, N: 50000}
	line := pipeline.FormatLine(fen.Initial, st)

	_, got, err := pipeline.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, pipeline.Path, got.Legality)
	assert.Equal(t, st.Forced, got.Forced)
	assert.Equal(t, st.ReducedGoal, got.ReducedGoal)
	assert.Equal(t, st.PathMoves, got.PathMoves)
}

func TestFormatParseRoundTripsLegalProof(t *testing.T) {
	st := pipeline.Status{Legality: pipeline.LegalState, Proof: []string{"a2a4", "g7g6"}}
	line := pipeline.FormatLine(fen.Initial, st)

	_, got, err := pipeline.ParseLine(line)
	require.NoError(t, err)
	assert.Equal(t, pipeline.LegalState, got.Legality)
	assert.Equal(t, st.Proof, got.Proof)
}

func TestParsePkMoveRoundTripsAllKinds(t *testing.T) {
	moves := []kernel.Move{
		{Kind: kernel.PawnPawn, Color: board.White, File1: 4, Idx1: 1, File2: 3, Idx2: 0},
		{Kind: kernel.PawnPawn, Color: board.Black, File1: 2, Idx1: 0, File2: 1, Idx2: 0, Promoted: true, Promotion: kernel.Queen},
		{Kind: kernel.PawnPiece, Color: board.White, File1: 0, Idx1: 0, Captured: kernel.Knight},
		{Kind: kernel.PawnPiece, Color: board.Black, File1: 7, Idx1: 2, Captured: kernel.Rook, Promoted: true, Promotion: kernel.DarkBishop},
		{Kind: kernel.PawnPromotedPawn, Color: board.White, File1: 1, Idx1: 0, OtherPromotionFile: 2},
		{Kind: kernel.PiecePawn, Color: board.Black, File1: 5, Idx1: 1},
		{Kind: kernel.PiecePiece, Color: board.White, Captured: kernel.LightBishop},
	}

	for _, m := range moves {
		got, err := pipeline.ParsePkMove(m.String())
		require.NoError(t, err, m.String())
		assert.Equal(t, m, got, m.String())
	}
}

func TestParsePkMoveRejectsGarbage(t *testing.T) {
	_, err := pipeline.ParsePkMove("not-a-move")
	assert.ErrorIs(t, err, pipeline.ErrParse)
}

func TestRunTrivialIdenticalPositionIsLegal(t *testing.T) {
	var out strings.Builder
	err := pipeline.Run(context.Background(), strings.NewReader(fen.Initial), &out, pipeline.Options{Workers: 1})
	require.NoError(t, err)

	_, st, err := pipeline.ParseLine(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, pipeline.LegalState, st.Legality)
	assert.Empty(t, st.Proof)
}

func TestRunPreservesInputOrderAcrossWorkers(t *testing.T) {
	lines := fen.Initial + "\n" + fen.Initial + "\n" + fen.Initial
	var out strings.Builder
	err := pipeline.Run(context.Background(), strings.NewReader(lines), &out, pipeline.Options{Workers: 4})
	require.NoError(t, err)

	got := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, got, 3)
	for _, line := range got {
		assert.True(t, strings.HasPrefix(line, fen.Initial))
	}
}
