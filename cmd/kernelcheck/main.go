// kernelcheck is a proof-kernel search debugging tool: given a start and goal FEN, it runs
// internal/kernel.Search directly and prints the resulting PkMove sequence (or the reason
// no sequence was found), bypassing the extended-kernel lift and A* stages entirely.
package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/seekerror/logw"

	"github.com/herohde/proofgame/internal/board/fen"
	"github.com/herohde/proofgame/internal/kernel"
)

var (
	start    = flag.String("start", "", "Initial position I as FEN (default to the standard starting position)")
	goal     = flag.String("goal", "", "Goal position G as FEN (required)")
	maxNodes = flag.Int64("nodes", 200_000, "Node budget")
	seed     = flag.Int64("seed", 1, "Move-order randomization seed")
)

func main() {
	ctx := context.Background()
	flag.Parse()

	if *goal == "" {
		logw.Exitf(ctx, "Missing required -goal fen")
	}
	if *start == "" {
		*start = fen.Initial
	}

	startPos, _, _, _, err := fen.Decode(*start)
	if err != nil {
		logw.Exitf(ctx, "Invalid -start fen %q: %v", *start, err)
	}
	goalPos, _, _, _, err := fen.Decode(*goal)
	if err != nil {
		logw.Exitf(ctx, "Invalid -goal fen %q: %v", *goal, err)
	}

	s := kernel.FromPositions(startPos, goalPos)
	if s.IsGoal() {
		fmt.Println("kernel goal already satisfied (material/pawn-file composition matches)")
		return
	}

	t0 := time.Now()
	res, err := kernel.Search(ctx, s, kernel.Options{MaxNodes: *maxNodes, Seed: *seed})
	elapsed := time.Since(t0)

	if err != nil {
		fmt.Printf("no proof-kernel path: %v (%v nodes, %v, budget=%v)\n", err, res.Nodes, elapsed, *maxNodes)
		return
	}

	for _, m := range res.Moves {
		fmt.Println(m)
	}
	fmt.Printf("# %v moves, %v nodes, %v\n", len(res.Moves), res.Nodes, elapsed)
}
