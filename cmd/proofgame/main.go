// proofgame runs the pipeline driver (internal/pipeline) over stdin lines of the form
// `FEN : tokens…` and writes the updated lines to stdout, per spec 4.10.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/seekerror/logw"

	"github.com/herohde/proofgame/internal/board/fen"
	"github.com/herohde/proofgame/internal/pipeline"
)

var (
	start   = flag.String("start", "", "Initial position I as FEN (default to the standard starting position)")
	workers = flag.Int("workers", 0, "Number of concurrent worker goroutines (default hardware parallelism)")
	version = flag.Bool("version", false, "Print version and exit")
)

func init() {
	flag.Usage = func() {
		fmt.Fprint(os.Stderr, `usage: proofgame [options] < lines > lines

PROOFGAME resolves proof-game search lines (FEN plus prior-analysis tokens) read from
stdin, one resolved line per input line, written to stdout in the same order. Feed the
output back as input to resume any lines still marked unknown with a larger search budget.
Options:
`)
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	ctx := context.Background()

	if *version {
		fmt.Println(pipeline.Version)
		return
	}

	opt := pipeline.Options{Workers: *workers}
	if *start != "" {
		pos, turn, _, _, err := fen.Decode(*start)
		if err != nil {
			logw.Exitf(ctx, "Invalid -start fen %q: %v", *start, err)
		}
		opt.Start, opt.StartTurn = pos, turn
	}

	if err := pipeline.Run(ctx, os.Stdin, os.Stdout, opt); err != nil {
		logw.Exitf(ctx, "Pipeline failed: %v", err)
	}
}
