// Command dumptree expands a small search tree over a fixed scenario
// and writes it as Graphviz DOT for inspection.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/icefall/eval"
	"github.com/icefall/movegen"
	"github.com/icefall/search"
	"github.com/icefall/tetris"
)

var (
	queue      = flag.String("queue", "TIOSZ", "piece queue, one letter per piece")
	expansions = flag.Int("expansions", 40, "think cycles to run before dumping")
	depth      = flag.Int("depth", 3, "tree depth to render")
	speculate  = flag.Bool("speculate", false, "speculate past the end of the queue")
)

func main() {
	flag.Parse()

	var q []tetris.Piece
	for _, r := range *queue {
		p, ok := tetris.PieceFromRune(r)
		if !ok {
			fmt.Fprintf(os.Stderr, "bad piece %q\n", r)
			os.Exit(1)
		}
		q = append(q, p)
	}

	cfg := search.Config{
		Mode:      movegen.ModeZeroG,
		SpawnRule: tetris.SpawnRow19,
		UseHold:   true,
		Speculate: *speculate,
		MaxNodes:  1 << 20,
	}
	t := search.NewTree(cfg, eval.New(eval.DefaultWeights()), search.Snapshot{
		Bag:   tetris.FullBag,
		Hold:  tetris.NoPiece,
		Queue: q,
	})

	for i := 0; i < *expansions; i++ {
		if st := t.Step(); st == search.StepBlocked || st == search.StepDead {
			break
		}
	}

	if err := t.DumpDOT(os.Stdout, *depth); err != nil {
		fmt.Fprintf(os.Stderr, "dump: %v\n", err)
		os.Exit(1)
	}
}
