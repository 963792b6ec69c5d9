// Command selfplay drives a bot against a seeded seven-bag generator
// and reports per-move search statistics.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/pkg/profile"
	"gonum.org/v1/gonum/stat"

	icefall "github.com/icefall"
	"github.com/icefall/eval"
	"github.com/icefall/tetris"
)

var (
	pieces      = flag.Int("pieces", 100, "number of pieces to play")
	seed        = flag.Int64("seed", 1, "bag generator seed")
	threads     = flag.Int("threads", 1, "search workers")
	minNodes    = flag.Int("min_nodes", 500, "thinking floor per move")
	maxNodes    = flag.Int("max_nodes", 20000, "thinking ceiling per move")
	weightsFile = flag.String("weights", "", "TOML weights file; empty for defaults")
	fast        = flag.Bool("fast", false, "use the fast weights preset")
	showBoard   = flag.Bool("board", false, "print the board after every move")
	profiling   = flag.Bool("profile", false, "write a CPU profile")
	verbose     = flag.Bool("v", false, "debug logging")
)

// bagGen deals pieces from shuffled seven-piece bags.
type bagGen struct {
	r   *rand.Rand
	cur []tetris.Piece
}

func (g *bagGen) next() tetris.Piece {
	if len(g.cur) == 0 {
		g.cur = []tetris.Piece{
			tetris.PieceI, tetris.PieceT, tetris.PieceO, tetris.PieceS,
			tetris.PieceZ, tetris.PieceL, tetris.PieceJ,
		}
		g.r.Shuffle(len(g.cur), func(i, j int) { g.cur[i], g.cur[j] = g.cur[j], g.cur[i] })
	}
	p := g.cur[0]
	g.cur = g.cur[1:]
	return p
}

func main() {
	flag.Parse()
	if *profiling {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(".")).Stop()
	}
	level := logging.INFO
	if *verbose {
		level = logging.DEBUG
	}
	logging.SetLevel(level, "icefall.bot")
	logging.SetLevel(level, "icefall.search")

	w := eval.DefaultWeights()
	if *fast {
		w = eval.FastWeights()
	}
	if *weightsFile != "" {
		var err error
		if w, err = eval.LoadWeights(*weightsFile); err != nil {
			fmt.Fprintf(os.Stderr, "weights: %v\n", err)
			os.Exit(1)
		}
	}

	opts := icefall.DefaultOptions()
	opts.Threads = *threads
	opts.MinNodes = *minNodes
	opts.MaxNodes = *maxNodes

	bot, err := icefall.Launch(opts, w)
	if err != nil {
		fmt.Fprintf(os.Stderr, "launch: %v\n", err)
		os.Exit(1)
	}
	defer bot.Destroy()

	gen := &bagGen{r: rand.New(rand.NewSource(*seed))}

	const previews = 5
	for i := 0; i < previews; i++ {
		if err := bot.AddNextPiece(gen.next()); err != nil {
			fmt.Fprintf(os.Stderr, "add piece: %v\n", err)
			os.Exit(1)
		}
	}

	var board tetris.Board
	var nodeStats, depthStats []float64
	cleared := 0

	for placed := 0; placed < *pieces; placed++ {
		if err := bot.RequestNextMove(0); err != nil {
			fmt.Fprintf(os.Stderr, "request: %v\n", err)
			break
		}
		if err := bot.AddNextPiece(gen.next()); err != nil {
			fmt.Fprintf(os.Stderr, "add piece: %v\n", err)
			break
		}

		move, status := bot.BlockNextMove()
		if status == icefall.Dead {
			color.Red("bot died after %d pieces", placed)
			break
		}

		for _, c := range move.ExpectedCells {
			board.Fill(c.X, c.Y)
		}
		rows := 0
		for y := tetris.Height - 1; y >= 0; y-- {
			full := true
			for x := int8(0); x < tetris.Width; x++ {
				if !board.Occupied(x, int8(y)) {
					full = false
					break
				}
			}
			if full {
				rows++
				for yy := y; yy < tetris.Height-1; yy++ {
					board[yy] = board[yy+1]
				}
				board[tetris.Height-1] = 0
			}
		}
		cleared += rows

		nodeStats = append(nodeStats, float64(move.Nodes))
		depthStats = append(depthStats, float64(move.Depth))

		if *showBoard {
			fmt.Println(boardString(&board))
		}
	}

	fmt.Printf("pieces: %d  lines: %d\n", len(nodeStats), cleared)
	if len(nodeStats) > 0 {
		fmt.Printf("nodes/move: mean %.0f stddev %.0f\n",
			stat.Mean(nodeStats, nil), stat.StdDev(nodeStats, nil))
		fmt.Printf("depth/move: mean %.1f stddev %.1f\n",
			stat.Mean(depthStats, nil), stat.StdDev(depthStats, nil))
	}
}

func boardString(b *tetris.Board) string {
	filled := color.New(color.FgCyan).Sprint("#")
	out := ""
	for y := int8(tetris.VisibleHeight - 1); y >= 0; y-- {
		for x := int8(0); x < tetris.Width; x++ {
			if b.Occupied(x, y) {
				out += filled
			} else {
				out += "."
			}
		}
		out += "\n"
	}
	return out
}
