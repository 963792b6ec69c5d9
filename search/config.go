package search

import (
	"github.com/icefall/movegen"
	"github.com/icefall/pcsolver"
	"github.com/icefall/tetris"
)

// Config fixes the rules the tree searches under. It is read-only after
// the tree is built.
type Config struct {
	Mode       movegen.Mode
	SpawnRule  tetris.SpawnRule
	UseHold    bool
	Speculate  bool
	PCPriority pcsolver.Priority

	// MaxNodes caps expansion below the current root; workers idle once
	// it is reached until the root advances.
	MaxNodes int
}

// Snapshot seeds a tree generation: the root position plus the known
// piece queue and the bag residue constraining the next reveal.
type Snapshot struct {
	Board tetris.Board
	Hold  tetris.Piece
	B2B   bool
	Combo uint32
	Bag   tetris.Bag
	Queue []tetris.Piece
}
