package icefall

import (
	"github.com/icefall/tetris"
)

// Status is the outcome of polling for a move.
type Status uint8

const (
	// Waiting means no move has been published for the current request
	// yet.
	Waiting Status = iota
	// MoveProvided means a move was published and returned.
	MoveProvided
	// Dead means every placement sequence tops out or the bot was
	// destroyed. It persists until Reset; a destroyed bot stays dead.
	Dead
)

func (s Status) String() string {
	switch s {
	case MoveProvided:
		return "move_provided"
	case Dead:
		return "dead"
	}
	return "waiting"
}

// Move is a published placement: whether to hold first, the expected
// final cells, the input path realizing them, search statistics, and
// the principal variation the search expects to follow.
type Move struct {
	// Hold is true when the piece to place comes from the hold slot.
	Hold bool
	// ExpectedCells are the four cells the piece locks into, (0, 0)
	// at the bottom left.
	ExpectedCells [4]tetris.Cell
	// Movements is the input path from spawn; at most
	// tetris.MaxPathLen entries, ending before the implicit hard drop.
	Movements []tetris.Movement

	// Nodes is how many nodes were explored beneath the root that
	// produced this move.
	Nodes uint32
	// Depth is the deepest selection pass below that root.
	Depth uint32
	// OriginalRank is the chosen placement's position among its
	// siblings in the expansion ordering, before the search descended.
	OriginalRank uint32

	// Plan is the principal variation from the new root onward. It may
	// be empty.
	Plan []PlanPlacement
}

// PlanPlacement is one expected future placement.
type PlanPlacement struct {
	Piece         tetris.Piece
	Tspin         tetris.TspinStatus
	ExpectedCells [4]tetris.Cell
	// ClearedLines holds the row indices the placement clears,
	// bottom-up; -1 marks unused entries.
	ClearedLines [4]int8
}
