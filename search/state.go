package search

import (
	"encoding/binary"

	"github.com/cespare/xxhash/v2"

	"github.com/icefall/tetris"
)

// State is a reachable game position: the board, the hold slot, how many
// queue positions have been consumed, identities assumed for positions
// not yet revealed, and the clear-streak counters. Two states with equal
// fields are interchangeable for search purposes.
type State struct {
	Board   tetris.Board
	Hold    tetris.Piece
	Idx     int // absolute queue position of the next piece to consume
	Assumed []tetris.Piece
	B2B     bool
	Combo   uint32
}

// Hash returns the interning key for the state.
func (s *State) Hash() uint64 {
	var d xxhash.Digest
	d.Reset()

	var buf [2*tetris.Height + 16]byte
	for y, row := range s.Board {
		binary.LittleEndian.PutUint16(buf[2*y:], row)
	}
	off := 2 * tetris.Height
	buf[off] = byte(s.Hold)
	if s.B2B {
		buf[off+1] = 1
	}
	binary.LittleEndian.PutUint32(buf[off+2:], s.Combo)
	binary.LittleEndian.PutUint64(buf[off+6:], uint64(s.Idx))
	d.Write(buf[:off+14])

	for _, p := range s.Assumed {
		d.Write([]byte{byte(p)})
	}
	return d.Sum64()
}

// clone copies the state with room to extend the assumption list.
func (s *State) clone() State {
	out := *s
	if len(s.Assumed) > 0 {
		out.Assumed = append([]tetris.Piece(nil), s.Assumed...)
	}
	return out
}
