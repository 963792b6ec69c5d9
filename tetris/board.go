package tetris

import (
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Playfield dimensions. Rows above VisibleHeight exist so that pieces can
// be kicked or stacked past the visible field; locking a cell at or above
// VisibleHeight after line clears is a top out.
const (
	Width         = 10
	Height        = 40
	VisibleHeight = 20
)

const fullRow = 1<<Width - 1

// Board is the occupancy grid. Each entry is one row with bit x set when
// (x, y) is filled; row 0 is the floor.
type Board [Height]uint16

// Occupied reports whether the cell at (x, y) is filled. Out-of-range
// coordinates count as filled, except cells above the ceiling which are
// empty so that kick probing near the top does not spuriously collide.
func (b *Board) Occupied(x, y int8) bool {
	if x < 0 || x >= Width || y < 0 {
		return true
	}
	if y >= Height {
		return false
	}
	return b[y]&(1<<uint(x)) != 0
}

// Fill sets the cell at (x, y).
func (b *Board) Fill(x, y int8) {
	if x >= 0 && x < Width && y >= 0 && y < Height {
		b[y] |= 1 << uint(x)
	}
}

// Empty reports whether no cell is filled.
func (b *Board) Empty() bool {
	for _, row := range b {
		if row != 0 {
			return false
		}
	}
	return true
}

// ToppedOut reports whether any locked cell sits in the danger zone.
func (b *Board) ToppedOut() bool {
	for y := VisibleHeight; y < Height; y++ {
		if b[y] != 0 {
			return true
		}
	}
	return false
}

// ColumnHeight returns the height of column x: one above its highest
// filled cell, 0 when the column is empty.
func (b *Board) ColumnHeight(x int8) int8 {
	mask := uint16(1) << uint(x)
	for y := Height - 1; y >= 0; y-- {
		if b[y]&mask != 0 {
			return int8(y) + 1
		}
	}
	return 0
}

// MaxHeight returns the highest column height.
func (b *Board) MaxHeight() int8 {
	for y := Height - 1; y >= 0; y-- {
		if b[y] != 0 {
			return int8(y) + 1
		}
	}
	return 0
}

// clearFullRows removes every full row, cascading the rows above downward
// in one pass. It returns the cleared row indices, bottom-up, relative to
// the board before clearing.
func (b *Board) clearFullRows() []int8 {
	var cleared []int8
	dst := 0
	for y := 0; y < Height; y++ {
		if b[y] == fullRow {
			cleared = append(cleared, int8(y))
			continue
		}
		b[dst] = b[y]
		dst++
	}
	for ; dst < Height; dst++ {
		b[dst] = 0
	}
	return cleared
}

// Hash returns a 64-bit hash of the occupancy grid.
func (b *Board) Hash() uint64 {
	var buf [2 * Height]byte
	for y, row := range b {
		buf[2*y] = byte(row)
		buf[2*y+1] = byte(row >> 8)
	}
	return xxhash.Sum64(buf[:])
}

// FromField builds a board from 400 row-major cells, index 0 at the
// bottom left. Rows 20..39 start empty.
func FromField(field *[Width * VisibleHeight]bool) Board {
	var b Board
	for i, filled := range field {
		if filled {
			b.Fill(int8(i%Width), int8(i/Width))
		}
	}
	return b
}

// Field flattens the visible rows to 400 row-major cells.
func (b *Board) Field() [Width * VisibleHeight]bool {
	var field [Width * VisibleHeight]bool
	for y := int8(0); y < VisibleHeight; y++ {
		for x := int8(0); x < Width; x++ {
			field[int(y)*Width+int(x)] = b.Occupied(x, y)
		}
	}
	return field
}

// String draws the visible field, highest row first.
func (b *Board) String() string {
	var sb strings.Builder
	for y := int8(VisibleHeight - 1); y >= 0; y-- {
		for x := int8(0); x < Width; x++ {
			if b.Occupied(x, y) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
