package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFieldRoundTrip(t *testing.T) {
	var field [Width * VisibleHeight]bool
	field[0] = true                  // (0, 0)
	field[Width*3+7] = true          // (7, 3)
	field[Width*VisibleHeight-1] = true // (9, 19)

	b := FromField(&field)
	assert.True(t, b.Occupied(0, 0))
	assert.True(t, b.Occupied(7, 3))
	assert.True(t, b.Occupied(9, 19))
	assert.False(t, b.Occupied(1, 0))

	assert.Equal(t, field, b.Field())
}

func TestClearFullRowsCascades(t *testing.T) {
	var b Board
	b[0] = fullRow
	b[1] = 0b0000000001
	b[2] = fullRow
	b[3] = 0b0000000010

	cleared := b.clearFullRows()
	require.Equal(t, []int8{0, 2}, cleared)
	assert.Equal(t, uint16(0b0000000001), b[0])
	assert.Equal(t, uint16(0b0000000010), b[1])
	assert.Equal(t, uint16(0), b[2])
}

func TestToppedOut(t *testing.T) {
	var b Board
	assert.False(t, b.ToppedOut())
	b.Fill(4, VisibleHeight-1)
	assert.False(t, b.ToppedOut())
	b.Fill(4, VisibleHeight)
	assert.True(t, b.ToppedOut())
}

func TestColumnHeight(t *testing.T) {
	var b Board
	assert.Equal(t, int8(0), b.ColumnHeight(3))
	b.Fill(3, 0)
	b.Fill(3, 4)
	assert.Equal(t, int8(5), b.ColumnHeight(3))
	assert.Equal(t, int8(5), b.MaxHeight())
}

func TestHashDistinguishesBoards(t *testing.T) {
	var a, b Board
	b.Fill(0, 0)
	assert.NotEqual(t, a.Hash(), b.Hash())

	c := a
	assert.Equal(t, a.Hash(), c.Hash())
}

func TestBagDrawAndRefill(t *testing.T) {
	bag := FullBag
	require.Equal(t, 7, bag.Count())

	var ok bool
	for _, p := range []Piece{PieceI, PieceT, PieceO, PieceS, PieceZ, PieceL} {
		bag, ok = bag.Remove(p)
		require.True(t, ok)
	}
	require.Equal(t, []Piece{PieceJ}, bag.Pieces())

	// Drawing the last piece refills the bag.
	bag, ok = bag.Remove(PieceJ)
	require.True(t, ok)
	assert.Equal(t, FullBag, bag)

	_, ok = bag.Remove(NoPiece)
	assert.False(t, ok)
}
