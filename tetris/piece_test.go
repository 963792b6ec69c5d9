package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sortedCells(cells [4]Cell) [4]Cell {
	for i := 1; i < len(cells); i++ {
		for j := i; j > 0; j-- {
			a, b := cells[j-1], cells[j]
			if b.Y < a.Y || (b.Y == a.Y && b.X < a.X) {
				cells[j-1], cells[j] = b, a
			} else {
				break
			}
		}
	}
	return cells
}

func TestSpawnPositions(t *testing.T) {
	var b Board

	p, ok := Spawn(&b, PieceT, SpawnRow19)
	require.True(t, ok)
	assert.Equal(t, int8(4), p.X)
	assert.Equal(t, int8(19), p.Y)

	// Row 21 spawns fall one row immediately when free.
	p, ok = Spawn(&b, PieceT, SpawnRow21)
	require.True(t, ok)
	assert.Equal(t, int8(20), p.Y)
}

func TestSpawnBlockedIsTopOut(t *testing.T) {
	var b Board
	b.Fill(4, 20) // blocks the T's top cell at row 19 and its anchor at row 20
	b.Fill(4, 21)
	_, ok := Spawn(&b, PieceT, SpawnRow19)
	assert.False(t, ok)
}

func TestRotateOnEmptyBoardUsesFirstKick(t *testing.T) {
	var b Board
	p, ok := Spawn(&b, PieceT, SpawnRow19)
	require.True(t, ok)

	r, kick, ok := p.Rotate(&b, true)
	require.True(t, ok)
	assert.Equal(t, East, r.Rot)
	assert.Equal(t, 0, kick)
	assert.Equal(t,
		sortedCells([4]Cell{{4, 18}, {4, 19}, {5, 19}, {4, 20}}),
		sortedCells(r.Cells()))
}

func TestRotateAtFloorWalksKickTable(t *testing.T) {
	var b Board
	p := FallingPiece{Kind: PieceT, Rot: North, X: 4, Y: 0}
	require.False(t, p.Collides(&b))

	// The naive rotation puts a cell below the floor; the (-1, +1)
	// kick at index 2 is the first that fits.
	r, kick, ok := p.Rotate(&b, true)
	require.True(t, ok)
	assert.Equal(t, East, r.Rot)
	assert.Equal(t, 2, kick)
	assert.Equal(t, int8(3), r.X)
	assert.Equal(t, int8(1), r.Y)
}

func TestRotateORetainsCells(t *testing.T) {
	var b Board
	p := FallingPiece{Kind: PieceO, Rot: North, X: 4, Y: 5}
	before := sortedCells(p.Cells())
	for i := 0; i < 4; i++ {
		var ok bool
		p, _, ok = p.Rotate(&b, true)
		require.True(t, ok)
		assert.Equal(t, before, sortedCells(p.Cells()))
	}
	assert.Equal(t, North, p.Rot)
}

func TestRotateAllKicksFail(t *testing.T) {
	var b Board
	for y := int8(0); y < 4; y++ {
		for x := int8(0); x < Width; x++ {
			if x != 4 {
				b.Fill(x, y)
			}
		}
	}
	b.Fill(4, 4)
	// An I piece standing in a one-wide shaft cannot turn flat.
	p := FallingPiece{Kind: PieceI, Rot: East, X: 4, Y: 2}
	require.False(t, p.Collides(&b))
	_, _, ok := p.Rotate(&b, true)
	assert.False(t, ok)
}

func TestSoftDropAndGround(t *testing.T) {
	var b Board
	b.Fill(4, 0)
	p, ok := Spawn(&b, PieceO, SpawnRow19)
	require.True(t, ok)

	dropped := p.SoftDrop(&b)
	assert.True(t, dropped.OnGround(&b))
	assert.Equal(t, int8(1), dropped.Y) // rests on the (4, 0) cell
	assert.False(t, p.OnGround(&b))
}

func TestShiftAgainstWall(t *testing.T) {
	var b Board
	p := FallingPiece{Kind: PieceI, Rot: North, X: 1, Y: 5} // cells 0..3
	_, ok := p.Shift(&b, -1)
	assert.False(t, ok)
	moved, ok := p.Shift(&b, 1)
	require.True(t, ok)
	assert.Equal(t, int8(2), moved.X)
}

func TestExecutePathReplaysMovements(t *testing.T) {
	var b Board
	path := []Movement{MoveCW, MoveLeft, MoveLeft, MoveDrop}
	p, ok := ExecutePath(&b, PieceL, SpawnRow19, path)
	require.True(t, ok)
	assert.True(t, p.OnGround(&b))
	assert.Equal(t, East, p.Rot)
}
