package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tsdBoard builds the canonical T-spin double slot: a notch at column 4
// under an overhang at (3, 2), rows 0 and 1 otherwise complete.
func tsdBoard() Board {
	var b Board
	for x := int8(0); x < Width; x++ {
		if x != 4 {
			b.Fill(x, 0)
		}
		if x < 3 || x > 5 {
			b.Fill(x, 1)
		}
	}
	b.Fill(3, 2)
	return b
}

func TestLockClearsLines(t *testing.T) {
	var b Board
	for x := int8(0); x < Width-4; x++ {
		b.Fill(x, 0)
	}
	// An I piece completes the bottom row.
	p := FallingPiece{Kind: PieceI, Rot: North, X: 7, Y: 0}
	next, res := b.Lock(p, TspinNone)
	require.Equal(t, 1, res.Cleared)
	assert.Equal(t, int8(0), res.ClearedRows[0])
	assert.Equal(t, int8(-1), res.ClearedRows[1])
	assert.True(t, next.Empty())
	assert.True(t, res.PerfectClear)
	assert.False(t, res.ToppedOut)
	assert.Equal(t, PieceI, res.Piece)
}

func TestLockWithoutClear(t *testing.T) {
	var b Board
	p := FallingPiece{Kind: PieceO, Rot: North, X: 0, Y: 0}
	next, res := b.Lock(p, TspinNone)
	assert.Equal(t, 0, res.Cleared)
	assert.False(t, res.PerfectClear)
	assert.True(t, next.Occupied(0, 0))
	assert.True(t, next.Occupied(1, 1))
}

func TestLockInDangerZoneTopsOut(t *testing.T) {
	var b Board
	p := FallingPiece{Kind: PieceO, Rot: North, X: 4, Y: VisibleHeight}
	_, res := b.Lock(p, TspinNone)
	assert.True(t, res.ToppedOut)
}

func TestTspinDoubleClassification(t *testing.T) {
	b := tsdBoard()
	// T pointing down, wedged into the notch.
	p := FallingPiece{Kind: PieceT, Rot: South, X: 4, Y: 1}
	require.False(t, p.Collides(&b))

	status := ClassifyTspin(&b, p, true, 0)
	assert.Equal(t, TspinFull, status)

	// Without a final rotation there is no spin at all.
	assert.Equal(t, TspinNone, ClassifyTspin(&b, p, false, 0))

	next, res := b.Lock(p, status)
	assert.Equal(t, 2, res.Cleared)
	assert.Equal(t, TspinFull, res.Tspin)
	assert.True(t, res.Difficult())
	assert.True(t, next.Occupied(3, 0)) // the overhang cell cascades down
}

func TestTspinMiniAndKickUpgrade(t *testing.T) {
	var b Board
	// Only one front corner and one back corner filled: a mini.
	b.Fill(3, 0)
	b.Fill(3, 2)
	b.Fill(5, 2)
	p := FallingPiece{Kind: PieceT, Rot: South, X: 4, Y: 1}
	require.False(t, p.Collides(&b))
	assert.Equal(t, TspinMini, ClassifyTspin(&b, p, true, 0))

	// The final large kick upgrades it to a full spin.
	assert.Equal(t, TspinFull, ClassifyTspin(&b, p, true, LastKick))
}

func TestNonTPiecesNeverSpin(t *testing.T) {
	b := tsdBoard()
	p := FallingPiece{Kind: PieceS, Rot: South, X: 4, Y: 1}
	assert.Equal(t, TspinNone, ClassifyTspin(&b, p, true, 0))
}

// mirrorBoard reflects a board left-right.
func mirrorBoard(b Board) Board {
	var out Board
	for y := int8(0); y < Height; y++ {
		for x := int8(0); x < Width; x++ {
			if b.Occupied(x, y) {
				out.Fill(Width-1-x, y)
			}
		}
	}
	return out
}

// The three-corner rule itself is reflection symmetric: mirroring the
// board and the piece (east/west swap) preserves the classification, as
// long as no kick-dependent upgrade is involved.
func TestTspinClassificationMirrors(t *testing.T) {
	b := tsdBoard()
	p := FallingPiece{Kind: PieceT, Rot: South, X: 4, Y: 1}
	mb := mirrorBoard(b)
	mp := FallingPiece{Kind: PieceT, Rot: South, X: Width - 1 - p.X, Y: p.Y}
	require.False(t, mp.Collides(&mb))
	assert.Equal(t,
		ClassifyTspin(&b, p, true, 0),
		ClassifyTspin(&mb, mp, true, 0))
}

func TestDifficultClears(t *testing.T) {
	assert.True(t, LockResult{Cleared: 4}.Difficult())
	assert.False(t, LockResult{Cleared: 3}.Difficult())
	assert.True(t, LockResult{Cleared: 1, Tspin: TspinMini}.Difficult())
	assert.False(t, LockResult{Cleared: 0, Tspin: TspinFull}.Difficult())
}
