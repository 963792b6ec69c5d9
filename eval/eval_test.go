package eval

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icefall/tetris"
)

func TestTransientClearRewards(t *testing.T) {
	w := DefaultWeights()
	e := New(w)

	res := tetris.LockResult{Piece: tetris.PieceI, Cleared: 4}
	got := e.Transient(res, false, 1, 3)
	assert.Equal(t, w.Clear4+w.ComboGarbage*1+w.MoveTime*3, got)
}

func TestTransientTspinAndB2B(t *testing.T) {
	w := DefaultWeights()
	e := New(w)

	res := tetris.LockResult{Piece: tetris.PieceT, Cleared: 2, Tspin: tetris.TspinFull}
	got := e.Transient(res, true, 1, 0)
	assert.Equal(t, w.Tspin2+w.B2BClear+w.ComboGarbage*1, got)

	// A non-difficult clear breaks the streak without the bonus.
	res = tetris.LockResult{Piece: tetris.PieceL, Cleared: 1}
	got = e.Transient(res, true, 1, 0)
	assert.Equal(t, w.Clear1+w.ComboGarbage*1, got)
}

func TestTransientWastedT(t *testing.T) {
	w := DefaultWeights()
	e := New(w)
	res := tetris.LockResult{Piece: tetris.PieceT}
	assert.Equal(t, w.WastedT, e.Transient(res, false, 0, 0))
}

func TestTransientPerfectClearCountedOnce(t *testing.T) {
	w := DefaultWeights()
	w.StackPCDamage = false
	e := New(w)

	res := tetris.LockResult{Piece: tetris.PieceO, Cleared: 2, PerfectClear: true}
	got := e.Transient(res, false, 1, 2)
	// The perfect clear replaces the ordinary clear scoring.
	assert.Equal(t, w.PerfectClear+w.MoveTime*2, got)

	w.StackPCDamage = true
	e = New(w)
	got = e.Transient(res, false, 1, 2)
	assert.Equal(t, w.PerfectClear+w.Clear2+w.ComboGarbage*1+w.MoveTime*2, got)
}

func TestAccumulatedPrefersCleanBoards(t *testing.T) {
	e := New(DefaultWeights())

	var clean tetris.Board
	var holey tetris.Board
	for x := int8(0); x < tetris.Width; x++ {
		holey.Fill(x, 3)
	}
	assert.Greater(t, e.Accumulated(&clean, false, 0),
		e.Accumulated(&holey, false, 0))
}

func TestAccumulatedBackToBack(t *testing.T) {
	w := DefaultWeights()
	e := New(w)
	var b tetris.Board
	assert.Equal(t, w.BackToBack,
		e.Accumulated(&b, true, 0)-e.Accumulated(&b, false, 0))
}

func TestAccumulatedJeopardy(t *testing.T) {
	w := DefaultWeights()
	w.TimedJeopardy = false
	e := New(w)

	var tall tetris.Board
	for y := int8(0); y < 15; y++ {
		tall.Fill(0, y)
	}
	calm := e.Accumulated(&tall, false, 0)
	risky := e.Accumulated(&tall, false, 4)
	assert.Less(t, risky, calm)
}

func TestAccumulatedMemoized(t *testing.T) {
	e := New(DefaultWeights())
	var b tetris.Board
	b.Fill(3, 0)
	first := e.Accumulated(&b, false, 0)
	assert.Equal(t, first, e.Accumulated(&b, false, 0))
}

func TestWeightsTOMLRoundTrip(t *testing.T) {
	w := DefaultWeights()
	w.Clear4 = 1234
	w.TSlot[2] = -77
	w.UseBag = false

	var buf bytes.Buffer
	require.NoError(t, WriteWeights(&buf, w))

	path := filepath.Join(t.TempDir(), "weights.toml")
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	got, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, w, got)
}

func TestLoadWeightsMissingFile(t *testing.T) {
	_, err := LoadWeights(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestPresetsDiffer(t *testing.T) {
	assert.NotEqual(t, DefaultWeights(), FastWeights())
}
