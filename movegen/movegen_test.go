package movegen

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/icefall/tetris"
)

func cellKey(cells [4]tetris.Cell) string {
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
	return fmt.Sprint(cells)
}

func TestHardDropEmptyBoardIPlacements(t *testing.T) {
	var b tetris.Board
	placements := Generate(&b, tetris.PieceI, ModeHardDropOnly, tetris.SpawnRow19)
	// 7 flat positions plus 10 vertical columns.
	assert.Len(t, placements, 17)
}

func TestHardDropEmptyBoardCounts(t *testing.T) {
	var b tetris.Board
	for _, tc := range []struct {
		kind tetris.Piece
		want int
	}{
		{tetris.PieceO, 9},
		{tetris.PieceS, 17},
		{tetris.PieceZ, 17},
		{tetris.PieceT, 34},
		{tetris.PieceL, 34},
		{tetris.PieceJ, 34},
	} {
		placements := Generate(&b, tc.kind, ModeHardDropOnly, tetris.SpawnRow19)
		assert.Len(t, placements, tc.want, "piece %s", tc.kind)
	}
}

func TestNoDuplicatePlacements(t *testing.T) {
	var b tetris.Board
	b.Fill(0, 0)
	b.Fill(9, 0)
	b.Fill(9, 1)
	for _, mode := range []Mode{ModeZeroG, Mode20G, ModeHardDropOnly} {
		for kind := tetris.Piece(0); kind < tetris.PieceCount; kind++ {
			seen := map[string]bool{}
			for _, pl := range Generate(&b, kind, mode, tetris.SpawnRow19) {
				key := cellKey(pl.Cells())
				assert.False(t, seen[key], "duplicate %s under mode %s: %s", kind, mode, key)
				seen[key] = true
			}
		}
	}
}

// Executing a placement's path from spawn must terminate in the
// declared final cells.
func TestPathsReplayToDeclaredCells(t *testing.T) {
	var b tetris.Board
	for y := int8(0); y < 4; y++ {
		for x := int8(0); x < 6; x++ {
			if (int(x)+int(y))%3 != 0 {
				b.Fill(x, y)
			}
		}
	}
	for _, mode := range []Mode{ModeZeroG, Mode20G} {
		for kind := tetris.Piece(0); kind < tetris.PieceCount; kind++ {
			for _, pl := range Generate(&b, kind, mode, tetris.SpawnRow19) {
				require.LessOrEqual(t, len(pl.Path), tetris.MaxPathLen)
				got, ok := tetris.ExecutePath(&b, kind, tetris.SpawnRow19, pl.Path)
				require.True(t, ok, "path failed for %s %v", kind, pl.Path)
				assert.Equal(t, cellKey(pl.Cells()), cellKey(got.Cells()),
					"mode %s piece %s path %v", mode, kind, pl.Path)
			}
		}
	}
}

func TestBlockedSpawnYieldsNothing(t *testing.T) {
	var b tetris.Board
	for x := int8(0); x < tetris.Width; x++ {
		b.Fill(x, 19)
		b.Fill(x, 20)
		b.Fill(x, 21)
		b.Fill(x, 22)
	}
	for _, mode := range []Mode{ModeZeroG, Mode20G, ModeHardDropOnly} {
		assert.Empty(t, Generate(&b, tetris.PieceT, mode, tetris.SpawnRow19), "mode %s", mode)
	}
}

// A canonical T-spin double slot must yield a reachable full-spin
// placement that clears two rows.
func TestTspinDoubleReachable(t *testing.T) {
	var b tetris.Board
	for x := int8(0); x < tetris.Width; x++ {
		if x != 4 {
			b.Fill(x, 0)
		}
		if x < 3 || x > 5 {
			b.Fill(x, 1)
		}
	}
	b.Fill(3, 2)

	var found bool
	for _, pl := range Generate(&b, tetris.PieceT, ModeZeroG, tetris.SpawnRow19) {
		if pl.Tspin != tetris.TspinFull {
			continue
		}
		fp := tetris.FallingPiece{Kind: pl.Kind, Rot: pl.Rot, X: pl.X, Y: pl.Y}
		_, res := b.Lock(fp, pl.Tspin)
		if res.Cleared == 2 {
			found = true
		}
	}
	assert.True(t, found, "no full T-spin double placement generated")
}

func TestTwentyGPathsCarryDrops(t *testing.T) {
	var b tetris.Board
	for _, pl := range Generate(&b, tetris.PieceJ, Mode20G, tetris.SpawnRow19) {
		if len(pl.Path) == 0 {
			continue
		}
		assert.Equal(t, tetris.MoveDrop, pl.Path[0],
			"20G paths start with the spawn snap: %v", pl.Path)
	}
}

func TestZeroGFindsTucks(t *testing.T) {
	// An overhang at (0..2, 3) with room underneath: only a slide under
	// the lip reaches (0..3, 0)-ish cells.
	var b tetris.Board
	b.Fill(0, 3)
	b.Fill(1, 3)
	b.Fill(2, 3)

	placements := Generate(&b, tetris.PieceI, ModeZeroG, tetris.SpawnRow19)
	var tucked *Placement
	for i, pl := range placements {
		if pl.Rot == tetris.North && pl.Y == 0 && pl.X == 1 {
			tucked = &placements[i]
		}
	}
	require.NotNil(t, tucked, "flat I under the overhang not found")
	got, ok := tetris.ExecutePath(&b, tetris.PieceI, tetris.SpawnRow19, tucked.Path)
	require.True(t, ok)
	assert.Equal(t, cellKey(tucked.Cells()), cellKey(got.Cells()))
}
