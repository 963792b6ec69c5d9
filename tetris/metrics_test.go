package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsEmptyBoard(t *testing.T) {
	var b Board
	m := ComputeMetrics(&b)
	assert.Equal(t, int8(0), m.MaxHeight)
	assert.Equal(t, int32(0), m.Bumpiness)
	assert.Equal(t, int32(0), m.CavityCells)
	assert.Equal(t, int32(0), m.RowTransitions)
	assert.Equal(t, int8(-1), m.WellColumn)
}

func TestMetricsHeightsAndBumpiness(t *testing.T) {
	var b Board
	// Columns 0..2 of heights 3, 1, 2.
	for y := int8(0); y < 3; y++ {
		b.Fill(0, y)
	}
	b.Fill(1, 0)
	b.Fill(2, 0)
	b.Fill(2, 1)

	m := ComputeMetrics(&b)
	assert.Equal(t, int8(3), m.Heights[0])
	assert.Equal(t, int8(1), m.Heights[1])
	assert.Equal(t, int8(2), m.Heights[2])
	assert.Equal(t, int8(3), m.MaxHeight)
	// |3-1| + |1-2| + |2-0| = 5, squares 4 + 1 + 4 = 9.
	assert.Equal(t, int32(5), m.Bumpiness)
	assert.Equal(t, int32(9), m.BumpinessSq)
}

func TestMetricsCavitiesOverhangsCovered(t *testing.T) {
	var b Board
	// Column 2: filled at y=2 and y=4 over empties at y=0,1,3.
	b.Fill(2, 2)
	b.Fill(2, 4)

	m := ComputeMetrics(&b)
	assert.Equal(t, int32(3), m.CavityCells)  // y=0,1,3
	assert.Equal(t, int32(9), m.CavityCellsSq)
	assert.Equal(t, int32(2), m.OverhangCells) // both filled cells sit over air
	assert.Equal(t, int32(2), m.CoveredCells)  // y=1 and y=3 sit under fill
}

func TestMetricsWell(t *testing.T) {
	var b Board
	// Columns 3 and 5 four tall, column 4 empty: a depth-4 well.
	for y := int8(0); y < 4; y++ {
		b.Fill(3, y)
		b.Fill(5, y)
	}
	m := ComputeMetrics(&b)
	assert.Equal(t, int8(4), m.WellColumn)
	assert.Equal(t, int32(4), m.WellDepth)
}

func TestMetricsTopHalfQuarter(t *testing.T) {
	var b Board
	b.Fill(0, 12)
	b.Fill(0, 16)
	b.Fill(0, 17)
	m := ComputeMetrics(&b)
	assert.Equal(t, int32(3), m.TopHalf)
	assert.Equal(t, int32(2), m.TopQuarter)
}

func TestMetricsRowTransitions(t *testing.T) {
	var b Board
	// Row 0: one filled cell at x=4 gives wall->empty, empty->filled,
	// filled->empty, empty->wall: 4 transitions.
	b.Fill(4, 0)
	m := ComputeMetrics(&b)
	assert.Equal(t, int32(4), m.RowTransitions)
}

func TestMetricsTSlotShallowDouble(t *testing.T) {
	b := tsdBoard()
	m := ComputeMetrics(&b)
	require.Equal(t, int32(1), m.TSlots[1], "expected one shallow double slot")
	assert.Equal(t, int32(0), m.TSlots[0])
	assert.Equal(t, int32(0), m.TSlots[2])
}

func TestMetricsTSlotDeep(t *testing.T) {
	b := tsdBoard()
	b.Fill(4, 3) // thicken the cap over the slot center
	m := ComputeMetrics(&b)
	assert.Equal(t, int32(1), m.TSlots[2])
	assert.Equal(t, int32(0), m.TSlots[1])
}

func TestMetricsTSlotTriple(t *testing.T) {
	var b Board
	// A one-wide shaft at column 0, three rows deep, with the notch
	// cell open at (1, 1): the classic T-spin triple shape.
	for x := int8(0); x < Width; x++ {
		switch {
		case x == 0:
		case x == 1:
			b.Fill(x, 0)
			b.Fill(x, 2)
		default:
			b.Fill(x, 0)
			b.Fill(x, 1)
			b.Fill(x, 2)
		}
	}
	m := ComputeMetrics(&b)
	assert.Equal(t, int32(1), m.TSlots[3])
}
