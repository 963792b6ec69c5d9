package tetris

// Metrics are pure functions of the board consumed by the evaluator.
type Metrics struct {
	Heights   [Width]int8
	MaxHeight int8

	Bumpiness   int32
	BumpinessSq int32

	RowTransitions int32

	CavityCells     int32 // empty cells below their column height
	CavityCellsSq   int32 // per-column cavity count squared, summed
	OverhangCells   int32 // filled cells with an empty cell directly below
	OverhangCellsSq int32
	CoveredCells    int32 // empty cells with a filled cell directly above
	CoveredCellsSq  int32

	TopHalf    int32 // filled cells at y >= 10
	TopQuarter int32 // filled cells at y >= 15

	WellDepth  int32
	WellColumn int8 // -1 when no well exists

	// TSlots counts T-slot configurations: shallow single, shallow
	// double, deep double-or-triple, and triple.
	TSlots [4]int32
}

// ComputeMetrics measures the board.
func ComputeMetrics(b *Board) Metrics {
	m := Metrics{WellColumn: -1}
	for x := int8(0); x < Width; x++ {
		m.Heights[x] = b.ColumnHeight(x)
		if m.Heights[x] > m.MaxHeight {
			m.MaxHeight = m.Heights[x]
		}
	}

	for x := int8(0); x+1 < Width; x++ {
		d := int32(m.Heights[x] - m.Heights[x+1])
		if d < 0 {
			d = -d
		}
		m.Bumpiness += d
		m.BumpinessSq += d * d
	}

	for y := int8(0); y < m.MaxHeight; y++ {
		prev := true // wall
		for x := int8(0); x < Width; x++ {
			cur := b.Occupied(x, y)
			if cur != prev {
				m.RowTransitions++
			}
			prev = cur
		}
		if !prev {
			m.RowTransitions++
		}
	}

	for x := int8(0); x < Width; x++ {
		var cav, over, cov int32
		for y := int8(0); y < m.Heights[x]; y++ {
			if !b.Occupied(x, y) {
				cav++
				if b.Occupied(x, y+1) {
					cov++
				}
			} else if y > 0 && !b.Occupied(x, y-1) {
				over++
			}
		}
		m.CavityCells += cav
		m.CavityCellsSq += cav * cav
		m.OverhangCells += over
		m.OverhangCellsSq += over * over
		m.CoveredCells += cov
		m.CoveredCellsSq += cov * cov
	}

	for y := int8(10); y < m.MaxHeight; y++ {
		n := int32(popcount10(b[y]))
		m.TopHalf += n
		if y >= 15 {
			m.TopQuarter += n
		}
	}

	for x := int8(0); x < Width; x++ {
		left, right := int8(Height), int8(Height)
		if x > 0 {
			left = m.Heights[x-1]
		}
		if x < Width-1 {
			right = m.Heights[x+1]
		}
		lo := left
		if right < lo {
			lo = right
		}
		depth := int32(lo - m.Heights[x])
		if depth > m.WellDepth {
			m.WellDepth = depth
			m.WellColumn = x
		}
	}
	if m.WellDepth <= 0 {
		m.WellDepth = 0
		m.WellColumn = -1
	}

	m.TSlots = countTSlots(b)
	return m
}

func popcount10(row uint16) int {
	n := 0
	for row != 0 {
		row &= row - 1
		n++
	}
	return n
}

// countTSlots scans for the four T-slot configurations. A slot at center
// (x, y) holds a point-down T: the three top cells and the notch below
// the center are empty, both bottom corners are filled, and at least one
// top corner caps the slot. The rows then decide the configuration:
//
//	[0] shallow single:  only the notch row completes
//	[1] shallow double:  notch row and center row both complete
//	[2] deep double:     as [1] with the cell two rows above the center filled
//	[3] triple:          a sideways T in a three-row slot
func countTSlots(b *Board) [4]int32 {
	var out [4]int32
	for x := int8(1); x < Width-1; x++ {
		for y := int8(1); y < VisibleHeight; y++ {
			if b.Occupied(x-1, y) || b.Occupied(x, y) || b.Occupied(x+1, y) || b.Occupied(x, y-1) {
				continue
			}
			if !b.Occupied(x-1, y-1) || !b.Occupied(x+1, y-1) {
				continue
			}
			if !b.Occupied(x-1, y+1) && !b.Occupied(x+1, y+1) {
				continue
			}
			notchRow := b[y-1]|1<<uint(x) == fullRow
			if !notchRow {
				continue
			}
			centerRow := b[y]|7<<uint(x-1) == fullRow
			switch {
			case centerRow && b.Occupied(x, y+2):
				out[2]++
			case centerRow:
				out[1]++
			default:
				out[0]++
			}
		}
	}

	// Sideways T slots three rows tall, open to the left or the right.
	for x := int8(0); x < Width; x++ {
		for y := int8(1); y+1 < VisibleHeight; y++ {
			if b.Occupied(x, y-1) || b.Occupied(x, y) || b.Occupied(x, y+1) {
				continue
			}
			spine := b[y-1]|1<<uint(x) == fullRow &&
				b[y+1]|1<<uint(x) == fullRow
			if !spine {
				continue
			}
			if x+1 < Width && !b.Occupied(x+1, y) &&
				b[y]|1<<uint(x)|1<<uint(x+1) == fullRow {
				out[3]++
			}
			if x > 0 && !b.Occupied(x-1, y) &&
				b[y]|1<<uint(x)|1<<uint(x-1) == fullRow {
				out[3]++
			}
		}
	}
	return out
}
