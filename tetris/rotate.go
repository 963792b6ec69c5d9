package tetris

// Kick offsets follow the standard guideline rotation system, expressed
// as per-state offset tables: the kick sequence for a rotation from
// state a to state b is offsets[a][i] - offsets[b][i]. The I piece
// carries its own table; the O piece has a single compensating offset so
// that rotation never moves its cells.
var (
	offsetsJLSTZ = [4][5]Cell{
		North: {{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
		East:  {{0, 0}, {1, 0}, {1, -1}, {0, 2}, {1, 2}},
		South: {{0, 0}, {0, 0}, {0, 0}, {0, 0}, {0, 0}},
		West:  {{0, 0}, {-1, 0}, {-1, -1}, {0, 2}, {-1, 2}},
	}
	offsetsI = [4][5]Cell{
		North: {{0, 0}, {-1, 0}, {2, 0}, {-1, 0}, {2, 0}},
		East:  {{-1, 0}, {0, 0}, {0, 0}, {0, 1}, {0, -2}},
		South: {{-1, 1}, {1, 1}, {-2, 1}, {1, 0}, {-2, 0}},
		West:  {{0, 1}, {0, 1}, {0, 1}, {0, -1}, {0, 2}},
	}
	offsetsO = [4][5]Cell{
		North: {{0, 0}},
		East:  {{0, -1}},
		South: {{-1, -1}},
		West:  {{-1, 0}},
	}
)

// kickCount is the number of kicks attempted per rotation; the O piece
// only ever uses the first.
const kickCount = 5

// LastKick is the index of the final, large kick offset. A T rotation
// accepted at this index upgrades a mini T-spin to a full one.
const LastKick = kickCount - 1

func offsetTable(kind Piece) *[4][5]Cell {
	switch kind {
	case PieceI:
		return &offsetsI
	case PieceO:
		return &offsetsO
	default:
		return &offsetsJLSTZ
	}
}

// Rotate applies a rotation and walks the kick table, returning the
// first collision-free position together with the accepted kick index.
// ok is false when every kick fails.
func (p FallingPiece) Rotate(b *Board, cw bool) (FallingPiece, int, bool) {
	from := p.Rot
	to := from.CW()
	if !cw {
		to = from.CCW()
	}

	table := offsetTable(p.Kind)
	n := kickCount
	if p.Kind == PieceO {
		n = 1
	}
	for i := 0; i < n; i++ {
		dx := table[from][i].X - table[to][i].X
		dy := table[from][i].Y - table[to][i].Y
		cand := FallingPiece{p.Kind, to, p.X + dx, p.Y + dy}
		if !cand.Collides(b) {
			return cand, i, true
		}
	}
	return p, -1, false
}
