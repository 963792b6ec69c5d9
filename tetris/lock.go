package tetris

// TspinStatus classifies the rotation state of a locked T piece.
type TspinStatus uint8

const (
	TspinNone TspinStatus = iota
	TspinMini
	TspinFull
)

func (t TspinStatus) String() string {
	switch t {
	case TspinMini:
		return "mini"
	case TspinFull:
		return "full"
	}
	return "none"
}

// LockResult reports everything a lock produced.
type LockResult struct {
	Piece        Piece
	Cells        [4]Cell
	Cleared      int
	ClearedRows  [4]int8 // row indices before clearing, bottom-up; -1 when absent
	Tspin        TspinStatus
	PerfectClear bool
	ToppedOut    bool
}

// frontCorners gives the two corner offsets on the pointing side of a T
// piece per rotation state, around the anchor cell.
var frontCorners = [4][2]Cell{
	North: {{-1, 1}, {1, 1}},
	East:  {{1, 1}, {1, -1}},
	South: {{-1, -1}, {1, -1}},
	West:  {{-1, 1}, {-1, -1}},
}

var allCorners = [4]Cell{{-1, 1}, {1, 1}, {-1, -1}, {1, -1}}

// ClassifyTspin applies the three-corner rule to a piece about to lock.
// Non-T pieces and locks whose last move was not a rotation never spin.
func ClassifyTspin(b *Board, p FallingPiece, lastMoveRotation bool, kick int) TspinStatus {
	if p.Kind != PieceT || !lastMoveRotation {
		return TspinNone
	}
	filled := 0
	for _, c := range allCorners {
		if b.Occupied(p.X+c.X, p.Y+c.Y) {
			filled++
		}
	}
	if filled < 3 {
		return TspinNone
	}
	front := 0
	for _, c := range frontCorners[p.Rot] {
		if b.Occupied(p.X+c.X, p.Y+c.Y) {
			front++
		}
	}
	if front == 2 {
		return TspinFull
	}
	if kick == LastKick {
		return TspinFull
	}
	return TspinMini
}

// Lock writes the piece into the board, clears full rows in one pass
// with the rows above cascading down, and reports the outcome. The T-spin status is established by the
// caller before locking, since it depends on how the piece arrived.
func (b Board) Lock(p FallingPiece, tspin TspinStatus) (Board, LockResult) {
	res := LockResult{Piece: p.Kind, Cells: p.Cells(), Tspin: tspin, ClearedRows: [4]int8{-1, -1, -1, -1}}
	above := false
	for _, c := range res.Cells {
		if c.Y >= Height {
			above = true
			continue
		}
		b.Fill(c.X, c.Y)
	}
	rows := b.clearFullRows()
	res.Cleared = len(rows)
	for i, y := range rows {
		if i < len(res.ClearedRows) {
			res.ClearedRows[i] = y
		}
	}
	res.PerfectClear = b.Empty()
	res.ToppedOut = above || b.ToppedOut()
	return b, res
}

// Difficult reports whether the clear preserves back-to-back status: a
// tetris or any T-spin line clear.
func (r LockResult) Difficult() bool {
	return r.Cleared == 4 || (r.Tspin != TspinNone && r.Cleared > 0)
}
