package tetris

// Piece identifies a tetromino shape. The enumeration order is part of
// the external contract and must not change.
type Piece uint8

const (
	PieceI Piece = iota
	PieceT
	PieceO
	PieceS
	PieceZ
	PieceL
	PieceJ
	NoPiece
)

// PieceCount is the number of distinct tetromino shapes.
const PieceCount = 7

func (p Piece) String() string {
	if p >= PieceCount {
		return "?"
	}
	return string("ITOSZLJ"[p])
}

// PieceFromRune parses a single-letter piece name.
func PieceFromRune(r rune) (Piece, bool) {
	switch r {
	case 'I', 'i':
		return PieceI, true
	case 'T', 't':
		return PieceT, true
	case 'O', 'o':
		return PieceO, true
	case 'S', 's':
		return PieceS, true
	case 'Z', 'z':
		return PieceZ, true
	case 'L', 'l':
		return PieceL, true
	case 'J', 'j':
		return PieceJ, true
	}
	return NoPiece, false
}

// Rotation is one of the four orientation states.
type Rotation uint8

const (
	North Rotation = iota
	East
	South
	West
)

// CW returns the state after a clockwise rotation.
func (r Rotation) CW() Rotation { return (r + 1) & 3 }

// CCW returns the state after a counter-clockwise rotation.
func (r Rotation) CCW() Rotation { return (r + 3) & 3 }

func (r Rotation) String() string {
	return [...]string{"north", "east", "south", "west"}[r&3]
}

// Cell is a playfield coordinate.
type Cell struct {
	X, Y int8
}

// baseCells holds each shape's four cells in the north state, relative to
// the rotation anchor.
var baseCells = [PieceCount][4]Cell{
	PieceI: {{-1, 0}, {0, 0}, {1, 0}, {2, 0}},
	PieceT: {{-1, 0}, {0, 0}, {1, 0}, {0, 1}},
	PieceO: {{0, 0}, {1, 0}, {0, 1}, {1, 1}},
	PieceS: {{-1, 0}, {0, 0}, {0, 1}, {1, 1}},
	PieceZ: {{1, 0}, {0, 0}, {0, 1}, {-1, 1}},
	PieceL: {{-1, 0}, {0, 0}, {1, 0}, {1, 1}},
	PieceJ: {{-1, 0}, {0, 0}, {1, 0}, {-1, 1}},
}

// pieceCells is baseCells expanded to all four rotation states.
var pieceCells [PieceCount][4][4]Cell

func init() {
	for p := Piece(0); p < PieceCount; p++ {
		pieceCells[p][North] = baseCells[p]
		for r := East; r <= West; r++ {
			for i, c := range pieceCells[p][r-1] {
				// clockwise about the anchor: (x, y) -> (y, -x)
				pieceCells[p][r][i] = Cell{c.Y, -c.X}
			}
		}
	}
}

// FallingPiece is a piece in flight: a shape, an orientation, and the
// anchor position on the board.
type FallingPiece struct {
	Kind Piece
	Rot  Rotation
	X, Y int8
}

// Cells returns the four absolute cells the piece occupies.
func (p FallingPiece) Cells() [4]Cell {
	var cells [4]Cell
	for i, c := range pieceCells[p.Kind][p.Rot] {
		cells[i] = Cell{p.X + c.X, p.Y + c.Y}
	}
	return cells
}

// Collides reports whether any cell of the piece overlaps the board or
// its walls.
func (p FallingPiece) Collides(b *Board) bool {
	for _, c := range p.Cells() {
		if b.Occupied(c.X, c.Y) {
			return true
		}
	}
	return false
}

// SpawnRule selects where pieces enter the field.
type SpawnRule uint8

const (
	// SpawnRow19 places the piece on rows 19/20, nudging it up one row
	// when blocked.
	SpawnRow19 SpawnRule = iota
	// SpawnRow21 places the piece on row 21 and drops it one row
	// immediately when the cell below is free.
	SpawnRow21
)

// Spawn places a new piece of the given kind. ok is false when every
// spawn position is blocked, which is a top out.
func Spawn(b *Board, kind Piece, rule SpawnRule) (FallingPiece, bool) {
	p := FallingPiece{Kind: kind, Rot: North, X: 4, Y: 19}
	switch rule {
	case SpawnRow21:
		p.Y = 21
		if p.Collides(b) {
			return p, false
		}
		if down := (FallingPiece{p.Kind, p.Rot, p.X, p.Y - 1}); !down.Collides(b) {
			p = down
		}
		return p, true
	default:
		if !p.Collides(b) {
			return p, true
		}
		p.Y = 20
		if !p.Collides(b) {
			return p, true
		}
		return p, false
	}
}

// Shift moves the piece one column. ok is false when the move collides.
func (p FallingPiece) Shift(b *Board, dx int8) (FallingPiece, bool) {
	moved := FallingPiece{p.Kind, p.Rot, p.X + dx, p.Y}
	if moved.Collides(b) {
		return p, false
	}
	return moved, true
}

// StepDown moves the piece one row down. ok is false when the piece is
// resting on support.
func (p FallingPiece) StepDown(b *Board) (FallingPiece, bool) {
	moved := FallingPiece{p.Kind, p.Rot, p.X, p.Y - 1}
	if moved.Collides(b) {
		return p, false
	}
	return moved, true
}

// SoftDrop translates the piece down until the next step would collide.
func (p FallingPiece) SoftDrop(b *Board) FallingPiece {
	for {
		next, ok := p.StepDown(b)
		if !ok {
			return p
		}
		p = next
	}
}

// OnGround reports whether the piece rests on support.
func (p FallingPiece) OnGround(b *Board) bool {
	_, ok := p.StepDown(b)
	return !ok
}
