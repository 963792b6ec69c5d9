package tetris

// Bag is the set of pieces still to be drawn from the current seven-piece
// bag, one bit per piece.
type Bag uint8

// FullBag contains all seven pieces.
const FullBag Bag = 1<<PieceCount - 1

// Contains reports whether the piece is still in the bag.
func (g Bag) Contains(p Piece) bool {
	return p < PieceCount && g&(1<<p) != 0
}

// Count returns how many pieces remain.
func (g Bag) Count() int {
	n := 0
	for p := Piece(0); p < PieceCount; p++ {
		if g.Contains(p) {
			n++
		}
	}
	return n
}

// Remove draws a piece from the bag, refilling it when the last piece is
// drawn. ok is false when the piece was not in the bag.
func (g Bag) Remove(p Piece) (Bag, bool) {
	if !g.Contains(p) {
		return g, false
	}
	g &^= 1 << p
	if g == 0 {
		g = FullBag
	}
	return g, true
}

// Pieces lists the remaining pieces in enumeration order.
func (g Bag) Pieces() []Piece {
	out := make([]Piece, 0, PieceCount)
	for p := Piece(0); p < PieceCount; p++ {
		if g.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}
