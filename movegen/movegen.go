// Package movegen enumerates the final placements a piece can reach and
// the input paths that realize them.
package movegen

import (
	"github.com/icefall/tetris"
)

// Mode selects the movement rules placements are generated under.
type Mode uint8

const (
	// ModeZeroG lets the piece float: it only descends on an explicit
	// drop, and can slide or spin afterwards.
	ModeZeroG Mode = iota
	// Mode20G snaps the piece to the lowest free row after every input.
	Mode20G
	// ModeHardDropOnly allows only rotations and shifts at spawn height
	// followed by a hard drop.
	ModeHardDropOnly
)

func (m Mode) String() string {
	switch m {
	case Mode20G:
		return "20g"
	case ModeHardDropOnly:
		return "hard_drop_only"
	}
	return "0g"
}

// Placement is a reachable final position for a piece, together with a
// canonical input path. The path does not include the finishing hard
// drop.
type Placement struct {
	Kind  tetris.Piece
	Rot   tetris.Rotation
	X, Y  int8
	Tspin tetris.TspinStatus
	Path  []tetris.Movement
}

// Cells returns the four cells the placement fills.
func (p Placement) Cells() [4]tetris.Cell {
	return tetris.FallingPiece{Kind: p.Kind, Rot: p.Rot, X: p.X, Y: p.Y}.Cells()
}

// canonical maps a position to the representative of its cell-identity
// class: I, S and Z have two distinct orientations and O has one, the
// rest differing only by an anchor shift.
func canonical(kind tetris.Piece, rot tetris.Rotation, x, y int8) (tetris.Rotation, int8, int8) {
	switch kind {
	case tetris.PieceI:
		switch rot {
		case tetris.South:
			return tetris.North, x - 1, y
		case tetris.West:
			return tetris.East, x, y + 1
		}
	case tetris.PieceS, tetris.PieceZ:
		switch rot {
		case tetris.South:
			return tetris.North, x, y - 1
		case tetris.West:
			return tetris.East, x - 1, y
		}
	case tetris.PieceO:
		switch rot {
		case tetris.East:
			return tetris.North, x, y - 1
		case tetris.South:
			return tetris.North, x - 1, y - 1
		case tetris.West:
			return tetris.North, x - 1, y
		}
	}
	return rot, x, y
}

type posKey struct {
	rot  tetris.Rotation
	x, y int8
}

func canonKey(kind tetris.Piece, p tetris.FallingPiece) posKey {
	rot, x, y := canonical(kind, p.Rot, p.X, p.Y)
	return posKey{rot, x, y}
}

type pathInfo struct {
	path    []tetris.Movement
	rotLast bool
	kick    int
}

// Generate enumerates every distinct final placement for the piece on
// the board under the mode's movement rules. Placements are distinct by
// the cells they fill; the first path discovered wins, and breadth-first
// exploration in left/right/cw/ccw/drop order makes that path canonical.
// Placements needing more than tetris.MaxPathLen inputs are dropped.
func Generate(b *tetris.Board, kind tetris.Piece, mode Mode, rule tetris.SpawnRule) []Placement {
	spawn, ok := tetris.Spawn(b, kind, rule)
	if !ok {
		return nil
	}
	switch mode {
	case ModeHardDropOnly:
		return generateHardDrop(b, kind, spawn)
	case Mode20G:
		return generate20G(b, kind, spawn)
	default:
		return generateZeroG(b, kind, spawn)
	}
}

func appendPath(path []tetris.Movement, m tetris.Movement) []tetris.Movement {
	out := make([]tetris.Movement, len(path), len(path)+1)
	copy(out, path)
	return append(out, m)
}

func generateZeroG(b *tetris.Board, kind tetris.Piece, spawn tetris.FallingPiece) []Placement {
	visited := map[posKey]pathInfo{
		{spawn.Rot, spawn.X, spawn.Y}: {},
	}
	queue := []tetris.FallingPiece{spawn}

	final := make(map[posKey]Placement)
	var order []posKey

	visit := func(p tetris.FallingPiece, inf pathInfo) {
		k := posKey{p.Rot, p.X, p.Y}
		if _, seen := visited[k]; seen {
			return
		}
		visited[k] = inf
		queue = append(queue, p)
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		inf := visited[posKey{p.Rot, p.X, p.Y}]

		if p.OnGround(b) {
			ck := canonKey(kind, p)
			if _, seen := final[ck]; !seen {
				rot, x, y := canonical(kind, p.Rot, p.X, p.Y)
				final[ck] = Placement{
					Kind:  kind,
					Rot:   rot,
					X:     x,
					Y:     y,
					Tspin: tetris.ClassifyTspin(b, p, inf.rotLast, inf.kick),
					Path:  inf.path,
				}
				order = append(order, ck)
			}
		}

		if len(inf.path) >= tetris.MaxPathLen {
			continue
		}
		if next, ok := p.Shift(b, -1); ok {
			visit(next, pathInfo{path: appendPath(inf.path, tetris.MoveLeft)})
		}
		if next, ok := p.Shift(b, 1); ok {
			visit(next, pathInfo{path: appendPath(inf.path, tetris.MoveRight)})
		}
		if next, kick, ok := p.Rotate(b, true); ok {
			visit(next, pathInfo{path: appendPath(inf.path, tetris.MoveCW), rotLast: true, kick: kick})
		}
		if next, kick, ok := p.Rotate(b, false); ok {
			visit(next, pathInfo{path: appendPath(inf.path, tetris.MoveCCW), rotLast: true, kick: kick})
		}
		if next := p.SoftDrop(b); next != p {
			visit(next, pathInfo{path: appendPath(inf.path, tetris.MoveDrop)})
		}
	}

	out := make([]Placement, 0, len(order))
	for _, k := range order {
		out = append(out, final[k])
	}
	return out
}

// generate20G explores resting positions only: every input is followed
// by a gravity snap, recorded in the path as an explicit drop so that
// replaying the path through the kernel reproduces the position.
func generate20G(b *tetris.Board, kind tetris.Piece, spawn tetris.FallingPiece) []Placement {
	start := spawn.SoftDrop(b)
	startPath := []tetris.Movement{}
	if start != spawn {
		startPath = []tetris.Movement{tetris.MoveDrop}
	}

	visited := map[posKey]pathInfo{
		{start.Rot, start.X, start.Y}: {path: startPath},
	}
	queue := []tetris.FallingPiece{start}

	final := make(map[posKey]Placement)
	var order []posKey

	snap := func(p tetris.FallingPiece, path []tetris.Movement, rotated bool, kick int) {
		dropped := p.SoftDrop(b)
		if dropped != p {
			path = append(path, tetris.MoveDrop)
			rotated = false
		}
		if len(path) > tetris.MaxPathLen {
			return
		}
		k := posKey{dropped.Rot, dropped.X, dropped.Y}
		if _, seen := visited[k]; seen {
			return
		}
		visited[k] = pathInfo{path: path, rotLast: rotated, kick: kick}
		queue = append(queue, dropped)
	}

	for len(queue) > 0 {
		p := queue[0]
		queue = queue[1:]
		inf := visited[posKey{p.Rot, p.X, p.Y}]

		ck := canonKey(kind, p)
		if _, seen := final[ck]; !seen {
			rot, x, y := canonical(kind, p.Rot, p.X, p.Y)
			final[ck] = Placement{
				Kind:  kind,
				Rot:   rot,
				X:     x,
				Y:     y,
				Tspin: tetris.ClassifyTspin(b, p, inf.rotLast, inf.kick),
				Path:  inf.path,
			}
			order = append(order, ck)
		}

		if len(inf.path) >= tetris.MaxPathLen {
			continue
		}
		if next, ok := p.Shift(b, -1); ok {
			snap(next, appendPath(inf.path, tetris.MoveLeft), false, 0)
		}
		if next, ok := p.Shift(b, 1); ok {
			snap(next, appendPath(inf.path, tetris.MoveRight), false, 0)
		}
		if next, kick, ok := p.Rotate(b, true); ok {
			snap(next, appendPath(inf.path, tetris.MoveCW), true, kick)
		}
		if next, kick, ok := p.Rotate(b, false); ok {
			snap(next, appendPath(inf.path, tetris.MoveCCW), true, kick)
		}
	}

	out := make([]Placement, 0, len(order))
	for _, k := range order {
		out = append(out, final[k])
	}
	return out
}

// generateHardDrop emits one placement per rotation and reachable
// column: rotations at spawn height, shifts, then the drop.
func generateHardDrop(b *tetris.Board, kind tetris.Piece, spawn tetris.FallingPiece) []Placement {
	rotationSeqs := [][]tetris.Movement{
		nil,
		{tetris.MoveCW},
		{tetris.MoveCW, tetris.MoveCW},
		{tetris.MoveCCW},
	}

	final := make(map[posKey]Placement)
	var order []posKey

	emit := func(p tetris.FallingPiece, path []tetris.Movement) {
		dropped := p.SoftDrop(b)
		ck := canonKey(kind, dropped)
		if _, seen := final[ck]; seen {
			return
		}
		if len(path) > tetris.MaxPathLen {
			return
		}
		rot, x, y := canonical(kind, dropped.Rot, dropped.X, dropped.Y)
		final[ck] = Placement{Kind: kind, Rot: rot, X: x, Y: y, Path: path}
		order = append(order, ck)
	}

	for _, seq := range rotationSeqs {
		p := spawn
		ok := true
		for _, m := range seq {
			p, _, ok = p.Rotate(b, m == tetris.MoveCW)
			if !ok {
				break
			}
		}
		if !ok {
			continue
		}
		base := make([]tetris.Movement, len(seq))
		copy(base, seq)
		emit(p, base)

		for dir := int8(-1); dir <= 1; dir += 2 {
			q := p
			path := base
			mv := tetris.MoveLeft
			if dir > 0 {
				mv = tetris.MoveRight
			}
			for {
				next, shifted := q.Shift(b, dir)
				if !shifted {
					break
				}
				q = next
				path = appendPath(path, mv)
				emit(q, path)
			}
		}
	}

	out := make([]Placement, 0, len(order))
	for _, k := range order {
		out = append(out, final[k])
	}
	return out
}
