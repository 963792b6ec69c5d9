// Package pcsolver is an exact, bounded probe for guaranteed perfect
// clear sequences. The best-first search consults it at promising leaves
// and lets a found sequence short-circuit the heuristic evaluation.
package pcsolver

import (
	"github.com/icefall/movegen"
	"github.com/icefall/tetris"
)

// Priority selects how the solver ranks sequences.
type Priority uint8

const (
	Off Priority = iota
	// Fastest takes the first perfect clear found.
	Fastest
	// Attack keeps searching for the sequence sending the most damage.
	Attack
)

// maxHeight is the tallest stack the solver will probe; taller boards
// are never one bag away from a perfect clear worth forcing.
const maxHeight = 4

// nodeBudget bounds the exact search so a probe stays cheap relative to
// a tree expansion.
const nodeBudget = 20000

// Solution is a guaranteed perfect clear line.
type Solution struct {
	Placements []movegen.Placement
	Attack     int32
}

type solver struct {
	mode     movegen.Mode
	rule     tetris.SpawnRule
	priority Priority
	budget   int

	best    Solution
	found   bool
	visited map[uint64]struct{}
}

// Solve searches for a sequence over the known queue (and hold piece, if
// any) that ends with an empty board. ok is false when no guaranteed
// sequence exists within the horizon or the probe budget ran out first.
func Solve(b tetris.Board, queue []tetris.Piece, hold tetris.Piece, mode movegen.Mode, rule tetris.SpawnRule, priority Priority) (Solution, bool) {
	if priority == Off {
		return Solution{}, false
	}
	h := int(b.MaxHeight())
	if h == 0 || h > maxHeight {
		return Solution{}, false
	}
	filled := 0
	for y := 0; y < h; y++ {
		for x := int8(0); x < tetris.Width; x++ {
			if b.Occupied(x, int8(y)) {
				filled++
			}
		}
	}
	// The stack must complete to a full rectangle of some height.
	target := -1
	for ht := h; ht <= maxHeight; ht++ {
		missing := ht*tetris.Width - filled
		if missing%4 != 0 {
			continue
		}
		pieces := len(queue)
		if hold != tetris.NoPiece {
			pieces++
		}
		if missing/4 <= pieces {
			target = ht
			break
		}
	}
	if target < 0 {
		return Solution{}, false
	}

	s := &solver{
		mode:     mode,
		rule:     rule,
		priority: priority,
		budget:   nodeBudget,
		visited:  make(map[uint64]struct{}),
	}
	s.search(b, queue, hold, int8(target), nil, 0)
	return s.best, s.found
}

func (s *solver) search(b tetris.Board, queue []tetris.Piece, hold tetris.Piece, target int8, line []movegen.Placement, attack int32) {
	if s.budget <= 0 {
		return
	}
	s.budget--
	if b.Empty() {
		if !s.found || attack > s.best.Attack {
			s.best = Solution{Placements: append([]movegen.Placement(nil), line...), Attack: attack}
			s.found = true
		}
		return
	}
	if len(queue) == 0 {
		return
	}
	if s.found && s.priority == Fastest {
		return
	}

	key := b.Hash() ^ uint64(len(queue))<<1 ^ uint64(hold)<<8
	if _, seen := s.visited[key]; seen {
		return
	}
	s.visited[key] = struct{}{}

	s.place(b, queue[0], queue[1:], hold, target, line, attack)
	if hold != tetris.NoPiece && hold != queue[0] {
		s.place(b, hold, queue[1:], queue[0], target, line, attack)
	} else if hold == tetris.NoPiece && len(queue) > 1 && queue[1] != queue[0] {
		s.place(b, queue[1], queue[2:], queue[0], target, line, attack)
	}
}

func (s *solver) place(b tetris.Board, piece tetris.Piece, rest []tetris.Piece, hold tetris.Piece, target int8, line []movegen.Placement, attack int32) {
	for _, pl := range movegen.Generate(&b, piece, s.mode, s.rule) {
		over := false
		for _, c := range pl.Cells() {
			if c.Y >= target {
				over = true
				break
			}
		}
		if over {
			continue
		}
		next, res := b.Lock(tetris.FallingPiece{Kind: pl.Kind, Rot: pl.Rot, X: pl.X, Y: pl.Y}, pl.Tspin)
		if next.MaxHeight() > target-int8(res.Cleared) {
			continue
		}
		s.search(next, rest, hold, target-int8(res.Cleared), append(line, pl), attack+attackOf(res))
		if s.found && s.priority == Fastest {
			return
		}
	}
}

// attackOf approximates the garbage a clear sends, used only to rank
// sequences under the Attack priority.
func attackOf(res tetris.LockResult) int32 {
	var atk int32
	if res.Tspin == tetris.TspinFull {
		atk = int32(res.Cleared) * 2
	} else {
		switch res.Cleared {
		case 2:
			atk = 1
		case 3:
			atk = 2
		case 4:
			atk = 4
		}
	}
	if res.PerfectClear {
		atk += 10
	}
	return atk
}
