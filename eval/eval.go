package eval

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/icefall/tetris"
)

// cacheSize bounds the accumulated-score memo. Boards repeat heavily
// across sibling subtrees, so even a small cache earns its keep.
const cacheSize = 1 << 16

// Evaluator computes the two scalar scores of a placement: the transient
// reward of the event itself and the accumulated heuristic of the board
// it leaves behind. It is safe for concurrent use.
type Evaluator struct {
	w     Weights
	cache *lru.Cache[uint64, int32]
}

// New builds an evaluator over a fixed weights record.
func New(w Weights) *Evaluator {
	cache, err := lru.New[uint64, int32](cacheSize)
	if err != nil {
		panic(err) // only fails on a non-positive size
	}
	return &Evaluator{w: w, cache: cache}
}

// Weights returns the coefficient record the evaluator was built with.
func (e *Evaluator) Weights() Weights { return e.w }

// Transient scores the placement event: line clears, spins, combo,
// perfect clears, and path cost. It does not look at the resulting
// board.
func (e *Evaluator) Transient(res tetris.LockResult, b2bBefore bool, comboAfter uint32, pathLen int) int32 {
	w := &e.w
	score := w.MoveTime * int32(pathLen)

	if res.Piece == tetris.PieceT && res.Tspin == tetris.TspinNone {
		score += w.WastedT
	}

	if res.PerfectClear {
		score += w.PerfectClear
		if !w.StackPCDamage {
			return score
		}
	}

	switch res.Tspin {
	case tetris.TspinFull:
		switch res.Cleared {
		case 1:
			score += w.Tspin1
		case 2:
			score += w.Tspin2
		case 3:
			score += w.Tspin3
		}
	case tetris.TspinMini:
		switch res.Cleared {
		case 1:
			score += w.MiniTspin1
		case 2:
			score += w.MiniTspin2
		}
	default:
		switch res.Cleared {
		case 1:
			score += w.Clear1
		case 2:
			score += w.Clear2
		case 3:
			score += w.Clear3
		case 4:
			score += w.Clear4
		}
	}

	if res.Cleared > 0 {
		if b2bBefore && res.Difficult() {
			score += w.B2BClear
		}
		score += w.ComboGarbage * int32(comboAfter)
	}
	return score
}

// Accumulated scores the board a placement leaves behind. Results are
// memoized by board hash and context.
func (e *Evaluator) Accumulated(b *tetris.Board, b2b bool, incoming int32) int32 {
	key := b.Hash() ^ uint64(incoming)*0x9e3779b97f4a7c15
	if b2b {
		key ^= 0xd6e8feb86659fd93
	}
	if v, ok := e.cache.Get(key); ok {
		return v
	}
	v := e.accumulate(b, b2b, incoming)
	e.cache.Add(key, v)
	return v
}

func (e *Evaluator) accumulate(b *tetris.Board, b2b bool, incoming int32) int32 {
	w := &e.w
	m := tetris.ComputeMetrics(b)

	score := w.Bumpiness*m.Bumpiness +
		w.BumpinessSq*m.BumpinessSq +
		w.RowTransitions*m.RowTransitions +
		w.Height*int32(m.MaxHeight) +
		w.TopHalf*m.TopHalf +
		w.TopQuarter*m.TopQuarter +
		w.CavityCells*m.CavityCells +
		w.CavityCellsSq*m.CavityCellsSq +
		w.OverhangCells*m.OverhangCells +
		w.OverhangCellsSq*m.OverhangCellsSq +
		w.CoveredCells*m.CoveredCells +
		w.CoveredCellsSq*m.CoveredCellsSq

	for i, n := range m.TSlots {
		score += w.TSlot[i] * n
	}

	if m.WellColumn >= 0 {
		depth := m.WellDepth
		if depth > w.MaxWellDepth {
			depth = w.MaxWellDepth
		}
		score += w.WellDepth * depth
		score += w.WellColumn[m.WellColumn]
	}

	if b2b {
		score += w.BackToBack
	}

	if incoming > 0 {
		excess := int32(m.MaxHeight) + incoming - tetris.VisibleHeight/2
		if excess > 0 {
			risk := w.Jeopardy * excess
			if w.TimedJeopardy {
				// Garbage rarely lands immediately; discount the risk.
				risk /= 2
			}
			score += risk
		}
	}
	return score
}
