package search

import (
	"sync/atomic"

	"github.com/chewxy/math32"

	"github.com/icefall/movegen"
	"github.com/icefall/pcsolver"
	"github.com/icefall/tetris"
)

// StepStatus reports what a worker pass accomplished.
type StepStatus uint8

const (
	// StepExpanded means one leaf was expanded and its value backed up.
	StepExpanded StepStatus = iota
	// StepRetry means the pass lost a race or dead-ended; try again.
	StepRetry
	// StepBlocked means the frontier needs more queue pieces.
	StepBlocked
	// StepSaturated means MaxNodes was reached below the root.
	StepSaturated
	// StepDead means every surviving branch tops out.
	StepDead
	// StepStale means the tree was reset mid-pass.
	StepStale
)

// pcFoundReward short-circuits the heuristic when the exact solver
// guarantees a perfect clear from a state.
const pcFoundReward = 1 << 24

// pcHorizon bounds how many known queue pieces the perfect clear probe
// may look through.
const pcHorizon = 7

// Step runs one think cycle: select a leaf best-first, expand it,
// evaluate the children, and back-propagate the new value.
func (t *Tree) Step() StepStatus {
	epoch := atomic.LoadUint32(&t.epoch)
	if int(atomic.LoadInt32(&t.expansions)) >= t.cfg.MaxNodes {
		return StepSaturated
	}

	leaf, depth, st := t.selectLeaf(epoch)
	if st != StepExpanded {
		return st
	}

	job, st := t.prepare(epoch, leaf)
	if st != StepExpanded {
		return st
	}

	st = t.install(epoch, leaf, job)
	if st != StepExpanded {
		return st
	}

	t.mu.RLock()
	t.backpropLocked(epoch, leaf)
	t.mu.RUnlock()

	for {
		d := atomic.LoadInt32(&t.maxDepth)
		if int32(depth) <= d || atomic.CompareAndSwapInt32(&t.maxDepth, d, int32(depth)) {
			break
		}
	}
	return StepExpanded
}

// selectLeaf descends from the root along the best live edge, breaking
// ties toward fewer visits, and returns the unexpanded leaf to grow.
func (t *Tree) selectLeaf(epoch uint32) (ref, int, StepStatus) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if atomic.LoadUint32(&t.epoch) != epoch {
		return nilRef, 0, StepStale
	}
	gen := atomic.LoadUint32(&t.queueGen)

	cur := t.root
	depth := 0
	for {
		n := t.nodes[cur]
		n.mu.Lock()
		switch {
		case n.dead:
			n.mu.Unlock()
			if cur == t.root {
				return nilRef, 0, StepDead
			}
			return nilRef, 0, StepRetry
		case !n.expanded:
			if n.stuck == gen {
				n.mu.Unlock()
				if cur == t.root {
					return nilRef, 0, StepBlocked
				}
				return nilRef, 0, StepRetry
			}
			n.visits++
			n.mu.Unlock()
			return cur, depth, StepExpanded
		}
		n.visits++
		edges := n.snapshotEdgesLocked()
		n.mu.Unlock()

		best := nilRef
		bestScore := math32.Inf(-1)
		var bestVisits uint32
		allDead := len(edges) > 0
		for _, e := range edges {
			c := t.nodes[e.Child]
			c.mu.Lock()
			cDead, cStuck, cVal, cVis := c.dead, c.stuck, c.value, c.visits
			c.mu.Unlock()
			if cDead {
				continue
			}
			allDead = false
			if cStuck == gen {
				continue
			}
			score := float32(e.Reward) + cVal
			if best == nilRef || score > bestScore ||
				(score == bestScore && cVis < bestVisits) {
				best, bestScore, bestVisits = e.Child, score, cVis
			}
		}
		if best == nilRef {
			n.mu.Lock()
			if allDead {
				n.dead = true
				n.value = deathValue
			} else {
				n.stuck = gen
			}
			n.mu.Unlock()
			t.backpropLocked(epoch, cur)
			return nilRef, 0, StepRetry
		}
		cur = best
		depth++
	}
}

// snapshotEdgesLocked copies the edge list with the node lock held,
// flattening speculative buckets.
func (n *Node) snapshotEdgesLocked() []Edge {
	if n.spec != nil {
		var out []Edge
		for p := tetris.Piece(0); p < tetris.PieceCount; p++ {
			out = append(out, n.spec[p]...)
		}
		return out
	}
	out := make([]Edge, len(n.children))
	copy(out, n.children)
	return out
}

// childJob is one evaluated child state waiting to be installed.
type childJob struct {
	state     State
	placement movegen.Placement
	usedHold  bool
	assumed   tetris.Piece // NoPiece unless built under a speculation bucket
	transient int32
	acc       int32
	dead      bool
}

type expansionJob struct {
	gen      uint32
	blocked  bool
	spec     bool
	specBag  tetris.Bag
	children []childJob
}

// placeChoice is one way to obtain the piece to place.
type placeChoice struct {
	piece    tetris.Piece
	newHold  tetris.Piece
	consumed int
	usedHold bool
	assumed  tetris.Piece
}

// prepare runs the pure phase of an expansion: placement generation and
// evaluation, entirely outside any lock.
func (t *Tree) prepare(epoch uint32, leaf ref) (expansionJob, StepStatus) {
	t.mu.RLock()
	if atomic.LoadUint32(&t.epoch) != epoch {
		t.mu.RUnlock()
		return expansionJob{}, StepStale
	}
	n := t.nodes[leaf]
	n.mu.Lock()
	state := n.state.clone()
	n.mu.Unlock()
	gen := atomic.LoadUint32(&t.queueGen)

	head, headKnown := t.queuePiece(&state, state.Idx)
	next, nextKnown := t.queuePiece(&state, state.Idx+1)
	bag := t.bagFor(&state)
	tail := t.knownTail(&state, state.Idx)
	t.mu.RUnlock()

	job := expansionJob{gen: gen}
	var choices []placeChoice
	switch {
	case headKnown:
		choices = append(choices, placeChoice{piece: head, newHold: state.Hold, consumed: 1, assumed: tetris.NoPiece})
		if t.cfg.UseHold {
			if state.Hold != tetris.NoPiece && state.Hold != head {
				choices = append(choices, placeChoice{piece: state.Hold, newHold: head, consumed: 1, usedHold: true, assumed: tetris.NoPiece})
			}
			if state.Hold == tetris.NoPiece && nextKnown {
				choices = append(choices, placeChoice{piece: next, newHold: head, consumed: 2, usedHold: true, assumed: tetris.NoPiece})
			}
		}
	case t.cfg.Speculate:
		job.spec = true
		job.specBag = bag
		for _, p := range bag.Pieces() {
			choices = append(choices, placeChoice{piece: p, newHold: state.Hold, consumed: 1, assumed: p})
			if t.cfg.UseHold && state.Hold != tetris.NoPiece && state.Hold != p {
				choices = append(choices, placeChoice{piece: state.Hold, newHold: p, consumed: 1, usedHold: true, assumed: p})
			}
		}
	default:
		job.blocked = true
		return job, StepExpanded
	}

	incoming := atomic.LoadInt32(&t.incoming)
	for _, ch := range choices {
		for _, pl := range movegen.Generate(&state.Board, ch.piece, t.cfg.Mode, t.cfg.SpawnRule) {
			fp := tetris.FallingPiece{Kind: pl.Kind, Rot: pl.Rot, X: pl.X, Y: pl.Y}
			board, res := state.Board.Lock(fp, pl.Tspin)

			child := state.clone()
			child.Board = board
			child.Hold = ch.newHold
			child.Idx += ch.consumed
			if ch.assumed != tetris.NoPiece {
				child.Assumed = append(child.Assumed, ch.assumed)
			}
			if res.Cleared > 0 {
				child.B2B = res.Difficult()
				child.Combo = state.Combo + 1
			} else {
				child.Combo = 0
			}

			transient := t.ev.Transient(res, state.B2B, child.Combo, len(pl.Path)+1)
			cj := childJob{
				state:     child,
				placement: pl,
				usedHold:  ch.usedHold,
				assumed:   ch.assumed,
				transient: transient,
				dead:      res.ToppedOut,
			}
			if !cj.dead {
				cj.acc = t.ev.Accumulated(&child.Board, child.B2B, incoming)
				if t.cfg.PCPriority != pcsolver.Off && child.Board.MaxHeight() <= 4 {
					rest := tailAfter(tail, ch.consumed)
					if sol, ok := pcsolver.Solve(child.Board, rest, child.Hold, t.cfg.Mode, t.cfg.SpawnRule, t.cfg.PCPriority); ok {
						cj.transient += pcFoundReward
						if t.cfg.PCPriority == pcsolver.Attack {
							cj.transient += sol.Attack * 4096
						}
					}
				}
			}
			job.children = append(job.children, cj)
		}
	}
	return job, StepExpanded
}

// knownTail copies the known queue pieces from an absolute position,
// bounded by the perfect clear horizon. Callers hold t.mu.
func (t *Tree) knownTail(s *State, pos int) []tetris.Piece {
	i := pos - t.qoff
	if i < 0 || i >= len(t.queue) {
		return nil
	}
	tail := t.queue[i:]
	if len(tail) > pcHorizon {
		tail = tail[:pcHorizon]
	}
	return append([]tetris.Piece(nil), tail...)
}

func tailAfter(tail []tetris.Piece, skip int) []tetris.Piece {
	if skip >= len(tail) {
		return nil
	}
	return tail[skip:]
}

// install publishes the expansion under the exclusive lock, interning
// children by state hash and priority-ordering the edge lists.
func (t *Tree) install(epoch uint32, leaf ref, job expansionJob) StepStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	if atomic.LoadUint32(&t.epoch) != epoch {
		return StepStale
	}
	if atomic.LoadUint32(&t.queueGen) != job.gen {
		return StepRetry
	}
	n := t.nodes[leaf]
	if n.rc <= 0 {
		// The leaf was reclaimed by a root advance mid-pass.
		return StepRetry
	}
	n.mu.Lock()
	if n.expanded || n.dead {
		n.mu.Unlock()
		return StepRetry
	}
	if job.blocked {
		n.stuck = job.gen
		n.mu.Unlock()
		return StepRetry
	}

	attach := func(cj *childJob) Edge {
		var r ref
		h := cj.state.Hash()
		if existing, ok := t.interned[h]; ok {
			r = existing
			child := t.nodes[r]
			child.rc++
			child.parents = append(child.parents, leaf)
		} else {
			r = t.alloc(cj.state)
			child := t.nodes[r]
			child.parents = append(child.parents[:0], leaf)
			child.acc = cj.acc
			if cj.dead {
				child.dead = true
				child.expanded = true
				child.value = deathValue
			} else {
				child.value = float32(cj.acc)
			}
		}
		return Edge{Move: cj.placement, UsedHold: cj.usedHold, Reward: cj.transient, Child: r}
	}

	if job.spec {
		var spec [tetris.PieceCount][]Edge
		for i := range job.children {
			cj := &job.children[i]
			spec[cj.assumed] = append(spec[cj.assumed], attach(cj))
		}
		for p := range spec {
			t.sortEdgesLocked(spec[p])
		}
		n.spec = &spec
		n.specBag = job.specBag
	} else {
		edges := make([]Edge, 0, len(job.children))
		for i := range job.children {
			edges = append(edges, attach(&job.children[i]))
		}
		t.sortEdgesLocked(edges)
		n.children = edges
	}
	n.expanded = true
	n.mu.Unlock()

	t.refreshValueLocked(epoch, leaf)
	atomic.AddInt32(&t.expansions, int32(len(job.children)))
	return StepExpanded
}

// sortEdgesLocked orders edges by initial backed-up score, best first.
// The order is fixed for the node's lifetime; an edge's index is its
// original rank among siblings. Callers hold t.mu.
func (t *Tree) sortEdgesLocked(edges []Edge) {
	score := func(e Edge) float32 {
		return float32(e.Reward) + t.nodes[e.Child].value
	}
	for i := 1; i < len(edges); i++ {
		for j := i; j > 0 && score(edges[j]) > score(edges[j-1]); j-- {
			edges[j], edges[j-1] = edges[j-1], edges[j]
		}
	}
}

// refreshValueLocked recomputes a node's value from its edges: the best
// edge score for known nodes, the bag-uniform mean of bucket bests for
// speculative nodes. It reports whether the value or liveness changed.
// Callers hold t.mu.
func (t *Tree) refreshValueLocked(epoch uint32, r ref) bool {
	n := t.nodeLocked(epoch, r)
	if n == nil {
		return false
	}
	n.mu.Lock()
	if !n.expanded || n.dead {
		n.mu.Unlock()
		return false
	}
	spec := n.spec
	specBag := n.specBag
	children := n.children
	n.mu.Unlock()

	var value float32
	var dead bool
	if spec != nil {
		var sum float32
		count := 0
		dead = true
		for p := tetris.Piece(0); p < tetris.PieceCount; p++ {
			if !specBag.Contains(p) {
				continue
			}
			best, anyAlive := t.bestEdgeScoreLocked(spec[p])
			sum += best
			count++
			if anyAlive {
				dead = false
			}
		}
		if count == 0 {
			value, dead = deathValue, true
		} else {
			value = sum / float32(count)
		}
	} else {
		var anyAlive bool
		value, anyAlive = t.bestEdgeScoreLocked(children)
		dead = !anyAlive
	}

	n.mu.Lock()
	changed := n.value != value || n.dead != dead
	n.value = value
	if dead {
		n.dead = true
		n.value = deathValue
	}
	n.mu.Unlock()
	return changed
}

// bestEdgeScoreLocked scores an edge list: the maximum of reward plus
// child value, deathValue when empty. anyAlive is false when every
// child is dead. Callers hold t.mu.
func (t *Tree) bestEdgeScoreLocked(edges []Edge) (float32, bool) {
	if len(edges) == 0 {
		return deathValue, false
	}
	best := math32.Inf(-1)
	anyAlive := false
	for _, e := range edges {
		c := t.nodes[e.Child]
		c.mu.Lock()
		score := float32(e.Reward) + c.value
		if !c.dead {
			anyAlive = true
		}
		c.mu.Unlock()
		if score > best {
			best = score
		}
	}
	return best, anyAlive
}

// backpropLocked pushes a changed value toward the root, recomputing
// each parent and stopping along paths whose value is unaffected.
// Callers hold t.mu.
func (t *Tree) backpropLocked(epoch uint32, start ref) {
	const bound = 1 << 20
	work := []ref{start}
	for iter := 0; len(work) > 0 && iter < bound; iter++ {
		r := work[len(work)-1]
		work = work[:len(work)-1]
		n := t.nodeLocked(epoch, r)
		if n == nil {
			return
		}
		n.mu.Lock()
		parents := append([]ref(nil), n.parents...)
		n.mu.Unlock()
		for _, pr := range parents {
			if t.refreshValueLocked(epoch, pr) {
				work = append(work, pr)
			}
		}
	}
}
