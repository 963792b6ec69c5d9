// Package search implements the concurrent best-first placement search:
// a reference-counted DAG of game states shared by worker passes, with
// speculation over bag-constrained unknown pieces.
package search

import (
	"sync"
	"sync/atomic"

	"github.com/chewxy/math32"
	"github.com/op/go-logging"
	"github.com/pkg/errors"

	"github.com/icefall/eval"
	"github.com/icefall/movegen"
	"github.com/icefall/tetris"
)

var log = logging.MustGetLogger("icefall.search")

// ErrNotInBag reports a revealed piece the bag cannot produce.
var ErrNotInBag = errors.New("piece is not in the bag")

// Tree is the shared search structure. Nodes live in an arena addressed
// by refs; a freelist recycles reclaimed nodes, with reuse delayed by
// one root advance so in-flight passes never see a recycled node.
type Tree struct {
	mu  sync.RWMutex
	cfg Config
	ev  *eval.Evaluator

	nodes     []*Node
	freelist  []ref
	freeables []ref
	interned  map[uint64]ref

	root ref

	// queue holds the known reveal sequence; queue[0] is absolute
	// position qoff. bagAfter is the residue constraining the next
	// reveal.
	queue    []tetris.Piece
	qoff     int
	bagAfter tetris.Bag

	epoch      uint32 // bumped on reset; workers bail when it moves
	queueGen   uint32 // bumped whenever the frontier may have unblocked
	expansions int32  // child edges installed since the root was last set
	maxDepth   int32
	incoming   int32 // pending garbage lines, read at evaluation time

	pulse chan struct{}
}

// NewTree builds a tree rooted at the snapshot state.
func NewTree(cfg Config, ev *eval.Evaluator, snap Snapshot) *Tree {
	t := &Tree{
		cfg:      cfg,
		ev:       ev,
		interned: make(map[uint64]ref),
		queue:    append([]tetris.Piece(nil), snap.Queue...),
		bagAfter: snap.Bag,
		pulse:    make(chan struct{}, 1),
		queueGen: 1, // so a zero stuck stamp never matches
	}
	if t.bagAfter == 0 {
		t.bagAfter = tetris.FullBag
	}
	// snap.Bag constrains the first reveal; fold the already-known
	// queue through it so bagAfter always applies to the next one.
	for _, p := range t.queue {
		bag, ok := t.bagAfter.Remove(p)
		if !ok {
			bag, _ = tetris.FullBag.Remove(p)
		}
		t.bagAfter = bag
	}
	t.root = t.alloc(State{
		Board: snap.Board,
		Hold:  snap.Hold,
		B2B:   snap.B2B,
		Combo: snap.Combo,
	})
	root := t.nodes[t.root]
	root.acc = ev.Accumulated(&root.state.Board, root.state.B2B, 0)
	root.value = float32(root.acc)
	return t
}

// node resolves a ref, returning nil when the ref is stale: the epoch
// moved, or the arena no longer holds it.
func (t *Tree) node(epoch uint32, r ref) *Node {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.nodeLocked(epoch, r)
}

// nodeLocked is node for callers already holding t.mu.
func (t *Tree) nodeLocked(epoch uint32, r ref) *Node {
	if atomic.LoadUint32(&t.epoch) != epoch {
		return nil
	}
	if r < 0 || int(r) >= len(t.nodes) {
		return nil
	}
	return t.nodes[r]
}

// alloc takes a node from the freelist or grows the arena. The returned
// node carries one reference for the caller. Callers hold t.mu.
func (t *Tree) alloc(state State) ref {
	var r ref
	var n *Node
	if l := len(t.freelist); l > 0 {
		r = t.freelist[l-1]
		t.freelist = t.freelist[:l-1]
		n = t.nodes[r]
	} else {
		r = ref(len(t.nodes))
		n = &Node{}
		t.nodes = append(t.nodes, n)
	}
	n.state = state
	n.hash = state.Hash()
	n.rc = 1
	t.interned[n.hash] = r
	return r
}

// release drops one reference. At zero the node's children are released
// recursively and the node joins the freeables list; it only becomes
// allocatable again after the next root advance. Callers hold t.mu
// exclusively.
func (t *Tree) release(r ref) {
	n := t.nodes[r]
	n.rc--
	if n.rc > 0 {
		return
	}
	if t.interned[n.hash] == r {
		delete(t.interned, n.hash)
	}
	for _, e := range n.children {
		t.release(e.Child)
	}
	if n.spec != nil {
		for _, bucket := range n.spec {
			for _, e := range bucket {
				t.release(e.Child)
			}
		}
	}
	n.reset()
	t.freeables = append(t.freeables, r)
}

// queuePiece returns the identity of an absolute queue position,
// consulting the state's assumptions past the known queue. Callers hold
// t.mu.
func (t *Tree) queuePiece(s *State, pos int) (tetris.Piece, bool) {
	if i := pos - t.qoff; i < len(t.queue) {
		return t.queue[i], true
	}
	if i := pos - t.qoff - len(t.queue); i < len(s.Assumed) {
		return s.Assumed[i], true
	}
	return tetris.NoPiece, false
}

// bagFor returns the bag residue constraining the first position the
// state has no identity for. With the use_bag weight flag off,
// speculation treats all seven pieces as equally likely instead.
// Callers hold t.mu.
func (t *Tree) bagFor(s *State) tetris.Bag {
	if !t.ev.Weights().UseBag {
		return tetris.FullBag
	}
	bag := t.bagAfter
	for _, p := range s.Assumed {
		bag, _ = bag.Remove(p)
	}
	return bag
}

// Pulse exposes the progress channel: it receives after expansions and
// whenever a worker gives up on growing the tree.
func (t *Tree) Pulse() <-chan struct{} {
	return t.pulse
}

// Nudge signals the progress channel without blocking.
func (t *Tree) Nudge() {
	select {
	case t.pulse <- struct{}{}:
	default:
	}
}

// Expansions returns the number of child edges installed by expansions
// since the root last advanced or the tree was reset.
func (t *Tree) Expansions() int32 {
	return atomic.LoadInt32(&t.expansions)
}

// Depth returns the deepest selection pass below the current root.
func (t *Tree) Depth() int32 {
	return atomic.LoadInt32(&t.maxDepth)
}

// SetIncoming records the pending garbage lines applied to future
// evaluations.
func (t *Tree) SetIncoming(lines int32) {
	atomic.StoreInt32(&t.incoming, lines)
}

// Dead reports whether every surviving branch below the root tops out.
func (t *Tree) Dead() bool {
	epoch := atomic.LoadUint32(&t.epoch)
	t.mu.RLock()
	r := t.root
	t.mu.RUnlock()
	n := t.node(epoch, r)
	return n == nil || n.Dead()
}

// QueueLen returns how many known pieces remain unconsumed by the root.
func (t *Tree) QueueLen() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	root := t.nodes[t.root]
	return t.qoff + len(t.queue) - root.state.Idx
}

// AddPiece appends a revealed piece to the queue. When strict, a piece
// the bag cannot produce is rejected with ErrNotInBag; otherwise the bag
// is re-seeded from the piece. Speculative buckets for the revealed
// position collapse to the matching bucket, and subtrees built on a
// wrong assumption are reclaimed.
func (t *Tree) AddPiece(p tetris.Piece, strict bool) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bag, ok := t.bagAfter.Remove(p)
	if !ok {
		if strict {
			return errors.Wrapf(ErrNotInBag, "add piece %s", p)
		}
		bag, _ = tetris.FullBag.Remove(p)
	}
	t.bagAfter = bag
	revealed := t.qoff + len(t.queue)
	t.queue = append(t.queue, p)
	atomic.AddUint32(&t.queueGen, 1)

	// Collapse speculative nodes whose buckets partition the revealed
	// position.
	var collapsed []ref
	for r, n := range t.nodes {
		if n.rc <= 0 || n.spec == nil {
			continue
		}
		if n.state.Idx != revealed || len(n.state.Assumed) != 0 {
			continue
		}
		n.mu.Lock()
		keep := n.spec[p]
		for q := tetris.Piece(0); q < tetris.PieceCount; q++ {
			if q == p {
				continue
			}
			for _, e := range n.spec[q] {
				t.release(e.Child)
			}
		}
		n.children = keep
		n.spec = nil
		n.specBag = 0
		if len(keep) == 0 {
			n.dead = true
		}
		n.mu.Unlock()
		collapsed = append(collapsed, ref(r))
	}

	// Every surviving assumption list starts with the revealed piece;
	// shift it out and re-intern under the new hashes.
	for _, n := range t.nodes {
		if n.rc <= 0 || len(n.state.Assumed) == 0 {
			continue
		}
		if n.state.Assumed[0] != p {
			// Built on a wrong assumption; its bucket release above
			// has already unpinned it or will never be reached again.
			continue
		}
		n.state.Assumed = n.state.Assumed[1:]
	}
	t.interned = make(map[uint64]ref, len(t.nodes))
	for r, n := range t.nodes {
		if n.rc <= 0 {
			continue
		}
		n.hash = n.state.Hash()
		t.interned[n.hash] = ref(r)
	}

	epoch := atomic.LoadUint32(&t.epoch)
	for _, r := range collapsed {
		t.refreshValueLocked(epoch, r)
		t.backpropLocked(epoch, r)
	}
	return nil
}

// Reset replaces the tree with a fresh generation rooted at the given
// position. The known queue, the hold piece, and the bag residue
// survive.
func (t *Tree) Reset(board tetris.Board, b2b bool, combo uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	atomic.AddUint32(&t.epoch, 1)
	atomic.AddUint32(&t.queueGen, 1)
	atomic.StoreInt32(&t.expansions, 0)
	atomic.StoreInt32(&t.maxDepth, 0)

	hold := t.nodes[t.root].state.Hold
	t.nodes = nil
	t.freelist = nil
	t.freeables = nil
	t.interned = make(map[uint64]ref)

	t.root = t.alloc(State{
		Board: board,
		Hold:  hold,
		B2B:   b2b,
		Combo: combo,
		Idx:   t.qoff,
	})
	root := t.nodes[t.root]
	root.acc = t.ev.Accumulated(&root.state.Board, b2b, 0)
	root.value = float32(root.acc)
}

// MoveInfo is a chosen placement with its execution path and search
// statistics, plus the principal variation starting with that
// placement.
type MoveInfo struct {
	Placement movegen.Placement
	UsedHold  bool
	Nodes     uint32
	Depth     uint32
	Rank      uint32
	Plan      []PlanStep
}

// PlanStep is one placement of the principal variation.
type PlanStep struct {
	Placement   movegen.Placement
	Cleared     int
	ClearedRows [4]int8
}

// ChooseMove selects the best root edge, advances the root to its
// child, and reclaims everything unreachable from it. ok is false when
// the root is unexpanded, speculative, or dead.
func (t *Tree) ChooseMove() (MoveInfo, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	root := t.nodes[t.root]
	root.mu.Lock()
	ready := root.expanded && !root.dead && root.spec == nil && len(root.children) > 0
	edges := make([]Edge, len(root.children))
	copy(edges, root.children)
	root.mu.Unlock()
	if !ready {
		return MoveInfo{}, false
	}

	best, bestScore, bestVisits := -1, math32.Inf(-1), uint32(0)
	for i, e := range edges {
		c := t.nodes[e.Child]
		c.mu.Lock()
		score := float32(e.Reward) + c.value
		visits := c.visits
		c.mu.Unlock()
		if best < 0 || score > bestScore || (score == bestScore && visits > bestVisits) {
			best, bestScore, bestVisits = i, score, visits
		}
	}

	chosen := edges[best]
	info := MoveInfo{
		Placement: chosen.Move,
		UsedHold:  chosen.UsedHold,
		Nodes:     uint32(atomic.LoadInt32(&t.expansions)),
		Depth:     uint32(atomic.LoadInt32(&t.maxDepth)),
		Rank:      uint32(best),
		Plan:      t.planLocked(t.root, chosen),
	}

	// Recycle the previous generation of freeables, then advance.
	t.freelist = append(t.freelist, t.freeables...)
	t.freeables = t.freeables[:0]

	newRoot := chosen.Child
	t.nodes[newRoot].rc++ // root pin
	consumed := t.nodes[newRoot].state.Idx - root.state.Idx
	t.release(t.root)
	t.root = newRoot

	t.queue = t.queue[consumed:]
	t.qoff += consumed
	atomic.StoreInt32(&t.expansions, 0)
	atomic.StoreInt32(&t.maxDepth, 0)
	atomic.AddUint32(&t.queueGen, 1)

	log.Debugf("advanced root: %s rank %d score %.0f", chosen.Move.Kind, best, bestScore)
	return info, true
}

// planLocked walks best edges from the chosen move, reconstructing the
// clear each placement produces. Callers hold t.mu.
func (t *Tree) planLocked(rootRef ref, first Edge) []PlanStep {
	var plan []PlanStep
	parent := t.nodes[rootRef]
	edge := first
	for len(plan) < tetris.MaxPathLen {
		board := parent.state.Board
		fp := tetris.FallingPiece{Kind: edge.Move.Kind, Rot: edge.Move.Rot, X: edge.Move.X, Y: edge.Move.Y}
		_, res := board.Lock(fp, edge.Move.Tspin)
		plan = append(plan, PlanStep{Placement: edge.Move, Cleared: res.Cleared, ClearedRows: res.ClearedRows})

		child := t.nodes[edge.Child]
		child.mu.Lock()
		ok := child.expanded && !child.dead && child.spec == nil && len(child.children) > 0
		var next Edge
		if ok {
			bestScore := math32.Inf(-1)
			for _, e := range child.children {
				c := t.nodes[e.Child]
				c.mu.Lock()
				score := float32(e.Reward) + c.value
				c.mu.Unlock()
				if score > bestScore {
					bestScore = score
					next = e
				}
			}
		}
		child.mu.Unlock()
		if !ok {
			break
		}
		parent = child
		edge = next
	}
	return plan
}
