package search

import (
	"sync"

	"github.com/icefall/movegen"
	"github.com/icefall/tetris"
)

// ref addresses a node in the tree arena.
type ref int32

const nilRef ref = -1

// deathValue is the value of a terminal node whose board topped out or
// that has no legal placements. It dominates every heuristic score.
const deathValue = float32(-1e9)

// Edge connects a node to one candidate placement and the state it
// produces. The backed-up score along the edge is Reward + child value.
type Edge struct {
	Move     movegen.Placement
	UsedHold bool
	Reward   int32 // transient reward of the placement event
	Child    ref
}

// Node is one state in the shared search DAG. The mutex guards the
// value, visit count, flags, and the child and parent lists; the state
// itself is immutable outside the tree's exclusive lock.
type Node struct {
	mu    sync.Mutex
	state State
	hash  uint64

	acc    int32   // own accumulated board score
	value  float32 // best reward achievable below this node
	visits uint32

	rc      int32 // parent edges plus the root pin
	parents []ref

	// children is nil until the node is expanded. A speculative node
	// instead carries per-assumed-piece buckets and a bag of the pieces
	// they cover.
	children []Edge
	spec     *[tetris.PieceCount][]Edge
	specBag  tetris.Bag

	expanded bool
	dead     bool
	stuck    uint32 // queue generation at which the frontier below was exhausted
}

// Value returns the node's current backed-up value.
func (n *Node) Value() float32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.value
}

// Visits returns how many selection passes have descended through the
// node.
func (n *Node) Visits() uint32 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.visits
}

// Dead reports whether every line of play below the node tops out.
func (n *Node) Dead() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dead
}

// reset clears the node for reuse from the freelist.
func (n *Node) reset() {
	n.state = State{}
	n.hash = 0
	n.acc = 0
	n.value = 0
	n.visits = 0
	n.rc = 0
	n.parents = nil
	n.children = nil
	n.spec = nil
	n.specBag = 0
	n.expanded = false
	n.dead = false
	n.stuck = 0
}
