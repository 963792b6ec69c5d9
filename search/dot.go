package search

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/awalterschulze/gographviz"

	"github.com/icefall/tetris"
	"github.com/pkg/errors"
)

// DumpDOT renders the tree below the root as a Graphviz digraph, down
// to maxDepth levels. Speculative buckets render as dashed edges
// labeled with the assumed piece. Intended for debugging snapshots of
// small trees; large trees should be depth-limited.
func (t *Tree) DumpDOT(w io.Writer, maxDepth int) error {
	epoch := atomic.LoadUint32(&t.epoch)
	t.mu.RLock()
	defer t.mu.RUnlock()
	if atomic.LoadUint32(&t.epoch) != epoch {
		return errors.New("tree reset during dump")
	}

	g := gographviz.NewGraph()
	if err := g.SetName("search"); err != nil {
		return err
	}
	if err := g.SetDir(true); err != nil {
		return err
	}

	type item struct {
		r     ref
		depth int
	}
	seen := map[ref]bool{t.root: true}
	queue := []item{{t.root, 0}}

	nodeName := func(r ref) string { return fmt.Sprintf("n%d", r) }

	for len(queue) > 0 {
		it := queue[0]
		queue = queue[1:]
		n := t.nodes[it.r]

		n.mu.Lock()
		label := fmt.Sprintf("\"v=%.0f visits=%d\"", n.value, n.visits)
		attrs := map[string]string{"label": label, "shape": "box"}
		if n.dead {
			attrs["color"] = "red"
		}
		spec := n.spec
		specBag := n.specBag
		children := n.children
		n.mu.Unlock()

		if err := g.AddNode("search", nodeName(it.r), attrs); err != nil {
			return err
		}
		if it.depth >= maxDepth {
			continue
		}

		addEdge := func(e Edge, dashed bool, assumed string) error {
			label := fmt.Sprintf("\"%s %s r=%d\"", e.Move.Kind, e.Move.Rot, e.Reward)
			eattrs := map[string]string{"label": label}
			if dashed {
				eattrs["style"] = "dashed"
				eattrs["fontcolor"] = "gray"
				eattrs["label"] = fmt.Sprintf("\"%s? %s %s\"", assumed, e.Move.Kind, e.Move.Rot)
			}
			if err := g.AddEdge(nodeName(it.r), nodeName(e.Child), true, eattrs); err != nil {
				return err
			}
			if !seen[e.Child] {
				seen[e.Child] = true
				queue = append(queue, item{e.Child, it.depth + 1})
			}
			return nil
		}

		if spec != nil {
			for p, bucket := range spec {
				if !specBag.Contains(tetris.Piece(p)) {
					continue
				}
				for _, e := range bucket {
					if err := addEdge(e, true, tetris.Piece(p).String()); err != nil {
						return err
					}
				}
			}
		} else {
			for _, e := range children {
				if err := addEdge(e, false, ""); err != nil {
					return err
				}
			}
		}
	}

	_, err := io.WriteString(w, g.String())
	return err
}
