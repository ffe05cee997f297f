package store

import (
	"slices"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/graph"
)

// tx is a command's private copy of the model. Node pointers are shared with
// the committed snapshot until a node is first modified through mutable.
type tx struct {
	nodes []*graph.Node
	edges []graph.Edge
	pos   map[string]int
	owned map[*graph.Node]bool

	changed  bool
	onCommit []func(*Store)
}

func newTx(m model) *tx {
	t := &tx{
		nodes: slices.Clone(m.nodes),
		edges: slices.Clone(m.edges),
		owned: make(map[*graph.Node]bool),
	}
	t.reindex()
	return t
}

func (t *tx) reindex() {
	t.pos = make(map[string]int, len(t.nodes))
	for i, n := range t.nodes {
		if _, ok := t.pos[n.ID]; !ok {
			t.pos[n.ID] = i
		}
	}
}

func (t *tx) has(id string) bool {
	_, ok := t.pos[id]
	return ok
}

// find returns the position and the committed version of a node.
func (t *tx) find(id string) (int, *graph.Node, error) {
	i, ok := t.pos[id]
	if !ok {
		return 0, nil, errors.NotFound(id)
	}
	return i, t.nodes[i], nil
}

// editable is find for commands that modify the node directly.
func (t *tx) editable(id string) (int, *graph.Node, error) {
	i, n, err := t.find(id)
	if err != nil {
		return 0, nil, err
	}
	if n.IsReadOnly {
		return 0, nil, errors.New(errors.ErrCodeReadOnly, "type %q is read-only", id)
	}
	return i, n, nil
}

// mutable returns a modifiable copy of the node at i, cloning it once per
// transaction.
func (t *tx) mutable(i int) *graph.Node {
	n := t.nodes[i]
	if !t.owned[n] {
		n = n.Clone()
		t.owned[n] = true
		t.nodes[i] = n
	}
	t.changed = true
	return n
}

func (t *tx) appendNode(n *graph.Node) {
	t.owned[n] = true
	t.pos[n.ID] = len(t.nodes)
	t.nodes = append(t.nodes, n)
	t.changed = true
}

func (t *tx) removeNode(i int) {
	t.nodes = slices.Delete(t.nodes, i, i+1)
	t.reindex()
	t.changed = true
}

func (t *tx) after(fn func(*Store)) {
	t.onCommit = append(t.onCommit, fn)
}

func (t *tx) nameIndex() graph.NameIndex {
	return graph.BuildNameIndex(t.nodes)
}

// =============================================================================
// Edges
// =============================================================================

func (t *tx) hasEdge(id string) bool {
	return slices.ContainsFunc(t.edges, func(e graph.Edge) bool { return e.ID == id })
}

// addEdges appends edges whose ids are not yet present.
func (t *tx) addEdges(edges ...graph.Edge) {
	if len(edges) == 0 {
		return
	}
	seen := make(map[string]bool, len(t.edges))
	for _, e := range t.edges {
		seen[e.ID] = true
	}
	for _, e := range edges {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		t.edges = append(t.edges, e)
		t.changed = true
	}
}

func (t *tx) removeEdges(drop func(graph.Edge) bool) int {
	before := len(t.edges)
	t.edges = slices.DeleteFunc(t.edges, drop)
	removed := before - len(t.edges)
	if removed > 0 {
		t.changed = true
	}
	return removed
}

// syncReferences rebuilds the non-inheritance edges leaving n from its
// current members, output type and alias target.
func (t *tx) syncReferences(n *graph.Node) {
	t.removeEdges(func(e graph.Edge) bool {
		return e.Source == n.ID && !e.Kind.IsInheritance()
	})
	t.addEdges(t.nameIndex().ReferenceEdges(n)...)
}

// linkIncoming adds the edges of existing nodes that refer to n by name and
// were dangling until n existed.
func (t *tx) linkIncoming(n *graph.Node) {
	ix := t.nameIndex()
	if r, ok := ix.Resolve(n.Name); !ok || r.ID != n.ID {
		return
	}
	var edges []graph.Edge
	for _, m := range t.nodes {
		if m.ID == n.ID {
			continue
		}
		if m.ParentName == n.Name {
			if e, ok := ix.ParentEdge(m); ok {
				edges = append(edges, e)
			}
		}
		if slices.Contains(m.TypeRefs(), n.Name) {
			for _, e := range ix.ReferenceEdges(m) {
				if e.Target == n.ID {
					edges = append(edges, e)
				}
			}
		}
	}
	t.addEdges(edges...)
}

// finish recomputes the external reference flags, which depend on the whole
// node set, and returns the resulting model.
func (t *tx) finish() model {
	ix := t.nameIndex()
	for i, n := range t.nodes {
		if ext := ix.HasExternalRefs(n); ext != n.HasExternalRefs {
			t.mutable(i).HasExternalRefs = ext
		}
	}
	return newModel(t.nodes, t.edges)
}
