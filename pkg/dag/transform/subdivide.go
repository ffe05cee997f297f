package transform

import (
	"fmt"

	"github.com/matzehuels/typegraph/pkg/dag"
)

// Subdivide splits every edge spanning more than one row into a chain of
// single-row edges through [dag.NodeKindVirtual] nodes. Virtual nodes have
// zero size and carry the edge source as MasterID.
//
// Virtual node IDs have the form "source~row", with a numeric suffix added
// on collision.
func Subdivide(g *dag.DAG) int {
	gen := newIDGen(g.Nodes())
	added := 0

	for _, e := range g.Edges() {
		src, _ := g.Node(e.From)
		dst, _ := g.Node(e.To)
		if dst.Row <= src.Row+1 {
			continue
		}

		g.RemoveEdge(e.From, e.To)
		prev := src.ID
		for row := src.Row + 1; row < dst.Row; row++ {
			id := gen.next(src.ID, row)
			if err := g.AddNode(dag.Node{ID: id, Row: row, Kind: dag.NodeKindVirtual, MasterID: src.ID}); err != nil {
				panic(err)
			}
			if err := g.AddEdge(dag.Edge{From: prev, To: id}); err != nil {
				panic(err)
			}
			prev = id
			added++
		}
		if err := g.AddEdge(dag.Edge{From: prev, To: dst.ID}); err != nil {
			panic(err)
		}
	}
	return added
}

type idGen struct {
	used map[string]struct{}
}

func newIDGen(nodes []*dag.Node) *idGen {
	m := make(map[string]struct{}, len(nodes)*2)
	for _, n := range nodes {
		m[n.ID] = struct{}{}
	}
	return &idGen{used: m}
}

func (gen *idGen) next(base string, row int) string {
	prefix := fmt.Sprintf("%s~%d", base, row)
	id := prefix
	for i := 1; ; i++ {
		if _, exists := gen.used[id]; !exists {
			gen.used[id] = struct{}{}
			return id
		}
		id = fmt.Sprintf("%s__%d", prefix, i)
	}
}
