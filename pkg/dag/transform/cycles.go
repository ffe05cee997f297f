package transform

import "github.com/matzehuels/typegraph/pkg/dag"

// BreakCycles makes g acyclic by reversing every back edge found by a
// depth-first search. Sources are visited first, then the remaining nodes in
// insertion order. A back edge whose reverse already exists is removed
// instead. It returns the number of edges reversed or removed.
func BreakCycles(g *dag.DAG) int {
	const (
		white = iota
		gray
		black
	)

	color := make(map[string]int, g.NodeCount())
	var backEdges []dag.Edge

	var dfs func(id string)
	dfs = func(id string) {
		color[id] = gray
		for _, child := range g.Children(id) {
			switch color[child] {
			case white:
				dfs(child)
			case gray:
				backEdges = append(backEdges, dag.Edge{From: id, To: child})
			}
		}
		color[id] = black
	}

	for _, n := range g.Sources() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}
	for _, n := range g.Nodes() {
		if color[n.ID] == white {
			dfs(n.ID)
		}
	}

	for _, e := range backEdges {
		g.RemoveEdge(e.From, e.To)
		if !g.HasEdge(e.To, e.From) {
			_ = g.AddEdge(dag.Edge{From: e.To, To: e.From})
		}
	}
	return len(backEdges)
}
