package transform

import "github.com/matzehuels/typegraph/pkg/dag"

// AssignLayers assigns rows by longest path from the sources.
//
// Sources start at row 0 and each node is placed one row below its deepest
// parent, so every edge points to a later row. Existing rows are overwritten.
// The graph must be acyclic; run [BreakCycles] first. Nodes on a cycle would
// never reach in-degree zero and stay at row 0.
func AssignLayers(g *dag.DAG) {
	nodes := g.Nodes()
	inDegree := make(map[string]int, len(nodes))
	rows := make(map[string]int, len(nodes))
	queue := make([]string, 0, len(nodes))

	for _, n := range nodes {
		rows[n.ID] = 0
		deg := g.InDegree(n.ID)
		inDegree[n.ID] = deg
		if deg == 0 {
			queue = append(queue, n.ID)
		}
	}

	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]

		for _, child := range g.Children(curr) {
			if row := rows[curr] + 1; row > rows[child] {
				rows[child] = row
			}
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	g.SetRows(rows)
}
