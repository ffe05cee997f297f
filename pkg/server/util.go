package server

import (
	"slices"

	"github.com/matzehuels/typegraph/pkg/graph"
)

func nonNil(nodes []*graph.Node) []*graph.Node {
	if nodes == nil {
		return []*graph.Node{}
	}
	return nodes
}

func nonNilEdges(edges []graph.Edge) []graph.Edge {
	if edges == nil {
		return []graph.Edge{}
	}
	return edges
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys
}
