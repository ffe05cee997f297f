// Package dag provides the layered graph used by the typegraph layout engine.
//
// # Overview
//
// A hierarchical layout places every type on a rank (row) so that edges point
// from one rank to a later one, then orders the types within each rank to
// keep edges from crossing. This package holds that intermediate structure:
// vertices with a size and a row, directed edges, and row indexes.
//
//	g := dag.New()
//	g.AddNode(dag.Node{ID: "cdm::Trade", Width: 220, Height: 80})
//	g.AddNode(dag.Node{ID: "cdm::Party", Width: 220, Height: 58})
//	g.AddEdge(dag.Edge{From: "cdm::Trade", To: "cdm::Party"})
//
// Unlike a map-backed graph, [DAG] remembers insertion order. [DAG.Nodes],
// [DAG.Sources] and [DAG.NodesInRow] all return nodes in that order, so the
// same input always produces the same layout.
//
// # Virtual Nodes
//
// Edges spanning several rows are split by [transform.Subdivide] into chains
// of [NodeKindVirtual] vertices, one per intermediate row. Virtual vertices
// take part in ordering and crossing counts but are never returned to
// callers as positioned types.
//
// # Edge Crossings
//
// [CountCrossings] and [CountLayerCrossings] count crossings between adjacent
// rows in O(E log V) with a Fenwick tree. [CountPairCrossingsWithPos] answers
// the local question used by transpose passes: how many crossings two
// neighbours in a row contribute in their current order.
//
// # Concurrency
//
// A DAG is not safe for concurrent use. Each layout run builds its own.
//
// [transform]: github.com/matzehuels/typegraph/pkg/dag/transform
package dag
