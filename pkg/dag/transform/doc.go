// Package transform prepares a [dag.DAG] for hierarchical layout.
//
// The layout pipeline applies three steps in order:
//
//	transform.BreakCycles(g)  // reverse back edges
//	transform.AssignLayers(g) // longest-path ranking
//	transform.Subdivide(g)    // virtual nodes on long edges
//
// # Cycle Breaking
//
// Type graphs are not acyclic: two data types may refer to each other, and a
// type may hold a list of itself. [BreakCycles] finds back edges with a
// depth-first search in insertion order and reverses them, so every type
// stays connected for ranking purposes.
//
// # Layer Assignment
//
// [AssignLayers] places sources at row 0 and every other node one row below
// its deepest predecessor (Kahn's algorithm, O(V+E)).
//
// # Edge Subdivision
//
// [Subdivide] replaces every edge spanning k > 1 rows with a chain of k-1
// virtual nodes so that ordering only deals with edges between adjacent rows:
//
//	Before: Trade (row 0) → Party (row 3)
//	After:  Trade → Trade~1 → Trade~2 → Party
package transform
