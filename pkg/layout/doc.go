// Package layout computes hierarchical positions for a typegraph graph.
//
// # Pipeline
//
// [Compute] runs a Sugiyama-style pipeline over a [dag.DAG]:
//
//  1. Every node becomes a vertex sized NodeWidth by
//     HeaderHeight + members×MemberHeight + Padding. Every edge whose
//     endpoints exist becomes an unlabeled ranking edge.
//  2. Back edges are reversed, ranks are assigned by longest path and long
//     edges are split with virtual vertices ([transform]).
//  3. An [Orderer] arranges each rank to reduce crossings. The default
//     [Barycentric] orderer sweeps down and up, sorting by the mean position
//     of neighbours, then swaps adjacent vertices while that removes
//     crossings. The ordering with the fewest crossings wins.
//  4. Ranks are stacked RankSep apart and vertices are pulled toward their
//     neighbours while keeping NodeSep between them.
//  5. The frame is rotated for the requested [Direction] and centers are
//     converted to top-left corners.
//
// Only [graph.Node.Position] changes. Input nodes are never modified; the
// result holds shallow copies.
//
// # Background Layout
//
// [Worker] runs layouts off the caller's goroutine. Each submission gets a
// generation number and only the newest result is delivered; older results
// are dropped as stale.
//
// # Caching
//
// [CachedEngine] wraps a [Layouter] and stores positions in a [cache.Cache]
// keyed by a hash of the graph structure and options.
//
// [transform]: github.com/matzehuels/typegraph/pkg/dag/transform
// [dag.DAG]: github.com/matzehuels/typegraph/pkg/dag
// [cache.Cache]: github.com/matzehuels/typegraph/pkg/cache
package layout
