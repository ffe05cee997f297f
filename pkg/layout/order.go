package layout

import (
	"context"
	"maps"
	"slices"

	"github.com/matzehuels/typegraph/pkg/dag"
)

// Orderer arranges the nodes of each row of a ranked graph.
type Orderer interface {
	OrderRows(ctx context.Context, g *dag.DAG) map[int][]string
}

// Barycentric is the classic sweep heuristic with transpose refinement.
// It returns the best ordering seen, which is the initial one if no sweep
// improves on it. Cancellation stops the sweeps early.
type Barycentric struct {
	Passes int
}

// maxTransposeRounds bounds the adjacent-swap refinement per row.
const maxTransposeRounds = 8

func (b Barycentric) OrderRows(ctx context.Context, g *dag.DAG) map[int][]string {
	orders := g.Orders()
	rows := g.RowIDs()
	if len(rows) < 2 {
		return orders
	}

	best := cloneOrders(orders)
	bestCross := dag.CountCrossings(g, orders)

	passes := b.Passes
	if passes <= 0 {
		passes = DefaultPasses
	}
	for pass := 0; pass < passes && bestCross > 0; pass++ {
		if ctx.Err() != nil {
			break
		}
		down := pass%2 == 0
		if down {
			for _, r := range rows[1:] {
				orders[r] = sortByBarycenter(g, orders[r], dag.PosMap(orders[r-1]), true)
			}
		} else {
			for i := len(rows) - 2; i >= 0; i-- {
				r := rows[i]
				orders[r] = sortByBarycenter(g, orders[r], dag.PosMap(orders[r+1]), false)
			}
		}
		transpose(g, rows, orders)

		if c := dag.CountCrossings(g, orders); c < bestCross {
			bestCross = c
			best = cloneOrders(orders)
		}
	}
	return best
}

// sortByBarycenter orders row by the mean position of each node's
// neighbours in the adjacent row. Nodes without neighbours keep their index
// as key, so they stay roughly in place.
func sortByBarycenter(g *dag.DAG, row []string, adjPos map[string]int, useParents bool) []string {
	type keyed struct {
		id  string
		key float64
	}
	ks := make([]keyed, len(row))
	for i, id := range row {
		nbrs := g.Children(id)
		if useParents {
			nbrs = g.Parents(id)
		}
		sum, n := 0.0, 0
		for _, nb := range nbrs {
			if p, ok := adjPos[nb]; ok {
				sum += float64(p)
				n++
			}
		}
		key := float64(i)
		if n > 0 {
			key = sum / float64(n)
		}
		ks[i] = keyed{id, key}
	}
	slices.SortStableFunc(ks, func(a, b keyed) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = k.id
	}
	return out
}

// transpose swaps adjacent nodes while the swap reduces crossings with both
// neighbouring rows.
func transpose(g *dag.DAG, rows []int, orders map[int][]string) {
	for round := 0; round < maxTransposeRounds; round++ {
		improved := false
		for _, r := range rows {
			row := orders[r]
			if len(row) < 2 {
				continue
			}
			up := dag.PosMap(orders[r-1])
			down := dag.PosMap(orders[r+1])
			cost := func(a, b string) int {
				return dag.CountPairCrossingsWithPos(g, a, b, up, true) +
					dag.CountPairCrossingsWithPos(g, a, b, down, false)
			}
			for i := 0; i+1 < len(row); i++ {
				if cost(row[i+1], row[i]) < cost(row[i], row[i+1]) {
					row[i], row[i+1] = row[i+1], row[i]
					improved = true
				}
			}
		}
		if !improved {
			return
		}
	}
}

func cloneOrders(orders map[int][]string) map[int][]string {
	out := make(map[int][]string, len(orders))
	for r, ids := range maps.All(orders) {
		out[r] = slices.Clone(ids)
	}
	return out
}
