package layout

import (
	"context"
	"math"
	"time"

	"github.com/matzehuels/typegraph/pkg/dag"
	"github.com/matzehuels/typegraph/pkg/dag/transform"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/observability"
)

// Result is a computed layout.
type Result struct {
	// Nodes are copies of the input nodes with Position set, in input order.
	Nodes []*graph.Node
	// Width and Height bound all positioned nodes.
	Width, Height float64
	// Ranks is the number of ranks, Crossings the remaining edge crossings.
	Ranks     int
	Crossings int
	// Reversed counts edges reversed to break cycles.
	Reversed int
}

// ComputeLayout positions nodes with the default orderer. It never fails;
// empty input yields an empty result.
func ComputeLayout(nodes []*graph.Node, edges []graph.Edge, opts Options) []*graph.Node {
	res, _ := Compute(context.Background(), nodes, edges, opts, nil)
	return res.Nodes
}

// Compute runs the layout pipeline. A nil orderer means [Barycentric].
// It returns ctx.Err() if ctx is canceled before positions are assigned.
func Compute(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options, orderer Orderer) (Result, error) {
	hooks := observability.Layout()
	hooks.OnLayoutStart(ctx, len(nodes))
	start := time.Now()

	res, err := compute(ctx, nodes, edges, opts.WithDefaults(), orderer)
	hooks.OnLayoutComplete(ctx, len(nodes), time.Since(start), err)
	return res, err
}

func compute(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options, orderer Orderer) (Result, error) {
	if len(nodes) == 0 {
		return Result{Nodes: []*graph.Node{}}, nil
	}
	if orderer == nil {
		orderer = Barycentric{Passes: opts.Passes}
	}

	g := dag.New()
	for _, n := range nodes {
		w, h := opts.NodeWidth, opts.NodeHeight(len(n.Members))
		if opts.Direction.Horizontal() {
			w, h = h, w
		}
		// Duplicate ids are left out and keep their previous position.
		_ = g.AddNode(dag.Node{ID: n.ID, Width: w, Height: h})
	}
	for _, e := range edges {
		_ = g.AddEdge(dag.Edge{From: e.Source, To: e.Target})
	}

	reversed := transform.BreakCycles(g)
	transform.AssignLayers(g)
	transform.Subdivide(g)

	orders := orderer.OrderRows(ctx, g)
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	for r, ids := range orders {
		g.SetRowOrder(r, ids)
	}

	centers := assignCoordinates(g, opts)

	res := Result{
		Nodes:     make([]*graph.Node, len(nodes)),
		Ranks:     len(g.RowIDs()),
		Crossings: dag.CountCrossings(g, g.Orders()),
		Reversed:  reversed,
	}
	placed := make(map[string]bool, len(nodes))
	for i, n := range nodes {
		c := *n
		if p, ok := centers[n.ID]; ok && !placed[n.ID] {
			placed[n.ID] = true
			c.Position = p
		}
		res.Nodes[i] = &c
	}
	res.Width, res.Height = bounds(res.Nodes)
	return res, nil
}

// assignCoordinates computes top-left positions for all regular vertices.
// Work happens in a top-to-bottom frame ("x" along ranks, "y" across) and is
// rotated at the end.
func assignCoordinates(g *dag.DAG, opts Options) map[string]graph.Position {
	rows := g.RowIDs()

	// Rank centers.
	rankY := make(map[int]float64, len(rows))
	y := 0.0
	for i, r := range rows {
		depth := 0.0
		for _, n := range g.NodesInRow(r) {
			depth = math.Max(depth, n.Height)
		}
		if i == 0 {
			y = depth / 2
		} else {
			y += depth/2 + opts.RankSep
		}
		rankY[r] = y
		y += depth / 2
	}

	x := make(map[string]float64, g.NodeCount())
	for _, r := range rows {
		pack(g, g.NodesInRow(r), x, opts.NodeSep, nil)
	}

	// Pull vertices toward their neighbours, alternating direction.
	const rounds = 4
	for round := 0; round < rounds; round++ {
		if round%2 == 0 {
			for _, r := range rows[1:] {
				pack(g, g.NodesInRow(r), x, opts.NodeSep, func(n *dag.Node) []string { return g.Parents(n.ID) })
			}
		} else {
			for i := len(rows) - 2; i >= 0; i-- {
				pack(g, g.NodesInRow(rows[i]), x, opts.NodeSep, func(n *dag.Node) []string { return g.Children(n.ID) })
			}
		}
	}

	out := make(map[string]graph.Position, g.NodeCount())
	minX, minY := math.Inf(1), math.Inf(1)
	for _, n := range g.Nodes() {
		if n.IsVirtual() {
			continue
		}
		cx, cy := rotate(opts.Direction, x[n.ID], rankY[n.Row])
		w, h := n.Width, n.Height
		if opts.Direction.Horizontal() {
			w, h = h, w
		}
		p := graph.Position{X: cx - w/2, Y: cy - h/2, Width: w, Height: h}
		out[n.ID] = p
		minX, minY = math.Min(minX, p.X), math.Min(minY, p.Y)
	}
	for id, p := range out {
		p.X -= minX
		p.Y -= minY
		out[id] = p
	}
	return out
}

// pack places a row left to right. With neighbours set, each vertex aims at
// the mean x of its neighbours; the row is then shifted so that the mean
// displacement from those targets is zero. Without neighbours the row is
// packed tightly and centered on 0.
func pack(g *dag.DAG, row []*dag.Node, x map[string]float64, nodeSep float64, neighbours func(*dag.Node) []string) {
	if len(row) == 0 {
		return
	}
	want := make([]float64, len(row))
	for i, n := range row {
		want[i] = math.Inf(-1)
		if neighbours == nil {
			continue
		}
		sum, cnt := 0.0, 0
		for _, nb := range neighbours(n) {
			if v, ok := x[nb]; ok {
				sum += v
				cnt++
			}
		}
		if cnt > 0 {
			want[i] = sum / float64(cnt)
		} else {
			want[i] = x[n.ID]
		}
	}

	pos := make([]float64, len(row))
	for i, n := range row {
		pos[i] = want[i]
		if i > 0 {
			prev := row[i-1]
			minPos := pos[i-1] + (prev.Width+n.Width)/2 + gap(prev, n, nodeSep)
			if pos[i] < minPos {
				pos[i] = minPos
			}
		} else if math.IsInf(pos[i], -1) {
			pos[i] = 0
		}
	}

	shift := 0.0
	if neighbours == nil {
		shift = -(pos[0] + pos[len(pos)-1]) / 2
	} else {
		for i := range pos {
			shift += want[i] - pos[i]
		}
		shift /= float64(len(pos))
	}
	for i, n := range row {
		x[n.ID] = pos[i] + shift
	}
}

// gap is the separation between two neighbours in a row. Virtual vertices
// sit closer together.
func gap(a, b *dag.Node, nodeSep float64) float64 {
	if a.IsVirtual() || b.IsVirtual() {
		return nodeSep / 2
	}
	return nodeSep
}

func rotate(d Direction, x, y float64) (float64, float64) {
	switch d {
	case BottomTop:
		return x, -y
	case LeftRight:
		return y, x
	case RightLeft:
		return -y, x
	}
	return x, y
}

func bounds(nodes []*graph.Node) (w, h float64) {
	for _, n := range nodes {
		w = math.Max(w, n.Position.X+n.Position.Width)
		h = math.Max(h, n.Position.Y+n.Position.Height)
	}
	return w, h
}
