package layout

import (
	"context"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/matzehuels/typegraph/pkg/cache"
	"github.com/matzehuels/typegraph/pkg/dag"
	"github.com/matzehuels/typegraph/pkg/graph"
)

func node(name string, members int) *graph.Node {
	n := graph.NewNode(graph.KindData, name, "ns")
	for i := range members {
		n.Members = append(n.Members, graph.Member{Name: fmt.Sprintf("m%d", i)})
	}
	return n
}

func ref(from, to *graph.Node) graph.Edge {
	return graph.NewEdge(from.ID, to.ID, graph.EdgeAttributeRef, "x", "")
}

func byID(nodes []*graph.Node) map[string]*graph.Node {
	m := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		m[n.ID] = n
	}
	return m
}

func overlaps(a, b graph.Position) bool {
	return a.X < b.X+b.Width && b.X < a.X+a.Width && a.Y < b.Y+b.Height && b.Y < a.Y+a.Height
}

func TestComputeLayout_Empty(t *testing.T) {
	got := ComputeLayout(nil, nil, Options{})
	if got == nil || len(got) != 0 {
		t.Errorf("ComputeLayout(nil) = %v, want empty non-nil", got)
	}
}

func TestComputeLayout_Sizes(t *testing.T) {
	a := node("A", 3)
	got := ComputeLayout([]*graph.Node{a}, nil, Options{})

	p := got[0].Position
	want := graph.Position{X: 0, Y: 0, Width: DefaultNodeWidth, Height: DefaultHeaderHeight + 3*DefaultMemberHeight + DefaultPadding}
	if p != want {
		t.Errorf("Position = %+v, want %+v", p, want)
	}
	if a.Position != (graph.Position{}) {
		t.Errorf("input node was modified")
	}
	if got[0] == a {
		t.Errorf("result should be a copy")
	}
}

func TestComputeLayout_Directions(t *testing.T) {
	a, b := node("A", 1), node("B", 1)
	edges := []graph.Edge{ref(a, b)}

	tests := []struct {
		dir   Direction
		check func(pa, pb graph.Position) bool
	}{
		{TopBottom, func(pa, pb graph.Position) bool { return pa.Y+pa.Height <= pb.Y }},
		{BottomTop, func(pa, pb graph.Position) bool { return pb.Y+pb.Height <= pa.Y }},
		{LeftRight, func(pa, pb graph.Position) bool { return pa.X+pa.Width <= pb.X }},
		{RightLeft, func(pa, pb graph.Position) bool { return pb.X+pb.Width <= pa.X }},
	}
	for _, tt := range tests {
		got := byID(ComputeLayout([]*graph.Node{a, b}, edges, Options{Direction: tt.dir}))
		pa, pb := got[a.ID].Position, got[b.ID].Position
		if !tt.check(pa, pb) {
			t.Errorf("%s: A=%+v B=%+v not in flow order", tt.dir, pa, pb)
		}
		if pa.Width != DefaultNodeWidth {
			t.Errorf("%s: width = %v, want %v regardless of direction", tt.dir, pa.Width, DefaultNodeWidth)
		}
	}
}

func TestComputeLayout_RankSeparation(t *testing.T) {
	a, b := node("A", 0), node("B", 0)
	got := byID(ComputeLayout([]*graph.Node{a, b}, []graph.Edge{ref(a, b)}, Options{RankSep: 100}))
	pa, pb := got[a.ID].Position, got[b.ID].Position
	if gap := pb.Y - (pa.Y + pa.Height); math.Abs(gap-100) > 1e-9 {
		t.Errorf("rank gap = %v, want 100", gap)
	}
}

func TestComputeLayout_NoOverlap(t *testing.T) {
	var nodes []*graph.Node
	var edges []graph.Edge
	root := node("Root", 2)
	nodes = append(nodes, root)
	for i := range 12 {
		child := node(fmt.Sprintf("C%d", i), i%4)
		nodes = append(nodes, child)
		edges = append(edges, ref(root, child))
		if i > 0 {
			edges = append(edges, ref(nodes[i], child))
		}
	}
	// A cycle and a self loop must not break anything.
	edges = append(edges, ref(nodes[5], root), ref(root, root))

	got := ComputeLayout(nodes, edges, Options{NodeSep: 20})
	if len(got) != len(nodes) {
		t.Fatalf("got %d nodes, want %d", len(got), len(nodes))
	}
	for i := range got {
		for j := i + 1; j < len(got); j++ {
			if overlaps(got[i].Position, got[j].Position) {
				t.Errorf("%s %+v overlaps %s %+v", got[i].ID, got[i].Position, got[j].ID, got[j].Position)
			}
		}
	}
}

func TestComputeLayout_DanglingEdgesAndDuplicates(t *testing.T) {
	a := node("A", 0)
	dup := node("A", 5)
	dup.Position = graph.Position{X: 7, Y: 9}
	edges := []graph.Edge{graph.NewEdge(a.ID, "ns::Missing", graph.EdgeExtends, "", "")}

	got := ComputeLayout([]*graph.Node{a, dup}, edges, Options{})
	if len(got) != 2 {
		t.Fatalf("got %d nodes, want 2", len(got))
	}
	if got[1].Position != dup.Position {
		t.Errorf("duplicate should keep its previous position, got %+v", got[1].Position)
	}
}

func TestCompute_Stats(t *testing.T) {
	a, b, c := node("A", 0), node("B", 0), node("C", 0)
	edges := []graph.Edge{ref(a, b), ref(b, c), ref(a, c), ref(c, a)}

	res, err := Compute(context.Background(), []*graph.Node{a, b, c}, edges, Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if res.Ranks != 3 {
		t.Errorf("Ranks = %d, want 3", res.Ranks)
	}
	if res.Reversed != 1 {
		t.Errorf("Reversed = %d, want 1", res.Reversed)
	}
	if res.Crossings != 0 {
		t.Errorf("Crossings = %d, want 0", res.Crossings)
	}
	if res.Width <= 0 || res.Height <= 0 {
		t.Errorf("bounds = %vx%v", res.Width, res.Height)
	}
}

func TestCompute_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	a, b := node("A", 0), node("B", 0)
	if _, err := Compute(ctx, []*graph.Node{a, b}, []graph.Edge{ref(a, b)}, Options{}, nil); err != context.Canceled {
		t.Errorf("Compute() error = %v, want context.Canceled", err)
	}
}

func TestBarycentric_RemovesCrossings(t *testing.T) {
	g := dag.New()
	for _, id := range []string{"a", "b", "c", "x", "y", "z"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "a", To: "z"})
	_ = g.AddEdge(dag.Edge{From: "b", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "c", To: "x"})
	g.SetRows(map[string]int{"x": 1, "y": 1, "z": 1})

	if before := dag.CountCrossings(g, g.Orders()); before != 3 {
		t.Fatalf("initial crossings = %d, want 3", before)
	}
	orders := Barycentric{}.OrderRows(context.Background(), g)
	if got := dag.CountCrossings(g, orders); got != 0 {
		t.Errorf("crossings after ordering = %d, want 0 (orders %v)", got, orders)
	}
}

func TestParseDirection(t *testing.T) {
	for _, s := range []string{"TB", "bt", " lr ", "Rl"} {
		if _, err := ParseDirection(s); err != nil {
			t.Errorf("ParseDirection(%q) error: %v", s, err)
		}
	}
	if _, err := ParseDirection("up"); err == nil {
		t.Errorf("ParseDirection(up) should fail")
	}
}

func TestWithDefaults(t *testing.T) {
	got := Options{Direction: "lr", NodeSep: 10}.WithDefaults()
	if got.Direction != LeftRight || got.NodeSep != 10 || got.RankSep != DefaultRankSep || got.Passes != DefaultPasses {
		t.Errorf("WithDefaults() = %+v", got)
	}
	if d := (Options{Direction: "sideways"}).WithDefaults().Direction; d != TopBottom {
		t.Errorf("invalid direction should default to TB, got %s", d)
	}
}

func TestWorker_DeliversLatestOnly(t *testing.T) {
	release := make(chan struct{})
	var calls sync.WaitGroup
	calls.Add(2)
	slow := LayouterFunc(func(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error) {
		calls.Done()
		<-release
		return nodes, nil
	})

	var mu sync.Mutex
	var got []Update
	w := NewWorker(slow, func(u Update) {
		mu.Lock()
		got = append(got, u)
		mu.Unlock()
	})

	ctx := context.Background()
	first := w.Submit(ctx, []*graph.Node{node("A", 0)}, nil, Options{})
	second := w.Submit(ctx, []*graph.Node{node("B", 0)}, nil, Options{})
	calls.Wait()
	close(release)
	w.Wait()

	if w.IsCurrent(first) || !w.IsCurrent(second) || w.Latest() != second {
		t.Errorf("generations: first=%d second=%d latest=%d", first, second, w.Latest())
	}
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Fatalf("delivered %d updates, want 1", len(got))
	}
	if got[0].Generation != second || got[0].Nodes[0].Name != "B" {
		t.Errorf("delivered %+v, want generation %d with B", got[0], second)
	}
}

func TestWorker_Close(t *testing.T) {
	delivered := make(chan Update, 1)
	blocking := LayouterFunc(func(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	w := NewWorker(blocking, func(u Update) { delivered <- u })
	w.Submit(context.Background(), nil, nil, Options{})

	done := make(chan struct{})
	go func() {
		w.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close() did not return")
	}
	select {
	case u := <-delivered:
		t.Errorf("closed worker delivered %+v", u)
	default:
	}
}

type countingLayouter struct {
	mu    sync.Mutex
	calls int
}

func (c *countingLayouter) Layout(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return Engine{}.Layout(ctx, nodes, edges, opts)
}

func TestCachedEngine(t *testing.T) {
	ctx := context.Background()
	mem, err := cache.NewMemoryCache(8)
	if err != nil {
		t.Fatal(err)
	}
	inner := &countingLayouter{}
	e := &CachedEngine{Inner: inner, Cache: mem}

	a, b := node("A", 1), node("B", 2)
	nodes, edges := []*graph.Node{a, b}, []graph.Edge{ref(a, b)}

	first, err := e.Layout(ctx, nodes, edges, Options{})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.Layout(ctx, nodes, edges, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if inner.calls != 1 {
		t.Errorf("inner called %d times, want 1", inner.calls)
	}
	for i := range first {
		if first[i].Position != second[i].Position {
			t.Errorf("cached position %+v != computed %+v", second[i].Position, first[i].Position)
		}
	}

	if _, err := e.Layout(ctx, nodes, edges, Options{Direction: LeftRight}); err != nil {
		t.Fatal(err)
	}
	if inner.calls != 2 {
		t.Errorf("different options should miss, inner calls = %d", inner.calls)
	}
}

func TestKey(t *testing.T) {
	a, b := node("A", 1), node("B", 2)
	k1 := Key([]*graph.Node{a, b}, nil, Options{})
	k2 := Key([]*graph.Node{a, b}, nil, DefaultOptions())
	if k1 != k2 {
		t.Errorf("zero options and defaults should share a key")
	}
	a2 := node("A", 2)
	if Key([]*graph.Node{a2, b}, nil, Options{}) == k1 {
		t.Errorf("member count should change the key")
	}
	moved := *a
	moved.Position = graph.Position{X: 100}
	moved.Definition = "changed"
	if Key([]*graph.Node{&moved, b}, nil, Options{}) != k1 {
		t.Errorf("position and definition should not change the key")
	}
}
