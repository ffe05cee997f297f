package layout

import (
	"context"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// Layouter computes positions for a graph. Implementations must not modify
// the input nodes.
type Layouter interface {
	Layout(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error)
}

// LayouterFunc adapts a function to [Layouter].
type LayouterFunc func(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error)

func (f LayouterFunc) Layout(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error) {
	return f(ctx, nodes, edges, opts)
}

// Engine is the default [Layouter]. A nil Orderer means [Barycentric].
type Engine struct {
	Orderer Orderer
}

func (e Engine) Layout(ctx context.Context, nodes []*graph.Node, edges []graph.Edge, opts Options) ([]*graph.Node, error) {
	res, err := Compute(ctx, nodes, edges, opts, e.Orderer)
	if err != nil {
		return nil, err
	}
	return res.Nodes, nil
}
