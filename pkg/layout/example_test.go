package layout_test

import (
	"fmt"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/layout"
)

func ExampleComputeLayout() {
	trade := graph.NewNode(graph.KindData, "Trade", "cdm")
	trade.Members = []graph.Member{{Name: "party", TypeName: "Party"}}
	party := graph.NewNode(graph.KindData, "Party", "cdm")

	edges := []graph.Edge{
		graph.NewEdge(trade.ID, party.ID, graph.EdgeAttributeRef, "party", "(1..1)"),
	}
	for _, n := range layout.ComputeLayout([]*graph.Node{trade, party}, edges, layout.DefaultOptions()) {
		fmt.Printf("%s x=%.0f y=%.0f w=%.0f h=%.0f\n", n.Name, n.Position.X, n.Position.Y, n.Position.Width, n.Position.Height)
	}
	// Output:
	// Trade x=0 y=0 w=220 h=70
	// Party x=0 y=150 w=220 h=48
}
