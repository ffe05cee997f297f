package dag_test

import (
	"fmt"

	"github.com/matzehuels/typegraph/pkg/dag"
)

func ExampleDAG() {
	g := dag.New()
	_ = g.AddNode(dag.Node{ID: "Trade", Row: 0})
	_ = g.AddNode(dag.Node{ID: "Party", Row: 1})
	_ = g.AddNode(dag.Node{ID: "Account", Row: 1})
	_ = g.AddEdge(dag.Edge{From: "Trade", To: "Party"})
	_ = g.AddEdge(dag.Edge{From: "Trade", To: "Account"})

	fmt.Println("children:", g.Children("Trade"))
	fmt.Println("row 1:", dag.NodeIDs(g.NodesInRow(1)))
	fmt.Println("valid:", g.Validate() == nil)
	// Output:
	// children: [Party Account]
	// row 1: [Party Account]
	// valid: true
}

func ExampleCountLayerCrossings() {
	g := dag.New()
	for _, id := range []string{"A", "B", "x", "y"} {
		_ = g.AddNode(dag.Node{ID: id})
	}
	_ = g.AddEdge(dag.Edge{From: "A", To: "y"})
	_ = g.AddEdge(dag.Edge{From: "B", To: "x"})

	fmt.Println(dag.CountLayerCrossings(g, []string{"A", "B"}, []string{"x", "y"}))
	fmt.Println(dag.CountLayerCrossings(g, []string{"A", "B"}, []string{"y", "x"}))
	// Output:
	// 1
	// 0
}
