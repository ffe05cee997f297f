package dot

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/typegraph/pkg/graph"
)

func sample() ([]*graph.Node, []graph.Edge) {
	party := graph.NewNode(graph.KindData, "Party", "cdm.base")
	trade := graph.NewNode(graph.KindData, "Trade", "cdm.event")
	trade.Members = []graph.Member{{Name: "party", TypeName: "Party", Cardinality: "(1..*)"}}
	exec := graph.NewNode(graph.KindData, "Execution", "cdm.event")
	exec.ParentName = "Trade"
	side := graph.NewNode(graph.KindEnum, "Side", "cdm.base")
	side.Members = []graph.Member{{Name: "Buy", DisplayName: "buy"}, {Name: "Sell"}}

	edges := []graph.Edge{
		graph.NewEdge(trade.ID, party.ID, graph.EdgeAttributeRef, "party", "(1..*)"),
		graph.NewEdge(exec.ID, trade.ID, graph.EdgeExtends, "", ""),
	}
	return []*graph.Node{party, trade, exec, side}, edges
}

func TestToDOT(t *testing.T) {
	nodes, edges := sample()
	out := ToDOT(nodes, edges, Options{})

	for _, want := range []string{
		"digraph G {",
		"rankdir=TB;",
		`label="cdm.base";`,
		`label="cdm.event";`,
		`"cdm.event::Trade" [label="Trade"`,
		`"cdm.base::Side" [label="«enum» Side"`,
		`"cdm.event::Trade" -> "cdm.base::Party" [label="party (1..*)"];`,
		`"cdm.event::Execution" -> "cdm.event::Trade" [arrowhead=onormal];`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("ToDOT output missing %q\n%s", want, out)
		}
	}
	if strings.Index(out, "cdm.base") > strings.Index(out, "cdm.event") {
		t.Error("clusters should be sorted by namespace")
	}
}

func TestToDOT_Members(t *testing.T) {
	nodes, edges := sample()
	out := ToDOT(nodes, edges, Options{Members: true, Direction: "LR", Flat: true})

	if !strings.Contains(out, "rankdir=LR;") {
		t.Error("direction not applied")
	}
	if strings.Contains(out, "subgraph") {
		t.Error("flat output should not contain clusters")
	}
	if !strings.Contains(out, `label="Trade\n\nparty Party (1..*)\l"`) {
		t.Errorf("member lines missing:\n%s", out)
	}
	if !strings.Contains(out, `Buy \"buy\"\lSell\l`) {
		t.Errorf("enum values missing:\n%s", out)
	}
}

func TestToDOT_SkipsDanglingEdges(t *testing.T) {
	nodes, edges := sample()
	out := ToDOT(nodes[:1], edges, Options{})
	if strings.Contains(out, "->") {
		t.Errorf("edges to hidden nodes should be skipped:\n%s", out)
	}
}

func TestToDOT_Escaping(t *testing.T) {
	n := graph.NewNode(graph.KindData, `Odd"Name\`, "ns")
	out := ToDOT([]*graph.Node{n}, nil, Options{Flat: true})
	if !strings.Contains(out, `"ns::Odd\"Name\\" [label="Odd\"Name\\"`) {
		t.Errorf("name not escaped:\n%s", out)
	}
}

func TestToDOT_Diagnostics(t *testing.T) {
	n := graph.NewNode(graph.KindData, "Broken", "ns")
	n.Errors = []graph.ValidationError{{Code: "S-01", NodeID: n.ID, Message: "x", Severity: graph.SeverityError}}
	w := graph.NewNode(graph.KindData, "Warned", "ns")
	w.Errors = []graph.ValidationError{{Code: "S-07", NodeID: w.ID, Message: "x", Severity: graph.SeverityWarning}}

	out := ToDOT([]*graph.Node{n, w}, nil, Options{Flat: true})
	if !strings.Contains(out, `"ns::Broken" [label="Broken", fillcolor="#e8f0fe", color=red, penwidth=2];`) {
		t.Errorf("error outline missing:\n%s", out)
	}
	if strings.Contains(out, `"ns::Warned" [label="Warned", fillcolor="#e8f0fe", color=red`) {
		t.Error("warnings should not be outlined")
	}
}

func TestRenderSVG(t *testing.T) {
	nodes, edges := sample()
	svg, err := RenderSVG(context.Background(), ToDOT(nodes, edges, Options{Members: true}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 `) {
		t.Errorf("unexpected svg header: %.200s", svg)
	}
	if !strings.Contains(string(svg), "Trade") {
		t.Error("svg should contain node labels")
	}
}

func TestNormalizeViewBox(t *testing.T) {
	in := []byte(`<svg width="100pt" height="50pt" viewBox="0.00 0.00 100.00 50.00" xmlns="x"><g/></svg>`)
	got := string(normalizeViewBox(in))
	want := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 100.00 50.00" width="100" height="50"><g/></svg>`
	if got != want {
		t.Errorf("normalizeViewBox = %s, want %s", got, want)
	}
	if got := normalizeViewBox([]byte("<svg>")); string(got) != "<svg>" {
		t.Error("input without viewBox should be unchanged")
	}
}
