package validate

import (
	"strings"
	"testing"

	"github.com/matzehuels/typegraph/pkg/graph"
)

func TestValidateCardinality(t *testing.T) {
	tests := []struct {
		in      string
		wantErr string
	}{
		{"(1..1)", ""},
		{"(0..*)", ""},
		{"2..5", ""},
		{" ( 0 .. 3 ) ", ""},
		{"(5..2)", "exceeds upper bound"},
		{"abc", "expected (inf..sup)"},
		{"", "expected (inf..sup)"},
		{"(1..1", "expected (inf..sup)"},
		{"(-1..2)", "expected (inf..sup)"},
		{"(*..2)", "expected (inf..sup)"},
	}
	for _, tt := range tests {
		err := ValidateCardinality(tt.in)
		if tt.wantErr == "" {
			if err != nil {
				t.Errorf("ValidateCardinality(%q) = %v, want nil", tt.in, err)
			}
			continue
		}
		if err == nil {
			t.Errorf("ValidateCardinality(%q) = nil, want error containing %q", tt.in, tt.wantErr)
			continue
		}
		if !strings.Contains(err.Error(), tt.wantErr) {
			t.Errorf("ValidateCardinality(%q) = %v, want error containing %q", tt.in, err, tt.wantErr)
		}
	}
}

func TestValidateCardinality_DistinctMessages(t *testing.T) {
	order := ValidateCardinality("(5..2)")
	format := ValidateCardinality("abc")
	if order == nil || format == nil {
		t.Fatalf("expected both to fail, got %v and %v", order, format)
	}
	if order.Error() == format.Error() {
		t.Errorf("messages should differ, both are %q", order.Error())
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Party", ""},
		{"_internal2", ""},
		{"", CodeEmptyName},
		{"   ", CodeEmptyName},
		{"2Party", CodeInvalidIdentifier},
		{"Type[A]", CodeInvalidIdentifier},
		{"Type.C", CodeInvalidIdentifier},
	}
	for _, tt := range tests {
		got := ValidateName(tt.name)
		if tt.want == "" {
			if got != nil {
				t.Errorf("ValidateName(%q) = %v, want nil", tt.name, got)
			}
			continue
		}
		if got == nil || got.Code != tt.want {
			t.Errorf("ValidateName(%q) = %v, want code %s", tt.name, got, tt.want)
		}
	}
}

func extends(child, parent string) graph.Edge {
	return graph.NewEdge(child, parent, graph.EdgeExtends, "", "")
}

func TestDetectCircularInheritance(t *testing.T) {
	edges := []graph.Edge{
		extends("b", "a"),
		extends("c", "b"),
		extends("x", "y"),
		extends("y", "x"), // unrelated cycle
		graph.NewEdge("a", "c", graph.EdgeAttributeRef, "ref", ""),
	}

	tests := []struct {
		child, parent string
		want          bool
	}{
		{"a", "a", true},
		{"a", "c", true},  // c -> b -> a
		{"a", "b", true},  // b -> a
		{"c", "a", false}, // a has no parent
		{"d", "c", false},
		{"a", "x", false}, // terminates on x <-> y
		{"x", "y", true},
	}
	for _, tt := range tests {
		if got := DetectCircularInheritance(tt.child, tt.parent, edges); got != tt.want {
			t.Errorf("DetectCircularInheritance(%q, %q) = %v, want %v", tt.child, tt.parent, got, tt.want)
		}
	}
}

func codes(diags []graph.ValidationError) []string {
	out := make([]string, len(diags))
	for i, d := range diags {
		out[i] = d.Code + " " + d.NodeID + "." + d.Member
	}
	return out
}

func TestGraph(t *testing.T) {
	a := graph.NewNode(graph.KindData, "A", "ns")
	a.Members = []graph.Member{
		{Name: "x", TypeName: "B", Cardinality: "(0..1)"},
		{Name: "x", TypeName: "B", Cardinality: "(3..1)"},
	}
	b := graph.NewNode(graph.KindData, "B", "ns")
	b.ParentName = "C"
	c := graph.NewNode(graph.KindData, "C", "ns")
	c.ParentName = "B"
	dup := graph.NewNode(graph.KindData, "A", "ns")
	e := graph.NewNode(graph.KindEnum, "E", "ns")
	e.Members = []graph.Member{{Name: "One"}, {Name: "One"}}
	bad := graph.NewNode(graph.KindData, "not-valid", "ns")

	nodes := []*graph.Node{a, b, c, dup, e, bad}
	edges := []graph.Edge{extends(b.ID, c.ID), extends(c.ID, b.ID)}

	got := codes(Graph(nodes, edges))
	want := []string{
		"S-01 ns::A.x",
		"S-04 ns::A.x",
		"S-02 ns::B.",
		"S-02 ns::C.",
		"S-01 ns::A.",
		"S-05 ns::E.One",
		"S-07 ns::not-valid.",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("Graph() =\n  %v\nwant\n  %v", got, want)
	}
}

func TestGraph_Clean(t *testing.T) {
	a := graph.NewNode(graph.KindData, "A", "ns")
	b := graph.NewNode(graph.KindData, "B", "ns")
	b.ParentName = "A"
	if diags := Graph([]*graph.Node{a, b}, []graph.Edge{extends(b.ID, a.ID)}); len(diags) != 0 {
		t.Errorf("Graph() = %v, want no diagnostics", diags)
	}
}

func TestByNode(t *testing.T) {
	diags := []graph.ValidationError{
		{Code: CodeEmptyName, NodeID: "a"},
		{Code: CodeCardinality, NodeID: "a"},
		{Code: CodeEmptyName, NodeID: "b"},
	}
	m := ByNode(diags)
	if len(m["a"]) != 2 || len(m["b"]) != 1 {
		t.Errorf("ByNode() = %v", m)
	}
}
