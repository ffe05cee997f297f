package exporter

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/importer"
)

func loadTrade(t *testing.T) []*ast.Model {
	t.Helper()
	models, err := ast.ReadModelsFile("../importer/testdata/trade.json")
	require.NoError(t, err)
	return models
}

func supported(el *ast.Element) bool {
	switch el.Type {
	case ast.TypeData, ast.TypeChoice, ast.TypeEnumeration, ast.TypeFunction, ast.TypeTypeAlias:
		return true
	}
	return false
}

func elementMembers(el *ast.Element) []string {
	var names []string
	for _, a := range el.Attributes {
		names = append(names, a.Name)
	}
	for _, o := range el.Options {
		names = append(names, o.TypeCall.TypeName())
	}
	for _, v := range el.EnumValues {
		names = append(names, v.Name)
	}
	for _, in := range el.Inputs {
		names = append(names, in.Name)
	}
	slices.Sort(names)
	return names
}

func find(models []*Model, namespace, name string) *Element {
	for _, m := range models {
		if m.Name != namespace {
			continue
		}
		for _, el := range m.Elements {
			if el.Name == name {
				return el
			}
		}
	}
	return nil
}

func TestToModels_RoundTrip(t *testing.T) {
	original := loadTrade(t)
	res := importer.ToGraph(original, nil)
	models := ToModels(res.Nodes, res.Edges)

	require.Len(t, models, 2)
	for _, om := range original {
		for _, el := range om.Elements {
			if !supported(el) {
				continue
			}
			got := find(models, om.Name, el.Name)
			require.NotNil(t, got, "%s.%s", om.Name, el.Name)
			assert.Equal(t, el.Type, got.Type, el.Name)
			assert.Equal(t, elementMembers(el), elementMembers(&got.Element), el.Name)
			assert.Same(t, el, got.Source)
		}
	}
}

func TestToModels_Reimport(t *testing.T) {
	res := importer.ToGraph(loadTrade(t), nil)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, ToModels(res.Nodes, res.Edges)))
	models, err := ast.ReadModels(&buf)
	require.NoError(t, err)

	again := importer.ToGraph(models, nil)
	assert.Equal(t, nodeIDs(res.Nodes), nodeIDs(again.Nodes))
	assert.ElementsMatch(t, edgeIDs(res.Edges), edgeIDs(again.Edges))

	for i, n := range res.Nodes {
		m := again.Nodes[i]
		assert.Equal(t, n.ParentName, m.ParentName, n.ID)
		assert.Equal(t, n.OutputType, m.OutputType, n.ID)
		assert.Equal(t, n.AliasOf, m.AliasOf, n.ID)
		for j := range n.Members {
			assert.Equal(t, n.Members[j].Cardinality, m.Members[j].Cardinality, n.ID)
			assert.Equal(t, n.Members[j].DisplayName, m.Members[j].DisplayName, n.ID)
		}
	}
}

func TestToModels_Shape(t *testing.T) {
	n := graph.NewNode(graph.KindData, "Trade", "cdm.event")
	models := ToModels([]*graph.Node{n}, nil)

	data, err := json.Marshal(models[0])
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, "Model", raw["$type"])
	assert.Equal(t, "cdm.event", raw["name"])
	assert.Equal(t, Version, raw["version"])
	assert.Equal(t, []any{}, raw["imports"])
	require.Len(t, raw["elements"], 1)
	assert.Equal(t, "Data", raw["elements"].([]any)[0].(map[string]any)["$type"])
}

func TestToModels_ParentFromEdges(t *testing.T) {
	base := graph.NewNode(graph.KindData, "Base", "ns")
	child := graph.NewNode(graph.KindData, "Child", "ns")
	child.ParentName = "Stale"
	orphan := graph.NewNode(graph.KindEnum, "Orphan", "ns")
	orphan.ParentName = "Elsewhere"
	edges := []graph.Edge{graph.NewEdge(child.ID, base.ID, graph.EdgeExtends, "", "")}

	models := ToModels([]*graph.Node{base, child, orphan}, edges)

	assert.Equal(t, "Base", find(models, "ns", "Child").SuperType.Name(), "edge wins over field")
	assert.Equal(t, "Elsewhere", find(models, "ns", "Orphan").Parent.Name(), "field is the fallback")
	assert.Nil(t, find(models, "ns", "Base").SuperType)
}

func TestToModels_Cardinality(t *testing.T) {
	n := graph.NewNode(graph.KindData, "Trade", "ns")
	n.Members = []graph.Member{
		{Name: "a", TypeName: "A", Cardinality: "(0..*)"},
		{Name: "b", TypeName: "B", Cardinality: "2..5"},
		{Name: "c", TypeName: "C", Cardinality: "garbage"},
	}
	attrs := find(ToModels([]*graph.Node{n}, nil), "ns", "Trade").Attributes
	require.Len(t, attrs, 3)

	assert.Equal(t, &ast.Cardinality{Inf: 0, Unbounded: true}, attrs[0].Card)
	five, one := 5, 1
	assert.Equal(t, &ast.Cardinality{Inf: 2, Sup: &five}, attrs[1].Card)
	assert.Equal(t, &ast.Cardinality{Inf: 1, Sup: &one}, attrs[2].Card, "unparsable text defaults")
}

func TestToModels_KeepsSourceMetadata(t *testing.T) {
	attr := &ast.Attribute{
		Name:        "party",
		TypeCall:    &ast.TypeCall{Type: ast.Ref("Party"), Arguments: json.RawMessage(`["x"]`)},
		Annotations: json.RawMessage(`[{"name":"metadata"}]`),
	}
	src := &ast.Element{
		Type:       ast.TypeData,
		Name:       "Trade",
		Attributes: []*ast.Attribute{attr},
		Synonyms:   []ast.Synonym{{Value: "FpML:trade", Sources: []string{"FpML_5_10"}}},
		Conditions: json.RawMessage(`[{"name":"PartyExists"}]`),
	}
	n := graph.NewNode(graph.KindData, "Execution", "ns")
	n.Source = src
	n.Synonyms = []string{"FpML:trade", "ISO:trade"}
	n.Members = []graph.Member{{Name: "party", TypeName: "Counterparty", Cardinality: "(1..1)", Source: attr}}

	el := find(ToModels([]*graph.Node{n}, nil), "ns", "Execution")
	require.NotNil(t, el)

	assert.Equal(t, "Execution", el.Name)
	assert.JSONEq(t, `[{"name":"PartyExists"}]`, string(el.Conditions))
	assert.Equal(t, []ast.Synonym{{Value: "FpML:trade", Sources: []string{"FpML_5_10"}}, {Value: "ISO:trade"}}, el.Synonyms)
	require.Len(t, el.Attributes, 1)
	assert.JSONEq(t, `[{"name":"metadata"}]`, string(el.Attributes[0].Annotations))
	assert.Equal(t, "Counterparty", el.Attributes[0].TypeCall.TypeName())
	assert.Nil(t, el.Attributes[0].TypeCall.Arguments, "arguments belong to the old type")

	assert.Equal(t, "Trade", src.Name, "source is not modified")
	assert.Equal(t, "Party", attr.TypeCall.TypeName())
}

func TestToModels_FunctionAndAlias(t *testing.T) {
	fn := graph.NewNode(graph.KindFunc, "Price", "ns")
	fn.OutputType = "Cash"
	fn.ExpressionText = "1"
	alias := graph.NewNode(graph.KindTypeAlias, "Money", "ns")
	alias.AliasOf = "Cash"

	models := ToModels([]*graph.Node{fn, alias}, nil)

	price := find(models, "ns", "Price")
	require.NotNil(t, price.Output)
	assert.Equal(t, "result", price.Output.Name)
	assert.Equal(t, "Cash", price.Output.TypeCall.TypeName())
	assert.Equal(t, "1", price.Expression)
	assert.Equal(t, "Cash", find(models, "ns", "Money").TypeCall.TypeName())
}

func TestToModels_Empty(t *testing.T) {
	assert.Empty(t, ToModels(nil, nil))

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, nil))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestWriteDir(t *testing.T) {
	res := importer.ToGraph(loadTrade(t), nil)
	dir := filepath.Join(t.TempDir(), "out")

	paths, err := WriteDir(dir, ToModels(res.Nodes, res.Edges))
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "cdm.base.json"), filepath.Join(dir, "cdm.product.json")}, paths)

	data, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	models, err := ast.ReadModels(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, models, 1)
	assert.Equal(t, "cdm.base", models[0].Name)
}

func TestWriteDir_RejectsPathNamespaces(t *testing.T) {
	for _, ns := range []string{"../x", "a/b", "..", `a\b`} {
		dir := filepath.Join(t.TempDir(), "out")
		models := []*Model{{Type: ast.TypeModel, Name: "cdm.base"}, {Type: ast.TypeModel, Name: ns}}

		paths, err := WriteDir(dir, models)
		assert.Error(t, err, ns)
		assert.Empty(t, paths, ns)
		_, statErr := os.Stat(dir)
		assert.True(t, os.IsNotExist(statErr), "%s: nothing is written", ns)
	}
}

func nodeIDs(nodes []*graph.Node) []string {
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids
}

func edgeIDs(edges []graph.Edge) []string {
	ids := make([]string, len(edges))
	for i, e := range edges {
		ids[i] = e.ID
	}
	return ids
}
