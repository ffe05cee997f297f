package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/importer"
	"github.com/matzehuels/typegraph/pkg/nstree"
	"github.com/matzehuels/typegraph/pkg/store"
)

// tradeFixture returns the absolute path of the shared test model, resolved
// before a test changes directory.
func tradeFixture(t *testing.T) string {
	t.Helper()
	p, err := filepath.Abs("../../pkg/importer/testdata/trade.json")
	require.NoError(t, err)
	return p
}

// run executes the root command in an empty working directory and returns
// what the command wrote to its output.
func run(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	t.Chdir(t.TempDir())
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	root := New(io.Discard, LogInfo).RootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	if stdin != nil {
		root.SetIn(stdin)
	}
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"validate", "tree", "export", "edit", "layout", "render", "explore", "serve", "save", "open", "docs", "cache", "completion"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}

func TestFilterFlagsApply(t *testing.T) {
	base := importer.Filters{NamePattern: "Trade*", Namespaces: []string{"cdm.*"}}

	t.Run("unset flags keep base", func(t *testing.T) {
		var f filterFlags
		got, err := f.apply(base)
		require.NoError(t, err)
		assert.Equal(t, base, got)
	})

	t.Run("set flags override", func(t *testing.T) {
		f := filterFlags{kinds: []string{"data", "Enumeration"}, namespaces: []string{"fpml.*"}, noOrphans: true}
		got, err := f.apply(base)
		require.NoError(t, err)
		assert.Equal(t, []graph.Kind{graph.KindData, graph.KindEnum}, got.Kinds)
		assert.Equal(t, []string{"fpml.*"}, got.Namespaces)
		assert.Equal(t, "Trade*", got.NamePattern)
		assert.True(t, got.HideOrphans)
	})

	t.Run("unknown kind", func(t *testing.T) {
		f := filterFlags{kinds: []string{"table"}}
		_, err := f.apply(base)
		assert.Error(t, err)
	})
}

func TestInputName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"models/trade.json", "trade"},
		{"out/trade.graph.json", "trade"},
		{"models/", "models"},
		{"cdm", "cdm"},
		{".", appName},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, inputName(tt.input), tt.input)
	}
}

func TestDefaultOutput(t *testing.T) {
	assert.Equal(t, filepath.Join("models", "trade.svg"), defaultOutput("models/trade.json", ".svg"))
	assert.Equal(t, filepath.Join("out", "trade.graph.json"), defaultOutput("out/trade.graph.json", graphSuffix))
	assert.Equal(t, "models.dot", defaultOutput("models/", ".dot"))
}

func TestIsGraphFile(t *testing.T) {
	assert.True(t, isGraphFile([]string{"trade.graph.json"}))
	assert.True(t, isGraphFile([]string{"TRADE.GRAPH.JSON"}))
	assert.False(t, isGraphFile([]string{"trade.json"}))
	assert.False(t, isGraphFile([]string{"a.graph.json", "b.graph.json"}))
}

func TestValidateCommand(t *testing.T) {
	trade := tradeFixture(t)

	out, err := run(t, nil, "validate", trade, "--json")
	require.NoError(t, err)

	var report validateReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 10, report.Types)
	assert.Equal(t, 8, report.Edges)
	assert.Equal(t, 1, report.Skipped, "annotation is skipped")
	assert.Empty(t, report.Diagnostics)
}

func TestValidateCommand_KindFilter(t *testing.T) {
	trade := tradeFixture(t)

	out, err := run(t, nil, "validate", trade, "--json", "--kind", "enum")
	require.NoError(t, err)

	var report validateReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 2, report.Types)
	assert.Equal(t, 1, report.Edges)
}

func TestTreeCommand(t *testing.T) {
	trade := tradeFixture(t)

	out, err := run(t, nil, "tree", trade, "--json", "--query", "cash")
	require.NoError(t, err)

	var tree []nstree.Namespace
	require.NoError(t, json.Unmarshal([]byte(out), &tree))
	require.Len(t, tree, 1)
	assert.Equal(t, "cdm.product", tree[0].Name)
	require.Len(t, tree[0].Types, 1)
	assert.Equal(t, "cdm.product::Cash", tree[0].Types[0].ID)
}

func TestEditCommand(t *testing.T) {
	trade := tradeFixture(t)
	script := filepath.Join(t.TempDir(), "commands.json")
	require.NoError(t, os.WriteFile(script, []byte(`[
  {"op": "renameType", "id": "cdm.base::Party", "name": "Counterparty"},
  {"op": "createType", "kind": "data", "name": "Trade", "namespace": "cdm.event"}
]`), 0o644))

	out, err := run(t, nil, "edit", trade, "--script", script, "--graph")
	require.NoError(t, err)

	doc, err := graph.ReadDocument(strings.NewReader(out))
	require.NoError(t, err)
	ids := make(map[string]bool)
	for _, n := range doc.Nodes {
		ids[n.ID] = true
	}
	assert.Len(t, doc.Nodes, 11)
	assert.True(t, ids["cdm.base::Counterparty"])
	assert.False(t, ids["cdm.base::Party"])
	assert.True(t, ids["cdm.event::Trade"])
}

func TestEditCommand_Stdin(t *testing.T) {
	trade := tradeFixture(t)
	stdin := strings.NewReader(`{"op": "deleteType", "id": "cdm.product::Lonely"}`)

	out, err := run(t, stdin, "edit", trade, "--script", "-")
	require.NoError(t, err)

	models, err := ast.ReadModels(strings.NewReader(out))
	require.NoError(t, err)
	require.Len(t, models, 2)
	for _, m := range models {
		for _, el := range m.Elements {
			assert.NotEqual(t, "Lonely", el.Name)
		}
	}
}

func TestEditCommand_Failure(t *testing.T) {
	trade := tradeFixture(t)
	stdin := strings.NewReader(`[{"op": "renameType", "id": "cdm.base::Missing", "name": "X"}]`)

	_, err := run(t, stdin, "edit", trade, "--script", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command 0 (renameType)")
}

func TestEditCommand_RequiresScript(t *testing.T) {
	_, err := run(t, nil, "edit", tradeFixture(t))
	assert.Error(t, err)
}

// =============================================================================
// Explorer
// =============================================================================

func newExplorer(t *testing.T) ExplorerModel {
	t.Helper()
	models, err := ast.ReadModelsFile("../../pkg/importer/testdata/trade.json")
	require.NoError(t, err)
	s := store.New()
	s.LoadModels(models, nil)
	return NewExplorerModel(s)
}

func press(m ExplorerModel, keys ...string) ExplorerModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "backspace":
			msg = tea.KeyMsg{Type: tea.KeyBackspace}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(ExplorerModel)
	}
	return m
}

func TestExplorerModel_Rows(t *testing.T) {
	m := newExplorer(t)
	assert.Len(t, m.rows, 12, "two namespaces with five types each")

	m = press(m, "c")
	assert.Len(t, m.rows, 2)
	assert.Empty(t, m.Store.Visibility().ExpandedNamespaces)

	m = press(m, "enter")
	assert.True(t, m.Store.Visibility().ExpandedNamespaces["cdm.base"])
	assert.Len(t, m.rows, 7)

	m = press(m, "e")
	assert.Len(t, m.rows, 12)
}

func TestExplorerModel_SelectAndHide(t *testing.T) {
	m := press(newExplorer(t), "down", "enter")
	assert.Equal(t, "cdm.base::Account", m.Store.SelectedNodeID())

	m = press(m, "x")
	assert.True(t, m.Store.Visibility().HiddenNodeIDs["cdm.base::Account"])
	assert.Contains(t, m.View(), "hidden")

	m = press(m, "x")
	assert.False(t, m.Store.Visibility().HiddenNodeIDs["cdm.base::Account"])
}

func TestExplorerModel_Search(t *testing.T) {
	m := press(newExplorer(t), "c", "/")
	require.True(t, m.Searching)

	m = press(m, "C", "a", "s", "h")
	assert.Equal(t, "Cash", m.Store.SearchQuery())
	require.Len(t, m.rows, 2, "matching types are listed under collapsed namespaces")
	assert.Equal(t, "cdm.product::Cash", m.rows[1].typ.ID)

	m = press(m, "backspace", "enter")
	assert.False(t, m.Searching)
	assert.Equal(t, "Cas", m.Store.SearchQuery())

	// Keys act on the list again once the search is closed.
	m = press(m, "q")
	assert.Equal(t, "Cas", m.Store.SearchQuery())
}

func TestExplorerModel_Cursor(t *testing.T) {
	m := newExplorer(t)
	m.Height = 3

	m = press(m, "up")
	assert.Equal(t, 0, m.Cursor)

	for range 20 {
		m = press(m, "j")
	}
	assert.Equal(t, len(m.rows)-1, m.Cursor)
	assert.Equal(t, m.Cursor-m.Height+1, m.Offset)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	assert.NotNil(t, cmd)
}
