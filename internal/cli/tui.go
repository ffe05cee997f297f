package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/nstree"
	"github.com/matzehuels/typegraph/pkg/store"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// =============================================================================
// ExplorerModel - Interactive namespace explorer
// =============================================================================

// explorerRow is a namespace header or a type below it.
type explorerRow struct {
	namespace nstree.Namespace
	typ       *nstree.Type
}

// ExplorerModel is the bubbletea model for browsing a store's namespace
// tree. Expanding, hiding, selecting and searching go through the store, so
// the explorer shows the same visibility state the HTTP API reports.
type ExplorerModel struct {
	Store     *store.Store
	Cursor    int
	Offset    int
	Height    int
	Searching bool

	rows []explorerRow
	err  error
}

// NewExplorerModel creates an explorer over s.
func NewExplorerModel(s *store.Store) ExplorerModel {
	m := ExplorerModel{Store: s, Height: 20}
	m.rebuild()
	return m
}

func (m ExplorerModel) Init() tea.Cmd {
	return nil
}

func (m ExplorerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.Searching {
			return m.updateSearch(msg), nil
		}
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "enter":
			m.activate()
		case "x":
			if t := m.currentType(); t != nil {
				m.err = m.Store.ToggleNodeVisibility(t.ID)
			}
		case "e":
			m.err = m.Store.ExpandAllNamespaces()
		case "c":
			m.err = m.Store.CollapseAllNamespaces()
		case "/":
			m.Searching = true
		}
		m.rebuild()
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m ExplorerModel) updateSearch(msg tea.KeyMsg) ExplorerModel {
	q := m.Store.SearchQuery()
	switch msg.Type {
	case tea.KeyEnter, tea.KeyEsc:
		m.Searching = false
		return m
	case tea.KeyBackspace:
		if q == "" {
			return m
		}
		r := []rune(q)
		q = string(r[:len(r)-1])
	case tea.KeySpace:
		q += " "
	case tea.KeyRunes:
		q += string(msg.Runes)
	default:
		return m
	}
	m.err = m.Store.SetSearchQuery(q)
	m.Cursor, m.Offset = 0, 0
	m.rebuild()
	return m
}

func (m *ExplorerModel) move(delta int) {
	m.Cursor += delta
	m.clamp()
}

func (m *ExplorerModel) clamp() {
	if m.Cursor >= len(m.rows) {
		m.Cursor = len(m.rows) - 1
	}
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Height > 0 && m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

// activate toggles the namespace under the cursor or selects the type.
func (m *ExplorerModel) activate() {
	if len(m.rows) == 0 {
		return
	}
	r := m.rows[m.Cursor]
	if r.typ == nil {
		m.err = m.Store.ToggleNamespace(r.namespace.Name)
		return
	}
	m.err = m.Store.SelectNode(r.typ.ID)
}

func (m ExplorerModel) currentType() *nstree.Type {
	if m.Cursor < len(m.rows) {
		return m.rows[m.Cursor].typ
	}
	return nil
}

// rebuild flattens the tree into rows. Types are listed under expanded
// namespaces, and under every namespace while a search is active.
func (m *ExplorerModel) rebuild() {
	query := m.Store.SearchQuery()
	vis := m.Store.Visibility()
	var rows []explorerRow
	for _, ns := range m.Store.NamespaceTree(query) {
		rows = append(rows, explorerRow{namespace: ns})
		if query == "" && !vis.ExpandedNamespaces[ns.Name] {
			continue
		}
		for i := range ns.Types {
			rows = append(rows, explorerRow{namespace: ns, typ: &ns.Types[i]})
		}
	}
	m.rows = rows
	m.clamp()
}

func (m ExplorerModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Explore Model"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ expand/select  x hide  e/c expand/collapse all  / search  q quit"))
	b.WriteString("\n\n")

	list := m.viewList()
	detail := m.viewDetail()
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, paneStyle.Render(list), " ", paneStyle.Render(detail)))
	b.WriteString("\n")

	status := fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.rows)), len(m.rows))
	if q := m.Store.SearchQuery(); q != "" || m.Searching {
		status += "  search: " + q
		if m.Searching {
			status += "▏"
		}
	}
	b.WriteString(listDimStyle.Render(status))
	if m.err != nil {
		b.WriteString("\n" + StyleError.Render(m.err.Error()))
	}
	return b.String()
}

func (m ExplorerModel) viewList() string {
	if len(m.rows) == 0 {
		return listDimStyle.Render("(no types)")
	}
	vis := m.Store.Visibility()
	selected := m.Store.SelectedNodeID()

	end := min(m.Offset+m.Height, len(m.rows))
	lines := make([]string, 0, end-m.Offset)
	for i := m.Offset; i < end; i++ {
		r := m.rows[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		var line string
		style := listNormalStyle
		if r.typ == nil {
			marker := "+"
			if vis.ExpandedNamespaces[r.namespace.Name] {
				marker = "-"
			}
			line = fmt.Sprintf("%s%s %s %s", cursor, marker, r.namespace.Name, listDimStyle.Render(fmt.Sprintf("(%d)", r.namespace.Total)))
		} else {
			line = fmt.Sprintf("%s    %s %s", cursor, r.typ.Name, kindLabel(r.typ.Kind))
			if vis.HiddenNodeIDs[r.typ.ID] {
				style = listDimStyle
				line += listDimStyle.Render(" hidden")
			}
			if r.typ.ID == selected {
				line += StyleSuccess.Render(" ●")
			}
		}
		if i == m.Cursor {
			style = listSelectedStyle
		}
		lines = append(lines, style.Render(line))
	}
	return strings.Join(lines, "\n")
}

// viewDetail shows the type under the cursor, or the selected one.
func (m ExplorerModel) viewDetail() string {
	id := m.Store.SelectedNodeID()
	if t := m.currentType(); t != nil {
		id = t.ID
	}
	n, ok := m.Store.Node(id)
	if !ok {
		return listDimStyle.Render("no type selected")
	}

	var b strings.Builder
	b.WriteString(StyleTitle.Render(n.Name) + " " + kindLabel(n.Kind) + "\n")
	b.WriteString(listDimStyle.Render(n.ID) + "\n")
	if n.ParentName != "" {
		b.WriteString("extends " + StyleHighlight.Render(n.ParentName) + "\n")
	}
	if n.AliasOf != "" {
		b.WriteString("alias of " + StyleHighlight.Render(n.AliasOf) + "\n")
	}
	if n.OutputType != "" {
		b.WriteString("returns " + StyleHighlight.Render(n.OutputType) + "\n")
	}
	if n.IsReadOnly {
		b.WriteString(StyleWarning.Render("read-only") + "\n")
	}
	if n.Definition != "" {
		b.WriteString("\n" + listNormalStyle.Render(n.Definition) + "\n")
	}

	if len(n.Members) > 0 {
		b.WriteString("\n" + membersTable(n))
		b.WriteString("\n")
	}
	for _, e := range n.Errors {
		style := StyleWarning
		if e.Severity == graph.SeverityError {
			style = StyleError
		}
		b.WriteString(style.Render(e.Code) + " " + listDimStyle.Render(e.Message) + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func membersTable(n *graph.Node) string {
	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	rows := make([][]string, len(n.Members))
	for i, mem := range n.Members {
		switch n.Kind {
		case graph.KindEnum:
			rows[i] = []string{mem.Name, mem.DisplayName, ""}
		default:
			rows[i] = []string{mem.Name, mem.TypeName, mem.Cardinality}
		}
	}
	headers := []string{"Name", "Type", "Card"}
	if n.Kind == graph.KindEnum {
		headers = []string{"Value", "Display", ""}
	}
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			if col == 0 {
				return listNormalStyle
			}
			return listDimStyle
		}).
		Render()
}
