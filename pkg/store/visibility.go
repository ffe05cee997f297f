package store

import (
	"maps"
	"strings"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/graph"
)

// Visibility selects the part of the graph that is shown. A node is visible
// when its namespace is expanded and its id is not hidden.
type Visibility struct {
	ExpandedNamespaces map[string]bool `json:"expandedNamespaces"`
	HiddenNodeIDs      map[string]bool `json:"hiddenNodeIds"`
	ExplorerOpen       bool            `json:"explorerOpen"`
}

func newVisibility() Visibility {
	return Visibility{
		ExpandedNamespaces: make(map[string]bool),
		HiddenNodeIDs:      make(map[string]bool),
	}
}

// Clone returns a deep copy of v.
func (v Visibility) Clone() Visibility {
	c := newVisibility()
	maps.Copy(c.ExpandedNamespaces, v.ExpandedNamespaces)
	maps.Copy(c.HiddenNodeIDs, v.HiddenNodeIDs)
	c.ExplorerOpen = v.ExplorerOpen
	return c
}

// Visible reports whether n is shown under v.
func (v Visibility) Visible(n *graph.Node) bool {
	return v.ExpandedNamespaces[n.Namespace] && !v.HiddenNodeIDs[n.ID]
}

// VisibleNodes projects nodes through v.
func VisibleNodes(nodes []*graph.Node, v Visibility) []*graph.Node {
	out := make([]*graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if v.Visible(n) {
			out = append(out, n)
		}
	}
	return out
}

// VisibleEdges keeps the edges whose endpoints are both in visible.
func VisibleEdges(edges []graph.Edge, visible []*graph.Node) []graph.Edge {
	ids := make(map[string]bool, len(visible))
	for _, n := range visible {
		ids[n.ID] = true
	}
	out := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		if ids[e.Source] && ids[e.Target] {
			out = append(out, e)
		}
	}
	return out
}

// initialVisibility expands every namespace of nodes when count is at most
// threshold and collapses all otherwise. Nothing is hidden.
func initialVisibility(nodes []*graph.Node, count, threshold int) Visibility {
	v := newVisibility()
	if count > threshold {
		return v
	}
	for _, n := range nodes {
		v.ExpandedNamespaces[n.Namespace] = true
	}
	return v
}

// =============================================================================
// Store commands
// =============================================================================

// Visibility returns a copy of the visibility state.
func (s *Store) Visibility() Visibility {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.vis.Clone()
}

// VisibleNodes returns the nodes currently shown.
func (s *Store) VisibleNodes() []*graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return VisibleNodes(s.cur.nodes, s.vis)
}

// VisibleEdges returns the edges between visible nodes.
func (s *Store) VisibleEdges() []graph.Edge {
	s.mu.Lock()
	defer s.mu.Unlock()
	return VisibleEdges(s.cur.edges, VisibleNodes(s.cur.nodes, s.vis))
}

// SetInitialVisibility applies the load-time heuristic for a model of count
// types: expand everything for small models, collapse everything otherwise.
// Hidden nodes are kept hidden.
func (s *Store) SetInitialVisibility(count int) error {
	return s.view("setInitialVisibility", func() error {
		hidden := s.vis.HiddenNodeIDs
		explorer := s.vis.ExplorerOpen
		s.vis = initialVisibility(s.cur.nodes, count, s.expandThreshold)
		s.vis.HiddenNodeIDs = hidden
		s.vis.ExplorerOpen = explorer
		return nil
	})
}

// ToggleNamespace expands or collapses a namespace.
func (s *Store) ToggleNamespace(namespace string) error {
	return s.view("toggleNamespace", func() error {
		if s.vis.ExpandedNamespaces[namespace] {
			delete(s.vis.ExpandedNamespaces, namespace)
		} else {
			s.vis.ExpandedNamespaces[namespace] = true
		}
		return nil
	})
}

// ToggleNodeVisibility hides or unhides a single node.
func (s *Store) ToggleNodeVisibility(id string) error {
	return s.view("toggleNodeVisibility", func() error {
		if s.vis.HiddenNodeIDs[id] {
			delete(s.vis.HiddenNodeIDs, id)
			return nil
		}
		if _, ok := s.cur.byID[id]; !ok {
			return errors.NotFound(id)
		}
		s.vis.HiddenNodeIDs[id] = true
		return nil
	})
}

// ExpandAllNamespaces expands every namespace in the model.
func (s *Store) ExpandAllNamespaces() error {
	return s.view("expandAllNamespaces", func() error {
		for _, n := range s.cur.nodes {
			s.vis.ExpandedNamespaces[n.Namespace] = true
		}
		return nil
	})
}

// CollapseAllNamespaces collapses every namespace.
func (s *Store) CollapseAllNamespaces() error {
	return s.view("collapseAllNamespaces", func() error {
		clear(s.vis.ExpandedNamespaces)
		return nil
	})
}

// ToggleExplorer opens or closes the namespace explorer.
func (s *Store) ToggleExplorer() error {
	return s.view("toggleExplorer", func() error {
		s.vis.ExplorerOpen = !s.vis.ExplorerOpen
		return nil
	})
}

// =============================================================================
// Selection and search
// =============================================================================

// SelectedNodeID returns the selected node id, or "" when nothing is
// selected.
func (s *Store) SelectedNodeID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// SelectNode selects a node. An empty id clears the selection.
func (s *Store) SelectNode(id string) error {
	return s.view("selectNode", func() error {
		if id != "" {
			if _, ok := s.cur.byID[id]; !ok {
				return errors.NotFound(id)
			}
		}
		s.selected = id
		return nil
	})
}

// SearchQuery returns the current search query.
func (s *Store) SearchQuery() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SetSearchQuery sets the search query.
func (s *Store) SetSearchQuery(q string) error {
	return s.view("setSearchQuery", func() error {
		s.query = q
		return nil
	})
}

// SearchResults returns the nodes whose name contains the search query,
// case-insensitively. The query is matched literally.
func (s *Store) SearchResults() []*graph.Node {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Search(s.cur.nodes, s.query)
}

// Search returns the nodes whose name contains query, ignoring case. An
// empty query matches nothing.
func Search(nodes []*graph.Node, query string) []*graph.Node {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []*graph.Node
	for _, n := range nodes {
		if strings.Contains(strings.ToLower(n.Name), q) {
			out = append(out, n)
		}
	}
	return out
}
