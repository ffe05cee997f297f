package importer

import (
	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/graph"
)

// Result is the projected graph.
type Result struct {
	Nodes []*graph.Node
	Edges []graph.Edge

	// Skipped counts elements with an unrecognized $type.
	Skipped int
	// Duplicates counts elements whose id was already taken by an earlier
	// element; the first declaration wins.
	Duplicates int
	// Filtered counts elements rejected by the filters.
	Filtered int
}

// ToGraph projects models into nodes and edges. filters may be nil.
//
// Node order follows model order, then element order. Edge order follows
// node order, with the inheritance edge of a node before its reference edges.
func ToGraph(models []*ast.Model, filters *Filters) Result {
	m := newMatcher(filters)
	var res Result

	// Pass 1: classify and translate.
	seen := make(map[string]bool)
	for _, model := range models {
		if model == nil {
			continue
		}
		for _, el := range model.Elements {
			if el == nil {
				continue
			}
			n, ok := convertElement(el, model.Name)
			if !ok {
				res.Skipped++
				continue
			}
			if !m.accept(n) {
				res.Filtered++
				continue
			}
			if seen[n.ID] {
				res.Duplicates++
				continue
			}
			seen[n.ID] = true
			n.IsReadOnly = m.readOnlyNamespace(n.Namespace)
			res.Nodes = append(res.Nodes, n)
		}
	}

	// Pass 2: resolve references into edges.
	ix := graph.BuildNameIndex(res.Nodes)
	res.Edges = deriveEdges(res.Nodes, ix)

	if filters != nil && filters.HideOrphans {
		res.Nodes = dropOrphans(res.Nodes, res.Edges)
		ix = graph.BuildNameIndex(res.Nodes)
	}

	// Post-pass: a member may name a type that filtering left out.
	for _, n := range res.Nodes {
		n.HasExternalRefs = ix.HasExternalRefs(n)
	}
	return res
}

func deriveEdges(nodes []*graph.Node, ix graph.NameIndex) []graph.Edge {
	var edges []graph.Edge
	seen := make(map[string]bool)
	for _, n := range nodes {
		if e, ok := ix.ParentEdge(n); ok && !seen[e.ID] {
			seen[e.ID] = true
			edges = append(edges, e)
		}
		for _, e := range ix.ReferenceEdges(n) {
			if !seen[e.ID] {
				seen[e.ID] = true
				edges = append(edges, e)
			}
		}
	}
	return edges
}

func dropOrphans(nodes []*graph.Node, edges []graph.Edge) []*graph.Node {
	touched := make(map[string]bool, len(edges)*2)
	for _, e := range edges {
		touched[e.Source] = true
		touched[e.Target] = true
	}
	kept := nodes[:0:0]
	for _, n := range nodes {
		if touched[n.ID] {
			kept = append(kept, n)
		}
	}
	return kept
}

// convertElement maps one AST element to a node. It reports false for
// element kinds the graph does not model.
func convertElement(el *ast.Element, namespace string) (*graph.Node, bool) {
	var kind graph.Kind
	switch el.Type {
	case ast.TypeData:
		kind = graph.KindData
	case ast.TypeChoice:
		kind = graph.KindChoice
	case ast.TypeEnumeration:
		kind = graph.KindEnum
	case ast.TypeFunction:
		kind = graph.KindFunc
	case ast.TypeTypeAlias:
		kind = graph.KindTypeAlias
	default:
		return nil, false
	}

	n := graph.NewNode(kind, el.Name, namespace)
	n.Definition = el.Definition
	n.Comments = el.Comments
	n.Source = el
	for _, s := range el.Synonyms {
		n.Synonyms = append(n.Synonyms, s.Value)
	}

	switch kind {
	case graph.KindData:
		n.ParentName = el.SuperType.Name()
		n.Members = attributeMembers(el.Attributes)
	case graph.KindChoice:
		for _, opt := range el.Options {
			if opt == nil {
				continue
			}
			name := opt.TypeCall.TypeName()
			n.Members = append(n.Members, graph.Member{
				Name:       name,
				TypeName:   name,
				Definition: opt.Definition,
				Source:     opt,
			})
		}
	case graph.KindEnum:
		n.ParentName = el.Parent.Name()
		for _, v := range el.EnumValues {
			if v == nil {
				continue
			}
			n.Members = append(n.Members, graph.Member{
				Name:        v.Name,
				DisplayName: v.Display,
				Definition:  v.Definition,
				Source:      v,
			})
		}
	case graph.KindFunc:
		n.Members = attributeMembers(el.Inputs)
		if el.Output != nil {
			n.OutputType = el.Output.TypeCall.TypeName()
		}
		n.ExpressionText = el.Expression
	case graph.KindTypeAlias:
		n.AliasOf = el.TypeCall.TypeName()
	}
	return n, true
}

func attributeMembers(attrs []*ast.Attribute) []graph.Member {
	members := make([]graph.Member, 0, len(attrs))
	for _, a := range attrs {
		if a == nil {
			continue
		}
		members = append(members, graph.Member{
			Name:        a.Name,
			TypeName:    a.TypeCall.TypeName(),
			Cardinality: formatCard(a.Card),
			IsOverride:  a.Override,
			Definition:  a.Definition,
			Source:      a,
		})
	}
	return members
}

func formatCard(c *ast.Cardinality) string {
	if c == nil {
		return graph.DefaultCardinality
	}
	return graph.FormatCardinality(c.Inf, c.Sup, c.Unbounded)
}
