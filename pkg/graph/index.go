package graph

// NameIndex resolves type names to nodes. Names are soft references: when
// two namespaces declare the same name, the first node wins.
type NameIndex map[string]*Node

// BuildNameIndex indexes nodes by name in slice order.
func BuildNameIndex(nodes []*Node) NameIndex {
	ix := make(NameIndex, len(nodes))
	for _, n := range nodes {
		if _, ok := ix[n.Name]; !ok {
			ix[n.Name] = n
		}
	}
	return ix
}

// Resolve returns the node declaring name, if any.
func (ix NameIndex) Resolve(name string) (*Node, bool) {
	if name == "" {
		return nil, false
	}
	n, ok := ix[name]
	return n, ok
}

// ParentEdge returns the inheritance edge implied by n.ParentName, when the
// parent resolves to a node of a compatible kind.
func (ix NameIndex) ParentEdge(n *Node) (Edge, bool) {
	kind, ok := n.Kind.ParentEdgeKind()
	if !ok || n.ParentName == "" {
		return Edge{}, false
	}
	p, ok := ix.Resolve(n.ParentName)
	if !ok || !n.Kind.CanExtend(p.Kind) {
		return Edge{}, false
	}
	return NewEdge(n.ID, p.ID, kind, "", ""), true
}

// ReferenceEdges returns the non-inheritance edges implied by n: one
// attribute-ref per data attribute or function input whose type resolves,
// one choice-option per resolvable choice option, an attribute-ref labelled
// "output" for a resolvable function output, and a type-alias-ref for a
// resolvable alias target. Duplicate ids are collapsed.
func (ix NameIndex) ReferenceEdges(n *Node) []Edge {
	var edges []Edge
	seen := make(map[string]bool)
	add := func(e Edge) {
		if !seen[e.ID] {
			seen[e.ID] = true
			edges = append(edges, e)
		}
	}

	if kind, ok := n.Kind.MemberEdgeKind(); ok {
		for _, m := range n.Members {
			t, ok := ix.Resolve(m.TypeName)
			if !ok {
				continue
			}
			if kind == EdgeChoiceOption {
				add(NewEdge(n.ID, t.ID, kind, "", ""))
			} else {
				add(NewEdge(n.ID, t.ID, kind, m.Name, m.Cardinality))
			}
		}
	}
	if n.Kind == KindFunc {
		if t, ok := ix.Resolve(n.OutputType); ok {
			add(NewEdge(n.ID, t.ID, EdgeAttributeRef, OutputLabel, ""))
		}
	}
	if n.Kind == KindTypeAlias {
		if t, ok := ix.Resolve(n.AliasOf); ok {
			add(NewEdge(n.ID, t.ID, EdgeTypeAliasRef, "", ""))
		}
	}
	return edges
}

// OutputLabel labels the edge from a function to its output type.
const OutputLabel = "output"

// HasExternalRefs reports whether any member of n names a type that does not
// resolve in ix.
func (ix NameIndex) HasExternalRefs(n *Node) bool {
	for _, m := range n.Members {
		if m.TypeName == "" {
			continue
		}
		if _, ok := ix.Resolve(m.TypeName); !ok {
			return true
		}
	}
	return false
}
