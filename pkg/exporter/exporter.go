// Package exporter turns a graph back into AST-shaped models.
//
// [ToModels] is the inverse of importer.ToGraph: it produces one synthetic
// model per namespace that an external serializer can print as DSL source.
// Nodes and members that were imported keep a backreference to their AST
// origin, and the exporter starts from a copy of that origin, so metadata
// the graph does not represent (annotations, conditions, synonym sources,
// type arguments) survives an edit round trip.
package exporter

import (
	"cmp"
	"slices"

	"github.com/matzehuels/typegraph/pkg/ast"
	"github.com/matzehuels/typegraph/pkg/graph"
)

// Version is written into every synthetic model.
const Version = "0.0.0"

// Model is a synthetic AST model holding the types of one namespace.
type Model struct {
	Type     string       `json:"$type"`
	Name     string       `json:"name"`
	Version  string       `json:"version"`
	Elements []*Element   `json:"elements"`
	Imports  []ast.Import `json:"imports"`
}

// Element is a synthetic element. It marshals as the embedded AST element;
// Source is the element the node was imported from, if any.
type Element struct {
	ast.Element
	Source *ast.Element `json:"-"`
}

// ToModels converts nodes into one model per namespace, sorted by
// namespace. Elements keep node order. Parents are taken from the
// inheritance edges when present, falling back to the node's ParentName.
func ToModels(nodes []*graph.Node, edges []graph.Edge) []*Model {
	byID := make(map[string]*graph.Node, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	parents := make(map[string]string)
	for _, e := range edges {
		if !e.Kind.IsInheritance() {
			continue
		}
		if p, ok := byID[e.Target]; ok {
			parents[e.Source] = p.Name
		}
	}

	byNamespace := make(map[string]*Model)
	var models []*Model
	for _, n := range nodes {
		m, ok := byNamespace[n.Namespace]
		if !ok {
			m = &Model{
				Type:     ast.TypeModel,
				Name:     n.Namespace,
				Version:  Version,
				Elements: []*Element{},
				Imports:  []ast.Import{},
			}
			byNamespace[n.Namespace] = m
			models = append(models, m)
		}
		parent, ok := parents[n.ID]
		if !ok {
			parent = n.ParentName
		}
		m.Elements = append(m.Elements, toElement(n, parent))
	}
	slices.SortStableFunc(models, func(a, b *Model) int { return cmp.Compare(a.Name, b.Name) })
	return models
}

func toElement(n *graph.Node, parent string) *Element {
	out := &Element{}
	if src, ok := n.Source.(*ast.Element); ok && src != nil {
		out.Element = *src
		out.Source = src
	}
	el := &out.Element
	el.Name = n.Name
	el.Definition = n.Definition
	el.Comments = n.Comments
	el.Synonyms = synonyms(n.Synonyms, el.Synonyms)

	el.SuperType, el.Parent = nil, nil
	el.Attributes, el.Options, el.EnumValues = nil, nil, nil
	el.Inputs, el.Output, el.Expression, el.TypeCall = nil, nil, "", nil

	switch n.Kind {
	case graph.KindData:
		el.Type = ast.TypeData
		el.SuperType = ast.Ref(parent)
		el.Attributes = attributes(n.Members)
	case graph.KindChoice:
		el.Type = ast.TypeChoice
		for _, m := range n.Members {
			el.Options = append(el.Options, choiceOption(m))
		}
	case graph.KindEnum:
		el.Type = ast.TypeEnumeration
		el.Parent = ast.Ref(parent)
		for _, m := range n.Members {
			el.EnumValues = append(el.EnumValues, enumValue(m))
		}
	case graph.KindFunc:
		el.Type = ast.TypeFunction
		el.Inputs = attributes(n.Members)
		el.Expression = n.ExpressionText
		if n.OutputType != "" {
			var src *ast.Attribute
			if out.Source != nil {
				src = out.Source.Output
			}
			el.Output = output(src, n.OutputType)
		}
	case graph.KindTypeAlias:
		el.Type = ast.TypeTypeAlias
		var src *ast.TypeCall
		if out.Source != nil {
			src = out.Source.TypeCall
		}
		el.TypeCall = typeCall(src, n.AliasOf)
	}
	return out
}

func attributes(members []graph.Member) []*ast.Attribute {
	attrs := make([]*ast.Attribute, 0, len(members))
	for _, m := range members {
		a := &ast.Attribute{}
		var src *ast.TypeCall
		if s, ok := m.Source.(*ast.Attribute); ok && s != nil {
			*a = *s
			src = s.TypeCall
		}
		a.Type = "Attribute"
		a.Name = m.Name
		a.TypeCall = typeCall(src, m.TypeName)
		a.Card = cardinality(m.Cardinality)
		a.Override = m.IsOverride
		a.Definition = m.Definition
		attrs = append(attrs, a)
	}
	return attrs
}

func choiceOption(m graph.Member) *ast.ChoiceOption {
	o := &ast.ChoiceOption{}
	var src *ast.TypeCall
	if s, ok := m.Source.(*ast.ChoiceOption); ok && s != nil {
		*o = *s
		src = s.TypeCall
	}
	o.Type = "ChoiceOption"
	name := m.TypeName
	if name == "" {
		name = m.Name
	}
	o.TypeCall = typeCall(src, name)
	o.Definition = m.Definition
	return o
}

func enumValue(m graph.Member) *ast.EnumValue {
	v := &ast.EnumValue{}
	if s, ok := m.Source.(*ast.EnumValue); ok && s != nil {
		*v = *s
	}
	v.Type = "EnumValue"
	v.Name = m.Name
	v.Display = m.DisplayName
	v.Definition = m.Definition
	return v
}

func output(src *ast.Attribute, typeName string) *ast.Attribute {
	a := &ast.Attribute{Name: "result", Card: cardinality(graph.DefaultCardinality)}
	var call *ast.TypeCall
	if src != nil {
		*a = *src
		call = src.TypeCall
	}
	a.Type = "Attribute"
	a.TypeCall = typeCall(call, typeName)
	return a
}

// typeCall builds a call of name. Type arguments of src are kept when it
// still calls the same type.
func typeCall(src *ast.TypeCall, name string) *ast.TypeCall {
	if name == "" {
		return nil
	}
	tc := &ast.TypeCall{Type: ast.Ref(name)}
	if src != nil && src.TypeName() == name {
		tc.Arguments = src.Arguments
	}
	return tc
}

// cardinality parses display text back into AST bounds, using (1..1) for
// text that does not parse.
func cardinality(s string) *ast.Cardinality {
	b, ok := graph.ParseCardinality(s)
	if !ok {
		b, _ = graph.ParseCardinality(graph.DefaultCardinality)
	}
	if b.Unbounded {
		return &ast.Cardinality{Inf: b.Inf, Unbounded: true}
	}
	sup := b.Sup
	return &ast.Cardinality{Inf: b.Inf, Sup: &sup}
}

// synonyms rebuilds the synonym list, keeping the sources of values that
// were already present.
func synonyms(values []string, prev []ast.Synonym) []ast.Synonym {
	if len(values) == 0 {
		return nil
	}
	out := make([]ast.Synonym, 0, len(values))
	for _, v := range values {
		i := slices.IndexFunc(prev, func(s ast.Synonym) bool { return s.Value == v })
		if i >= 0 {
			out = append(out, prev[i])
			continue
		}
		out = append(out, ast.Synonym{Value: v})
	}
	return out
}
