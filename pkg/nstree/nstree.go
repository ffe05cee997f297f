// Package nstree summarizes a typegraph graph by namespace for navigation.
//
// [Build] groups nodes by namespace, counts them by kind and sorts both the
// namespaces and their types by name. [Filter] narrows a tree with a literal,
// case-insensitive substring query.
package nstree

import (
	"cmp"
	"slices"
	"strings"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// Namespace is one entry of the tree.
type Namespace struct {
	Name   string             `json:"name"`
	Counts map[graph.Kind]int `json:"counts"`
	Total  int                `json:"total"`
	Types  []Type             `json:"types"`
}

// Type is a node listed under its namespace.
type Type struct {
	ID   string     `json:"id"`
	Name string     `json:"name"`
	Kind graph.Kind `json:"kind"`
}

// Build groups nodes by namespace.
func Build(nodes []*graph.Node) []Namespace {
	byName := make(map[string]*Namespace)
	for _, n := range nodes {
		ns, ok := byName[n.Namespace]
		if !ok {
			ns = &Namespace{Name: n.Namespace, Counts: make(map[graph.Kind]int)}
			byName[n.Namespace] = ns
		}
		ns.Types = append(ns.Types, Type{ID: n.ID, Name: n.Name, Kind: n.Kind})
	}

	tree := make([]Namespace, 0, len(byName))
	for _, ns := range byName {
		slices.SortStableFunc(ns.Types, func(a, b Type) int { return cmp.Compare(a.Name, b.Name) })
		recount(ns)
		tree = append(tree, *ns)
	}
	slices.SortFunc(tree, func(a, b Namespace) int { return cmp.Compare(a.Name, b.Name) })
	return tree
}

// Filter keeps namespaces whose name contains query, with all their types,
// and namespaces with at least one type whose name contains query, with only
// the matching types. Matching is literal and case-insensitive; an empty
// query returns tree unchanged.
func Filter(tree []Namespace, query string) []Namespace {
	if query == "" {
		return tree
	}
	q := strings.ToLower(query)
	out := make([]Namespace, 0, len(tree))
	for _, ns := range tree {
		if strings.Contains(strings.ToLower(ns.Name), q) {
			out = append(out, ns)
			continue
		}
		var types []Type
		for _, t := range ns.Types {
			if strings.Contains(strings.ToLower(t.Name), q) {
				types = append(types, t)
			}
		}
		if len(types) == 0 {
			continue
		}
		m := Namespace{Name: ns.Name, Counts: make(map[graph.Kind]int), Types: types}
		recount(&m)
		out = append(out, m)
	}
	return out
}

// Names returns the namespace names of tree in order.
func Names(tree []Namespace) []string {
	names := make([]string, len(tree))
	for i, ns := range tree {
		names[i] = ns.Name
	}
	return names
}

func recount(ns *Namespace) {
	clear(ns.Counts)
	for _, t := range ns.Types {
		ns.Counts[t.Kind]++
	}
	ns.Total = len(ns.Types)
}
