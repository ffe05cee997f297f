// Package dot renders type graphs as Graphviz diagrams.
//
// # Overview
//
// [ToDOT] turns nodes and edges (usually the store's visible subset) into
// DOT source. Each node is a box whose header is the type name and whose
// body lists the members. Namespaces become clusters. Edge styles follow
// the edge kind:
//
//   - extends, enum-extends: hollow arrowhead, dashed for enums
//   - attribute-ref: labeled with member name and cardinality
//   - choice-option: dotted
//   - type-alias-ref: dashed
//
// Nodes with error diagnostics get a red outline.
//
// # Usage
//
//	src := dot.ToDOT(s.VisibleNodes(), s.VisibleEdges(), dot.Options{Members: true})
//	svg, err := dot.RenderSVG(ctx, src)
//
// # Dependencies
//
// [RenderSVG] uses [github.com/goccy/go-graphviz] for in-process rendering,
// so no Graphviz installation is required.
package dot
