package dot

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/layout"
)

// Options configures diagram generation.
type Options struct {
	// Members lists each node's members below its name.
	Members bool

	// Direction is the rank direction. Empty means top to bottom.
	Direction layout.Direction

	// Flat disables namespace clusters.
	Flat bool
}

var kindColors = map[graph.Kind]string{
	graph.KindData:      "#e8f0fe",
	graph.KindChoice:    "#fef7e0",
	graph.KindEnum:      "#e6f4ea",
	graph.KindFunc:      "#f3e8fd",
	graph.KindTypeAlias: "#f1f3f4",
}

// ToDOT converts nodes and edges to Graphviz DOT source. Edges whose
// endpoints are not both in nodes are skipped.
func ToDOT(nodes []*graph.Node, edges []graph.Edge, opts Options) string {
	dir := opts.Direction
	if dir == "" {
		dir = layout.TopBottom
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	fmt.Fprintf(&buf, "  rankdir=%s;\n", dir)
	buf.WriteString("  bgcolor=\"transparent\";\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=12, margin=\"0.15,0.08\"];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  ranksep=0.6;\n")
	buf.WriteString("  nodesep=0.4;\n")
	buf.WriteString("\n")

	present := make(map[string]bool, len(nodes))
	for _, n := range nodes {
		present[n.ID] = true
	}

	if opts.Flat {
		for _, n := range nodes {
			writeNode(&buf, n, opts, "  ")
		}
	} else {
		groups := make(map[string][]*graph.Node)
		for _, n := range nodes {
			groups[n.Namespace] = append(groups[n.Namespace], n)
		}
		namespaces := make([]string, 0, len(groups))
		for ns := range groups {
			namespaces = append(namespaces, ns)
		}
		slices.Sort(namespaces)
		for i, ns := range namespaces {
			fmt.Fprintf(&buf, "  subgraph cluster_%d {\n", i)
			fmt.Fprintf(&buf, "    label=\"%s\";\n", escape(ns))
			buf.WriteString("    style=\"rounded,dashed\";\n")
			buf.WriteString("    color=grey;\n")
			for _, n := range groups[ns] {
				writeNode(&buf, n, opts, "    ")
			}
			buf.WriteString("  }\n")
		}
	}

	buf.WriteString("\n")
	for _, e := range edges {
		if !present[e.Source] || !present[e.Target] {
			continue
		}
		attrs := edgeAttrs(e)
		if len(attrs) == 0 {
			fmt.Fprintf(&buf, "  \"%s\" -> \"%s\";\n", escape(e.Source), escape(e.Target))
			continue
		}
		fmt.Fprintf(&buf, "  \"%s\" -> \"%s\" [%s];\n", escape(e.Source), escape(e.Target), strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func writeNode(buf *bytes.Buffer, n *graph.Node, opts Options, indent string) {
	attrs := []string{fmt.Sprintf("label=\"%s\"", fmtLabel(n, opts.Members))}
	if c, ok := kindColors[n.Kind]; ok {
		attrs = append(attrs, fmt.Sprintf("fillcolor=%q", c))
	}
	if hasErrors(n) {
		attrs = append(attrs, "color=red", "penwidth=2")
	}
	if n.IsReadOnly {
		attrs = append(attrs, "fontcolor=grey40")
	}
	fmt.Fprintf(buf, "%s\"%s\" [%s];\n", indent, escape(n.ID), strings.Join(attrs, ", "))
}

// fmtLabel returns an already escaped label. Member lines are left
// justified with \l.
func fmtLabel(n *graph.Node, members bool) string {
	header := escape(n.Name)
	switch n.Kind {
	case graph.KindEnum:
		header = "«enum» " + header
	case graph.KindChoice:
		header = "«choice» " + header
	case graph.KindFunc:
		header = "«func» " + header
	case graph.KindTypeAlias:
		header = "«alias» " + header
	}
	if !members {
		return header
	}

	var lines []string
	for _, m := range n.Members {
		lines = append(lines, escape(memberLine(n.Kind, m)))
	}
	switch {
	case n.Kind == graph.KindFunc && n.OutputType != "":
		lines = append(lines, escape("→ "+n.OutputType))
	case n.Kind == graph.KindTypeAlias && n.AliasOf != "":
		lines = append(lines, escape("= "+n.AliasOf))
	}
	if len(lines) == 0 {
		return header
	}
	return header + `\n\n` + strings.Join(lines, `\l`) + `\l`
}

func memberLine(k graph.Kind, m graph.Member) string {
	switch k {
	case graph.KindEnum:
		if m.DisplayName != "" {
			return m.Name + " \"" + m.DisplayName + "\""
		}
		return m.Name
	case graph.KindChoice:
		return m.TypeName
	}
	line := m.Name
	if m.TypeName != "" {
		line += " " + m.TypeName
	}
	if m.Cardinality != "" {
		line += " " + m.Cardinality
	}
	return line
}

func edgeAttrs(e graph.Edge) []string {
	var attrs []string
	switch e.Kind {
	case graph.EdgeExtends:
		attrs = append(attrs, "arrowhead=onormal")
	case graph.EdgeEnumExtends:
		attrs = append(attrs, "arrowhead=onormal", "style=dashed")
	case graph.EdgeChoiceOption:
		attrs = append(attrs, "style=dotted")
	case graph.EdgeTypeAliasRef:
		attrs = append(attrs, "style=dashed", "arrowhead=empty")
	case graph.EdgeAttributeRef:
		label := e.Label
		if e.Cardinality != "" {
			label += " " + e.Cardinality
		}
		if label = strings.TrimSpace(label); label != "" {
			attrs = append(attrs, fmt.Sprintf("label=\"%s\"", escape(label)))
		}
	}
	return attrs
}

func hasErrors(n *graph.Node) bool {
	for _, e := range n.Errors {
		if e.Severity == graph.SeverityError {
			return true
		}
	}
	return false
}

var escaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", " ", "\r", " ")

func escape(s string) string { return escaper.Replace(s) }

// RenderSVG renders DOT source to SVG using Graphviz.
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's point-based svg header with one
// whose viewBox starts at the origin and whose size is unitless.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	header := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(header))
}
