package importer

import (
	"regexp"
	"slices"

	"github.com/gobwas/glob"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// Filters restricts which elements become nodes. The zero value accepts all.
type Filters struct {
	// Kinds keeps only nodes of these kinds. Empty keeps all kinds.
	Kinds []graph.Kind `json:"kinds,omitempty" toml:"kinds"`

	// Namespaces keeps only nodes whose namespace matches one of these glob
	// patterns ("cdm.base", "cdm.*", "cdm.**"). Empty keeps all namespaces.
	Namespaces []string `json:"namespaces,omitempty" toml:"namespaces"`

	// NamePattern keeps only nodes whose name matches this case-insensitive
	// regular expression. An invalid expression is matched literally.
	NamePattern string `json:"namePattern,omitempty" toml:"name_pattern"`

	// HideOrphans drops nodes that are not touched by any edge.
	HideOrphans bool `json:"hideOrphans,omitempty" toml:"hide_orphans"`

	// ReadOnlyNamespaces marks nodes in matching namespaces read-only.
	ReadOnlyNamespaces []string `json:"readOnlyNamespaces,omitempty" toml:"read_only_namespaces"`
}

type matcher struct {
	kinds      []graph.Kind
	namespaces []glob.Glob
	readOnly   []glob.Glob
	name       *regexp.Regexp
}

func newMatcher(f *Filters) *matcher {
	m := &matcher{}
	if f == nil {
		return m
	}
	m.kinds = f.Kinds
	m.namespaces = compileGlobs(f.Namespaces)
	m.readOnly = compileGlobs(f.ReadOnlyNamespaces)
	if f.NamePattern != "" {
		re, err := regexp.Compile("(?i)" + f.NamePattern)
		if err != nil {
			re = regexp.MustCompile("(?i)" + regexp.QuoteMeta(f.NamePattern))
		}
		m.name = re
	}
	return m
}

// compileGlobs compiles namespace patterns. A pattern that is not a valid
// glob matches itself literally.
func compileGlobs(patterns []string) []glob.Glob {
	globs := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		g, err := glob.Compile(p, '.')
		if err != nil {
			g = glob.MustCompile(glob.QuoteMeta(p), '.')
		}
		globs = append(globs, g)
	}
	return globs
}

func (m *matcher) accept(n *graph.Node) bool {
	if len(m.kinds) > 0 && !slices.Contains(m.kinds, n.Kind) {
		return false
	}
	if len(m.namespaces) > 0 && !matchAny(m.namespaces, n.Namespace) {
		return false
	}
	if m.name != nil && !m.name.MatchString(n.Name) {
		return false
	}
	return true
}

func (m *matcher) readOnlyNamespace(ns string) bool {
	return matchAny(m.readOnly, ns)
}

func matchAny(globs []glob.Glob, s string) bool {
	for _, g := range globs {
		if g.Match(s) {
			return true
		}
	}
	return false
}
