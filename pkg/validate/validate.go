package validate

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/matzehuels/typegraph/pkg/graph"
)

// Rule codes.
const (
	CodeDuplicateName       = "S-01"
	CodeCircularInheritance = "S-02"
	CodeCardinality         = "S-04"
	CodeDuplicateEnumValue  = "S-05"
	CodeEmptyName           = "S-06"
	CodeInvalidIdentifier   = "S-07"
)

var identifierRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Graph runs every rule and returns the diagnostics in node order.
func Graph(nodes []*graph.Node, edges []graph.Edge) []graph.ValidationError {
	var out []graph.ValidationError

	seen := make(map[string]bool, len(nodes))
	parents := parentMap(edges)
	for _, n := range nodes {
		if err := ValidateName(n.Name); err != nil {
			out = append(out, at(err, n.ID))
		}
		if seen[n.ID] {
			out = append(out, graph.ValidationError{
				Code:     CodeDuplicateName,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("type %q is declared more than once in namespace %q", n.Name, n.Namespace),
				Severity: graph.SeverityError,
			})
		}
		seen[n.ID] = true

		out = append(out, Members(n)...)

		if p, ok := parents[n.ID]; ok && reaches(parents, p, n.ID) {
			out = append(out, graph.ValidationError{
				Code:     CodeCircularInheritance,
				NodeID:   n.ID,
				Message:  fmt.Sprintf("%s inherits from itself", n.Name),
				Severity: graph.SeverityError,
			})
		}
	}
	return out
}

// ByNode groups diagnostics by node id.
func ByNode(diags []graph.ValidationError) map[string][]graph.ValidationError {
	m := make(map[string][]graph.ValidationError)
	for _, d := range diags {
		m[d.NodeID] = append(m[d.NodeID], d)
	}
	return m
}

// Members checks the members of a single node: duplicate names (S-01, or
// S-05 for enumerations) and cardinality text (S-04).
func Members(n *graph.Node) []graph.ValidationError {
	var out []graph.ValidationError
	seen := make(map[string]bool, len(n.Members))
	for _, m := range n.Members {
		if seen[m.Name] {
			d := graph.ValidationError{
				Code:     CodeDuplicateName,
				NodeID:   n.ID,
				Member:   m.Name,
				Message:  fmt.Sprintf("member %q is declared more than once", m.Name),
				Severity: graph.SeverityError,
			}
			if n.Kind == graph.KindEnum {
				d.Code = CodeDuplicateEnumValue
				d.Message = fmt.Sprintf("enumeration value %q is declared more than once", m.Name)
			}
			out = append(out, d)
		}
		seen[m.Name] = true

		if m.Cardinality == "" {
			continue
		}
		if err := ValidateCardinality(m.Cardinality); err != nil {
			d := at(err, n.ID)
			d.Member = m.Name
			out = append(out, d)
		}
	}
	return out
}

// ValidateName checks a type name for emptiness (S-06) and identifier
// syntax (S-07). It returns nil for a valid name.
func ValidateName(name string) *graph.ValidationError {
	if strings.TrimSpace(name) == "" {
		return &graph.ValidationError{
			Code:     CodeEmptyName,
			Message:  "type name must not be empty",
			Severity: graph.SeverityError,
		}
	}
	if !identifierRe.MatchString(name) {
		return &graph.ValidationError{
			Code:     CodeInvalidIdentifier,
			Message:  fmt.Sprintf("%q is not a valid identifier", name),
			Severity: graph.SeverityWarning,
		}
	}
	return nil
}

// ValidateCardinality checks cardinality text. Accepted forms are
// "inf..sup" and "inf..*", with or without parentheses. A malformed value
// and a lower bound above the upper bound produce different messages.
func ValidateCardinality(s string) error {
	b, ok := graph.ParseCardinality(s)
	if !ok {
		return &graph.ValidationError{
			Code:     CodeCardinality,
			Message:  fmt.Sprintf("invalid cardinality %q: expected (inf..sup) or (inf..*)", s),
			Severity: graph.SeverityError,
		}
	}
	if !b.Ordered() {
		return &graph.ValidationError{
			Code:     CodeCardinality,
			Message:  fmt.Sprintf("lower bound %d exceeds upper bound %d", b.Inf, b.Sup),
			Severity: graph.SeverityError,
		}
	}
	return nil
}

// DetectCircularInheritance reports whether making parentID the parent of
// childID would close an inheritance cycle, i.e. whether the parent chain
// starting at parentID reaches childID. It is true when both ids are equal.
func DetectCircularInheritance(childID, parentID string, edges []graph.Edge) bool {
	if childID == parentID {
		return true
	}
	return reaches(parentMap(edges), parentID, childID)
}

// parentMap maps child id to parent id over inheritance edges.
func parentMap(edges []graph.Edge) map[string]string {
	m := make(map[string]string)
	for _, e := range edges {
		if e.Kind.IsInheritance() {
			if _, ok := m[e.Source]; !ok {
				m[e.Source] = e.Target
			}
		}
	}
	return m
}

// reaches walks the parent chain from start and reports whether it hits
// target. Cycles not involving target terminate through the visited set.
func reaches(parents map[string]string, start, target string) bool {
	visited := make(map[string]bool)
	for cur := start; cur != ""; cur = parents[cur] {
		if cur == target {
			return true
		}
		if visited[cur] {
			return false
		}
		visited[cur] = true
	}
	return false
}

func at(err error, nodeID string) graph.ValidationError {
	ve, ok := err.(*graph.ValidationError)
	if !ok {
		return graph.ValidationError{NodeID: nodeID, Message: err.Error(), Severity: graph.SeverityError}
	}
	d := *ve
	d.NodeID = nodeID
	return d
}
