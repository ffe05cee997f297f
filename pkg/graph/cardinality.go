package graph

import (
	"regexp"
	"strconv"
	"strings"
)

// DefaultCardinality is used whenever a cardinality is missing or unparsable.
const DefaultCardinality = "(1..1)"

// Bounds is a parsed cardinality.
type Bounds struct {
	Inf       int
	Sup       int // meaningless when Unbounded
	Unbounded bool
}

// String formats b as "(inf..sup)" or "(inf..*)".
func (b Bounds) String() string {
	if b.Unbounded {
		return "(" + strconv.Itoa(b.Inf) + "..*)"
	}
	return "(" + strconv.Itoa(b.Inf) + ".." + strconv.Itoa(b.Sup) + ")"
}

// FormatCardinality renders AST cardinality bounds. A nil sup without
// unbounded means "exactly inf". Negative bounds yield [DefaultCardinality].
func FormatCardinality(inf int, sup *int, unbounded bool) string {
	if inf < 0 || (sup != nil && *sup < 0) {
		return DefaultCardinality
	}
	switch {
	case unbounded:
		return Bounds{Inf: inf, Unbounded: true}.String()
	case sup != nil:
		return Bounds{Inf: inf, Sup: *sup}.String()
	default:
		return Bounds{Inf: inf, Sup: inf}.String()
	}
}

var cardinalityRe = regexp.MustCompile(`^\s*(\d+)\s*\.\.\s*(\d+|\*)\s*$`)

// ParseCardinality parses "inf..sup" or "inf..*", with or without
// surrounding parentheses. It reports false when the text is not of that
// form. A lower bound exceeding the upper bound still parses; callers that
// care check [Bounds.Ordered].
func ParseCardinality(s string) (Bounds, bool) {
	s = strings.TrimSpace(s)
	open, closed := strings.HasPrefix(s, "("), strings.HasSuffix(s, ")")
	if open != closed {
		return Bounds{}, false
	}
	if open {
		s = s[1 : len(s)-1]
	}

	m := cardinalityRe.FindStringSubmatch(s)
	if m == nil {
		return Bounds{}, false
	}
	inf, err := strconv.Atoi(m[1])
	if err != nil {
		return Bounds{}, false
	}
	if m[2] == "*" {
		return Bounds{Inf: inf, Unbounded: true}, true
	}
	sup, err := strconv.Atoi(m[2])
	if err != nil {
		return Bounds{}, false
	}
	return Bounds{Inf: inf, Sup: sup}, true
}

// Ordered reports whether the lower bound does not exceed the upper bound.
func (b Bounds) Ordered() bool { return b.Unbounded || b.Inf <= b.Sup }

// NormalizeCardinality parses s and re-formats it, falling back to
// [DefaultCardinality] for unparsable input.
func NormalizeCardinality(s string) string {
	b, ok := ParseCardinality(s)
	if !ok {
		return DefaultCardinality
	}
	return b.String()
}
