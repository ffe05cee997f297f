package graph

import (
	"fmt"
	"slices"
	"strings"
)

// =============================================================================
// Kinds
// =============================================================================

// Kind classifies a node by the DSL construct it was projected from.
type Kind string

// Node kinds.
const (
	KindData      Kind = "data"
	KindChoice    Kind = "choice"
	KindEnum      Kind = "enum"
	KindFunc      Kind = "func"
	KindTypeAlias Kind = "typeAlias"
)

// Kinds lists every node kind in display order.
var Kinds = []Kind{KindData, KindChoice, KindEnum, KindFunc, KindTypeAlias}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool { return slices.Contains(Kinds, k) }

// ParseKind converts a string to a Kind, accepting the AST tag names
// ("Data", "Enumeration", ...) as well as the canonical lowercase names.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "data":
		return KindData, nil
	case "choice":
		return KindChoice, nil
	case "enum", "enumeration":
		return KindEnum, nil
	case "func", "function":
		return KindFunc, nil
	case "typealias", "type-alias", "alias":
		return KindTypeAlias, nil
	}
	return "", fmt.Errorf("unknown kind %q", s)
}

// ParentEdgeKind returns the edge kind used for inheritance from a node of
// kind k. Only data and enum nodes can have parents.
func (k Kind) ParentEdgeKind() (EdgeKind, bool) {
	switch k {
	case KindData:
		return EdgeExtends, true
	case KindEnum:
		return EdgeEnumExtends, true
	}
	return "", false
}

// CanExtend reports whether a node of kind k may inherit from a node of kind
// parent (data from data, enum from enum).
func (k Kind) CanExtend(parent Kind) bool {
	_, ok := k.ParentEdgeKind()
	return ok && k == parent
}

// MemberEdgeKind returns the edge kind emitted for members of a node of kind k
// whose type resolves to another node.
func (k Kind) MemberEdgeKind() (EdgeKind, bool) {
	switch k {
	case KindData, KindFunc:
		return EdgeAttributeRef, true
	case KindChoice:
		return EdgeChoiceOption, true
	}
	return "", false
}

// EdgeKind classifies a relationship between two nodes.
type EdgeKind string

// Edge kinds.
const (
	EdgeExtends      EdgeKind = "extends"
	EdgeEnumExtends  EdgeKind = "enum-extends"
	EdgeAttributeRef EdgeKind = "attribute-ref"
	EdgeChoiceOption EdgeKind = "choice-option"
	EdgeTypeAliasRef EdgeKind = "type-alias-ref"
)

// IsInheritance reports whether the edge kind encodes a child→parent link.
func (k EdgeKind) IsInheritance() bool {
	return k == EdgeExtends || k == EdgeEnumExtends
}

// =============================================================================
// Identity
// =============================================================================

// idSeparator joins namespace and name in a node id.
const idSeparator = "::"

// NodeID derives the id of a node from its namespace and name.
func NodeID(namespace, name string) string {
	return namespace + idSeparator + name
}

// SplitNodeID is the inverse of NodeID. Ids without a separator are treated
// as names in the empty namespace.
func SplitNodeID(id string) (namespace, name string) {
	if i := strings.LastIndex(id, idSeparator); i >= 0 {
		return id[:i], id[i+len(idSeparator):]
	}
	return "", id
}

// EdgeID derives an edge id from its endpoints, kind and label.
func EdgeID(source, target string, kind EdgeKind, label string) string {
	id := string(kind) + ":" + source + "->" + target
	if label != "" {
		id += "#" + label
	}
	return id
}

// =============================================================================
// Node
// =============================================================================

// Member is an attribute, choice option, function input or enumeration value.
type Member struct {
	Name        string `json:"name"`
	TypeName    string `json:"typeName,omitempty"`
	Cardinality string `json:"cardinality,omitempty"`
	IsOverride  bool   `json:"isOverride,omitempty"`
	DisplayName string `json:"displayName,omitempty"` // enum values only
	Definition  string `json:"definition,omitempty"`

	// Source is the AST object this member was imported from, if any.
	Source any `json:"-" bson:"-"`
}

// Position is the top-left corner and size of a laid-out node.
type Position struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Severity grades a validation diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// ValidationError is an advisory diagnostic attached to a node.
type ValidationError struct {
	Code     string   `json:"code"`
	NodeID   string   `json:"nodeId,omitempty"`
	Member   string   `json:"member,omitempty"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Member != "" {
		return fmt.Sprintf("%s %s.%s: %s", e.Code, e.NodeID, e.Member, e.Message)
	}
	if e.NodeID != "" {
		return fmt.Sprintf("%s %s: %s", e.Code, e.NodeID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Node is a type declaration in the graph.
//
// Nodes held by the store are treated as immutable: edits replace the node
// with a modified [Node.Clone], so snapshots can share unchanged nodes.
type Node struct {
	ID              string            `json:"id"`
	Kind            Kind              `json:"kind"`
	Name            string            `json:"name"`
	Namespace       string            `json:"namespace"`
	Definition      string            `json:"definition,omitempty"`
	Members         []Member          `json:"members"`
	ParentName      string            `json:"parentName,omitempty"`
	OutputType      string            `json:"outputType,omitempty"`     // func only
	ExpressionText  string            `json:"expressionText,omitempty"` // func only
	AliasOf         string            `json:"aliasOf,omitempty"`        // typeAlias only
	HasExternalRefs bool              `json:"hasExternalRefs"`
	Errors          []ValidationError `json:"errors,omitempty"`
	Synonyms        []string          `json:"synonyms,omitempty"`
	Comments        string            `json:"comments,omitempty"`
	IsReadOnly      bool              `json:"isReadOnly,omitempty"`
	Position        Position          `json:"position"`

	// Source is the AST element this node was imported from, if any.
	Source any `json:"-" bson:"-"`
}

// NewNode creates an empty node of the given kind with its id derived.
func NewNode(kind Kind, name, namespace string) *Node {
	return &Node{
		ID:        NodeID(namespace, name),
		Kind:      kind,
		Name:      name,
		Namespace: namespace,
		Members:   []Member{},
	}
}

// Clone returns a copy of n whose slices can be modified independently.
func (n *Node) Clone() *Node {
	c := *n
	c.Members = slices.Clone(n.Members)
	c.Errors = slices.Clone(n.Errors)
	c.Synonyms = slices.Clone(n.Synonyms)
	if c.Members == nil {
		c.Members = []Member{}
	}
	return &c
}

// MemberIndex returns the index of the first member named name, or -1.
func (n *Node) MemberIndex(name string) int {
	return slices.IndexFunc(n.Members, func(m Member) bool { return m.Name == name })
}

// TypeRefs returns every type name the node refers to: member types, the
// function output type and the alias target. Empty names are skipped.
func (n *Node) TypeRefs() []string {
	refs := make([]string, 0, len(n.Members)+2)
	for _, m := range n.Members {
		if m.TypeName != "" {
			refs = append(refs, m.TypeName)
		}
	}
	if n.OutputType != "" {
		refs = append(refs, n.OutputType)
	}
	if n.AliasOf != "" {
		refs = append(refs, n.AliasOf)
	}
	return refs
}

// =============================================================================
// Edge
// =============================================================================

// Edge is a directed relationship between two nodes.
type Edge struct {
	ID          string   `json:"id"`
	Source      string   `json:"source"`
	Target      string   `json:"target"`
	Kind        EdgeKind `json:"kind"`
	Label       string   `json:"label,omitempty"`
	Cardinality string   `json:"cardinality,omitempty"`
}

// NewEdge creates an edge with its id derived from the other fields.
func NewEdge(source, target string, kind EdgeKind, label, cardinality string) Edge {
	return Edge{
		ID:          EdgeID(source, target, kind, label),
		Source:      source,
		Target:      target,
		Kind:        kind,
		Label:       label,
		Cardinality: cardinality,
	}
}

// WithEndpoints returns a copy of e with new endpoints and a regenerated id.
func (e Edge) WithEndpoints(source, target string) Edge {
	e.Source = source
	e.Target = target
	e.ID = EdgeID(source, target, e.Kind, e.Label)
	return e
}

// Touches reports whether id is one of the edge's endpoints.
func (e Edge) Touches(id string) bool { return e.Source == id || e.Target == id }
