package store

import (
	"slices"

	"github.com/matzehuels/typegraph/pkg/graph"
)

var (
	attributeKinds = []graph.Kind{graph.KindData, graph.KindFunc}
	enumKinds      = []graph.Kind{graph.KindEnum}
	choiceKinds    = []graph.Kind{graph.KindChoice}
)

// =============================================================================
// Attributes (data attributes and function inputs)
// =============================================================================

// AddAttribute appends an attribute to a data type, or an input to a
// function. An empty cardinality defaults to (1..1).
func (s *Store) AddAttribute(id string, m graph.Member) error {
	m = newAttribute(m)
	return s.editKind("addAttribute", id, attributeKinds, func(n *graph.Node) error {
		n.Members = append(n.Members, m)
		return nil
	})
}

// RemoveAttribute removes the attribute at index.
func (s *Store) RemoveAttribute(id string, index int) error {
	return s.editKind("removeAttribute", id, attributeKinds, removeMember("attribute", index))
}

// UpdateAttribute replaces the attribute at index. The member's import
// source is kept.
func (s *Store) UpdateAttribute(id string, index int, m graph.Member) error {
	m = newAttribute(m)
	return s.editKind("updateAttribute", id, attributeKinds, func(n *graph.Node) error {
		if err := checkIndex("attribute", index, len(n.Members)); err != nil {
			return err
		}
		m.Source = n.Members[index].Source
		n.Members[index] = m
		return nil
	})
}

// ReorderAttribute moves the attribute at from to position to.
func (s *Store) ReorderAttribute(id string, from, to int) error {
	return s.editKind("reorderAttribute", id, attributeKinds, moveMember("attribute", from, to))
}

func newAttribute(m graph.Member) graph.Member {
	if m.Cardinality == "" {
		m.Cardinality = graph.DefaultCardinality
	}
	m.DisplayName = ""
	return m
}

// =============================================================================
// Enumeration values
// =============================================================================

// AddEnumValue appends a value to an enumeration.
func (s *Store) AddEnumValue(id, name, display string) error {
	return s.editKind("addEnumValue", id, enumKinds, func(n *graph.Node) error {
		n.Members = append(n.Members, graph.Member{Name: name, DisplayName: display})
		return nil
	})
}

// RemoveEnumValue removes the value at index.
func (s *Store) RemoveEnumValue(id string, index int) error {
	return s.editKind("removeEnumValue", id, enumKinds, removeMember("enum value", index))
}

// UpdateEnumValue renames the value at index and sets its display name.
func (s *Store) UpdateEnumValue(id string, index int, name, display string) error {
	return s.editKind("updateEnumValue", id, enumKinds, func(n *graph.Node) error {
		if err := checkIndex("enum value", index, len(n.Members)); err != nil {
			return err
		}
		n.Members[index].Name = name
		n.Members[index].DisplayName = display
		return nil
	})
}

// ReorderEnumValue moves the value at from to position to.
func (s *Store) ReorderEnumValue(id string, from, to int) error {
	return s.editKind("reorderEnumValue", id, enumKinds, moveMember("enum value", from, to))
}

// =============================================================================
// Choice options
// =============================================================================

// AddChoiceOption adds typeName as an option of a choice.
func (s *Store) AddChoiceOption(id, typeName string) error {
	return s.editKind("addChoiceOption", id, choiceKinds, func(n *graph.Node) error {
		n.Members = append(n.Members, graph.Member{Name: typeName, TypeName: typeName})
		return nil
	})
}

// RemoveChoiceOption removes the option at index.
func (s *Store) RemoveChoiceOption(id string, index int) error {
	return s.editKind("removeChoiceOption", id, choiceKinds, removeMember("choice option", index))
}

// ReorderChoiceOption moves the option at from to position to.
func (s *Store) ReorderChoiceOption(id string, from, to int) error {
	return s.editKind("reorderChoiceOption", id, choiceKinds, moveMember("choice option", from, to))
}

// =============================================================================
// List splicing
// =============================================================================

func removeMember(what string, index int) func(*graph.Node) error {
	return func(n *graph.Node) error {
		if err := checkIndex(what, index, len(n.Members)); err != nil {
			return err
		}
		n.Members = slices.Delete(n.Members, index, index+1)
		return nil
	}
}

func moveMember(what string, from, to int) func(*graph.Node) error {
	return func(n *graph.Node) error {
		if err := checkIndex(what, from, len(n.Members)); err != nil {
			return err
		}
		if err := checkIndex(what, to, len(n.Members)); err != nil {
			return err
		}
		m := n.Members[from]
		n.Members = slices.Insert(slices.Delete(n.Members, from, from+1), to, m)
		return nil
	}
}
