package store

import (
	"slices"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/graph"
	"github.com/matzehuels/typegraph/pkg/validate"
)

// =============================================================================
// Type lifecycle
// =============================================================================

// CreateType adds an empty type and returns its id. Existing nodes that
// already refer to the name get their edges to it. A type created in a new
// namespace expands that namespace.
func (s *Store) CreateType(kind graph.Kind, name, namespace string) (string, error) {
	if !kind.Valid() {
		return "", errors.New(errors.ErrCodeInvalidKind, "unknown kind %q", kind)
	}
	id := graph.NodeID(namespace, name)
	err := s.commit("createType", true, func(t *tx) error {
		if t.has(id) {
			return errors.New(errors.ErrCodeDuplicate, "type %q already exists", id)
		}
		newNamespace := !slices.ContainsFunc(t.nodes, func(n *graph.Node) bool {
			return n.Namespace == namespace
		})
		n := graph.NewNode(kind, name, namespace)
		t.appendNode(n)
		t.linkIncoming(n)
		if newNamespace {
			t.after(func(s *Store) { s.vis.ExpandedNamespaces[namespace] = true })
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return id, nil
}

// DeleteType removes a type and every edge touching it. References to its
// name stay in place and become external.
func (s *Store) DeleteType(id string) error {
	return s.commit("deleteType", true, func(t *tx) error {
		i, _, err := t.editable(id)
		if err != nil {
			return err
		}
		t.removeNode(i)
		t.removeEdges(func(e graph.Edge) bool { return e.Touches(id) })
		t.after(func(s *Store) {
			delete(s.vis.HiddenNodeIDs, id)
			if s.selected == id {
				s.selected = ""
			}
		})
		return nil
	})
}

// RenameType renames a type and rewrites every reference to it in one
// atomic step: member types, parent names, function outputs, alias targets
// and edge endpoints. The selection and hidden state follow the node.
//
// References are only rewritten when the name resolved to this node; when
// another namespace declared the same name first, the references belong to
// that node and are left alone.
func (s *Store) RenameType(id, newName string) error {
	return s.commit("renameType", true, func(t *tx) error {
		i, n, err := t.editable(id)
		if err != nil {
			return err
		}
		if n.Name == newName {
			return nil
		}
		newID := graph.NodeID(n.Namespace, newName)
		if t.has(newID) {
			return errors.New(errors.ErrCodeDuplicate, "type %q already exists", newID)
		}
		t.rename(i, newName)
		t.after(func(s *Store) {
			if s.selected == id {
				s.selected = newID
			}
			if s.vis.HiddenNodeIDs[id] {
				delete(s.vis.HiddenNodeIDs, id)
				s.vis.HiddenNodeIDs[newID] = true
			}
		})
		return nil
	})
}

// rename is the cascade behind RenameType. It makes one pass over the nodes
// and one over the edges, then links references that were dangling until
// the new name existed.
func (t *tx) rename(i int, newName string) {
	old := t.nodes[i]
	oldID, oldName := old.ID, old.Name
	newID := graph.NodeID(old.Namespace, newName)

	owner, _ := t.nameIndex().Resolve(oldName)
	cascade := owner != nil && owner.ID == oldID

	n := t.mutable(i)
	n.ID = newID
	n.Name = newName
	delete(t.pos, oldID)
	t.pos[newID] = i

	if cascade {
		for j, m := range t.nodes {
			if refersTo(m, oldName) {
				rewriteRefs(t.mutable(j), oldName, newName)
			}
		}
	}

	for k, e := range t.edges {
		if !e.Touches(oldID) {
			continue
		}
		src, dst := e.Source, e.Target
		if src == oldID {
			src = newID
		}
		if dst == oldID {
			dst = newID
		}
		t.edges[k] = e.WithEndpoints(src, dst)
	}

	t.linkIncoming(n)
}

func refersTo(n *graph.Node, name string) bool {
	if n.ParentName == name || n.OutputType == name || n.AliasOf == name {
		return true
	}
	return slices.ContainsFunc(n.Members, func(m graph.Member) bool { return m.TypeName == name })
}

func rewriteRefs(n *graph.Node, oldName, newName string) {
	for k := range n.Members {
		m := &n.Members[k]
		if m.TypeName != oldName {
			continue
		}
		m.TypeName = newName
		// Choice options are named after the type they select.
		if n.Kind == graph.KindChoice && m.Name == oldName {
			m.Name = newName
		}
	}
	if n.ParentName == oldName {
		n.ParentName = newName
	}
	if n.OutputType == oldName {
		n.OutputType = newName
	}
	if n.AliasOf == oldName {
		n.AliasOf = newName
	}
}

// =============================================================================
// Inheritance
// =============================================================================

// SetInheritance makes parentID the super type of the data type childID. An
// empty parentID removes the super type. Cycles and parents of another kind
// are rejected.
func (s *Store) SetInheritance(childID, parentID string) error {
	return s.setParent("setInheritance", graph.KindData, childID, parentID)
}

// SetEnumParent is [Store.SetInheritance] for enumerations.
func (s *Store) SetEnumParent(childID, parentID string) error {
	return s.setParent("setEnumParent", graph.KindEnum, childID, parentID)
}

func (s *Store) setParent(command string, kind graph.Kind, childID, parentID string) error {
	return s.commit(command, true, func(t *tx) error {
		i, child, err := t.editable(childID)
		if err != nil {
			return err
		}
		if child.Kind != kind {
			return errors.New(errors.ErrCodeInvalidKind, "%s is a %s, not a %s", childID, child.Kind, kind)
		}
		edgeKind, _ := kind.ParentEdgeKind()
		inherits := func(e graph.Edge) bool { return e.Source == childID && e.Kind.IsInheritance() }

		if parentID == "" {
			if child.ParentName != "" {
				t.mutable(i).ParentName = ""
			}
			t.removeEdges(inherits)
			return nil
		}

		_, parent, err := t.find(parentID)
		if err != nil {
			return err
		}
		if !child.Kind.CanExtend(parent.Kind) {
			return errors.New(errors.ErrCodeIncompatibleKind, "%s %s cannot extend %s %s", child.Kind, childID, parent.Kind, parentID)
		}
		if validate.DetectCircularInheritance(childID, parentID, t.edges) {
			return errors.New(errors.ErrCodeCircularInheritance, "%s extending %s would create a cycle", childID, parentID)
		}
		edge := graph.NewEdge(childID, parentID, edgeKind, "", "")
		if child.ParentName == parent.Name && t.hasEdge(edge.ID) {
			return nil
		}
		t.mutable(i).ParentName = parent.Name
		t.removeEdges(inherits)
		t.addEdges(edge)
		return nil
	})
}

// =============================================================================
// Type properties
// =============================================================================

// UpdateDefinition replaces the documentation text of a type.
func (s *Store) UpdateDefinition(id, text string) error {
	return s.editNode("updateDefinition", id, func(n *graph.Node) bool {
		return n.Definition != text
	}, func(n *graph.Node) {
		n.Definition = text
	})
}

// UpdateComments replaces the free-form comments of a type.
func (s *Store) UpdateComments(id, text string) error {
	return s.editNode("updateComments", id, func(n *graph.Node) bool {
		return n.Comments != text
	}, func(n *graph.Node) {
		n.Comments = text
	})
}

// AddSynonym appends a synonym to a type.
func (s *Store) AddSynonym(id, synonym string) error {
	return s.editNode("addSynonym", id, nil, func(n *graph.Node) {
		n.Synonyms = append(n.Synonyms, synonym)
	})
}

// RemoveSynonym removes the synonym at index.
func (s *Store) RemoveSynonym(id string, index int) error {
	return s.commit("removeSynonym", true, func(t *tx) error {
		i, n, err := t.editable(id)
		if err != nil {
			return err
		}
		if err := checkIndex("synonym", index, len(n.Synonyms)); err != nil {
			return err
		}
		c := t.mutable(i)
		c.Synonyms = slices.Delete(c.Synonyms, index, index+1)
		return nil
	})
}

// SetFunctionOutput sets the output type of a function.
func (s *Store) SetFunctionOutput(id, typeName string) error {
	return s.editKind("setFunctionOutput", id, []graph.Kind{graph.KindFunc}, func(n *graph.Node) error {
		n.OutputType = typeName
		return nil
	})
}

// UpdateExpression replaces the body of a function.
func (s *Store) UpdateExpression(id, text string) error {
	return s.editKind("updateExpression", id, []graph.Kind{graph.KindFunc}, func(n *graph.Node) error {
		n.ExpressionText = text
		return nil
	})
}

// SetAliasTarget sets the type a type alias stands for.
func (s *Store) SetAliasTarget(id, typeName string) error {
	return s.editKind("setAliasTarget", id, []graph.Kind{graph.KindTypeAlias}, func(n *graph.Node) error {
		n.AliasOf = typeName
		return nil
	})
}

// editNode applies a field edit that does not affect edges. A nil changes
// func means the edit always changes the node.
func (s *Store) editNode(command, id string, changes func(*graph.Node) bool, edit func(*graph.Node)) error {
	return s.commit(command, true, func(t *tx) error {
		i, n, err := t.editable(id)
		if err != nil {
			return err
		}
		if changes != nil && !changes(n) {
			return nil
		}
		edit(t.mutable(i))
		return nil
	})
}

// editKind applies an edit to a node of one of kinds and rebuilds the edges
// leaving it.
func (s *Store) editKind(command, id string, kinds []graph.Kind, edit func(*graph.Node) error) error {
	return s.commit(command, true, func(t *tx) error {
		i, n, err := t.editable(id)
		if err != nil {
			return err
		}
		if !slices.Contains(kinds, n.Kind) {
			return errors.New(errors.ErrCodeInvalidKind, "%s: not supported for %s %s", command, n.Kind, id)
		}
		c := t.mutable(i)
		if err := edit(c); err != nil {
			return err
		}
		t.syncReferences(c)
		return nil
	})
}

func checkIndex(what string, index, n int) error {
	if index < 0 || index >= n {
		return errors.New(errors.ErrCodeInvalidIndex, "%s index %d out of range [0,%d)", what, index, n)
	}
	return nil
}
