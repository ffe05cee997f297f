package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/matzehuels/typegraph/pkg/errors"
	"github.com/matzehuels/typegraph/pkg/graph"
)

// Command operations accepted by [Store.Apply].
const (
	OpCreateType            = "createType"
	OpDeleteType            = "deleteType"
	OpRenameType            = "renameType"
	OpAddAttribute          = "addAttribute"
	OpRemoveAttribute       = "removeAttribute"
	OpUpdateAttribute       = "updateAttribute"
	OpReorderAttribute      = "reorderAttribute"
	OpAddEnumValue          = "addEnumValue"
	OpRemoveEnumValue       = "removeEnumValue"
	OpUpdateEnumValue       = "updateEnumValue"
	OpReorderEnumValue      = "reorderEnumValue"
	OpAddChoiceOption       = "addChoiceOption"
	OpRemoveChoiceOption    = "removeChoiceOption"
	OpReorderChoiceOption   = "reorderChoiceOption"
	OpSetInheritance        = "setInheritance"
	OpSetEnumParent         = "setEnumParent"
	OpSetFunctionOutput     = "setFunctionOutput"
	OpUpdateExpression      = "updateExpression"
	OpSetAliasTarget        = "setAliasTarget"
	OpUpdateDefinition      = "updateDefinition"
	OpUpdateComments        = "updateComments"
	OpAddSynonym            = "addSynonym"
	OpRemoveSynonym         = "removeSynonym"
	OpSelectNode            = "selectNode"
	OpSetSearchQuery        = "setSearchQuery"
	OpToggleNamespace       = "toggleNamespace"
	OpToggleNodeVisibility  = "toggleNodeVisibility"
	OpExpandAllNamespaces   = "expandAllNamespaces"
	OpCollapseAllNamespaces = "collapseAllNamespaces"
	OpToggleExplorer        = "toggleExplorer"
	OpUndo                  = "undo"
	OpRedo                  = "redo"
)

// Command describes one store operation as data. Which fields are read
// depends on Op:
//
//	{"op": "createType", "kind": "data", "name": "Trade", "namespace": "cdm.event"}
//	{"op": "renameType", "id": "cdm.event::Trade", "name": "Execution"}
//	{"op": "addAttribute", "id": "cdm.event::Execution", "member": {"name": "party", "typeName": "Party"}}
//	{"op": "reorderAttribute", "id": "cdm.event::Execution", "index": 2, "to": 0}
//	{"op": "setInheritance", "id": "cdm.event::Execution", "parentId": "cdm.base::Event"}
type Command struct {
	Op        string        `json:"op"`
	ID        string        `json:"id,omitempty"`
	Kind      string        `json:"kind,omitempty"`
	Name      string        `json:"name,omitempty"`
	Namespace string        `json:"namespace,omitempty"`
	ParentID  string        `json:"parentId,omitempty"`
	TypeName  string        `json:"typeName,omitempty"`
	Display   string        `json:"display,omitempty"`
	Text      string        `json:"text,omitempty"`
	Index     int           `json:"index,omitempty"`
	To        int           `json:"to,omitempty"`
	Member    *graph.Member `json:"member,omitempty"`
}

// Apply runs cmd against the store.
func (s *Store) Apply(cmd Command) error {
	switch cmd.Op {
	case OpCreateType:
		kind, err := graph.ParseKind(cmd.Kind)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidKind, err, "createType")
		}
		_, err = s.CreateType(kind, cmd.Name, cmd.Namespace)
		return err
	case OpDeleteType:
		return s.DeleteType(cmd.ID)
	case OpRenameType:
		return s.RenameType(cmd.ID, cmd.Name)

	case OpAddAttribute:
		m, err := cmd.member()
		if err != nil {
			return err
		}
		return s.AddAttribute(cmd.ID, m)
	case OpRemoveAttribute:
		return s.RemoveAttribute(cmd.ID, cmd.Index)
	case OpUpdateAttribute:
		m, err := cmd.member()
		if err != nil {
			return err
		}
		return s.UpdateAttribute(cmd.ID, cmd.Index, m)
	case OpReorderAttribute:
		return s.ReorderAttribute(cmd.ID, cmd.Index, cmd.To)

	case OpAddEnumValue:
		return s.AddEnumValue(cmd.ID, cmd.Name, cmd.Display)
	case OpRemoveEnumValue:
		return s.RemoveEnumValue(cmd.ID, cmd.Index)
	case OpUpdateEnumValue:
		return s.UpdateEnumValue(cmd.ID, cmd.Index, cmd.Name, cmd.Display)
	case OpReorderEnumValue:
		return s.ReorderEnumValue(cmd.ID, cmd.Index, cmd.To)

	case OpAddChoiceOption:
		return s.AddChoiceOption(cmd.ID, cmd.TypeName)
	case OpRemoveChoiceOption:
		return s.RemoveChoiceOption(cmd.ID, cmd.Index)
	case OpReorderChoiceOption:
		return s.ReorderChoiceOption(cmd.ID, cmd.Index, cmd.To)

	case OpSetInheritance:
		return s.SetInheritance(cmd.ID, cmd.ParentID)
	case OpSetEnumParent:
		return s.SetEnumParent(cmd.ID, cmd.ParentID)
	case OpSetFunctionOutput:
		return s.SetFunctionOutput(cmd.ID, cmd.TypeName)
	case OpUpdateExpression:
		return s.UpdateExpression(cmd.ID, cmd.Text)
	case OpSetAliasTarget:
		return s.SetAliasTarget(cmd.ID, cmd.TypeName)
	case OpUpdateDefinition:
		return s.UpdateDefinition(cmd.ID, cmd.Text)
	case OpUpdateComments:
		return s.UpdateComments(cmd.ID, cmd.Text)
	case OpAddSynonym:
		return s.AddSynonym(cmd.ID, cmd.Text)
	case OpRemoveSynonym:
		return s.RemoveSynonym(cmd.ID, cmd.Index)

	case OpSelectNode:
		return s.SelectNode(cmd.ID)
	case OpSetSearchQuery:
		return s.SetSearchQuery(cmd.Text)
	case OpToggleNamespace:
		return s.ToggleNamespace(cmd.Namespace)
	case OpToggleNodeVisibility:
		return s.ToggleNodeVisibility(cmd.ID)
	case OpExpandAllNamespaces:
		return s.ExpandAllNamespaces()
	case OpCollapseAllNamespaces:
		return s.CollapseAllNamespaces()
	case OpToggleExplorer:
		return s.ToggleExplorer()

	case OpUndo:
		return s.Undo()
	case OpRedo:
		return s.Redo()
	}
	return errors.New(errors.ErrCodeUnsupported, "unknown command %q", cmd.Op)
}

func (c Command) member() (graph.Member, error) {
	if c.Member == nil {
		return graph.Member{}, errors.New(errors.ErrCodeInvalidInput, "%s: member is required", c.Op)
	}
	return *c.Member, nil
}

// ApplyAll runs cmds in order and stops at the first failure. The error
// names the index of the failing command.
func (s *Store) ApplyAll(cmds []Command) error {
	for i, cmd := range cmds {
		if err := s.Apply(cmd); err != nil {
			return fmt.Errorf("command %d (%s): %w", i, cmd.Op, err)
		}
	}
	return nil
}

// ReadCommands decodes a single command or a JSON array of commands.
func ReadCommands(r io.Reader) ([]Command, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read commands: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}
	if data[0] == '[' {
		var cmds []Command
		if err := json.Unmarshal(data, &cmds); err != nil {
			return nil, fmt.Errorf("decode commands: %w", err)
		}
		return cmds, nil
	}
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return []Command{cmd}, nil
}
