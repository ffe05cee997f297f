// Package store owns the canonical type graph and every edit command.
//
// A [Store] holds an immutable snapshot of nodes and edges together with the
// view state around it: namespace visibility, the selected node, the search
// query and the layout options. Each command runs as a transaction against a
// private copy of the snapshot and is either committed as a whole or
// discarded, so subscribers never observe a half-applied edit. Unchanged
// nodes are shared between snapshots, which keeps undo frames cheap even for
// cascading edits.
//
// # Renaming
//
// Node ids are derived from namespace and name, and references between types
// are plain names. [Store.RenameType] therefore rewrites every member type,
// parent name, function output, alias target and edge endpoint that pointed
// at the old name in one linear pass over the graph:
//
//	s := store.New()
//	s.LoadModels(models, nil)
//	if err := s.RenameType("cdm.base::Party", "Counterparty"); err != nil {
//	    return err
//	}
//
// # Diagnostics
//
// Semantic checks from package validate run after every committed edit.
// They are advisory: commands never fail because of them, and the findings
// are attached to nodes on read ([graph.Node.Errors]).
//
// # Commands as data
//
// [Command] is a JSON-friendly description of any edit; [Store.Apply]
// dispatches it. The HTTP API and the edit CLI command are built on it.
package store
