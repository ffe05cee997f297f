// Package pkg provides the core libraries for Typegraph, a graph editor for
// Rune DSL type models.
//
// # Overview
//
// Typegraph imports the parser output of a Rune model (one JSON AST per
// namespace), turns every Data, Choice, Enumeration, Function, TypeAlias and
// RecordType into a graph node, and keeps the graph editable through a
// command-driven store with undo and redo. The pkg directory is organized
// into four areas:
//
//  1. Model I/O - [ast], [importer], [exporter] and [graph]
//  2. Editing - [store], [history], [validate] and [nstree]
//  3. Layout and rendering - [dag], [layout] and [render/dot]
//  4. Infrastructure - [cache], [config], [storage], [server], [watch],
//     [observability], [errors] and [buildinfo]
//
// # Architecture
//
// The typical data flow through Typegraph:
//
//	Parser output (*.json)
//	         ↓
//	    [ast] package (decode models)
//	         ↓
//	    [importer] package (nodes + edges, filters, diagnostics)
//	         ↓
//	    [store] package (commands, undo/redo, view state, validation)
//	         ↓
//	    [layout] package (layered positions, cached)
//	         ↓
//	    [exporter] (parser output) / [render/dot] (DOT, SVG) / [server] (HTTP)
//
// # Quick Start
//
// Import a model, edit it and write it back:
//
//	import (
//	    "github.com/matzehuels/typegraph/pkg/ast"
//	    "github.com/matzehuels/typegraph/pkg/exporter"
//	    "github.com/matzehuels/typegraph/pkg/store"
//	)
//
//	models, _ := ast.ReadModelsPaths("models/")
//	s := store.New()
//	s.LoadModels(models, nil)
//
//	_ = s.Apply(store.Command{Op: store.OpRenameType, ID: "cdm.base::Party", Name: "Counterparty"})
//	_ = s.Undo()
//
//	_ = exporter.Write(os.Stdout, exporter.ToModels(s.Nodes(), s.Edges()))
//
// # Main Packages
//
// [graph] - Nodes, members, edges and diagnostics, plus the JSON graph
// document format used by the layout cache and document storage.
//
// [store] - The single source of truth for an editing session. Every
// mutation is a [store.Command]; structural commands are recorded in the
// undo history while view-state commands (selection, search, namespace
// expansion) are not. Subscribers receive an event after each commit.
//
// [layout] - Sugiyama-style layered layout over a [dag] graph, with a
// content-addressed cache wrapper and a background worker that drops stale
// results.
//
// [server] - HTTP API over a store with server-sent events, DOT and SVG
// rendering, optional document storage and Prometheus metrics.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/store/...              # Specific package
//	go test -run Example                 # Examples only
//
// [ast]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/ast
// [importer]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/importer
// [exporter]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/exporter
// [graph]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/graph
// [store]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/store
// [store.Command]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/store#Command
// [history]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/history
// [validate]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/validate
// [nstree]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/nstree
// [dag]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/dag
// [layout]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/layout
// [render/dot]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/render/dot
// [cache]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/cache
// [config]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/config
// [storage]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/storage
// [server]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/server
// [watch]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/watch
// [observability]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/errors
// [buildinfo]: https://pkg.go.dev/github.com/matzehuels/typegraph/pkg/buildinfo
package pkg
