// Package graph defines the typed, UI-addressable graph that typegraph edits.
//
// A DSL model is projected into [Node] values (one per Data, Choice,
// Enumeration, Function or TypeAlias declaration) and [Edge] values
// (inheritance, attribute references, choice options, alias targets).
// The package owns the identity conventions shared by every other layer:
//
//	graph.NodeID("cdm.base", "Party")                 // "cdm.base::Party"
//	graph.EdgeID("a::X", "a::Y", graph.EdgeAttributeRef, "y")
//
// # Identity
//
// Node identity is derived from namespace and name. Renaming a node therefore
// changes its id; package store implements the cascade that rewrites every
// member type reference, parent reference and edge endpoint in one step.
// Edge identity is a deterministic function of (source, target, kind, label).
//
// # Kinds
//
// [Kind] is a closed set. Kind-specific payload lives in dedicated fields:
// [Node.OutputType] and [Node.ExpressionText] for functions, [Node.AliasOf]
// for type aliases, [Member.DisplayName] for enumeration values.
//
// # Cardinality
//
// Cardinalities are stored as text, "(inf..sup)" or "(inf..*)".
// [FormatCardinality] and [ParseCardinality] are inverses of each other;
// unparsable text falls back to [DefaultCardinality].
//
// # Serialization
//
// [Document] is the JSON form of a node/edge set, used for files, storage
// backends and the HTTP API. AST backreferences ([Node.Source],
// [Member.Source]) are never serialized.
package graph
