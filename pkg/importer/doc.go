// Package importer projects parsed DSL models into a typegraph graph.
//
// [ToGraph] runs in two passes. The first pass classifies every top-level
// element by its AST tag, derives the node id from namespace and name and
// translates attributes, choice options, function inputs and enumeration
// values into members. The second pass indexes the accepted nodes by name and
// emits inheritance, attribute, choice-option and alias edges for every
// reference that resolves. External-reference flags are computed last, once
// the full name index is known.
//
// The importer never fails. Unknown element kinds are skipped and counted in
// [Result.Skipped]; missing or malformed cardinalities become "(1..1)".
//
// # Filtering
//
// [Filters] narrows the projection by kind, namespace glob (matched with
// github.com/gobwas/glob, '.' as separator) and a case-insensitive name
// regular expression. HideOrphans drops nodes without any edge.
package importer
