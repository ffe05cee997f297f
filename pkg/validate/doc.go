// Package validate checks semantic rules over a typegraph graph.
//
// Every check is a pure function. [Graph] aggregates all rules into a list of
// [graph.ValidationError] values; the individual checks are exported so the
// store can use them as guards before committing an edit.
//
// # Rules
//
//	S-01  duplicate type name in a namespace, or duplicate member name
//	S-02  circular inheritance
//	S-04  malformed cardinality, or lower bound above upper bound
//	S-05  duplicate enumeration value
//	S-06  empty type name
//	S-07  type name is not an identifier
//
// Diagnostics are advisory. Nothing in this package blocks an edit.
package validate
