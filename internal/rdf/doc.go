// Package rdf provides the statement model shared by every other package.
//
// A Statement is a (subject, predicate, object, context) quad. Terms are a
// sealed set of value types (IRI, BlankNode, Literal) so that a type switch
// over Term is always exhaustive.
//
// This package imports nothing internal. Every object the store manages is
// a set of statements sharing one context, and the helpers here (canonical
// encoding, statement identity, graph digests) are what the store and the
// codec build on.
package rdf
