// Package codec maps DiSCOs and Agents to and from statements.
//
// Encoding is deterministic: the same object always yields the same
// statements in the same order, every one with the object id as context.
// Decoding accepts statements as a client submitted them. The object root is
// found by its rdf:type, a client-chosen identifier is replaced by the
// official one, and ids are minted through an IDSupplier when the
// statements do not carry one.
package codec
