// Package event models provenance events as a sealed sum type.
//
// An Event records one lifecycle transition of a DiSCO or Agent. Every
// variant embeds Header for the fields all events share and adds its own
// payload:
//
//   - Creation: the created object ids
//   - Update: the inactivated source, the derived object, the created ids
//   - Derivation: the source, the derived object, the created ids
//   - Inactivation, Tombstone, Deletion: the affected object
//   - Replace: the agent updated in place
//
// Constructors reject an event whose payload is incomplete, so a decoded
// *Derivation always has a source and a derived id.
//
// # Serialization
//
// ToStatements emits the event as a self-contained graph: every statement
// has the event id as its context. FromStatements reverses it and fails if
// the statements span more than one context.
package event
