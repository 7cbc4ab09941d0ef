// Package versioning manages the lifecycle of DiSCOs and agents.
//
// Every change is recorded as an event in the graph store. Nothing about an
// object's state is stored directly: status, versions and lineage are
// derived from the event log when read.
//
// Lifecycle:
//
//	CreateDiSCO ──► ACTIVE ──UpdateDiSCO (creator)──► INACTIVE (new version ACTIVE)
//	                  │  └─UpdateDiSCO (other agent)──► ACTIVE (derivative ACTIVE)
//	                  ├─InactivateDiSCO──► INACTIVE
//	                  ├─TombstoneDiSCO───► TOMBSTONED
//	                  └─DeleteDiSCO──────► DELETED
//
// TOMBSTONED and DELETED are terminal. Every mutating operation runs in one
// store transaction; validation reads go through the same transaction, so
// concurrent writers are serialized by the store.
package versioning
