// Package store provides the SQLite-backed quad store.
//
// Every statement is one row of the statements table, keyed by its
// content-addressed id (rdf.StatementID) so inserts are idempotent. The
// context column is indexed, which makes "all statements describing one
// object" an index range scan rather than a table scan.
//
// # Transactions
//
// A Store is an explicitly owned handle. Mutations that must be atomic run
// inside a Tx obtained from Begin; Tx.Rollback is a no-op once the
// transaction has finished, so the usual pattern is
//
//	tx, err := st.Begin(ctx)
//	if err != nil { ... }
//	defer tx.Rollback()
//	...
//	return tx.Commit()
//
// Store and Tx expose the same read/write surface through the Graph
// interface. Code that runs inside a transaction must read through the Tx:
// the handle holds a single connection, so a read through the Store would
// wait for the transaction that is waiting on it.
//
// # Deterministic Results
//
// All reads order by insertion sequence (seq ASC, id COLLATE BINARY ASC),
// and graph queries order by every projected column, so identical stores
// produce identical results.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
//   - One open connection: writers are serialized
package store
