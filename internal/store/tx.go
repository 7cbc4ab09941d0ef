package store

import (
	"database/sql"
	"fmt"
)

// Tx is an open transaction. It exposes the same Graph surface as Store;
// every read and write goes through the transaction.
type Tx struct {
	graph
	tx   *sql.Tx
	done bool
}

// Commit commits the transaction.
func (t *Tx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true
	if err := t.tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrUnavailable, err)
	}
	t.logger.Debug("transaction committed")
	return nil
}

// Rollback aborts the transaction. It is a no-op if the transaction has
// already been committed or rolled back.
func (t *Tx) Rollback() error {
	if t.done {
		return nil
	}
	t.done = true
	if err := t.tx.Rollback(); err != nil {
		return fmt.Errorf("%w: rollback: %w", ErrUnavailable, err)
	}
	t.logger.Debug("transaction rolled back")
	return nil
}
