package store

import "errors"

// ErrUnavailable marks failures of the underlying database: it could not be
// opened, the connection is gone, or a statement failed to execute. These
// may be transient.
var ErrUnavailable = errors.New("store unavailable")

// ErrMalformedQuery marks a graph query that failed validation or
// compilation. Retrying it reproduces the failure.
var ErrMalformedQuery = errors.New("malformed query")

// ErrTxDone is returned by Commit on a transaction that already finished.
var ErrTxDone = errors.New("transaction already finished")
