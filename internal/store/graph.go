package store

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
)

// Graph is the read/write surface shared by Store and Tx.
type Graph interface {
	// AddStatement inserts one statement. Re-adding an existing statement
	// is a no-op.
	AddStatement(ctx context.Context, st rdf.Statement) error

	// AddStatements inserts statements and returns how many were new.
	AddStatements(ctx context.Context, stmts []rdf.Statement) (int, error)

	// GetStatements returns the statements matching p in insertion order.
	GetStatements(ctx context.Context, p Pattern) ([]rdf.Statement, error)

	// HasStatement reports whether any statement matches p.
	HasStatement(ctx context.Context, p Pattern) (bool, error)

	// CountStatements returns the number of statements matching p.
	CountStatements(ctx context.Context, p Pattern) (int, error)

	// RemoveStatements deletes the given triples from the named contexts,
	// or from each statement's own context when none are named.
	RemoveStatements(ctx context.Context, stmts []rdf.Statement, contexts ...rdf.IRI) (int, error)

	// RemoveContext deletes every statement in the context.
	RemoveContext(ctx context.Context, c rdf.IRI) (int, error)

	// ContextStatements returns every statement in the context.
	ContextStatements(ctx context.Context, c rdf.IRI) ([]rdf.Statement, error)

	// Contexts returns the distinct non-empty contexts in first-insert order.
	Contexts(ctx context.Context) ([]rdf.IRI, error)

	// ExecuteGraphQuery runs a select query and returns its solutions.
	ExecuteGraphQuery(ctx context.Context, q queryir.Select) ([]queryir.Binding, error)

	// Ask reports whether the query has at least one solution.
	Ask(ctx context.Context, q queryir.Ask) (bool, error)
}

var (
	_ Graph = (*Store)(nil)
	_ Graph = (*Tx)(nil)
)

// Pattern selects statements by position. A zero field is a wildcard.
type Pattern struct {
	Subject   rdf.Resource
	Predicate rdf.IRI
	Object    rdf.Term
	Context   rdf.IRI
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// graph implements Graph over a querier.
type graph struct {
	q      querier
	logger *slog.Logger
}
