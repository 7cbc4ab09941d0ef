package store

import (
	"context"
	"fmt"

	"github.com/roach88/provstore/internal/querysql"
	"github.com/roach88/provstore/internal/rdf"
)

// AddStatement inserts a statement. The row id is the statement's content
// hash, so inserting the same statement twice is a no-op.
func (g *graph) AddStatement(ctx context.Context, st rdf.Statement) error {
	_, err := g.insert(ctx, st)
	return err
}

// AddStatements inserts statements in order and returns the number of rows
// actually written. Statements already present are skipped.
func (g *graph) AddStatements(ctx context.Context, stmts []rdf.Statement) (int, error) {
	added := 0
	for _, st := range stmts {
		ok, err := g.insert(ctx, st)
		if err != nil {
			return added, err
		}
		if ok {
			added++
		}
	}
	return added, nil
}

func (g *graph) insert(ctx context.Context, st rdf.Statement) (bool, error) {
	if err := st.Validate(); err != nil {
		return false, err
	}
	id, err := rdf.StatementID(st)
	if err != nil {
		return false, fmt.Errorf("compute statement id: %w", err)
	}
	subj, err := querysql.EncodeTerm(st.Subject)
	if err != nil {
		return false, fmt.Errorf("encode subject: %w", err)
	}
	obj, err := querysql.EncodeTerm(st.Object)
	if err != nil {
		return false, fmt.Errorf("encode object: %w", err)
	}

	res, err := g.q.ExecContext(ctx, `
		INSERT INTO statements (id, subject, subject_kind, predicate, object, object_kind, object_lang, object_datatype, context)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`, id, subj.Value, int(subj.Kind), string(st.Predicate),
		obj.Value, int(obj.Kind), obj.Lang, obj.Datatype, string(st.Context))
	if err != nil {
		return false, fmt.Errorf("%w: insert statement: %w", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%w: insert statement: %w", ErrUnavailable, err)
	}
	return n > 0, nil
}

// RemoveStatements deletes triples. With no contexts named, each statement
// is removed from its own context; otherwise the triple is removed from
// every named context. Returns the number of rows deleted.
func (g *graph) RemoveStatements(ctx context.Context, stmts []rdf.Statement, contexts ...rdf.IRI) (int, error) {
	removed := 0
	for _, st := range stmts {
		targets := contexts
		if len(targets) == 0 {
			targets = []rdf.IRI{st.Context}
		}
		for _, c := range targets {
			n, err := g.deleteTriple(ctx, st, c)
			if err != nil {
				return removed, err
			}
			removed += n
		}
	}
	return removed, nil
}

func (g *graph) deleteTriple(ctx context.Context, st rdf.Statement, c rdf.IRI) (int, error) {
	if err := st.Validate(); err != nil {
		return 0, err
	}
	id, err := rdf.StatementID(st.WithContext(c))
	if err != nil {
		return 0, fmt.Errorf("compute statement id: %w", err)
	}
	res, err := g.q.ExecContext(ctx, `DELETE FROM statements WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("%w: delete statement: %w", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete statement: %w", ErrUnavailable, err)
	}
	return int(n), nil
}

// RemoveContext deletes every statement in context c.
func (g *graph) RemoveContext(ctx context.Context, c rdf.IRI) (int, error) {
	if c.IsZero() {
		return 0, fmt.Errorf("%w: context is required", rdf.ErrInvalidStatement)
	}
	res, err := g.q.ExecContext(ctx, `DELETE FROM statements WHERE context = ?`, string(c))
	if err != nil {
		return 0, fmt.Errorf("%w: delete context: %w", ErrUnavailable, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: delete context: %w", ErrUnavailable, err)
	}
	g.logger.Debug("context removed", "context", string(c), "statements", n)
	return int(n), nil
}
