package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/roach88/provstore/internal/querysql"
	"github.com/roach88/provstore/internal/rdf"
)

const statementColumns = `subject, subject_kind, predicate, object, object_kind, object_lang, object_datatype, context`

// where builds the WHERE clause for a pattern. An empty clause matches all.
func (p Pattern) where() (string, []any, error) {
	var conds []string
	var args []any
	if p.Subject != nil && !rdf.IsZeroTerm(p.Subject) {
		enc, err := querysql.EncodeTerm(p.Subject)
		if err != nil {
			return "", nil, fmt.Errorf("encode subject: %w", err)
		}
		conds = append(conds, "subject = ?", "subject_kind = ?")
		args = append(args, enc.Value, int(enc.Kind))
	}
	if !p.Predicate.IsZero() {
		conds = append(conds, "predicate = ?")
		args = append(args, string(p.Predicate))
	}
	if p.Object != nil && !rdf.IsZeroTerm(p.Object) {
		enc, err := querysql.EncodeTerm(p.Object)
		if err != nil {
			return "", nil, fmt.Errorf("encode object: %w", err)
		}
		conds = append(conds, "object = ?", "object_kind = ?", "object_lang = ?", "object_datatype = ?")
		args = append(args, enc.Value, int(enc.Kind), enc.Lang, enc.Datatype)
	}
	if !p.Context.IsZero() {
		conds = append(conds, "context = ?")
		args = append(args, string(p.Context))
	}
	if len(conds) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args, nil
}

// GetStatements returns every statement matching p.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if nothing matches.
func (g *graph) GetStatements(ctx context.Context, p Pattern) ([]rdf.Statement, error) {
	where, args, err := p.where()
	if err != nil {
		return nil, err
	}
	rows, err := g.q.QueryContext(ctx,
		"SELECT "+statementColumns+" FROM statements"+where+" ORDER BY seq ASC, id COLLATE BINARY ASC",
		args...)
	if err != nil {
		return nil, fmt.Errorf("%w: query statements: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	stmts := []rdf.Statement{}
	for rows.Next() {
		st, err := scanStatement(rows)
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate statements: %w", ErrUnavailable, err)
	}
	return stmts, nil
}

// ContextStatements returns every statement in context c.
func (g *graph) ContextStatements(ctx context.Context, c rdf.IRI) ([]rdf.Statement, error) {
	if c.IsZero() {
		return nil, fmt.Errorf("%w: context is required", rdf.ErrInvalidStatement)
	}
	return g.GetStatements(ctx, Pattern{Context: c})
}

// HasStatement reports whether at least one statement matches p.
func (g *graph) HasStatement(ctx context.Context, p Pattern) (bool, error) {
	where, args, err := p.where()
	if err != nil {
		return false, err
	}
	var exists bool
	err = g.q.QueryRowContext(ctx,
		"SELECT EXISTS (SELECT 1 FROM statements"+where+")", args...).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%w: check statement: %w", ErrUnavailable, err)
	}
	return exists, nil
}

// CountStatements returns the number of statements matching p.
func (g *graph) CountStatements(ctx context.Context, p Pattern) (int, error) {
	where, args, err := p.where()
	if err != nil {
		return 0, err
	}
	var n int
	if err := g.q.QueryRowContext(ctx, "SELECT COUNT(*) FROM statements"+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("%w: count statements: %w", ErrUnavailable, err)
	}
	return n, nil
}

// Contexts returns the distinct non-empty contexts in the order their
// first statement was written.
func (g *graph) Contexts(ctx context.Context) ([]rdf.IRI, error) {
	rows, err := g.q.QueryContext(ctx, `
		SELECT context
		FROM statements
		WHERE context != ''
		GROUP BY context
		ORDER BY MIN(seq) ASC, context COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query contexts: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	contexts := []rdf.IRI{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("%w: scan context: %w", ErrUnavailable, err)
		}
		contexts = append(contexts, rdf.IRI(c))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate contexts: %w", ErrUnavailable, err)
	}
	return contexts, nil
}

// scanStatement scans a row from the statements table.
func scanStatement(rows *sql.Rows) (rdf.Statement, error) {
	var (
		subject, predicate, object, lang, datatype, context string
		subjectKind, objectKind                             int64
	)
	if err := rows.Scan(&subject, &subjectKind, &predicate, &object, &objectKind, &lang, &datatype, &context); err != nil {
		return rdf.Statement{}, fmt.Errorf("%w: scan statement: %w", ErrUnavailable, err)
	}

	subj, err := querysql.DecodeTerm(subjectKind, subject, "", "")
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("decode subject: %w", err)
	}
	res, ok := subj.(rdf.Resource)
	if !ok {
		return rdf.Statement{}, fmt.Errorf("decode subject: kind %d is not a resource", subjectKind)
	}
	obj, err := querysql.DecodeTerm(objectKind, object, lang, datatype)
	if err != nil {
		return rdf.Statement{}, fmt.Errorf("decode object: %w", err)
	}

	return rdf.Statement{
		Subject:   res,
		Predicate: rdf.IRI(predicate),
		Object:    obj,
		Context:   rdf.IRI(context),
	}, nil
}
