package store

import (
	"context"
	"fmt"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/querysql"
)

// ExecuteGraphQuery compiles and runs a select query. Each returned
// binding maps every projected variable to its term. Results are ordered
// by the query's explicit keys and then by every projected column.
func (g *graph) ExecuteGraphQuery(ctx context.Context, q queryir.Select) ([]queryir.Binding, error) {
	compiled, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedQuery, err)
	}

	rows, err := g.q.QueryContext(ctx, compiled.SQL, compiled.Params...)
	if err != nil {
		return nil, fmt.Errorf("%w: execute graph query: %w", ErrUnavailable, err)
	}
	defer rows.Close()

	width := len(compiled.Columns) * querysql.ColumnsPerVar
	bindings := []queryir.Binding{}
	for rows.Next() {
		kinds := make([]int64, len(compiled.Columns))
		values := make([]string, width-len(compiled.Columns))
		dest := make([]any, 0, width)
		for i := range compiled.Columns {
			dest = append(dest, &kinds[i], &values[i*3], &values[i*3+1], &values[i*3+2])
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: scan binding: %w", ErrUnavailable, err)
		}

		b := make(queryir.Binding, len(compiled.Columns))
		for i, v := range compiled.Columns {
			term, err := querysql.DecodeTerm(kinds[i], values[i*3], values[i*3+1], values[i*3+2])
			if err != nil {
				return nil, fmt.Errorf("decode %s: %w", v, err)
			}
			b[v] = term
		}
		bindings = append(bindings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate bindings: %w", ErrUnavailable, err)
	}

	g.logger.Debug("graph query executed", "rows", len(bindings))
	return bindings, nil
}

// Ask reports whether q has at least one solution.
func (g *graph) Ask(ctx context.Context, q queryir.Ask) (bool, error) {
	compiled, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrMalformedQuery, err)
	}
	var ok bool
	if err := g.q.QueryRowContext(ctx, compiled.SQL, compiled.Params...).Scan(&ok); err != nil {
		return false, fmt.Errorf("%w: execute ask: %w", ErrUnavailable, err)
	}
	return ok, nil
}
