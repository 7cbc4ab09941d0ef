package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
)

// Table is the quad table every pattern is matched against.
const Table = "statements"

// Compiled is a parameterized SQL query plus the variables its result
// columns carry. Each projected variable occupies four consecutive columns:
// kind, value, lang, datatype.
type Compiled struct {
	SQL     string
	Params  []any
	Columns []queryir.Var
}

// ColumnsPerVar is the number of result columns per projected variable.
const ColumnsPerVar = 4

// SQLCompiler compiles queryir queries to parameterized SQL for SQLite.
//
// Every Select carries an ORDER BY over all projected columns with
// COLLATE BINARY so results are deterministic. Terms are always passed as
// parameters, never interpolated.
type SQLCompiler struct {
	aliasSeq int
}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates and compiles a query.
func (c *SQLCompiler) Compile(q queryir.Query) (Compiled, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return Compiled{}, err
	}
	c.aliasSeq = 0

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	case queryir.Ask:
		return c.compileAsk(query)
	case *queryir.Ask:
		return c.compileAsk(*query)
	default:
		return Compiled{}, fmt.Errorf("unsupported query type: %T", q)
	}
}

// position identifies a column group of the quad table.
type position int

const (
	posSubject position = iota
	posPredicate
	posObject
	posContext
)

// colRef is where a variable was first bound.
type colRef struct {
	alias string
	pos   position
}

func (r colRef) value() string {
	switch r.pos {
	case posSubject:
		return r.alias + ".subject"
	case posPredicate:
		return r.alias + ".predicate"
	case posObject:
		return r.alias + ".object"
	default:
		return r.alias + ".context"
	}
}

func (r colRef) kind() string {
	switch r.pos {
	case posSubject:
		return r.alias + ".subject_kind"
	case posObject:
		return r.alias + ".object_kind"
	default:
		return fmt.Sprintf("%d", rdf.KindIRI)
	}
}

func (r colRef) lang() string {
	if r.pos == posObject {
		return r.alias + ".object_lang"
	}
	return "''"
}

func (r colRef) datatype() string {
	if r.pos == posObject {
		return r.alias + ".object_datatype"
	}
	return "''"
}

// scope tracks variable bindings while compiling one level of patterns.
type scope struct {
	vars map[queryir.Var]colRef
}

func newScope(outer *scope) *scope {
	s := &scope{vars: make(map[queryir.Var]colRef)}
	if outer != nil {
		for k, v := range outer.vars {
			s.vars[k] = v
		}
	}
	return s
}

// fragment is a list of SQL conditions and their parameters.
type fragment struct {
	conds  []string
	params []any
}

func (f *fragment) add(cond string, params ...any) {
	f.conds = append(f.conds, cond)
	f.params = append(f.params, params...)
}

func (f *fragment) merge(o fragment) {
	f.conds = append(f.conds, o.conds...)
	f.params = append(f.params, o.params...)
}

func (f fragment) where() string {
	if len(f.conds) == 0 {
		return "1 = 1"
	}
	return strings.Join(f.conds, " AND ")
}

func (c *SQLCompiler) nextAlias(prefix string) string {
	a := fmt.Sprintf("%s%d", prefix, c.aliasSeq)
	c.aliasSeq++
	return a
}

// compilePatterns returns the FROM list and join conditions for patterns.
// Variables are bound into sc as they are first seen.
func (c *SQLCompiler) compilePatterns(patterns []queryir.Pattern, sc *scope, prefix string) ([]string, fragment, error) {
	var from []string
	var frag fragment

	for _, p := range patterns {
		alias := c.nextAlias(prefix)
		from = append(from, fmt.Sprintf("%s AS %s", Table, alias))

		nodes := []struct {
			pos  position
			node queryir.Node
		}{
			{posSubject, p.Subject},
			{posPredicate, p.Predicate},
			{posObject, p.Object},
			{posContext, p.Context},
		}
		for _, n := range nodes {
			ref := colRef{alias: alias, pos: n.pos}
			switch node := n.node.(type) {
			case nil:
			case queryir.Var:
				if bound, ok := sc.vars[node]; ok {
					frag.add(sameTerm(bound, ref))
				} else {
					sc.vars[node] = ref
				}
			case queryir.Const:
				tf, err := termEquals(ref, node.Term)
				if err != nil {
					return nil, fragment{}, err
				}
				frag.merge(tf)
			default:
				return nil, fragment{}, fmt.Errorf("unsupported node type: %T", n.node)
			}
		}
	}
	return from, frag, nil
}

// sameTerm compares two column groups as RDF terms.
func sameTerm(a, b colRef) string {
	conds := []string{
		fmt.Sprintf("%s = %s", a.value(), b.value()),
		fmt.Sprintf("%s = %s", a.kind(), b.kind()),
	}
	if a.pos == posObject && b.pos == posObject {
		conds = append(conds,
			fmt.Sprintf("%s = %s", a.lang(), b.lang()),
			fmt.Sprintf("%s = %s", a.datatype(), b.datatype()))
	}
	return strings.Join(conds, " AND ")
}

// termEquals matches a column group against a constant term.
func termEquals(ref colRef, t rdf.Term) (fragment, error) {
	var f fragment
	enc, err := EncodeTerm(t)
	if err != nil {
		return f, err
	}
	f.add(ref.value()+" = ?", enc.Value)
	switch ref.pos {
	case posSubject:
		f.add(ref.kind()+" = ?", int(enc.Kind))
	case posObject:
		f.add(ref.kind()+" = ?", int(enc.Kind))
		f.add(ref.lang()+" = ?", enc.Lang)
		f.add(ref.datatype()+" = ?", enc.Datatype)
	default:
		if enc.Kind != rdf.KindIRI {
			f.add("1 = 0")
		}
	}
	return f, nil
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (Compiled, error) {
	sc := newScope(nil)
	from, frag, err := c.compilePatterns(q.Where, sc, "t")
	if err != nil {
		return Compiled{}, err
	}
	if q.Filter != nil {
		fsql, fparams, err := c.compilePredicate(q.Filter, sc)
		if err != nil {
			return Compiled{}, fmt.Errorf("compile filter: %w", err)
		}
		frag.add(fsql, fparams...)
	}

	var cols []string
	for _, v := range q.Project {
		ref := sc.vars[v]
		cols = append(cols,
			fmt.Sprintf("%s AS %s", ref.kind(), colAlias(v, "kind")),
			fmt.Sprintf("%s AS %s", ref.value(), colAlias(v, "value")),
			fmt.Sprintf("%s AS %s", ref.lang(), colAlias(v, "lang")),
			fmt.Sprintf("%s AS %s", ref.datatype(), colAlias(v, "datatype")))
	}

	distinct := ""
	if q.Distinct {
		distinct = "DISTINCT "
	}

	sql := fmt.Sprintf("SELECT %s%s FROM %s WHERE %s ORDER BY %s",
		distinct,
		strings.Join(cols, ", "),
		strings.Join(from, ", "),
		frag.where(),
		stableOrderKey(q))

	params := frag.params
	switch {
	case q.Limit > 0:
		sql += " LIMIT ? OFFSET ?"
		params = append(params, q.Limit, q.Offset)
	case q.Offset > 0:
		sql += " LIMIT -1 OFFSET ?"
		params = append(params, q.Offset)
	}

	return Compiled{SQL: sql, Params: params, Columns: append([]queryir.Var(nil), q.Project...)}, nil
}

// stableOrderKey orders by the explicit keys first, then by every projected
// column so that ties are broken identically on every run.
func stableOrderKey(q queryir.Select) string {
	var keys []string
	for _, o := range q.OrderBy {
		dir := "ASC"
		if o.Desc {
			dir = "DESC"
		}
		keys = append(keys, fmt.Sprintf("%s COLLATE BINARY %s", colAlias(o.Var, "value"), dir))
	}
	for _, v := range q.Project {
		keys = append(keys,
			colAlias(v, "value")+" COLLATE BINARY ASC",
			colAlias(v, "kind")+" ASC",
			colAlias(v, "lang")+" COLLATE BINARY ASC",
			colAlias(v, "datatype")+" COLLATE BINARY ASC")
	}
	return strings.Join(keys, ", ")
}

func colAlias(v queryir.Var, part string) string {
	return fmt.Sprintf("v_%s_%s", v, part)
}

// compileAsk produces a single-row, single-column query. There is nothing
// to order.
func (c *SQLCompiler) compileAsk(q queryir.Ask) (Compiled, error) {
	sc := newScope(nil)
	from, frag, err := c.compilePatterns(q.Where, sc, "t")
	if err != nil {
		return Compiled{}, err
	}
	if q.Filter != nil {
		fsql, fparams, err := c.compilePredicate(q.Filter, sc)
		if err != nil {
			return Compiled{}, fmt.Errorf("compile filter: %w", err)
		}
		frag.add(fsql, fparams...)
	}
	sql := fmt.Sprintf("SELECT EXISTS (SELECT 1 FROM %s WHERE %s)",
		strings.Join(from, ", "), frag.where())
	return Compiled{SQL: sql, Params: frag.params}, nil
}

// compilePredicate compiles a filter to a parenthesized SQL condition.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate, sc *scope) (string, []any, error) {
	switch pred := p.(type) {
	case nil:
		return "1 = 1", nil, nil
	case queryir.Equals:
		return c.compileEquals(pred, sc)
	case *queryir.Equals:
		return c.compileEquals(*pred, sc)
	case queryir.In:
		return c.compileIn(pred, sc)
	case *queryir.In:
		return c.compileIn(*pred, sc)
	case queryir.Compare:
		return c.compileCompare(pred, sc)
	case *queryir.Compare:
		return c.compileCompare(*pred, sc)
	case queryir.Exists:
		return c.compileExists(pred.Where, pred.Filter, sc, false)
	case *queryir.Exists:
		return c.compileExists(pred.Where, pred.Filter, sc, false)
	case queryir.NotExists:
		return c.compileExists(pred.Where, pred.Filter, sc, true)
	case *queryir.NotExists:
		return c.compileExists(pred.Where, pred.Filter, sc, true)
	case queryir.And:
		return c.compileBool(pred.Predicates, sc, " AND ", "1 = 1")
	case *queryir.And:
		return c.compileBool(pred.Predicates, sc, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileBool(pred.Predicates, sc, " OR ", "1 = 0")
	case *queryir.Or:
		return c.compileBool(pred.Predicates, sc, " OR ", "1 = 0")
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) lookup(v queryir.Var, sc *scope) (colRef, error) {
	ref, ok := sc.vars[v]
	if !ok {
		return colRef{}, fmt.Errorf("variable ?%s is not bound", v)
	}
	return ref, nil
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals, sc *scope) (string, []any, error) {
	ref, err := c.lookup(eq.Var, sc)
	if err != nil {
		return "", nil, err
	}
	f, err := termEquals(ref, eq.Value)
	if err != nil {
		return "", nil, err
	}
	return "(" + f.where() + ")", f.params, nil
}

func (c *SQLCompiler) compileIn(in queryir.In, sc *scope) (string, []any, error) {
	ref, err := c.lookup(in.Var, sc)
	if err != nil {
		return "", nil, err
	}
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil
	}
	var parts []string
	var params []any
	for _, v := range in.Values {
		f, err := termEquals(ref, v)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, "("+f.where()+")")
		params = append(params, f.params...)
	}
	return "(" + strings.Join(parts, " OR ") + ")", params, nil
}

func (c *SQLCompiler) compileCompare(cmp queryir.Compare, sc *scope) (string, []any, error) {
	ref, err := c.lookup(cmp.Var, sc)
	if err != nil {
		return "", nil, err
	}
	var f fragment
	if cmp.Value.Datatype != "" && ref.pos == posObject {
		enc, err := EncodeTerm(cmp.Value)
		if err != nil {
			return "", nil, err
		}
		f.add(ref.kind()+" = ?", int(rdf.KindLiteral))
		f.add(ref.datatype()+" = ?", enc.Datatype)
	}
	f.add(fmt.Sprintf("%s %s ?", ref.value(), cmp.Op), cmp.Value.Lexical)
	return "(" + f.where() + ")", f.params, nil
}

func (c *SQLCompiler) compileExists(where []queryir.Pattern, filter queryir.Predicate, outer *scope, negate bool) (string, []any, error) {
	inner := newScope(outer)
	from, frag, err := c.compilePatterns(where, inner, "x")
	if err != nil {
		return "", nil, err
	}
	if filter != nil {
		fsql, fparams, err := c.compilePredicate(filter, inner)
		if err != nil {
			return "", nil, err
		}
		frag.add(fsql, fparams...)
	}
	op := "EXISTS"
	if negate {
		op = "NOT EXISTS"
	}
	sql := fmt.Sprintf("%s (SELECT 1 FROM %s WHERE %s)", op, strings.Join(from, ", "), frag.where())
	return sql, frag.params, nil
}

func (c *SQLCompiler) compileBool(preds []queryir.Predicate, sc *scope, sep, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}
	var parts []string
	var params []any
	for _, p := range preds {
		sql, ps, err := c.compilePredicate(p, sc)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, ps...)
	}
	return "(" + strings.Join(parts, sep) + ")", params, nil
}
