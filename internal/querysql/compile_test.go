package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
)

func typeQuery() queryir.Select {
	return queryir.Select{
		Where: []queryir.Pattern{{
			Subject:   queryir.Var("s"),
			Predicate: queryir.C(rdf.RDFType),
			Object:    queryir.C(rdf.ClassDiSCO),
			Context:   queryir.Var("s"),
		}},
		Project: []queryir.Var{"s"},
	}
}

func TestCompile_SimpleSelect(t *testing.T) {
	compiled, err := NewSQLCompiler().Compile(typeQuery())
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT t0.subject_kind AS v_s_kind, t0.subject AS v_s_value, '' AS v_s_lang, '' AS v_s_datatype "+
			"FROM statements AS t0 "+
			"WHERE t0.predicate = ? AND t0.object = ? AND t0.object_kind = ? AND t0.object_lang = ? AND t0.object_datatype = ? "+
			"AND t0.subject = t0.context AND t0.subject_kind = 1 "+
			"ORDER BY v_s_value COLLATE BINARY ASC, v_s_kind ASC, v_s_lang COLLATE BINARY ASC, v_s_datatype COLLATE BINARY ASC",
		compiled.SQL)
	assert.Equal(t, []any{string(rdf.RDFType), string(rdf.ClassDiSCO), 1, "", ""}, compiled.Params)
	assert.Equal(t, []queryir.Var{"s"}, compiled.Columns)
}

func TestCompile_SimpleSelectPointer(t *testing.T) {
	q := typeQuery()
	compiled, err := NewSQLCompiler().Compile(&q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "FROM statements AS t0")
}

func TestCompile_ValuesNeverInterpolated(t *testing.T) {
	q := typeQuery()
	q.Filter = queryir.Equals{Var: "s", Value: rdf.IRI("http://example.org/secret'; DROP TABLE statements; --")}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.NotContains(t, compiled.SQL, "secret")
	assert.Contains(t, compiled.Params, "http://example.org/secret'; DROP TABLE statements; --")
}

func TestCompile_OrderByMandatory(t *testing.T) {
	testCases := []struct {
		name  string
		query queryir.Query
	}{
		{name: "plain select", query: typeQuery()},
		{name: "distinct select", query: func() queryir.Select {
			q := typeQuery()
			q.Distinct = true
			return q
		}()},
		{name: "explicit order", query: func() queryir.Select {
			q := typeQuery()
			q.OrderBy = []queryir.Order{{Var: "s", Desc: true}}
			return q
		}()},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			compiled, err := NewSQLCompiler().Compile(tc.query)
			require.NoError(t, err)
			assert.Contains(t, compiled.SQL, "ORDER BY")
			assert.Contains(t, compiled.SQL, "COLLATE BINARY")
		})
	}
}

func TestCompile_ExplicitOrderComesFirst(t *testing.T) {
	q := typeQuery()
	q.OrderBy = []queryir.Order{{Var: "s", Desc: true}}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "ORDER BY v_s_value COLLATE BINARY DESC, v_s_value COLLATE BINARY ASC")
}

func TestCompile_SharedVariablesJoin(t *testing.T) {
	q := queryir.Select{
		Where: []queryir.Pattern{
			{Subject: queryir.Var("evt"), Predicate: queryir.C(rdf.PROVGenerated), Object: queryir.Var("obj")},
			{Subject: queryir.Var("obj"), Predicate: queryir.C(rdf.OREAggregates), Object: queryir.Var("res")},
		},
		Project: []queryir.Var{"evt", "res"},
	}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)

	assert.Contains(t, compiled.SQL, "FROM statements AS t0, statements AS t1")
	assert.Contains(t, compiled.SQL, "t0.object = t1.subject AND t0.object_kind = t1.subject_kind")
	assert.Contains(t, compiled.SQL, "t1.object_kind AS v_res_kind")
	assert.Contains(t, compiled.SQL, "t1.object_lang AS v_res_lang")
	assert.Equal(t, []queryir.Var{"evt", "res"}, compiled.Columns)
}

func TestCompile_ObjectToObjectJoinComparesLiteralParts(t *testing.T) {
	q := queryir.Select{
		Where: []queryir.Pattern{
			{Subject: queryir.Var("a"), Predicate: queryir.Var("p"), Object: queryir.Var("o")},
			{Subject: queryir.Var("b"), Predicate: queryir.Var("p"), Object: queryir.Var("o")},
		},
		Project: []queryir.Var{"a", "b"},
	}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "t0.predicate = t1.predicate AND 1 = 1")
	assert.Contains(t, compiled.SQL, "t0.object_lang = t1.object_lang AND t0.object_datatype = t1.object_datatype")
}

func TestCompile_LiteralConstant(t *testing.T) {
	q := queryir.Select{
		Where: []queryir.Pattern{{
			Subject:   queryir.Var("s"),
			Predicate: queryir.C(rdf.DCDescription),
			Object:    queryir.C(rdf.NewLangLiteral("bonjour", "fr")),
		}},
		Project: []queryir.Var{"s"},
	}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Equal(t, []any{string(rdf.DCDescription), "bonjour", int(rdf.KindLiteral), "fr", ""}, compiled.Params)
}

func TestCompile_LimitOffset(t *testing.T) {
	q := typeQuery()
	q.Limit = 10
	q.Offset = 20

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, " LIMIT ? OFFSET ?")
	assert.Equal(t, []any{10, 20}, compiled.Params[len(compiled.Params)-2:])

	q.Limit = 0
	compiled, err = NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, " LIMIT -1 OFFSET ?")
	assert.Equal(t, 20, compiled.Params[len(compiled.Params)-1])
}

func TestCompile_NotExistsCorrelates(t *testing.T) {
	q := typeQuery()
	q.Filter = queryir.NotExists{Where: []queryir.Pattern{{
		Subject:   queryir.Var("evt"),
		Predicate: queryir.C(rdf.RMapTombstonedObject),
		Object:    queryir.Var("s"),
	}}}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL,
		"NOT EXISTS (SELECT 1 FROM statements AS x1 WHERE x1.predicate = ? AND t0.subject = x1.object AND t0.subject_kind = x1.object_kind)")
	assert.Equal(t, string(rdf.RMapTombstonedObject), compiled.Params[len(compiled.Params)-1])
}

func TestCompile_CompareTypedLiteral(t *testing.T) {
	q := queryir.Select{
		Where: []queryir.Pattern{{
			Subject:   queryir.Var("evt"),
			Predicate: queryir.C(rdf.PROVStartedAtTime),
			Object:    queryir.Var("start"),
		}},
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Compare{Var: "start", Op: queryir.OpGE, Value: rdf.NewTypedLiteral("2016-01-01T00:00:00.000Z", rdf.XSDDateTime)},
			queryir.Compare{Var: "start", Op: queryir.OpLE, Value: rdf.NewTypedLiteral("2016-12-31T00:00:00.000Z", rdf.XSDDateTime)},
		}},
		Project: []queryir.Var{"evt"},
	}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "(t0.object_kind = ? AND t0.object_datatype = ? AND t0.object >= ?)")
	assert.Contains(t, compiled.SQL, "t0.object <= ?")
}

func TestCompile_InAndOr(t *testing.T) {
	q := typeQuery()
	q.Filter = queryir.Or{Predicates: []queryir.Predicate{
		queryir.In{Var: "s", Values: []rdf.Term{rdf.IRI("http://example.org/a"), rdf.IRI("http://example.org/b")}},
		queryir.In{Var: "s"},
	}}

	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "(t0.subject = ? AND t0.subject_kind = ?) OR (t0.subject = ? AND t0.subject_kind = ?)")
	assert.Contains(t, compiled.SQL, " OR 1 = 0)")
}

func TestCompile_EmptyBooleans(t *testing.T) {
	q := typeQuery()
	q.Filter = queryir.And{}
	compiled, err := NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "AND 1 = 1 ORDER BY")

	q.Filter = queryir.Or{}
	compiled, err = NewSQLCompiler().Compile(q)
	require.NoError(t, err)
	assert.Contains(t, compiled.SQL, "AND 1 = 0 ORDER BY")
}

func TestCompile_Ask(t *testing.T) {
	ask := queryir.Ask{Where: []queryir.Pattern{{
		Predicate: queryir.C(rdf.RMapDeletedObject),
		Object:    queryir.C(rdf.IRI("http://example.org/d")),
	}}}

	compiled, err := NewSQLCompiler().Compile(ask)
	require.NoError(t, err)
	assert.Equal(t,
		"SELECT EXISTS (SELECT 1 FROM statements AS t0 WHERE t0.predicate = ? AND t0.object = ? AND t0.object_kind = ? AND t0.object_lang = ? AND t0.object_datatype = ?)",
		compiled.SQL)
	assert.Empty(t, compiled.Columns)
}

func TestCompile_InvalidQuery(t *testing.T) {
	_, err := NewSQLCompiler().Compile(queryir.Select{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")

	_, err = NewSQLCompiler().Compile(nil)
	assert.Error(t, err)
}

func TestEncodeDecodeTerm(t *testing.T) {
	tests := []struct {
		name string
		in   rdf.Term
		want rdf.Term
	}{
		{"iri", rdf.IRI("http://example.org/x"), rdf.IRI("http://example.org/x")},
		{"blank", rdf.BlankNode("b1"), rdf.BlankNode("b1")},
		{"plain literal", rdf.NewLiteral("x"), rdf.NewLiteral("x")},
		{"xsd string normalizes to plain", rdf.NewTypedLiteral("x", rdf.XSDString), rdf.NewLiteral("x")},
		{"lang literal", rdf.NewLangLiteral("x", "en"), rdf.NewLangLiteral("x", "en")},
		{"typed literal", rdf.NewTypedLiteral("1", rdf.XSDDateTime), rdf.NewTypedLiteral("1", rdf.XSDDateTime)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc, err := EncodeTerm(tt.in)
			require.NoError(t, err)
			got, err := DecodeTerm(int64(enc.Kind), enc.Value, enc.Lang, enc.Datatype)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := EncodeTerm(nil)
	assert.Error(t, err)
	_, err = DecodeTerm(9, "", "", "")
	assert.Error(t, err)
}
