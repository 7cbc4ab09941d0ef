package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/provstore/internal/rdf"
)

func aggregatesQuery() Select {
	return Select{
		Where: []Pattern{{
			Subject:   Var("disco"),
			Predicate: C(rdf.OREAggregates),
			Object:    Var("res"),
			Context:   Var("disco"),
		}},
		Project: []Var{"disco", "res"},
	}
}

func TestValidate_ValidSelect(t *testing.T) {
	result := Validate(aggregatesQuery())
	assert.True(t, result.IsValid)
	assert.Empty(t, result.Problems)
	assert.NoError(t, result.Err())
}

func TestValidate_PointerForms(t *testing.T) {
	q := aggregatesQuery()
	q.Filter = &And{Predicates: []Predicate{
		&Equals{Var: "res", Value: rdf.IRI("http://example.org/r")},
		&NotExists{Where: []Pattern{{Subject: Var("e"), Predicate: C(rdf.RMapTombstonedObject), Object: Var("disco")}}},
	}}

	result := Validate(&q)
	assert.True(t, result.IsValid, result.Problems)
}

func TestValidate_EmptyWhere(t *testing.T) {
	result := Validate(Select{Project: []Var{"x"}})
	assert.False(t, result.IsValid)
	assert.Contains(t, result.Problems, "at least one pattern is required")
}

func TestValidate_MissingProjection(t *testing.T) {
	q := aggregatesQuery()
	q.Project = nil

	result := Validate(q)
	require.False(t, result.IsValid)
	assert.Equal(t, []string{"select requires an explicit projection"}, result.Problems)
}

func TestValidate_UnboundVariables(t *testing.T) {
	q := aggregatesQuery()
	q.Project = []Var{"disco", "nope"}
	q.Filter = Equals{Var: "missing", Value: rdf.NewLiteral("x")}

	result := Validate(q)
	require.False(t, result.IsValid)
	assert.Contains(t, result.Problems, "projected variable ?nope is not bound by any pattern")
	assert.Contains(t, result.Problems, "filter variable ?missing is not bound by any pattern")
	assert.Contains(t, result.Err().Error(), "and 1 more")
}

func TestValidate_ExistsScopes(t *testing.T) {
	q := aggregatesQuery()
	// ?evt is local to the EXISTS; the inner filter may use it, the outer may not.
	q.Filter = And{Predicates: []Predicate{
		Exists{
			Where:  []Pattern{{Subject: Var("evt"), Predicate: C(rdf.PROVGenerated), Object: Var("disco")}},
			Filter: Equals{Var: "evt", Value: rdf.IRI("http://example.org/e")},
		},
		Equals{Var: "evt", Value: rdf.IRI("http://example.org/e")},
	}}

	result := Validate(q)
	require.False(t, result.IsValid)
	assert.Equal(t, []string{"filter variable ?evt is not bound by any pattern"}, result.Problems)
}

func TestValidate_BadConstants(t *testing.T) {
	q := Select{
		Where: []Pattern{{
			Subject:   C(rdf.NewLiteral("not a resource")),
			Predicate: C(rdf.BlankNode("b")),
			Object:    Var("o"),
			Context:   C(rdf.IRI("")),
		}},
		Project: []Var{"o"},
	}

	result := Validate(q)
	require.False(t, result.IsValid)
	assert.Len(t, result.Problems, 3)
}

func TestValidate_BadVariableName(t *testing.T) {
	q := Select{
		Where:   []Pattern{{Subject: Var("?s"), Predicate: Var("p"), Object: Var("o")}},
		Project: []Var{"p"},
	}
	result := Validate(q)
	assert.False(t, result.IsValid)
}

func TestValidate_OrderLimitOffset(t *testing.T) {
	q := aggregatesQuery()
	q.OrderBy = []Order{{Var: "other"}}
	q.Limit = -1
	q.Offset = -2

	result := Validate(q)
	assert.Len(t, result.Problems, 3)
}

func TestValidate_CompareOperator(t *testing.T) {
	q := aggregatesQuery()
	q.Filter = Compare{Var: "res", Op: "~", Value: rdf.NewLiteral("x")}
	assert.False(t, Validate(q).IsValid)

	q.Filter = Compare{Var: "res", Op: OpGE, Value: rdf.NewLiteral("x")}
	assert.True(t, Validate(q).IsValid)
}

func TestValidate_Ask(t *testing.T) {
	ask := Ask{Where: []Pattern{{Subject: Var("e"), Predicate: C(rdf.RMapDeletedObject), Object: C(rdf.IRI("http://example.org/d"))}}}
	assert.True(t, Validate(ask).IsValid)
	assert.False(t, Validate(Ask{}).IsValid)
	assert.False(t, Validate(nil).IsValid)
}
