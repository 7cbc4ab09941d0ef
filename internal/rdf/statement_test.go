package rdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSubject IRI = "http://example.org/s"
	testPred    IRI = "http://example.org/p"
	testCtx     IRI = "http://example.org/ctx"
)

func TestNewStatement_Valid(t *testing.T) {
	st, err := NewStatement(testSubject, testPred, NewLiteral("hello"), testCtx)
	require.NoError(t, err)
	assert.Equal(t, testSubject, st.Subject)
	assert.Equal(t, testCtx, st.Context)
}

func TestNewStatement_MissingComponents(t *testing.T) {
	tests := []struct {
		name    string
		subject Resource
		pred    IRI
		object  Term
	}{
		{"nil subject", nil, testPred, NewLiteral("x")},
		{"empty subject iri", IRI(""), testPred, NewLiteral("x")},
		{"empty blank subject", BlankNode(" "), testPred, NewLiteral("x")},
		{"empty predicate", testSubject, "", NewLiteral("x")},
		{"nil object", testSubject, testPred, nil},
		{"empty object iri", testSubject, testPred, IRI("")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewStatement(tt.subject, tt.pred, tt.object, testCtx)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidStatement)
		})
	}
}

func TestNewStatement_LiteralWithLangAndDatatype(t *testing.T) {
	lit := Literal{Lexical: "x", Lang: "en", Datatype: XSDString}
	_, err := NewStatement(testSubject, testPred, lit, testCtx)
	assert.ErrorIs(t, err, ErrInvalidStatement)

	lit.Datatype = RDFLangString
	_, err = NewStatement(testSubject, testPred, lit, testCtx)
	assert.NoError(t, err)
}

func TestMustStatement_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustStatement(nil, testPred, NewLiteral("x"), testCtx)
	})
}

func TestStatementString(t *testing.T) {
	tests := []struct {
		name string
		st   Statement
		want string
	}{
		{
			name: "iri object with context",
			st:   MustStatement(testSubject, testPred, IRI("http://example.org/o"), testCtx),
			want: `<http://example.org/s> <http://example.org/p> <http://example.org/o> <http://example.org/ctx> .`,
		},
		{
			name: "lang literal without context",
			st:   MustStatement(testSubject, testPred, NewLangLiteral("chat", "FR"), ""),
			want: `<http://example.org/s> <http://example.org/p> "chat"@fr .`,
		},
		{
			name: "typed literal and blank subject",
			st:   MustStatement(BlankNode("b0"), testPred, NewTypedLiteral("5", NSXSD+"integer"), ""),
			want: `_:b0 <http://example.org/p> "5"^^<http://www.w3.org/2001/XMLSchema#integer> .`,
		},
		{
			name: "escaped literal",
			st:   MustStatement(testSubject, testPred, NewLiteral("a \"quoted\"\nline"), ""),
			want: `<http://example.org/s> <http://example.org/p> "a \"quoted\"\nline" .`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.st.String())
		})
	}
}

func TestSameTripleIgnoresContext(t *testing.T) {
	a := MustStatement(testSubject, testPred, NewLiteral("x"), "http://example.org/a")
	b := a.WithContext("http://example.org/b")
	assert.True(t, a.SameTriple(b))
	assert.NotEqual(t, a, b)
}

func TestGroupByContext(t *testing.T) {
	a1 := MustStatement(testSubject, testPred, NewLiteral("1"), "http://example.org/a")
	b1 := MustStatement(testSubject, testPred, NewLiteral("2"), "http://example.org/b")
	a2 := MustStatement(testSubject, testPred, NewLiteral("3"), "http://example.org/a")

	groups := GroupByContext([]Statement{a1, b1, a2})
	assert.Equal(t, []Statement{a1, a2}, groups["http://example.org/a"])
	assert.Equal(t, []Statement{b1}, groups["http://example.org/b"])
	assert.Equal(t, []IRI{"http://example.org/a", "http://example.org/b"}, Contexts([]Statement{a1, b1, a2}))
}

func TestDateTimeRoundTrip(t *testing.T) {
	in := time.Date(2016, 2, 2, 12, 20, 2, 0, time.FixedZone("EST", -5*3600))
	lit := NewDateTimeLiteral(in)
	assert.Equal(t, "2016-02-02T17:20:02.000Z", lit.Lexical)
	assert.Equal(t, XSDDateTime, lit.Datatype)

	out, err := ParseDateTime(lit.Lexical)
	require.NoError(t, err)
	assert.True(t, in.Equal(out))

	out, err = ParseDateTime("2016-02-02T12:20:02-05:00")
	require.NoError(t, err)
	assert.True(t, in.Equal(out))

	_, err = ParseDateTime("yesterday")
	assert.Error(t, err)
}

func TestDateTimeLexicalOrderIsChronological(t *testing.T) {
	early := FormatDateTime(time.Date(2015, 9, 15, 10, 20, 34, 5_000_000, time.UTC))
	late := FormatDateTime(time.Date(2015, 9, 15, 10, 20, 34, 50_000_000, time.UTC))
	assert.Less(t, early, late)
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindIRI, KindOf(IRI("x")))
	assert.Equal(t, KindBlank, KindOf(BlankNode("x")))
	assert.Equal(t, KindLiteral, KindOf(NewLiteral("x")))
	assert.Equal(t, TermKind(0), KindOf(nil))
	assert.Equal(t, "literal", KindLiteral.String())
}
