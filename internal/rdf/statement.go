package rdf

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInvalidStatement is returned (wrapped) when a statement is missing a
// component or carries a malformed term.
var ErrInvalidStatement = errors.New("invalid statement")

// Statement is a single quad. Context names the graph the statement belongs
// to; every statement describing one object or event uses that object's id.
type Statement struct {
	Subject   Resource
	Predicate IRI
	Object    Term
	Context   IRI
}

// NewStatement builds a statement and validates it.
func NewStatement(subject Resource, predicate IRI, object Term, context IRI) (Statement, error) {
	st := Statement{Subject: subject, Predicate: predicate, Object: object, Context: context}
	if err := st.Validate(); err != nil {
		return Statement{}, err
	}
	return st, nil
}

// MustStatement is like NewStatement but panics on error.
// Use only where the components are known to be present.
func MustStatement(subject Resource, predicate IRI, object Term, context IRI) Statement {
	st, err := NewStatement(subject, predicate, object, context)
	if err != nil {
		panic(err)
	}
	return st
}

// Validate checks that subject, predicate and object are present and that
// a literal object is well formed. Context may be empty for statements that
// have not been assigned to a graph yet.
func (s Statement) Validate() error {
	if IsZeroTerm(s.Subject) {
		return fmt.Errorf("%w: subject is required", ErrInvalidStatement)
	}
	if s.Predicate.IsZero() {
		return fmt.Errorf("%w: predicate is required", ErrInvalidStatement)
	}
	if s.Object == nil {
		return fmt.Errorf("%w: object is required", ErrInvalidStatement)
	}
	switch o := s.Object.(type) {
	case IRI, BlankNode:
		if IsZeroTerm(o) {
			return fmt.Errorf("%w: object is required", ErrInvalidStatement)
		}
	case Literal:
		if o.Lang != "" && o.Datatype != "" && o.Datatype != RDFLangString {
			return fmt.Errorf("%w: literal %q has both language %q and datatype %s",
				ErrInvalidStatement, o.Lexical, o.Lang, o.Datatype)
		}
	}
	return nil
}

// WithContext returns a copy of s assigned to context c.
func (s Statement) WithContext(c IRI) Statement {
	s.Context = c
	return s
}

// String returns the statement as a single N-Quads line without the
// trailing newline. A statement without context renders as N-Triples.
func (s Statement) String() string {
	var b strings.Builder
	b.WriteString(termString(s.Subject))
	b.WriteByte(' ')
	b.WriteString(s.Predicate.String())
	b.WriteByte(' ')
	b.WriteString(termString(s.Object))
	if s.Context != "" {
		b.WriteByte(' ')
		b.WriteString(s.Context.String())
	}
	b.WriteString(" .")
	return b.String()
}

// SameTriple reports whether s and o have equal subject, predicate and
// object, ignoring context.
func (s Statement) SameTriple(o Statement) bool {
	return s.Subject == o.Subject && s.Predicate == o.Predicate && s.Object == o.Object
}

func termString(t Term) string {
	if t == nil {
		return "<>"
	}
	return t.String()
}

// SortStatements orders statements by their N-Quads form. The order is
// stable for equal strings.
func SortStatements(stmts []Statement) {
	sort.SliceStable(stmts, func(i, j int) bool {
		return stmts[i].String() < stmts[j].String()
	})
}

// Contexts returns the distinct contexts of stmts in first-seen order.
func Contexts(stmts []Statement) []IRI {
	seen := make(map[IRI]bool)
	var out []IRI
	for _, st := range stmts {
		if !seen[st.Context] {
			seen[st.Context] = true
			out = append(out, st.Context)
		}
	}
	return out
}

// GroupByContext partitions stmts by context, preserving input order within
// each group.
func GroupByContext(stmts []Statement) map[IRI][]Statement {
	groups := make(map[IRI][]Statement)
	for _, st := range stmts {
		groups[st.Context] = append(groups[st.Context], st)
	}
	return groups
}
