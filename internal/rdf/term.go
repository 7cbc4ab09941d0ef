package rdf

import (
	"fmt"
	"strings"
	"time"
)

// Term is a sealed interface over the node types that can appear in a
// statement. Only IRI, BlankNode and Literal implement it.
type Term interface {
	term()

	// Value returns the lexical value without any syntax decoration.
	Value() string

	// String returns the N-Triples form of the term.
	String() string
}

// Resource is a Term that may appear in subject position.
type Resource interface {
	Term
	resource()
}

// TermKind identifies the concrete type of a Term. The numeric values are
// persisted by the store and must not be reordered.
type TermKind int

const (
	KindIRI     TermKind = 1
	KindBlank   TermKind = 2
	KindLiteral TermKind = 3
)

func (k TermKind) String() string {
	switch k {
	case KindIRI:
		return "iri"
	case KindBlank:
		return "bnode"
	case KindLiteral:
		return "literal"
	default:
		return fmt.Sprintf("TermKind(%d)", int(k))
	}
}

// IRI is an internationalized resource identifier.
type IRI string

func (IRI) term()     {}
func (IRI) resource() {}

// Value returns the IRI text.
func (i IRI) Value() string { return string(i) }

// String returns the IRI in angle brackets.
func (i IRI) String() string { return "<" + string(i) + ">" }

// IsZero reports whether the IRI is empty.
func (i IRI) IsZero() bool { return strings.TrimSpace(string(i)) == "" }

// BlankNode is a locally scoped node identified by its label.
type BlankNode string

func (BlankNode) term()     {}
func (BlankNode) resource() {}

// Value returns the blank node label.
func (b BlankNode) Value() string { return string(b) }

// String returns the blank node in _:label form.
func (b BlankNode) String() string { return "_:" + string(b) }

// Literal is a lexical value with an optional language tag or datatype.
// A literal with a language tag always has datatype rdf:langString; a
// literal with neither is an xsd:string.
type Literal struct {
	Lexical  string
	Lang     string
	Datatype IRI
}

func (Literal) term() {}

// Value returns the lexical form.
func (l Literal) Value() string { return l.Lexical }

// String returns the quoted literal with its language tag or datatype.
func (l Literal) String() string {
	q := `"` + escapeLiteral(l.Lexical) + `"`
	switch {
	case l.Lang != "":
		return q + "@" + l.Lang
	case l.Datatype != "" && l.Datatype != XSDString:
		return q + "^^" + l.Datatype.String()
	default:
		return q
	}
}

// NewLiteral creates a plain string literal.
func NewLiteral(lexical string) Literal {
	return Literal{Lexical: lexical}
}

// NewLangLiteral creates a language-tagged literal.
func NewLangLiteral(lexical, lang string) Literal {
	return Literal{Lexical: lexical, Lang: strings.ToLower(lang)}
}

// NewTypedLiteral creates a literal with an explicit datatype.
func NewTypedLiteral(lexical string, datatype IRI) Literal {
	return Literal{Lexical: lexical, Datatype: datatype}
}

// DateTimeLayout is the lexical form used for every xsd:dateTime literal the
// store writes. It is fixed width and always UTC, so lexical order equals
// chronological order.
const DateTimeLayout = "2006-01-02T15:04:05.000Z"

// NewDateTimeLiteral creates an xsd:dateTime literal for t.
func NewDateTimeLiteral(t time.Time) Literal {
	return Literal{Lexical: FormatDateTime(t), Datatype: XSDDateTime}
}

// FormatDateTime renders t in DateTimeLayout.
func FormatDateTime(t time.Time) string {
	return t.UTC().Format(DateTimeLayout)
}

// ParseDateTime parses the lexical form of an xsd:dateTime literal. Values
// written by other tools are accepted in RFC 3339 form.
func ParseDateTime(lexical string) (time.Time, error) {
	if t, err := time.Parse(DateTimeLayout, lexical); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, lexical)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse dateTime %q: %w", lexical, err)
	}
	return t.UTC(), nil
}

// KindOf returns the kind of a term. A nil term has kind 0.
func KindOf(t Term) TermKind {
	switch t.(type) {
	case IRI:
		return KindIRI
	case BlankNode:
		return KindBlank
	case Literal:
		return KindLiteral
	default:
		return 0
	}
}

// IsZeroTerm reports whether t is nil or an empty IRI or blank node.
func IsZeroTerm(t Term) bool {
	switch v := t.(type) {
	case nil:
		return true
	case IRI:
		return v.IsZero()
	case BlankNode:
		return strings.TrimSpace(string(v)) == ""
	default:
		return false
	}
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}
