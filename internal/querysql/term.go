package querysql

import (
	"fmt"

	"github.com/roach88/provstore/internal/rdf"
)

// EncodedTerm is the column form of a term in the quad table. Literal
// datatypes are normalized: plain and xsd:string literals store an empty
// datatype, and language-tagged literals store an empty datatype with the
// tag in Lang.
type EncodedTerm struct {
	Kind     rdf.TermKind
	Value    string
	Lang     string
	Datatype string
}

// EncodeTerm converts a term to its column form.
func EncodeTerm(t rdf.Term) (EncodedTerm, error) {
	switch v := t.(type) {
	case rdf.IRI:
		return EncodedTerm{Kind: rdf.KindIRI, Value: string(v)}, nil
	case rdf.BlankNode:
		return EncodedTerm{Kind: rdf.KindBlank, Value: string(v)}, nil
	case rdf.Literal:
		enc := EncodedTerm{Kind: rdf.KindLiteral, Value: v.Lexical, Lang: v.Lang}
		if v.Lang == "" && v.Datatype != rdf.XSDString {
			enc.Datatype = string(v.Datatype)
		}
		return enc, nil
	default:
		return EncodedTerm{}, fmt.Errorf("unsupported term type: %T", t)
	}
}

// DecodeTerm rebuilds a term from its column form.
func DecodeTerm(kind int64, value, lang, datatype string) (rdf.Term, error) {
	switch rdf.TermKind(kind) {
	case rdf.KindIRI:
		return rdf.IRI(value), nil
	case rdf.KindBlank:
		return rdf.BlankNode(value), nil
	case rdf.KindLiteral:
		return rdf.Literal{Lexical: value, Lang: lang, Datatype: rdf.IRI(datatype)}, nil
	default:
		return nil, fmt.Errorf("unknown term kind %d", kind)
	}
}
