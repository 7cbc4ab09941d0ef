package rdf

import (
	"bytes"
	"fmt"
	"strconv"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical encodes a statement as canonical JSON for hashing.
//
// The encoding is a JSON object with keys in sorted order, no insignificant
// whitespace, and every string NFC normalized. Only quote, backslash and
// control characters are escaped, so the same statement always produces the
// same bytes regardless of how its text was composed.
//
//	{"c":"<ctx>","o":{"d":"","k":3,"l":"en","v":"text"},"p":"<pred>","s":{"k":1,"v":"<subj>"}}
func MarshalCanonical(s Statement) ([]byte, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.WriteString(`{"c":`)
	writeCanonicalString(&buf, string(s.Context))
	buf.WriteString(`,"o":`)
	if err := writeCanonicalTerm(&buf, s.Object); err != nil {
		return nil, fmt.Errorf("object: %w", err)
	}
	buf.WriteString(`,"p":`)
	writeCanonicalString(&buf, string(s.Predicate))
	buf.WriteString(`,"s":`)
	if err := writeCanonicalTerm(&buf, s.Subject); err != nil {
		return nil, fmt.Errorf("subject: %w", err)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeCanonicalTerm(buf *bytes.Buffer, t Term) error {
	switch v := t.(type) {
	case IRI:
		buf.WriteString(`{"k":` + strconv.Itoa(int(KindIRI)) + `,"v":`)
		writeCanonicalString(buf, string(v))
	case BlankNode:
		buf.WriteString(`{"k":` + strconv.Itoa(int(KindBlank)) + `,"v":`)
		writeCanonicalString(buf, string(v))
	case Literal:
		buf.WriteString(`{"d":`)
		writeCanonicalString(buf, string(literalDatatype(v)))
		buf.WriteString(`,"k":` + strconv.Itoa(int(KindLiteral)) + `,"l":`)
		writeCanonicalString(buf, v.Lang)
		buf.WriteString(`,"v":`)
		writeCanonicalString(buf, v.Lexical)
	default:
		return fmt.Errorf("unsupported term type %T", t)
	}
	buf.WriteByte('}')
	return nil
}

// literalDatatype returns the datatype a literal would have after parsing,
// so that "x" and "x"^^xsd:string encode identically.
func literalDatatype(l Literal) IRI {
	switch {
	case l.Lang != "":
		return RDFLangString
	case l.Datatype == "":
		return XSDString
	default:
		return l.Datatype
	}
}

const hexDigits = "0123456789abcdef"

func writeCanonicalString(buf *bytes.Buffer, s string) {
	s = norm.NFC.String(s)
	buf.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			buf.WriteString(`\"`)
		case c == '\\':
			buf.WriteString(`\\`)
		case c == '\b':
			buf.WriteString(`\b`)
		case c == '\f':
			buf.WriteString(`\f`)
		case c == '\n':
			buf.WriteString(`\n`)
		case c == '\r':
			buf.WriteString(`\r`)
		case c == '\t':
			buf.WriteString(`\t`)
		case c < 0x20:
			buf.WriteString(`\u00`)
			buf.WriteByte(hexDigits[c>>4])
			buf.WriteByte(hexDigits[c&0xF])
		default:
			buf.WriteByte(c)
		}
	}
	buf.WriteByte('"')
}
