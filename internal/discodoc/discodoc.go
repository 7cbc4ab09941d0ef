package discodoc

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/format"
	"cuelang.org/go/cue/token"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/rdf"
)

//go:embed schema.cue
var schemaSource string

// Error reports a document that cannot be turned into a DiSCO.
type Error struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *Error) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

type document struct {
	DiSCO discoDoc `json:"disco"`
}

type discoDoc struct {
	ID          string            `json:"id,omitempty"`
	Creator     string            `json:"creator,omitempty"`
	Description any               `json:"description,omitempty"`
	ProviderID  string            `json:"provider_id,omitempty"`
	GeneratedBy string            `json:"generated_by,omitempty"`
	Prefixes    map[string]string `json:"prefixes,omitempty"`
	Aggregates  []string          `json:"aggregates"`
	Statements  []statementDoc    `json:"statements,omitempty"`
}

type statementDoc struct {
	S string `json:"s"`
	P string `json:"p"`
	O any    `json:"o"`
}

type literalDoc struct {
	Literal  string `json:"literal"`
	Lang     string `json:"lang,omitempty"`
	Datatype string `json:"datatype,omitempty"`
}

type refDoc struct {
	IRI string `json:"iri"`
}

// LoadFile parses the CUE document at path.
func LoadFile(path string) (*codec.DiSCO, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read disco document: %w", err)
	}
	return Parse(src, path)
}

// Parse compiles src, checks it against the document schema and converts
// it into a DiSCO. The result is not validated as a DiSCO; the service does
// that when the DiSCO is stored.
func Parse(src []byte, filename string) (*codec.DiSCO, error) {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("compile document schema: %w", err)
	}

	user := ctx.CompileBytes(src, cue.Filename(filename))
	if err := user.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if !user.LookupPath(cue.ParsePath("disco")).Exists() {
		return nil, &Error{Field: "disco", Message: "document has no disco field", Pos: user.Pos()}
	}

	v := schema.LookupPath(cue.ParsePath("#Document")).Unify(user)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var doc document
	if err := v.Decode(&doc); err != nil {
		return nil, formatCUEError(err)
	}
	// Positions come from the caller's source, not the schema.
	return doc.DiSCO.toDiSCO(user.LookupPath(cue.ParsePath("disco")))
}

func (d *discoDoc) toDiSCO(v cue.Value) (*codec.DiSCO, error) {
	x := newExpander(d.Prefixes)
	out := &codec.DiSCO{
		ID:          x.iri(d.ID),
		Creator:     x.iri(d.Creator),
		GeneratedBy: x.iri(d.GeneratedBy),
	}
	if d.ProviderID != "" {
		out.ProviderID = x.iri(d.ProviderID)
	}

	if d.Description != nil {
		desc, err := x.description(d.Description)
		if err != nil {
			return nil, fieldError(v, "description", err)
		}
		out.Description = desc
	}

	for _, a := range d.Aggregates {
		out.Aggregated = append(out.Aggregated, x.iri(a))
	}

	for i, sd := range d.Statements {
		path := fmt.Sprintf("statements[%d]", i)
		if strings.HasPrefix(sd.P, "_:") {
			return nil, fieldError(v, path, fmt.Errorf("predicate %q cannot be a blank node", sd.P))
		}
		obj, err := x.term(sd.O)
		if err != nil {
			return nil, fieldError(v, path, err)
		}
		st := rdf.Statement{Subject: x.resource(sd.S), Predicate: x.iri(sd.P), Object: obj}
		if err := st.Validate(); err != nil {
			return nil, fieldError(v, path, err)
		}
		out.Related = append(out.Related, st)
	}
	return out, nil
}

func fieldError(v cue.Value, field string, err error) *Error {
	pos := v.Pos()
	if fv := v.LookupPath(cue.ParsePath(field)); fv.Exists() {
		pos = fv.Pos()
	}
	return &Error{Field: field, Message: err.Error(), Pos: pos}
}

// expander resolves compact IRIs.
type expander struct {
	prefixes map[string]string
}

func newExpander(declared map[string]string) *expander {
	prefixes := rdf.Prefixes()
	for k, v := range declared {
		prefixes[k] = v
	}
	return &expander{prefixes: prefixes}
}

func (x *expander) iri(s string) rdf.IRI {
	if s == "" {
		return ""
	}
	if prefix, local, ok := strings.Cut(s, ":"); ok && !strings.HasPrefix(local, "//") {
		if ns, known := x.prefixes[prefix]; known {
			return rdf.IRI(ns + local)
		}
	}
	return rdf.IRI(s)
}

func (x *expander) resource(s string) rdf.Resource {
	if label, ok := strings.CutPrefix(s, "_:"); ok {
		return rdf.BlankNode(label)
	}
	return x.iri(s)
}

func (x *expander) term(v any) (rdf.Term, error) {
	switch t := v.(type) {
	case string:
		return x.resource(t), nil
	case map[string]any:
		if iri, ok := t["iri"].(string); ok {
			return x.iri(iri), nil
		}
		return x.literal(t)
	default:
		return nil, fmt.Errorf("unsupported term %v", v)
	}
}

func (x *expander) description(v any) (rdf.Term, error) {
	if s, ok := v.(string); ok {
		return rdf.NewLiteral(s), nil
	}
	return x.term(v)
}

func (x *expander) literal(m map[string]any) (rdf.Term, error) {
	lexical, ok := m["literal"].(string)
	if !ok {
		return nil, fmt.Errorf("literal value is required")
	}
	lang, _ := m["lang"].(string)
	datatype, _ := m["datatype"].(string)
	switch {
	case lang != "" && datatype != "":
		return nil, fmt.Errorf("literal %q has both lang and datatype", lexical)
	case lang != "":
		return rdf.NewLangLiteral(lexical, lang), nil
	case datatype != "":
		return rdf.NewTypedLiteral(lexical, x.iri(datatype)), nil
	default:
		return rdf.NewLiteral(lexical), nil
	}
}

// Format renders d as a CUE document that Parse reads back to an equal
// DiSCO. IRIs are written in full.
func Format(d *codec.DiSCO) ([]byte, error) {
	if d == nil {
		return nil, fmt.Errorf("format disco document: disco is nil")
	}
	doc := document{DiSCO: discoDoc{
		ID:          string(d.ID),
		Creator:     string(d.Creator),
		GeneratedBy: string(d.GeneratedBy),
	}}
	if d.ProviderID != nil {
		doc.DiSCO.ProviderID = d.ProviderID.Value()
	}
	switch desc := d.Description.(type) {
	case nil:
	case rdf.Literal:
		if desc.Lang == "" && (desc.Datatype == "" || desc.Datatype == rdf.XSDString) {
			doc.DiSCO.Description = desc.Lexical
		} else {
			doc.DiSCO.Description = termDoc(desc)
		}
	default:
		doc.DiSCO.Description = refDoc{IRI: desc.Value()}
	}
	for _, a := range d.Aggregated {
		doc.DiSCO.Aggregates = append(doc.DiSCO.Aggregates, string(a))
	}
	for _, st := range d.Related {
		doc.DiSCO.Statements = append(doc.DiSCO.Statements, statementDoc{
			S: resourceDoc(st.Subject),
			P: string(st.Predicate),
			O: termDoc(st.Object),
		})
	}

	v := cuecontext.New().Encode(doc)
	if err := v.Err(); err != nil {
		return nil, fmt.Errorf("encode disco document: %w", err)
	}
	out, err := format.Node(v.Syntax(cue.Final()))
	if err != nil {
		return nil, fmt.Errorf("format disco document: %w", err)
	}
	return out, nil
}

func resourceDoc(r rdf.Resource) string {
	if b, ok := r.(rdf.BlankNode); ok {
		return "_:" + string(b)
	}
	return r.Value()
}

func termDoc(t rdf.Term) any {
	switch v := t.(type) {
	case rdf.Literal:
		ld := literalDoc{Literal: v.Lexical, Lang: v.Lang}
		if v.Lang == "" && v.Datatype != rdf.XSDString {
			ld.Datatype = string(v.Datatype)
		}
		return ld
	case rdf.BlankNode:
		return "_:" + string(v)
	default:
		return t.Value()
	}
}

// formatCUEError returns the first CUE error with its position.
func formatCUEError(err error) error {
	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}
	first := errs[0]
	field := "cue"
	if p := first.Path(); len(p) > 0 {
		field = strings.Join(p, ".")
	}
	msg, args := first.Msg()
	e := &Error{Field: field, Message: fmt.Sprintf(msg, args...)}
	if positions := errors.Positions(first); len(positions) > 0 {
		e.Pos = positions[0]
	}
	return e
}
