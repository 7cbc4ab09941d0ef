package event

import (
	"fmt"
	"time"

	"github.com/roach88/provstore/internal/rdf"
)

// headerStatements emits the shared part of an event graph.
func (h *Header) headerStatements(kind Kind) []rdf.Statement {
	id := h.ID
	stmts := []rdf.Statement{
		{Subject: id, Predicate: rdf.RDFType, Object: rdf.ClassEvent, Context: id},
		{Subject: id, Predicate: rdf.RMapEventType, Object: kind.IRI(), Context: id},
		{Subject: id, Predicate: rdf.RMapEventTargetType, Object: h.TargetType.IRI(), Context: id},
		{Subject: id, Predicate: rdf.PROVWasAssociatedWith, Object: h.AssociatedAgent, Context: id},
	}
	if h.Description != nil {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.DCDescription, Object: h.Description, Context: id})
	}
	stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.PROVStartedAtTime, Object: rdf.NewDateTimeLiteral(h.StartTime), Context: id})
	if !h.EndTime.IsZero() {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.PROVEndedAtTime, Object: rdf.NewDateTimeLiteral(h.EndTime), Context: id})
	}
	if !h.AssociatedKey.IsZero() {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.PROVUsed, Object: h.AssociatedKey, Context: id})
	}
	if !h.LineageProgenitor.IsZero() {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.RMapLineageProgenitor, Object: h.LineageProgenitor, Context: id})
	}
	return stmts
}

func (h *Header) link(p rdf.IRI, o rdf.IRI) rdf.Statement {
	return rdf.Statement{Subject: h.ID, Predicate: p, Object: o, Context: h.ID}
}

func (h *Header) generated(ids []rdf.IRI) []rdf.Statement {
	out := make([]rdf.Statement, 0, len(ids))
	for _, id := range ids {
		out = append(out, h.link(rdf.PROVGenerated, id))
	}
	return out
}

func (e *Creation) ToStatements() []rdf.Statement {
	return append(e.headerStatements(KindCreation), e.generated(e.Created)...)
}

func (e *Update) ToStatements() []rdf.Statement {
	stmts := append(e.headerStatements(KindUpdate),
		e.link(rdf.RMapInactivatedObject, e.Inactivated),
		e.link(rdf.RMapHasSourceObject, e.Inactivated),
		e.link(rdf.RMapDerivedObject, e.Derived))
	return append(stmts, e.generated(e.Created)...)
}

func (e *Derivation) ToStatements() []rdf.Statement {
	stmts := append(e.headerStatements(KindDerivation),
		e.link(rdf.RMapHasSourceObject, e.Source),
		e.link(rdf.RMapDerivedObject, e.Derived))
	return append(stmts, e.generated(e.Created)...)
}

func (e *Inactivation) ToStatements() []rdf.Statement {
	return append(e.headerStatements(KindInactivation), e.link(rdf.RMapInactivatedObject, e.Inactivated))
}

func (e *Tombstone) ToStatements() []rdf.Statement {
	return append(e.headerStatements(KindTombstone), e.link(rdf.RMapTombstonedObject, e.Tombstoned))
}

func (e *Deletion) ToStatements() []rdf.Statement {
	return append(e.headerStatements(KindDeletion), e.link(rdf.RMapDeletedObject, e.Deleted))
}

func (e *Replace) ToStatements() []rdf.Statement {
	return append(e.headerStatements(KindReplace), e.link(rdf.RMapUpdatedObject, e.Updated))
}

// decoded collects the fields of an event graph before the variant is known.
type decoded struct {
	header      Header
	kind        Kind
	hasKind     bool
	inactivated rdf.IRI
	source      rdf.IRI
	derived     rdf.IRI
	tombstoned  rdf.IRI
	deleted     rdf.IRI
	updated     rdf.IRI
	generated   []rdf.IRI
}

// FromStatements decodes one event graph. All statements must share one
// non-empty context equal to the event id.
func FromStatements(stmts []rdf.Statement) (Event, error) {
	if len(stmts) == 0 {
		return nil, fmt.Errorf("%w: no statements", ErrInvalidEvent)
	}
	id := stmts[0].Context
	if id.IsZero() {
		return nil, fmt.Errorf("%w: statements have no context", ErrInvalidEvent)
	}

	var d decoded
	d.header.ID = id
	for _, st := range stmts {
		if st.Context != id {
			return nil, fmt.Errorf("%w: statements span contexts %s and %s", ErrInvalidEvent, id, st.Context)
		}
		if subj, ok := st.Subject.(rdf.IRI); !ok || subj != id {
			return nil, fmt.Errorf("%w: statement %s is not about event %s", ErrInvalidEvent, st, id)
		}
		if err := d.apply(st); err != nil {
			return nil, err
		}
	}
	if !d.hasKind {
		return nil, fmt.Errorf("%w: event %s has no event type", ErrInvalidEvent, id)
	}
	return d.build()
}

func (d *decoded) apply(st rdf.Statement) error {
	h := &d.header
	switch st.Predicate {
	case rdf.RDFType:
		if st.Object != rdf.ClassEvent {
			return fmt.Errorf("%w: unexpected type %s", ErrInvalidEvent, st.Object)
		}
		return nil
	case rdf.RMapEventType:
		k, ok := KindFromIRI(asIRI(st.Object))
		if !ok {
			return fmt.Errorf("%w: unknown event type %s", ErrInvalidEvent, st.Object)
		}
		if d.hasKind {
			return fmt.Errorf("%w: duplicate event type", ErrInvalidEvent)
		}
		d.kind, d.hasKind = k, true
		return nil
	case rdf.RMapEventTargetType:
		t, ok := TargetTypeFromIRI(asIRI(st.Object))
		if !ok {
			return fmt.Errorf("%w: unknown target type %s", ErrInvalidEvent, st.Object)
		}
		return setOnce(&h.TargetType, t, "target type")
	case rdf.PROVWasAssociatedWith:
		return setIRI(&h.AssociatedAgent, st, "associated agent")
	case rdf.DCDescription:
		if h.Description != nil {
			return fmt.Errorf("%w: duplicate description", ErrInvalidEvent)
		}
		h.Description = st.Object
		return nil
	case rdf.PROVStartedAtTime:
		return setTime(&h.StartTime, st, "start time")
	case rdf.PROVEndedAtTime:
		return setTime(&h.EndTime, st, "end time")
	case rdf.PROVUsed:
		return setIRI(&h.AssociatedKey, st, "associated key")
	case rdf.RMapLineageProgenitor:
		return setIRI(&h.LineageProgenitor, st, "lineage progenitor")
	case rdf.RMapInactivatedObject:
		return setIRI(&d.inactivated, st, "inactivated object")
	case rdf.RMapHasSourceObject:
		return setIRI(&d.source, st, "source object")
	case rdf.RMapDerivedObject:
		return setIRI(&d.derived, st, "derived object")
	case rdf.RMapTombstonedObject:
		return setIRI(&d.tombstoned, st, "tombstoned object")
	case rdf.RMapDeletedObject:
		return setIRI(&d.deleted, st, "deleted object")
	case rdf.RMapUpdatedObject:
		return setIRI(&d.updated, st, "updated object")
	case rdf.PROVGenerated:
		iri := asIRI(st.Object)
		if iri.IsZero() {
			return fmt.Errorf("%w: generated object must be an IRI", ErrInvalidEvent)
		}
		d.generated = append(d.generated, iri)
		return nil
	default:
		return fmt.Errorf("%w: unexpected predicate %s", ErrInvalidEvent, st.Predicate)
	}
}

// build constructs the variant, rejecting payload fields that do not
// belong to it.
func (d *decoded) build() (Event, error) {
	type field struct {
		name string
		set  bool
	}
	allowed := map[Kind][]string{
		KindCreation:     {"generated"},
		KindUpdate:       {"inactivated", "source", "derived", "generated"},
		KindDerivation:   {"source", "derived", "generated"},
		KindInactivation: {"inactivated"},
		KindTombstone:    {"tombstoned"},
		KindDeletion:     {"deleted"},
		KindReplace:      {"updated"},
	}
	fields := []field{
		{"inactivated", !d.inactivated.IsZero()},
		{"source", !d.source.IsZero()},
		{"derived", !d.derived.IsZero()},
		{"tombstoned", !d.tombstoned.IsZero()},
		{"deleted", !d.deleted.IsZero()},
		{"updated", !d.updated.IsZero()},
		{"generated", len(d.generated) > 0},
	}
	for _, f := range fields {
		if f.set && !contains(allowed[d.kind], f.name) {
			return nil, fmt.Errorf("%w: %s event cannot carry a %s object", ErrInvalidEvent, d.kind, f.name)
		}
	}

	switch d.kind {
	case KindCreation:
		return NewCreation(d.header, d.generated)
	case KindUpdate:
		if d.source != d.inactivated {
			return nil, fmt.Errorf("%w: update source %s differs from inactivated object %s",
				ErrInvalidEvent, d.source, d.inactivated)
		}
		return NewUpdate(d.header, d.inactivated, d.derived, d.generated)
	case KindDerivation:
		return NewDerivation(d.header, d.source, d.derived, d.generated)
	case KindInactivation:
		return NewInactivation(d.header, d.inactivated)
	case KindTombstone:
		return NewTombstone(d.header, d.tombstoned)
	case KindDeletion:
		return NewDeletion(d.header, d.deleted)
	case KindReplace:
		return NewReplace(d.header, d.updated)
	default:
		return nil, fmt.Errorf("%w: unknown event kind %q", ErrInvalidEvent, d.kind)
	}
}

func asIRI(t rdf.Term) rdf.IRI {
	iri, _ := t.(rdf.IRI)
	return iri
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func setOnce[T comparable](dst *T, v T, what string) error {
	var zero T
	if *dst != zero {
		return fmt.Errorf("%w: duplicate %s", ErrInvalidEvent, what)
	}
	*dst = v
	return nil
}

func setIRI(dst *rdf.IRI, st rdf.Statement, what string) error {
	iri := asIRI(st.Object)
	if iri.IsZero() {
		return fmt.Errorf("%w: %s must be an IRI", ErrInvalidEvent, what)
	}
	return setOnce(dst, iri, what)
}

func setTime(dst *time.Time, st rdf.Statement, what string) error {
	lit, ok := st.Object.(rdf.Literal)
	if !ok {
		return fmt.Errorf("%w: %s must be a literal", ErrInvalidEvent, what)
	}
	t, err := rdf.ParseDateTime(lit.Lexical)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidEvent, what, err)
	}
	if !dst.IsZero() {
		return fmt.Errorf("%w: duplicate %s", ErrInvalidEvent, what)
	}
	*dst = t
	return nil
}
