package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/roach88/provstore/internal/rdf"
)

// ErrInvalidEvent is returned (wrapped) when an event is missing a required
// field or its statements cannot be decoded.
var ErrInvalidEvent = errors.New("invalid event")

// Kind identifies an event variant.
type Kind string

const (
	KindCreation     Kind = "creation"
	KindUpdate       Kind = "update"
	KindDerivation   Kind = "derivation"
	KindInactivation Kind = "inactivation"
	KindTombstone    Kind = "tombstone"
	KindDeletion     Kind = "deletion"
	KindReplace      Kind = "replace"
)

var kindIRIs = map[Kind]rdf.IRI{
	KindCreation:     rdf.EventTypeCreation,
	KindUpdate:       rdf.EventTypeUpdate,
	KindDerivation:   rdf.EventTypeDerivation,
	KindInactivation: rdf.EventTypeInactivation,
	KindTombstone:    rdf.EventTypeTombstone,
	KindDeletion:     rdf.EventTypeDeletion,
	KindReplace:      rdf.EventTypeReplace,
}

// IRI returns the vocabulary term for the kind.
func (k Kind) IRI() rdf.IRI {
	return kindIRIs[k]
}

// KindFromIRI maps a vocabulary term back to its Kind.
func KindFromIRI(iri rdf.IRI) (Kind, bool) {
	for k, v := range kindIRIs {
		if v == iri {
			return k, true
		}
	}
	return "", false
}

// TargetType is the type of object an event acts on.
type TargetType string

const (
	TargetDiSCO TargetType = "DiSCO"
	TargetAgent TargetType = "Agent"
)

// IRI returns the vocabulary term for the target type.
func (t TargetType) IRI() rdf.IRI {
	switch t {
	case TargetDiSCO:
		return rdf.TargetDiSCO
	case TargetAgent:
		return rdf.TargetAgent
	default:
		return ""
	}
}

// TargetTypeFromIRI maps a vocabulary term back to its TargetType.
func TargetTypeFromIRI(iri rdf.IRI) (TargetType, bool) {
	switch iri {
	case rdf.TargetDiSCO:
		return TargetDiSCO, true
	case rdf.TargetAgent:
		return TargetAgent, true
	default:
		return "", false
	}
}

// Event is implemented only by the variants in this package.
type Event interface {
	isEvent()

	// Kind returns the variant.
	Kind() Kind

	// Base returns the shared header. Callers may modify it, e.g. to Finish
	// the event.
	Base() *Header

	// ToStatements serializes the event. Every statement has the event id
	// as context.
	ToStatements() []rdf.Statement
}

// Header holds the fields every event carries.
type Header struct {
	ID              rdf.IRI
	TargetType      TargetType
	AssociatedAgent rdf.IRI
	// Description is a literal or IRI; nil when absent.
	Description rdf.Term
	StartTime   time.Time
	// EndTime is zero while the event is open.
	EndTime           time.Time
	AssociatedKey     rdf.IRI
	LineageProgenitor rdf.IRI
}

// Base returns h.
func (h *Header) Base() *Header { return h }

// Finish sets the end time, closing the event. Times are kept at
// millisecond precision, the precision they are serialized with.
func (h *Header) Finish(t time.Time) {
	h.EndTime = t.UTC().Truncate(time.Millisecond)
}

// IsOpen reports whether the event has no end time yet.
func (h *Header) IsOpen() bool {
	return h.EndTime.IsZero()
}

func (h *Header) validate() error {
	h.StartTime = h.StartTime.UTC().Truncate(time.Millisecond)
	if !h.EndTime.IsZero() {
		h.EndTime = h.EndTime.UTC().Truncate(time.Millisecond)
	}
	if h.ID.IsZero() {
		return fmt.Errorf("%w: id is required", ErrInvalidEvent)
	}
	if h.AssociatedAgent.IsZero() {
		return fmt.Errorf("%w: associated agent is required", ErrInvalidEvent)
	}
	if h.TargetType.IRI() == "" {
		return fmt.Errorf("%w: invalid target type %q", ErrInvalidEvent, h.TargetType)
	}
	if h.StartTime.IsZero() {
		return fmt.Errorf("%w: start time is required", ErrInvalidEvent)
	}
	if !h.EndTime.IsZero() && h.EndTime.Before(h.StartTime) {
		return fmt.Errorf("%w: end time %s precedes start time %s", ErrInvalidEvent,
			rdf.FormatDateTime(h.EndTime), rdf.FormatDateTime(h.StartTime))
	}
	return nil
}

// Creation records new objects.
type Creation struct {
	Header
	Created []rdf.IRI
}

// NewCreation builds a Creation event.
func NewCreation(h Header, created []rdf.IRI) (*Creation, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if err := requireIDs("created object", created); err != nil {
		return nil, err
	}
	return &Creation{Header: h, Created: created}, nil
}

// Update records a creator replacing their own object: the source is
// inactivated and the derived object takes its place in the agent chain.
type Update struct {
	Header
	Inactivated rdf.IRI
	Derived     rdf.IRI
	Created     []rdf.IRI
}

// NewUpdate builds an Update event.
func NewUpdate(h Header, inactivated, derived rdf.IRI, created []rdf.IRI) (*Update, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if inactivated.IsZero() {
		return nil, fmt.Errorf("%w: inactivated object is required", ErrInvalidEvent)
	}
	if derived.IsZero() {
		return nil, fmt.Errorf("%w: derived object is required", ErrInvalidEvent)
	}
	if err := requireIDs("created object", created); err != nil {
		return nil, err
	}
	return &Update{Header: h, Inactivated: inactivated, Derived: derived, Created: created}, nil
}

// Derivation records an object derived from another agent's object. The
// source keeps its status.
type Derivation struct {
	Header
	Source  rdf.IRI
	Derived rdf.IRI
	Created []rdf.IRI
}

// NewDerivation builds a Derivation event.
func NewDerivation(h Header, source, derived rdf.IRI, created []rdf.IRI) (*Derivation, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if source.IsZero() {
		return nil, fmt.Errorf("%w: source object is required", ErrInvalidEvent)
	}
	if derived.IsZero() {
		return nil, fmt.Errorf("%w: derived object is required", ErrInvalidEvent)
	}
	if err := requireIDs("created object", created); err != nil {
		return nil, err
	}
	return &Derivation{Header: h, Source: source, Derived: derived, Created: created}, nil
}

// Inactivation records an object becoming INACTIVE.
type Inactivation struct {
	Header
	Inactivated rdf.IRI
}

// NewInactivation builds an Inactivation event.
func NewInactivation(h Header, inactivated rdf.IRI) (*Inactivation, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if inactivated.IsZero() {
		return nil, fmt.Errorf("%w: inactivated object is required", ErrInvalidEvent)
	}
	return &Inactivation{Header: h, Inactivated: inactivated}, nil
}

// Tombstone records an object being hidden while its statements are kept.
type Tombstone struct {
	Header
	Tombstoned rdf.IRI
}

// NewTombstone builds a Tombstone event.
func NewTombstone(h Header, tombstoned rdf.IRI) (*Tombstone, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if tombstoned.IsZero() {
		return nil, fmt.Errorf("%w: tombstoned object is required", ErrInvalidEvent)
	}
	return &Tombstone{Header: h, Tombstoned: tombstoned}, nil
}

// Deletion records an object's statements being removed.
type Deletion struct {
	Header
	Deleted rdf.IRI
}

// NewDeletion builds a Deletion event.
func NewDeletion(h Header, deleted rdf.IRI) (*Deletion, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if deleted.IsZero() {
		return nil, fmt.Errorf("%w: deleted object is required", ErrInvalidEvent)
	}
	return &Deletion{Header: h, Deleted: deleted}, nil
}

// Replace records an agent description being replaced in place.
type Replace struct {
	Header
	Updated rdf.IRI
}

// NewReplace builds a Replace event.
func NewReplace(h Header, updated rdf.IRI) (*Replace, error) {
	if err := h.validate(); err != nil {
		return nil, err
	}
	if updated.IsZero() {
		return nil, fmt.Errorf("%w: updated object is required", ErrInvalidEvent)
	}
	return &Replace{Header: h, Updated: updated}, nil
}

func (*Creation) isEvent()     {}
func (*Update) isEvent()       {}
func (*Derivation) isEvent()   {}
func (*Inactivation) isEvent() {}
func (*Tombstone) isEvent()    {}
func (*Deletion) isEvent()     {}
func (*Replace) isEvent()      {}

func (*Creation) Kind() Kind     { return KindCreation }
func (*Update) Kind() Kind       { return KindUpdate }
func (*Derivation) Kind() Kind   { return KindDerivation }
func (*Inactivation) Kind() Kind { return KindInactivation }
func (*Tombstone) Kind() Kind    { return KindTombstone }
func (*Deletion) Kind() Kind     { return KindDeletion }
func (*Replace) Kind() Kind      { return KindReplace }

func requireIDs(what string, ids []rdf.IRI) error {
	if len(ids) == 0 {
		return fmt.Errorf("%w: at least one %s is required", ErrInvalidEvent, what)
	}
	for i, id := range ids {
		if id.IsZero() {
			return fmt.Errorf("%w: %s %d is empty", ErrInvalidEvent, what, i)
		}
	}
	return nil
}

// CreatedObjects returns the ids an event generated, or nil for events
// that create nothing.
func CreatedObjects(e Event) []rdf.IRI {
	switch ev := e.(type) {
	case *Creation:
		return ev.Created
	case *Update:
		return ev.Created
	case *Derivation:
		return ev.Created
	default:
		return nil
	}
}

// SourceObject returns the object an Update or Derivation was derived from.
func SourceObject(e Event) rdf.IRI {
	switch ev := e.(type) {
	case *Update:
		return ev.Inactivated
	case *Derivation:
		return ev.Source
	default:
		return ""
	}
}

// AffectedObjects returns every object id the event's payload references,
// in payload order.
func AffectedObjects(e Event) []rdf.IRI {
	switch ev := e.(type) {
	case *Creation:
		return ev.Created
	case *Update:
		return append([]rdf.IRI{ev.Inactivated, ev.Derived}, without(ev.Created, ev.Derived)...)
	case *Derivation:
		return append([]rdf.IRI{ev.Source, ev.Derived}, without(ev.Created, ev.Derived)...)
	case *Inactivation:
		return []rdf.IRI{ev.Inactivated}
	case *Tombstone:
		return []rdf.IRI{ev.Tombstoned}
	case *Deletion:
		return []rdf.IRI{ev.Deleted}
	case *Replace:
		return []rdf.IRI{ev.Updated}
	default:
		return nil
	}
}

func without(ids []rdf.IRI, drop rdf.IRI) []rdf.IRI {
	var out []rdf.IRI
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
