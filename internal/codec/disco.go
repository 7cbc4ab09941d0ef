package codec

import (
	"context"
	"fmt"

	"github.com/roach88/provstore/internal/rdf"
)

// DiSCO is an aggregation of resources plus statements describing them.
type DiSCO struct {
	ID      rdf.IRI
	Creator rdf.IRI
	// Aggregated keeps submission order and duplicates.
	Aggregated []rdf.IRI
	// Description is a literal or IRI; nil when absent.
	Description rdf.Term
	// ProviderID is the identifier the client asserted when it differs
	// from ID; nil when absent.
	ProviderID  rdf.Term
	GeneratedBy rdf.IRI
	// Related holds triples about the aggregated resources. Their Context
	// is ignored on encode and empty on decode.
	Related []rdf.Statement
}

// Validate checks the fields every stored DiSCO must have.
func (d *DiSCO) Validate() error {
	if d == nil {
		return fmt.Errorf("%w: disco is nil", ErrInvalidObject)
	}
	if d.ID.IsZero() {
		return fmt.Errorf("%w: disco id is required", ErrInvalidObject)
	}
	if d.Creator.IsZero() {
		return fmt.Errorf("%w: disco %s has no creator", ErrInvalidObject, d.ID)
	}
	if len(d.Aggregated) == 0 {
		return fmt.Errorf("%w: disco %s aggregates no resources", ErrInvalidObject, d.ID)
	}
	for _, r := range d.Aggregated {
		if r.IsZero() {
			return fmt.Errorf("%w: disco %s aggregates an empty resource", ErrInvalidObject, d.ID)
		}
	}
	for _, st := range d.Related {
		if err := st.Validate(); err != nil {
			return fmt.Errorf("%w: disco %s: %w", ErrInvalidObject, d.ID, err)
		}
	}
	if !ReferencesAggregate(d.ID, d.Aggregated, d.Related) {
		return fmt.Errorf("%w: related statements do not reference the aggregated resources", ErrInvalidObject)
	}
	if !IsConnectedGraph(startNodes(d), d.Related) {
		return fmt.Errorf("%w: related statements do not form a connected graph", ErrInvalidObject)
	}
	return nil
}

func startNodes(d *DiSCO) []rdf.Resource {
	nodes := make([]rdf.Resource, 0, len(d.Aggregated)+1)
	nodes = append(nodes, d.ID)
	for _, r := range d.Aggregated {
		nodes = append(nodes, r)
	}
	return nodes
}

// DiSCOToStatements encodes d. The order is: type, creator, aggregates in
// order, description, provider id, generating activity, related statements.
func DiSCOToStatements(d *DiSCO) ([]rdf.Statement, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	id := d.ID
	stmts := []rdf.Statement{
		{Subject: id, Predicate: rdf.RDFType, Object: rdf.ClassDiSCO, Context: id},
		{Subject: id, Predicate: rdf.DCTermsCreator, Object: d.Creator, Context: id},
	}
	for _, r := range d.Aggregated {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.OREAggregates, Object: r, Context: id})
	}
	if d.Description != nil {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.DCDescription, Object: d.Description, Context: id})
	}
	if d.ProviderID != nil {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.RMapProviderID, Object: d.ProviderID, Context: id})
	}
	if !d.GeneratedBy.IsZero() {
		stmts = append(stmts, rdf.Statement{Subject: id, Predicate: rdf.PROVWasGenerated, Object: d.GeneratedBy, Context: id})
	}
	for _, st := range d.Related {
		stmts = append(stmts, st.WithContext(id))
	}
	return stmts, nil
}

// StatementsToDiSCO decodes a DiSCO from statements that need not be
// partitioned by context. The root is the subject typed rmap:DiSCO. Its
// context, when present, is the official id; otherwise one is minted from
// ids. A client-asserted IRI that differs from the official id is kept as
// the provider id.
func StatementsToDiSCO(ctx context.Context, stmts []rdf.Statement, ids IDSupplier) (*DiSCO, error) {
	asserted, official, ok := rootOf(stmts, rdf.ClassDiSCO)
	if !ok {
		return nil, fmt.Errorf("%w: no statement types a resource as %s", ErrInvalidObject, rdf.ClassDiSCO)
	}
	if rdf.IsZeroTerm(asserted) {
		return nil, fmt.Errorf("%w: disco must be identified by a blank node or IRI", ErrInvalidObject)
	}
	if official.IsZero() {
		id, err := mint(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("mint disco id: %w", err)
		}
		official = id
	}

	d := &DiSCO{ID: official}
	if iri, isIRI := asserted.(rdf.IRI); isIRI && iri != official {
		d.ProviderID = iri
	}

	for _, st := range stmts {
		subject, object := st.Subject, st.Object
		aboutDisco := subject == asserted
		if aboutDisco {
			subject = official
		}
		if object == rdf.Term(asserted) {
			object = official
		}

		switch {
		case st.Predicate == rdf.RDFType && aboutDisco:
			// The type statement is regenerated on encode.
		case st.Predicate == rdf.DCTermsCreator && aboutDisco:
			creator, isIRI := object.(rdf.IRI)
			if !isIRI {
				return nil, fmt.Errorf("%w: disco creator must be an IRI, got %s", ErrInvalidObject, object)
			}
			if !d.Creator.IsZero() && d.Creator != creator {
				return nil, fmt.Errorf("%w: disco has more than one creator", ErrInvalidObject)
			}
			d.Creator = creator
		case st.Predicate == rdf.PROVWasGenerated && aboutDisco:
			iri, isIRI := object.(rdf.IRI)
			if !isIRI {
				return nil, fmt.Errorf("%w: prov:wasGeneratedBy must be an IRI, got %s", ErrInvalidObject, object)
			}
			d.GeneratedBy = iri
		case st.Predicate == rdf.RMapProviderID && aboutDisco:
			d.ProviderID = object
		case st.Predicate == rdf.OREAggregates && aboutDisco:
			iri, isIRI := object.(rdf.IRI)
			if !isIRI {
				return nil, fmt.Errorf("%w: aggregated resource must be an IRI, got %s", ErrInvalidObject, object)
			}
			d.Aggregated = append(d.Aggregated, iri)
		case (st.Predicate == rdf.DCDescription || st.Predicate == rdf.DCTermsDescription) && aboutDisco:
			d.Description = object
		default:
			d.Related = append(d.Related, rdf.Statement{Subject: subject, Predicate: st.Predicate, Object: object})
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// ReferencesAggregate reports whether the related statements talk about the
// aggregation: true when stmts is empty or at least one statement has the
// DiSCO or one of its aggregated resources as subject or object.
func ReferencesAggregate(discoID rdf.IRI, aggregated []rdf.IRI, stmts []rdf.Statement) bool {
	if len(stmts) == 0 {
		return true
	}
	anchors := make(map[rdf.Term]bool, len(aggregated)+1)
	anchors[discoID] = true
	for _, r := range aggregated {
		anchors[r] = true
	}
	for _, st := range stmts {
		if anchors[st.Subject] || anchors[st.Object] {
			return true
		}
	}
	return false
}

// IsConnectedGraph reports whether every statement is reachable from the
// starting nodes, walking edges in both directions. Literals end a path.
func IsConnectedGraph(nodes []rdf.Resource, stmts []rdf.Statement) bool {
	if len(stmts) == 0 {
		return true
	}
	remaining := make([]rdf.Statement, len(stmts))
	copy(remaining, stmts)

	visited := make(map[rdf.Term]bool)
	frontier := make([]rdf.Term, 0, len(nodes))
	for _, n := range nodes {
		frontier = append(frontier, n)
	}

	for len(frontier) > 0 && len(remaining) > 0 {
		node := frontier[0]
		frontier = frontier[1:]
		if visited[node] {
			continue
		}
		visited[node] = true

		kept := remaining[:0]
		for _, st := range remaining {
			switch {
			case st.Subject == node:
				if _, isLiteral := st.Object.(rdf.Literal); !isLiteral {
					frontier = append(frontier, st.Object)
				}
			case st.Object == node:
				frontier = append(frontier, st.Subject)
			default:
				kept = append(kept, st)
			}
		}
		remaining = kept
	}
	return len(remaining) == 0
}

// ReplaceBlankNodes replaces every blank node in d's related statements
// with a minted IRI. A blank node label maps to the same IRI everywhere it
// occurs.
func ReplaceBlankNodes(ctx context.Context, d *DiSCO, ids IDSupplier) error {
	minted := make(map[rdf.BlankNode]rdf.IRI)
	replace := func(t rdf.Term) (rdf.Term, error) {
		b, ok := t.(rdf.BlankNode)
		if !ok {
			return t, nil
		}
		if iri, ok := minted[b]; ok {
			return iri, nil
		}
		iri, err := mint(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("mint id for blank node %s: %w", b, err)
		}
		minted[b] = iri
		return iri, nil
	}

	related := make([]rdf.Statement, len(d.Related))
	for i, st := range d.Related {
		s, err := replace(st.Subject)
		if err != nil {
			return err
		}
		o, err := replace(st.Object)
		if err != nil {
			return err
		}
		st.Subject = s.(rdf.Resource)
		st.Object = o
		related[i] = st
	}
	d.Related = related
	return nil
}
