package codec

import (
	"context"
	"fmt"

	"github.com/roach88/provstore/internal/rdf"
)

// Agent is a person or system that creates and changes objects.
type Agent struct {
	ID               rdf.IRI
	Name             rdf.Term
	IdentityProvider rdf.IRI
	AuthID           rdf.IRI
}

// Validate checks that every agent field is present.
func (a *Agent) Validate() error {
	switch {
	case a == nil:
		return fmt.Errorf("%w: agent is nil", ErrInvalidObject)
	case a.ID.IsZero():
		return fmt.Errorf("%w: agent id is required", ErrInvalidObject)
	case a.Name == nil || a.Name.Value() == "":
		return fmt.Errorf("%w: agent %s has no name", ErrInvalidObject, a.ID)
	case a.IdentityProvider.IsZero():
		return fmt.Errorf("%w: agent %s has no identity provider", ErrInvalidObject, a.ID)
	case a.AuthID.IsZero():
		return fmt.Errorf("%w: agent %s has no auth id", ErrInvalidObject, a.ID)
	}
	return nil
}

// AgentToStatements encodes a.
func AgentToStatements(a *Agent) ([]rdf.Statement, error) {
	if err := a.Validate(); err != nil {
		return nil, err
	}
	id := a.ID
	return []rdf.Statement{
		{Subject: id, Predicate: rdf.RDFType, Object: rdf.ClassAgent, Context: id},
		{Subject: id, Predicate: rdf.FOAFName, Object: a.Name, Context: id},
		{Subject: id, Predicate: rdf.RMapIdentityProv, Object: a.IdentityProvider, Context: id},
		{Subject: id, Predicate: rdf.RMapUserAuthID, Object: a.AuthID, Context: id},
	}, nil
}

// StatementsToAgent decodes an Agent. The statements must hold exactly one
// type, name, identity provider and auth id statement about the agent and
// nothing else.
func StatementsToAgent(ctx context.Context, stmts []rdf.Statement, ids IDSupplier) (*Agent, error) {
	asserted, official, ok := rootOf(stmts, rdf.ClassAgent)
	if !ok {
		return nil, fmt.Errorf("%w: no statement types a resource as %s", ErrInvalidObject, rdf.ClassAgent)
	}
	if rdf.IsZeroTerm(asserted) {
		return nil, fmt.Errorf("%w: agent must be identified by a blank node or IRI", ErrInvalidObject)
	}
	if official.IsZero() {
		if iri, isIRI := asserted.(rdf.IRI); isIRI {
			official = iri
		} else {
			id, err := mint(ctx, ids)
			if err != nil {
				return nil, fmt.Errorf("mint agent id: %w", err)
			}
			official = id
		}
	}

	a := &Agent{ID: official}
	var typed bool
	for _, st := range stmts {
		about := st.Subject == asserted
		switch {
		case about && st.Predicate == rdf.RDFType && st.Object == rdf.Term(rdf.ClassAgent) && !typed:
			typed = true
		case about && st.Predicate == rdf.FOAFName && a.Name == nil:
			a.Name = st.Object
		case about && st.Predicate == rdf.RMapIdentityProv && a.IdentityProvider.IsZero():
			iri, isIRI := st.Object.(rdf.IRI)
			if !isIRI {
				return nil, fmt.Errorf("%w: identity provider must be an IRI, got %s", ErrInvalidObject, st.Object)
			}
			a.IdentityProvider = iri
		case about && st.Predicate == rdf.RMapUserAuthID && a.AuthID.IsZero():
			iri, isIRI := st.Object.(rdf.IRI)
			if !isIRI {
				return nil, fmt.Errorf("%w: auth id must be an IRI, got %s", ErrInvalidObject, st.Object)
			}
			a.AuthID = iri
		default:
			return nil, fmt.Errorf("%w: unexpected agent statement %s; an agent has one rdf:type, foaf:name, rmap:identityProvider and rmap:userAuthId",
				ErrInvalidObject, st)
		}
	}

	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}
