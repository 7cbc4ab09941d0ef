package versioning

import (
	"context"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
)

// Status is an object's lifecycle state, derived from the event log.
type Status string

const (
	StatusActive     Status = "ACTIVE"
	StatusInactive   Status = "INACTIVE"
	StatusTombstoned Status = "TOMBSTONED"
	StatusDeleted    Status = "DELETED"
)

// IsTerminal reports whether no further lifecycle operation is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusTombstoned || s == StatusDeleted
}

// statusChecks are evaluated in order; the first event predicate that
// references the object decides its status.
var statusChecks = []struct {
	predicate rdf.IRI
	status    Status
}{
	{rdf.RMapDeletedObject, StatusDeleted},
	{rdf.RMapTombstonedObject, StatusTombstoned},
	{rdf.RMapInactivatedObject, StatusInactive},
	{rdf.PROVGenerated, StatusActive},
}

// Status returns the lifecycle state of id.
func (s *Service) Status(ctx context.Context, id rdf.IRI) (Status, error) {
	if id.IsZero() {
		return "", newValidationError(id, "id is required")
	}
	return statusOf(ctx, s.store, id)
}

func statusOf(ctx context.Context, g store.Graph, id rdf.IRI) (Status, error) {
	for _, c := range statusChecks {
		ok, err := eventReferences(ctx, g, c.predicate, id)
		if err != nil {
			return "", wrap(id, "read status", err)
		}
		if ok {
			return c.status, nil
		}
	}
	return "", newNotFoundError(id)
}

// eventReferences reports whether some event graph links to id through
// predicate. Statements inside object graphs never count: the subject must
// be an event in its own context.
func eventReferences(ctx context.Context, g store.Graph, predicate, id rdf.IRI) (bool, error) {
	return g.Ask(ctx, queryir.Ask{
		Where: []queryir.Pattern{
			{Subject: queryir.Var("e"), Predicate: queryir.C(predicate), Object: queryir.C(id), Context: queryir.Var("e")},
			eventTypePattern("e"),
		},
	})
}

func eventTypePattern(v queryir.Var) queryir.Pattern {
	return queryir.Pattern{Subject: v, Predicate: queryir.C(rdf.RDFType), Object: queryir.C(rdf.ClassEvent), Context: v}
}

func typePattern(v queryir.Var, class rdf.IRI) queryir.Pattern {
	return queryir.Pattern{Subject: v, Predicate: queryir.C(rdf.RDFType), Object: queryir.C(class), Context: v}
}

// hasType reports whether id's own graph types it as class.
func hasType(ctx context.Context, g store.Graph, id, class rdf.IRI) (bool, error) {
	return g.HasStatement(ctx, store.Pattern{Subject: id, Predicate: rdf.RDFType, Object: class, Context: id})
}

// exists reports whether id was ever used as an object or event id.
func exists(ctx context.Context, g store.Graph, id rdf.IRI) (bool, error) {
	inUse, err := g.HasStatement(ctx, store.Pattern{Context: id})
	if err != nil || inUse {
		return inUse, err
	}
	return eventReferences(ctx, g, rdf.PROVGenerated, id)
}

// requireAgent checks that agent is a stored agent.
func requireAgent(ctx context.Context, g store.Graph, agent rdf.IRI) error {
	if agent.IsZero() {
		return newValidationError("", "requesting agent is required")
	}
	ok, err := hasType(ctx, g, agent, rdf.ClassAgent)
	if err != nil {
		return wrap(agent, "read agent", err)
	}
	if !ok {
		return newValidationError(agent, "requesting agent is not a known agent")
	}
	return nil
}

// creatorOf returns the agent associated with the event that generated id.
func creatorOf(ctx context.Context, g store.Graph, id rdf.IRI) (rdf.IRI, error) {
	rows, err := g.ExecuteGraphQuery(ctx, queryir.Select{
		Where: []queryir.Pattern{
			{Subject: queryir.Var("e"), Predicate: queryir.C(rdf.PROVGenerated), Object: queryir.C(id), Context: queryir.Var("e")},
			{Subject: queryir.Var("e"), Predicate: queryir.C(rdf.PROVWasAssociatedWith), Object: queryir.Var("agent"), Context: queryir.Var("e")},
			{Subject: queryir.Var("e"), Predicate: queryir.C(rdf.PROVStartedAtTime), Object: queryir.Var("t"), Context: queryir.Var("e")},
		},
		Project: []queryir.Var{"t", "agent"},
		OrderBy: []queryir.Order{{Var: "t"}},
		Limit:   1,
	})
	if err != nil {
		return "", wrap(id, "read creator", err)
	}
	if len(rows) == 0 {
		return "", newNotFoundError(id)
	}
	return rows[0].IRI("agent"), nil
}

// Creator returns the agent whose event generated id.
func (s *Service) Creator(ctx context.Context, id rdf.IRI) (rdf.IRI, error) {
	if id.IsZero() {
		return "", newValidationError(id, "id is required")
	}
	return creatorOf(ctx, s.store, id)
}
