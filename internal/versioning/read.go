package versioning

import (
	"context"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/event"
	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
)

// ObjectType is the class of a stored object.
type ObjectType string

const (
	TypeDiSCO ObjectType = "DiSCO"
	TypeAgent ObjectType = "Agent"
	TypeEvent ObjectType = "Event"
)

var classTypes = map[rdf.IRI]ObjectType{
	rdf.ClassDiSCO: TypeDiSCO,
	rdf.ClassAgent: TypeAgent,
	rdf.ClassEvent: TypeEvent,
}

// ReadDiSCO returns the stored DiSCO. Tombstoned and deleted DiSCOs fail
// with a GONE error.
func (s *Service) ReadDiSCO(ctx context.Context, id rdf.IRI) (*codec.DiSCO, error) {
	stmts, err := s.readObject(ctx, id, rdf.ClassDiSCO)
	if err != nil {
		return nil, err
	}
	d, err := codec.StatementsToDiSCO(ctx, stmts, s.ids)
	if err != nil {
		return nil, wrap(id, "decode disco", err)
	}
	return d, nil
}

// ReadAgent returns the stored agent.
func (s *Service) ReadAgent(ctx context.Context, id rdf.IRI) (*codec.Agent, error) {
	stmts, err := s.readObject(ctx, id, rdf.ClassAgent)
	if err != nil {
		return nil, err
	}
	a, err := codec.StatementsToAgent(ctx, stmts, s.ids)
	if err != nil {
		return nil, wrap(id, "decode agent", err)
	}
	return a, nil
}

// ReadEvent returns the stored event.
func (s *Service) ReadEvent(ctx context.Context, id rdf.IRI) (event.Event, error) {
	stmts, err := s.readGraph(ctx, id, rdf.ClassEvent)
	if err != nil {
		return nil, err
	}
	ev, err := event.FromStatements(stmts)
	if err != nil {
		return nil, wrap(id, "decode event", err)
	}
	return ev, nil
}

// ObjectStatements returns the statements of a DiSCO, agent or event
// graph. Tombstoned and deleted objects fail with a GONE error.
func (s *Service) ObjectStatements(ctx context.Context, id rdf.IRI) ([]rdf.Statement, error) {
	typ, err := s.ObjectType(ctx, id)
	if err != nil {
		return nil, err
	}
	if typ == TypeEvent {
		return s.readGraph(ctx, id, rdf.ClassEvent)
	}
	class := rdf.ClassDiSCO
	if typ == TypeAgent {
		class = rdf.ClassAgent
	}
	return s.readObject(ctx, id, class)
}

func (s *Service) readObject(ctx context.Context, id, class rdf.IRI) ([]rdf.Statement, error) {
	if id.IsZero() {
		return nil, newValidationError(id, "id is required")
	}
	status, err := statusOf(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if status.IsTerminal() {
		return nil, NewGoneError(id, status)
	}
	return s.readGraph(ctx, id, class)
}

func (s *Service) readGraph(ctx context.Context, id, class rdf.IRI) ([]rdf.Statement, error) {
	if id.IsZero() {
		return nil, newValidationError(id, "id is required")
	}
	ok, err := hasType(ctx, s.store, id, class)
	if err != nil {
		return nil, wrap(id, "read object type", err)
	}
	if !ok {
		return nil, newNotFoundError(id)
	}
	stmts, err := s.store.ContextStatements(ctx, id)
	if err != nil {
		return nil, wrap(id, "read statements", err)
	}
	return stmts, nil
}

// ObjectType returns the class of id. Deleted objects keep the target type
// recorded on their Deletion event.
func (s *Service) ObjectType(ctx context.Context, id rdf.IRI) (ObjectType, error) {
	if id.IsZero() {
		return "", newValidationError(id, "id is required")
	}
	typed, err := s.store.GetStatements(ctx, store.Pattern{Subject: id, Predicate: rdf.RDFType, Context: id})
	if err != nil {
		return "", wrap(id, "read object type", err)
	}
	for _, st := range typed {
		if class, ok := st.Object.(rdf.IRI); ok {
			if t, ok := classTypes[class]; ok {
				return t, nil
			}
		}
	}

	target, err := firstIRI(ctx, s.store, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.RMapDeletedObject, queryir.C(id)),
			eventLink(rdf.RMapEventTargetType, vOther),
		},
		Project: []queryir.Var{vOther},
	}, vOther)
	if err != nil {
		return "", wrap(id, "read deletion event", err)
	}
	if tt, ok := event.TargetTypeFromIRI(target); ok {
		return ObjectType(tt), nil
	}
	return "", newNotFoundError(id)
}

// eventPayloadPredicates link an event to the objects it affected.
var eventPayloadPredicates = []rdf.Term{
	rdf.PROVGenerated,
	rdf.RMapHasSourceObject,
	rdf.RMapDerivedObject,
	rdf.RMapInactivatedObject,
	rdf.RMapTombstonedObject,
	rdf.RMapDeletedObject,
	rdf.RMapUpdatedObject,
}

// ObjectEvents returns the events that affected id, oldest first.
func (s *Service) ObjectEvents(ctx context.Context, id rdf.IRI) ([]rdf.IRI, error) {
	if id.IsZero() {
		return nil, newValidationError(id, "id is required")
	}
	pred := queryir.Var("p")
	rows, err := s.store.ExecuteGraphQuery(ctx, queryir.Select{
		Where: []queryir.Pattern{
			{Subject: vEvent, Predicate: pred, Object: queryir.C(id), Context: vEvent},
			eventTypePattern(vEvent),
			eventLink(rdf.PROVStartedAtTime, vTime),
		},
		Filter:   queryir.In{Var: pred, Values: eventPayloadPredicates},
		Project:  []queryir.Var{vTime, vEvent},
		Distinct: true,
		OrderBy:  []queryir.Order{{Var: vTime}},
	})
	if err != nil {
		return nil, wrap(id, "read object events", err)
	}
	out := make([]rdf.IRI, 0, len(rows))
	seen := make(map[rdf.IRI]bool, len(rows))
	for _, row := range rows {
		if e := row.IRI(vEvent); e != "" && !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, newNotFoundError(id)
	}
	return out, nil
}
