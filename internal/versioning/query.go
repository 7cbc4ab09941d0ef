package versioning

import (
	"context"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
)

var (
	vSubj  = queryir.Var("s")
	vPred  = queryir.Var("p")
	vObj   = queryir.Var("o")
	vDiSCO = queryir.Var("disco")
)

// mentions matches every DiSCO statement with resource as subject or
// object.
func mentions(resource rdf.IRI) ([]queryir.Pattern, queryir.Predicate) {
	return []queryir.Pattern{
			{Subject: vSubj, Predicate: vPred, Object: vObj, Context: vDiSCO},
			typePattern(vDiSCO, rdf.ClassDiSCO),
		}, queryir.Or{Predicates: []queryir.Predicate{
			queryir.Equals{Var: vSubj, Value: resource},
			queryir.Equals{Var: vObj, Value: resource},
		}}
}

func (s *Service) runQuery(ctx context.Context, op string, f Filter, q queryir.Select) ([]queryir.Binding, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	q.Limit = f.Limit
	q.Offset = f.Offset
	rows, err := s.store.ExecuteGraphQuery(ctx, q)
	if err != nil {
		return nil, wrap("", op, err)
	}
	s.logger.Debug("query executed", "query", op, "filter", f.String(), "rows", len(rows))
	return rows, nil
}

func column(rows []queryir.Binding, v queryir.Var) []rdf.IRI {
	out := make([]rdf.IRI, 0, len(rows))
	for _, row := range rows {
		if id := row.IRI(v); id != "" {
			out = append(out, id)
		}
	}
	return out
}

// ResourceRelatedStatements returns the DiSCO statements that mention
// resource as subject or object, with the DiSCO id as context.
func (s *Service) ResourceRelatedStatements(ctx context.Context, resource rdf.IRI, f Filter) ([]rdf.Statement, error) {
	if resource.IsZero() {
		return nil, newValidationError("", "resource is required")
	}
	where, match := mentions(resource)
	rows, err := s.runQuery(ctx, "resource_related_statements", f, queryir.Select{
		Where:    where,
		Filter:   queryir.And{Predicates: []queryir.Predicate{match, f.objectPredicate(vDiSCO)}},
		Project:  []queryir.Var{vSubj, vPred, vObj, vDiSCO},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	out := make([]rdf.Statement, 0, len(rows))
	for _, row := range rows {
		st, err := row.Statement(vSubj, vPred, vObj, vDiSCO)
		if err != nil {
			return nil, wrap(resource, "decode statement", err)
		}
		out = append(out, st)
	}
	return out, nil
}

// ResourceRelatedObjects returns the DiSCOs that mention resource.
func (s *Service) ResourceRelatedObjects(ctx context.Context, resource rdf.IRI, f Filter) ([]rdf.IRI, error) {
	if resource.IsZero() {
		return nil, newValidationError("", "resource is required")
	}
	where, match := mentions(resource)
	rows, err := s.runQuery(ctx, "resource_related_objects", f, queryir.Select{
		Where:    where,
		Filter:   queryir.And{Predicates: []queryir.Predicate{match, f.objectPredicate(vDiSCO)}},
		Project:  []queryir.Var{vDiSCO},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	return column(rows, vDiSCO), nil
}

// ResourceRelatedEvents returns the events that affected a DiSCO
// mentioning resource. The status filter applies to the DiSCO; the date
// and agent window applies to the event.
func (s *Service) ResourceRelatedEvents(ctx context.Context, resource rdf.IRI, f Filter) ([]rdf.IRI, error) {
	if resource.IsZero() {
		return nil, newValidationError("", "resource is required")
	}
	where, match := mentions(resource)
	link := queryir.Var("link")
	where = append(where,
		queryir.Pattern{Subject: vEvent, Predicate: link, Object: vDiSCO, Context: vEvent},
		eventTypePattern(vEvent),
	)
	preds := append([]queryir.Predicate{match, queryir.In{Var: link, Values: eventPayloadPredicates}},
		f.statusPredicates(vDiSCO, "f")...)
	if f.hasWindow() {
		patterns, window := f.windowPredicate(vEvent, "w")
		preds = append(preds, queryir.Exists{Where: patterns, Filter: window})
	}

	rows, err := s.runQuery(ctx, "resource_related_events", f, queryir.Select{
		Where:    where,
		Filter:   queryir.And{Predicates: preds},
		Project:  []queryir.Var{vEvent},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	return column(rows, vEvent), nil
}

// StatementRelatedObjects returns the DiSCOs that contain the triple of st.
// st's context is ignored.
func (s *Service) StatementRelatedObjects(ctx context.Context, st rdf.Statement, f Filter) ([]rdf.IRI, error) {
	if err := st.WithContext("").Validate(); err != nil {
		return nil, wrap("", "statement related objects", err)
	}
	rows, err := s.runQuery(ctx, "statement_related_objects", f, queryir.Select{
		Where: []queryir.Pattern{
			{Subject: queryir.C(st.Subject), Predicate: queryir.C(st.Predicate), Object: queryir.C(st.Object), Context: vDiSCO},
			typePattern(vDiSCO, rdf.ClassDiSCO),
		},
		Filter:   f.objectPredicate(vDiSCO),
		Project:  []queryir.Var{vDiSCO},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	return column(rows, vDiSCO), nil
}

// AgentObjects returns the DiSCOs generated by events agent performed.
func (s *Service) AgentObjects(ctx context.Context, agent rdf.IRI, f Filter) ([]rdf.IRI, error) {
	if agent.IsZero() {
		return nil, newValidationError("", "agent is required")
	}
	rows, err := s.runQuery(ctx, "agent_objects", f, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.PROVWasAssociatedWith, queryir.C(agent)),
			eventLink(rdf.PROVGenerated, vDiSCO),
			typePattern(vDiSCO, rdf.ClassDiSCO),
		},
		Filter:   f.objectPredicate(vDiSCO),
		Project:  []queryir.Var{vDiSCO},
		Distinct: true,
	})
	if err != nil {
		return nil, err
	}
	return column(rows, vDiSCO), nil
}
