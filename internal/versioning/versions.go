package versioning

import (
	"context"
	"fmt"
	"time"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
)

// Version is one member of a lineage or agent chain. Date is the end time
// of the event that generated it.
type Version struct {
	ID   rdf.IRI
	Date time.Time
}

var (
	vEvent  = queryir.Var("e")
	vObject = queryir.Var("obj")
	vTime   = queryir.Var("t")
	vOther  = queryir.Var("other")
)

func eventLink(predicate rdf.IRI, object queryir.Node) queryir.Pattern {
	return queryir.Pattern{Subject: vEvent, Predicate: queryir.C(predicate), Object: object, Context: vEvent}
}

// firstIRI runs q and returns the IRI bound to v in the first solution.
func firstIRI(ctx context.Context, g store.Graph, q queryir.Select, v queryir.Var) (rdf.IRI, error) {
	q.Limit = 1
	rows, err := g.ExecuteGraphQuery(ctx, q)
	if err != nil {
		return "", err
	}
	if len(rows) == 0 {
		return "", nil
	}
	return rows[0].IRI(v), nil
}

// generatedAt returns the end time of the earliest event that generated id.
func generatedAt(ctx context.Context, g store.Graph, id rdf.IRI) (time.Time, bool, error) {
	rows, err := g.ExecuteGraphQuery(ctx, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.PROVGenerated, queryir.C(id)),
			eventLink(rdf.PROVEndedAtTime, vTime),
		},
		Project: []queryir.Var{vTime},
		OrderBy: []queryir.Order{{Var: vTime}},
		Limit:   1,
	})
	if err != nil || len(rows) == 0 {
		return time.Time{}, false, err
	}
	t, err := rdf.ParseDateTime(rows[0][vTime].Value())
	if err != nil {
		return time.Time{}, false, fmt.Errorf("event end time for %s: %w", id, err)
	}
	return t, true, nil
}

// recordedProgenitor returns the lineage progenitor stated on the event
// that generated id, or "".
func recordedProgenitor(ctx context.Context, g store.Graph, id rdf.IRI) (rdf.IRI, error) {
	return firstIRI(ctx, g, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.PROVGenerated, queryir.C(id)),
			eventLink(rdf.RMapLineageProgenitor, vOther),
			eventLink(rdf.PROVStartedAtTime, vTime),
		},
		Project: []queryir.Var{vTime, vOther},
		OrderBy: []queryir.Order{{Var: vTime}},
	}, vOther)
}

// sourceOf returns the object id was derived from, by any agent, or "".
func sourceOf(ctx context.Context, g store.Graph, id rdf.IRI) (rdf.IRI, error) {
	return firstIRI(ctx, g, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.RMapDerivedObject, queryir.C(id)),
			eventLink(rdf.RMapHasSourceObject, vOther),
			eventLink(rdf.PROVStartedAtTime, vTime),
		},
		Project: []queryir.Var{vTime, vOther},
		OrderBy: []queryir.Order{{Var: vTime}},
	}, vOther)
}

// predecessorOf returns the version id superseded within its creator's
// chain, or "".
func predecessorOf(ctx context.Context, g store.Graph, id rdf.IRI) (rdf.IRI, error) {
	return firstIRI(ctx, g, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.RMapEventType, queryir.C(rdf.EventTypeUpdate)),
			eventLink(rdf.RMapDerivedObject, queryir.C(id)),
			eventLink(rdf.RMapInactivatedObject, vOther),
			eventLink(rdf.PROVStartedAtTime, vTime),
		},
		Project: []queryir.Var{vTime, vOther},
		OrderBy: []queryir.Order{{Var: vTime}},
	}, vOther)
}

// successorOf returns the version that superseded id within its creator's
// chain, or "".
func successorOf(ctx context.Context, g store.Graph, id rdf.IRI) (rdf.IRI, error) {
	return firstIRI(ctx, g, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.RMapEventType, queryir.C(rdf.EventTypeUpdate)),
			eventLink(rdf.RMapInactivatedObject, queryir.C(id)),
			eventLink(rdf.RMapDerivedObject, vOther),
			eventLink(rdf.PROVStartedAtTime, vTime),
		},
		Project: []queryir.Var{vTime, vOther},
		OrderBy: []queryir.Order{{Var: vTime}},
	}, vOther)
}

// progenitorOf resolves the lineage root of id. The progenitor recorded on
// the generating event wins; events without one inherit it from their
// source object.
func progenitorOf(ctx context.Context, g store.Graph, id rdf.IRI) (rdf.IRI, error) {
	seen := map[rdf.IRI]bool{}
	cur := id
	for !seen[cur] {
		seen[cur] = true
		p, err := recordedProgenitor(ctx, g, cur)
		if err != nil {
			return "", wrap(id, "read lineage progenitor", err)
		}
		if p != "" {
			return p, nil
		}
		src, err := sourceOf(ctx, g, cur)
		if err != nil {
			return "", wrap(id, "read source object", err)
		}
		if src == "" {
			break
		}
		cur = src
	}
	return cur, nil
}

// lineageMembers returns every object generated by an event of the
// lineage, ordered by generation time.
func lineageMembers(ctx context.Context, g store.Graph, progenitor rdf.IRI) ([]Version, error) {
	rows, err := g.ExecuteGraphQuery(ctx, queryir.Select{
		Where: []queryir.Pattern{
			eventLink(rdf.RMapLineageProgenitor, queryir.C(progenitor)),
			eventLink(rdf.PROVGenerated, vObject),
			eventLink(rdf.PROVEndedAtTime, vTime),
		},
		Project:  []queryir.Var{vTime, vObject},
		Distinct: true,
		OrderBy:  []queryir.Order{{Var: vTime}},
	})
	if err != nil {
		return nil, wrap(progenitor, "read lineage members", err)
	}
	return versionsFromRows(rows)
}

func versionsFromRows(rows []queryir.Binding) ([]Version, error) {
	out := make([]Version, 0, len(rows))
	seen := make(map[rdf.IRI]bool, len(rows))
	for _, row := range rows {
		id := row.IRI(vObject)
		if id == "" || seen[id] {
			continue
		}
		t, err := rdf.ParseDateTime(row[vTime].Value())
		if err != nil {
			return nil, wrap(id, "parse version date", err)
		}
		seen[id] = true
		out = append(out, Version{ID: id, Date: t})
	}
	return out, nil
}

// agentChain returns the same-agent chain containing id, oldest first.
func agentChain(ctx context.Context, g store.Graph, id rdf.IRI) ([]Version, error) {
	var back []rdf.IRI
	seen := map[rdf.IRI]bool{id: true}
	for cur := id; ; {
		prev, err := predecessorOf(ctx, g, cur)
		if err != nil {
			return nil, wrap(id, "read previous version", err)
		}
		if prev == "" || seen[prev] {
			break
		}
		seen[prev] = true
		back = append(back, prev)
		cur = prev
	}

	chain := make([]rdf.IRI, 0, len(back)+1)
	for i := len(back) - 1; i >= 0; i-- {
		chain = append(chain, back[i])
	}
	chain = append(chain, id)

	for cur := id; ; {
		next, err := successorOf(ctx, g, cur)
		if err != nil {
			return nil, wrap(id, "read next version", err)
		}
		if next == "" || seen[next] {
			break
		}
		seen[next] = true
		chain = append(chain, next)
		cur = next
	}

	out := make([]Version, 0, len(chain))
	for _, v := range chain {
		t, ok, err := generatedAt(ctx, g, v)
		if err != nil {
			return nil, wrap(v, "read version date", err)
		}
		if !ok {
			return nil, newNotFoundError(v)
		}
		out = append(out, Version{ID: v, Date: t})
	}
	return out, nil
}

func versionIDs(versions []Version) []rdf.IRI {
	out := make([]rdf.IRI, len(versions))
	for i, v := range versions {
		out[i] = v.ID
	}
	return out
}

// requireKnown fails with a not-found error when id was never generated.
func requireKnown(ctx context.Context, g store.Graph, id rdf.IRI) error {
	if id.IsZero() {
		return newValidationError(id, "id is required")
	}
	_, err := statusOf(ctx, g, id)
	return err
}

// LineageProgenitor returns the root of id's derivation graph.
func (s *Service) LineageProgenitor(ctx context.Context, id rdf.IRI) (rdf.IRI, error) {
	if err := requireKnown(ctx, s.store, id); err != nil {
		return "", err
	}
	return progenitorOf(ctx, s.store, id)
}

// LineageMembers returns every version in the lineage rooted at
// progenitor, across agents, ordered by generation time.
func (s *Service) LineageMembers(ctx context.Context, progenitor rdf.IRI) ([]Version, error) {
	if err := requireKnown(ctx, s.store, progenitor); err != nil {
		return nil, err
	}
	return lineageMembers(ctx, s.store, progenitor)
}

// AllVersions returns every version in id's lineage, including versions
// derived by other agents, oldest first.
func (s *Service) AllVersions(ctx context.Context, id rdf.IRI) ([]rdf.IRI, error) {
	if err := requireKnown(ctx, s.store, id); err != nil {
		return nil, err
	}
	p, err := progenitorOf(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	members, err := lineageMembers(ctx, s.store, p)
	if err != nil {
		return nil, err
	}
	return versionIDs(members), nil
}

// AgentVersions returns the same-agent chain containing id, oldest first.
func (s *Service) AgentVersions(ctx context.Context, id rdf.IRI) ([]rdf.IRI, error) {
	chain, err := s.agentVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	return versionIDs(chain), nil
}

// AgentVersionsWithDates returns the same-agent chain keyed by the end
// time of each version's generating event. This is the input of a
// timegate.TimeGate.
func (s *Service) AgentVersionsWithDates(ctx context.Context, id rdf.IRI) (map[time.Time]rdf.IRI, error) {
	chain, err := s.agentVersions(ctx, id)
	if err != nil {
		return nil, err
	}
	out := make(map[time.Time]rdf.IRI, len(chain))
	for _, v := range chain {
		out[v.Date] = v.ID
	}
	return out, nil
}

// LatestVersion returns the newest version in id's same-agent chain.
func (s *Service) LatestVersion(ctx context.Context, id rdf.IRI) (rdf.IRI, error) {
	chain, err := s.agentVersions(ctx, id)
	if err != nil {
		return "", err
	}
	return chain[len(chain)-1].ID, nil
}

// PreviousVersion returns the version id superseded, or "" when id is the
// first of its chain.
func (s *Service) PreviousVersion(ctx context.Context, id rdf.IRI) (rdf.IRI, error) {
	return s.neighbour(ctx, id, -1)
}

// NextVersion returns the version that superseded id, or "" when id is
// the latest.
func (s *Service) NextVersion(ctx context.Context, id rdf.IRI) (rdf.IRI, error) {
	return s.neighbour(ctx, id, +1)
}

func (s *Service) neighbour(ctx context.Context, id rdf.IRI, step int) (rdf.IRI, error) {
	chain, err := s.agentVersions(ctx, id)
	if err != nil {
		return "", err
	}
	for i, v := range chain {
		if v.ID != id {
			continue
		}
		if j := i + step; j >= 0 && j < len(chain) {
			return chain[j].ID, nil
		}
		return "", nil
	}
	return "", nil
}

func (s *Service) agentVersions(ctx context.Context, id rdf.IRI) ([]Version, error) {
	if err := requireKnown(ctx, s.store, id); err != nil {
		return nil, err
	}
	return agentChain(ctx, s.store, id)
}
