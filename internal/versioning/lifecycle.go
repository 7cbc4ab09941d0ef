package versioning

import (
	"context"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/event"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
)

// CreateDiSCO stores d and records a Creation event. An empty d.ID is
// minted; an empty d.Creator defaults to the requesting agent. Blank nodes
// in the related statements are replaced with minted ids.
func (s *Service) CreateDiSCO(ctx context.Context, d *codec.DiSCO, req Request) (event.Event, error) {
	if d == nil {
		return nil, newValidationError("", "disco is required")
	}
	if req.Agent.IsZero() {
		return nil, newValidationError(d.ID, "requesting agent is required")
	}
	disco := cloneDiSCO(d)

	return s.apply(ctx, "create_disco", disco.ID, func(ctx context.Context, tx *store.Tx) (event.Event, error) {
		if err := requireAgent(ctx, tx, req.Agent); err != nil {
			return nil, err
		}
		id, err := s.writeDiSCO(ctx, tx, disco, req)
		if err != nil {
			return nil, err
		}

		h, err := s.header(ctx, event.TargetDiSCO, req)
		if err != nil {
			return nil, err
		}
		h.LineageProgenitor = id
		ev, err := event.NewCreation(h, []rdf.IRI{id})
		if err != nil {
			return nil, wrap(id, "build creation event", err)
		}
		return ev, s.record(ctx, tx, ev)
	})
}

// UpdateDiSCO stores d as a new version of oldID.
//
// When the requesting agent created oldID, an Update event inactivates
// oldID and the new DiSCO becomes the next version in that agent's chain.
// Any other agent gets a Derivation event and oldID stays ACTIVE. Both
// inherit oldID's lineage progenitor.
//
// oldID must be the latest version of its chain and ACTIVE. A superseded
// oldID fails with a NOT_LATEST error carrying the latest version.
func (s *Service) UpdateDiSCO(ctx context.Context, oldID rdf.IRI, d *codec.DiSCO, req Request) (event.Event, error) {
	if oldID.IsZero() {
		return nil, newValidationError("", "id of the version to update is required")
	}
	if d == nil {
		return nil, newValidationError(oldID, "disco is required")
	}
	if req.Agent.IsZero() {
		return nil, newValidationError(oldID, "requesting agent is required")
	}
	disco := cloneDiSCO(d)

	return s.apply(ctx, "update_disco", oldID, func(ctx context.Context, tx *store.Tx) (event.Event, error) {
		if err := requireAgent(ctx, tx, req.Agent); err != nil {
			return nil, err
		}
		status, err := requireMutable(ctx, tx, oldID, rdf.ClassDiSCO)
		if err != nil {
			return nil, err
		}
		chain, err := agentChain(ctx, tx, oldID)
		if err != nil {
			return nil, err
		}
		if latest := chain[len(chain)-1].ID; latest != oldID {
			return nil, NewNotLatestError(oldID, latest)
		}
		if status != StatusActive {
			return nil, newConflictError(oldID, status, "only an active version can be updated")
		}
		if disco.ID == oldID {
			return nil, newValidationError(oldID, "new version must have a different id")
		}

		creator, err := creatorOf(ctx, tx, oldID)
		if err != nil {
			return nil, err
		}
		progenitor, err := progenitorOf(ctx, tx, oldID)
		if err != nil {
			return nil, err
		}
		newID, err := s.writeDiSCO(ctx, tx, disco, req)
		if err != nil {
			return nil, err
		}

		h, err := s.header(ctx, event.TargetDiSCO, req)
		if err != nil {
			return nil, err
		}
		h.LineageProgenitor = progenitor

		var ev event.Event
		if creator == req.Agent {
			ev, err = event.NewUpdate(h, oldID, newID, []rdf.IRI{newID})
		} else {
			ev, err = event.NewDerivation(h, oldID, newID, []rdf.IRI{newID})
		}
		if err != nil {
			return nil, wrap(oldID, "build update event", err)
		}
		return ev, s.record(ctx, tx, ev)
	})
}

// InactivateDiSCO marks id INACTIVE. Only the creator may do so.
func (s *Service) InactivateDiSCO(ctx context.Context, id rdf.IRI, req Request) (event.Event, error) {
	return s.transition(ctx, "inactivate_disco", id, req, func(ctx context.Context, tx *store.Tx, h event.Header, status Status, creator rdf.IRI) (event.Event, error) {
		if req.Agent != creator {
			return nil, newUnauthorizedError(id, req.Agent, "inactivate")
		}
		if status != StatusActive {
			return nil, newConflictError(id, status, "object is already %s", status)
		}
		return event.NewInactivation(h, id)
	})
}

// TombstoneDiSCO marks id TOMBSTONED. Its statements are kept but it is
// hidden from every query. The creator or the admin agent may do so.
func (s *Service) TombstoneDiSCO(ctx context.Context, id rdf.IRI, req Request) (event.Event, error) {
	return s.transition(ctx, "tombstone_disco", id, req, func(ctx context.Context, tx *store.Tx, h event.Header, status Status, creator rdf.IRI) (event.Event, error) {
		if !s.creatorOrAdmin(req.Agent, creator) {
			return nil, newUnauthorizedError(id, req.Agent, "tombstone")
		}
		return event.NewTombstone(h, id)
	})
}

// DeleteDiSCO removes id's statements and records a Deletion event. The
// creator or the admin agent may do so.
func (s *Service) DeleteDiSCO(ctx context.Context, id rdf.IRI, req Request) (event.Event, error) {
	return s.transition(ctx, "delete_disco", id, req, func(ctx context.Context, tx *store.Tx, h event.Header, status Status, creator rdf.IRI) (event.Event, error) {
		if !s.creatorOrAdmin(req.Agent, creator) {
			return nil, newUnauthorizedError(id, req.Agent, "delete")
		}
		n, err := tx.RemoveContext(ctx, id)
		if err != nil {
			return nil, wrap(id, "remove disco statements", err)
		}
		s.logger.Debug("removed disco statements", "id", id, "count", n)
		return event.NewDeletion(h, id)
	})
}

type transitionFunc func(ctx context.Context, tx *store.Tx, h event.Header, status Status, creator rdf.IRI) (event.Event, error)

// transition runs a single-object DiSCO state change. build decides
// whether the change is allowed and constructs the event.
func (s *Service) transition(ctx context.Context, op string, id rdf.IRI, req Request, build transitionFunc) (event.Event, error) {
	if id.IsZero() {
		return nil, newValidationError("", "id is required")
	}
	if req.Agent.IsZero() {
		return nil, newValidationError(id, "requesting agent is required")
	}

	return s.apply(ctx, op, id, func(ctx context.Context, tx *store.Tx) (event.Event, error) {
		if err := requireAgent(ctx, tx, req.Agent); err != nil {
			return nil, err
		}
		status, err := requireMutable(ctx, tx, id, rdf.ClassDiSCO)
		if err != nil {
			return nil, err
		}
		creator, err := creatorOf(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		progenitor, err := progenitorOf(ctx, tx, id)
		if err != nil {
			return nil, err
		}

		h, err := s.header(ctx, event.TargetDiSCO, req)
		if err != nil {
			return nil, err
		}
		h.LineageProgenitor = progenitor

		ev, err := build(ctx, tx, h, status, creator)
		if err != nil {
			return nil, wrap(id, op, err)
		}
		return ev, s.record(ctx, tx, ev)
	})
}

// CreateAgent stores a and records a Creation event targeting an agent.
// The requesting agent must exist unless it is the agent being created.
func (s *Service) CreateAgent(ctx context.Context, a *codec.Agent, req Request) (event.Event, error) {
	if a == nil {
		return nil, newValidationError("", "agent is required")
	}
	if req.Agent.IsZero() {
		return nil, newValidationError(a.ID, "requesting agent is required")
	}
	agent := *a

	return s.apply(ctx, "create_agent", agent.ID, func(ctx context.Context, tx *store.Tx) (event.Event, error) {
		id, err := s.mintObjectID(ctx, agent.ID)
		if err != nil {
			return nil, err
		}
		agent.ID = id
		if req.Agent != id {
			if err := requireAgent(ctx, tx, req.Agent); err != nil {
				return nil, err
			}
		}
		if err := requireUnused(ctx, tx, id); err != nil {
			return nil, err
		}

		stmts, err := codec.AgentToStatements(&agent)
		if err != nil {
			return nil, wrap(id, "encode agent", err)
		}
		if _, err := tx.AddStatements(ctx, stmts); err != nil {
			return nil, wrap(id, "write agent", err)
		}

		h, err := s.header(ctx, event.TargetAgent, req)
		if err != nil {
			return nil, err
		}
		h.LineageProgenitor = id
		ev, err := event.NewCreation(h, []rdf.IRI{id})
		if err != nil {
			return nil, wrap(id, "build creation event", err)
		}
		return ev, s.record(ctx, tx, ev)
	})
}

// UpdateAgent replaces the stored description of a.ID in place and
// records a Replace event. Agents keep their id across updates. The agent
// itself or the admin agent may do so.
func (s *Service) UpdateAgent(ctx context.Context, a *codec.Agent, req Request) (event.Event, error) {
	if a == nil || a.ID.IsZero() {
		return nil, newValidationError("", "agent with an id is required")
	}
	if req.Agent.IsZero() {
		return nil, newValidationError(a.ID, "requesting agent is required")
	}
	agent := *a
	id := agent.ID

	return s.apply(ctx, "update_agent", id, func(ctx context.Context, tx *store.Tx) (event.Event, error) {
		if err := requireAgent(ctx, tx, req.Agent); err != nil {
			return nil, err
		}
		if _, err := requireMutable(ctx, tx, id, rdf.ClassAgent); err != nil {
			return nil, err
		}
		if !s.creatorOrAdmin(req.Agent, id) {
			return nil, newUnauthorizedError(id, req.Agent, "update")
		}
		stmts, err := codec.AgentToStatements(&agent)
		if err != nil {
			return nil, wrap(id, "encode agent", err)
		}
		progenitor, err := progenitorOf(ctx, tx, id)
		if err != nil {
			return nil, err
		}
		if _, err := tx.RemoveContext(ctx, id); err != nil {
			return nil, wrap(id, "remove agent statements", err)
		}
		if _, err := tx.AddStatements(ctx, stmts); err != nil {
			return nil, wrap(id, "write agent", err)
		}

		h, err := s.header(ctx, event.TargetAgent, req)
		if err != nil {
			return nil, err
		}
		h.LineageProgenitor = progenitor
		ev, err := event.NewReplace(h, id)
		if err != nil {
			return nil, wrap(id, "build replace event", err)
		}
		return ev, s.record(ctx, tx, ev)
	})
}

// writeDiSCO assigns d's id and creator, replaces blank nodes and writes
// its statements. It returns the stored id.
func (s *Service) writeDiSCO(ctx context.Context, g store.Graph, d *codec.DiSCO, req Request) (rdf.IRI, error) {
	id, err := s.mintObjectID(ctx, d.ID)
	if err != nil {
		return "", err
	}
	d.ID = id
	if d.Creator.IsZero() {
		d.Creator = req.Agent
	}
	if err := requireUnused(ctx, g, id); err != nil {
		return "", err
	}
	if err := codec.ReplaceBlankNodes(ctx, d, s.ids); err != nil {
		return "", wrap(id, "replace blank nodes", err)
	}
	stmts, err := codec.DiSCOToStatements(d)
	if err != nil {
		return "", wrap(id, "encode disco", err)
	}
	if _, err := g.AddStatements(ctx, stmts); err != nil {
		return "", wrap(id, "write disco", err)
	}
	return id, nil
}

// requireMutable returns id's status after checking it exists, is not
// terminal and is typed as class.
func requireMutable(ctx context.Context, g store.Graph, id, class rdf.IRI) (Status, error) {
	status, err := statusOf(ctx, g, id)
	if err != nil {
		return "", err
	}
	if status.IsTerminal() {
		return status, NewGoneError(id, status)
	}
	ok, err := hasType(ctx, g, id, class)
	if err != nil {
		return "", wrap(id, "read object type", err)
	}
	if !ok {
		return "", newValidationError(id, "object is not a %s", localName(class))
	}
	return status, nil
}

func requireUnused(ctx context.Context, g store.Graph, id rdf.IRI) error {
	used, err := exists(ctx, g, id)
	if err != nil {
		return wrap(id, "check id", err)
	}
	if used {
		return newConflictError(id, "", "id is already in use")
	}
	return nil
}

func (s *Service) creatorOrAdmin(agent, creator rdf.IRI) bool {
	return agent == creator || (!s.admin.IsZero() && agent == s.admin)
}

func cloneDiSCO(d *codec.DiSCO) *codec.DiSCO {
	c := *d
	c.Aggregated = append([]rdf.IRI(nil), d.Aggregated...)
	c.Related = append([]rdf.Statement(nil), d.Related...)
	return &c
}

func localName(iri rdf.IRI) string {
	s := string(iri)
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '#' || s[i] == '/' {
			return s[i+1:]
		}
	}
	return s
}
