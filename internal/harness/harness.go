package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/discodoc"
	"github.com/roach88/provstore/internal/event"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
	"github.com/roach88/provstore/internal/testutil"
	"github.com/roach88/provstore/internal/versioning"
)

// IDPrefix prefixes every id minted while a scenario runs.
const IDPrefix = "urn:test:"

const defaultIdentityProvider = rdf.IRI("urn:test:idp")

// Harness executes one scenario against its own store.
type Harness struct {
	svc    *versioning.Service
	dir    string
	logger *slog.Logger

	// names maps "as" bindings to ids; aliases is the reverse.
	names   map[string]rdf.IRI
	aliases map[rdf.IRI]string
}

type runConfig struct {
	driver string
	logger *slog.Logger
}

// Option configures Run.
type Option func(*runConfig)

// WithDriver selects the SQLite driver of the scenario store.
func WithDriver(name string) Option {
	return func(c *runConfig) { c.driver = name }
}

// WithLogger sets the logger passed to the store and service. Logs are
// discarded by default.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) { c.logger = l }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh database in a temporary directory, with
// sequential ids (urn:test:1, urn:test:2, ...) and a clock that advances
// one second per reading from testutil.DefaultEpoch. A step that does not
// have its expected outcome, or an assertion that does not hold, fails the
// result; a scenario that cannot be executed at all returns an error.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{
		driver: store.DriverCGO,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	tmp, err := os.MkdirTemp("", "provstore-scenario-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario directory: %w", err)
	}
	defer os.RemoveAll(tmp)

	st, err := store.Open(filepath.Join(tmp, "scenario.db"),
		store.WithDriver(cfg.driver), store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create scenario store: %w", err)
	}
	defer st.Close()

	svcOpts := []versioning.Option{
		versioning.WithClock(testutil.NewStepClock(time.Time{}, time.Second)),
		versioning.WithLogger(cfg.logger),
	}
	if scenario.Admin != "" {
		svcOpts = append(svcOpts, versioning.WithAdmin(rdf.IRI(scenario.Admin)))
	}
	svc, err := versioning.New(st, testutil.NewSequenceIDs(IDPrefix), svcOpts...)
	if err != nil {
		return nil, err
	}

	h := &Harness{
		svc:     svc,
		dir:     scenario.Dir,
		logger:  cfg.logger,
		names:   make(map[string]rdf.IRI),
		aliases: make(map[rdf.IRI]string),
	}

	if err := h.createAgents(ctx, scenario); err != nil {
		return nil, fmt.Errorf("failed to create agents: %w", err)
	}

	result := NewResult()
	if err := h.executeFlow(ctx, scenario.Flow, result); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	for i, a := range scenario.Assertions {
		if err := h.evaluate(ctx, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d] %s: %v", i, a.Type, err))
		}
	}
	return result, nil
}

// createAgents registers the setup agents and the admin, each created by
// itself.
func (h *Harness) createAgents(ctx context.Context, s *Scenario) error {
	agents := append([]AgentSetup(nil), s.Agents...)
	if s.Admin != "" && !hasAgent(agents, s.Admin) {
		agents = append(agents, AgentSetup{ID: s.Admin, Name: "Administrator"})
	}

	for _, a := range agents {
		id := rdf.IRI(a.ID)
		agent := &codec.Agent{
			ID:               id,
			Name:             rdf.NewLiteral(a.Name),
			IdentityProvider: defaultIdentityProvider,
			AuthID:           id + "#auth",
		}
		if a.IdentityProvider != "" {
			agent.IdentityProvider = rdf.IRI(a.IdentityProvider)
		}
		if a.AuthID != "" {
			agent.AuthID = rdf.IRI(a.AuthID)
		}
		if _, err := h.svc.CreateAgent(ctx, agent, versioning.Request{Agent: id}); err != nil {
			return fmt.Errorf("agent %s: %w", a.ID, err)
		}
	}
	return nil
}

func hasAgent(agents []AgentSetup, id string) bool {
	for _, a := range agents {
		if a.ID == id {
			return true
		}
	}
	return false
}

// executeFlow runs the flow steps in order and checks each outcome
// against its expect clause.
func (h *Harness) executeFlow(ctx context.Context, flow []Step, result *Result) error {
	for i, step := range flow {
		te := TraceEvent{Seq: i + 1, Op: step.Op, Agent: step.Agent, Target: step.Target}

		ev, opErr, err := h.execute(ctx, i, step)
		if err != nil {
			return fmt.Errorf("flow[%d] %s: %w", i, step.Op, err)
		}

		if opErr != nil {
			te.Error = string(versioning.CodeOf(opErr))
		} else {
			te.Event = string(ev.Kind())
			created := event.CreatedObjects(ev)
			if step.As != "" && len(created) > 0 {
				h.bind(step.As, created[0])
			}
			for _, id := range created {
				te.Created = append(te.Created, h.display(id))
			}
		}
		result.Trace = append(result.Trace, te)

		for _, msg := range h.checkExpect(step, ev, opErr) {
			result.AddError(fmt.Sprintf("flow[%d] %s: %s", i, step.Op, msg))
		}

		h.logger.Info("flow step completed",
			"step", i,
			"op", step.Op,
			"event", te.Event,
			"error", te.Error,
		)
	}
	return nil
}

// execute performs one step. opErr is the service's answer; err means the
// step itself could not be prepared.
func (h *Harness) execute(ctx context.Context, i int, step Step) (ev event.Event, opErr, err error) {
	agent, err := h.resolve(step.Agent)
	if err != nil {
		return nil, nil, err
	}
	req := versioning.Request{Agent: agent}

	var target rdf.IRI
	if step.Target != "" {
		if target, err = h.resolve(step.Target); err != nil {
			return nil, nil, err
		}
	}

	switch step.Op {
	case OpCreateAgent:
		a := &codec.Agent{
			ID:               rdf.IRI(step.ID),
			Name:             rdf.NewLiteral(step.Name),
			IdentityProvider: defaultIdentityProvider,
			AuthID:           rdf.IRI(fmt.Sprintf("%sauth:%d", IDPrefix, i+1)),
		}
		ev, opErr = h.svc.CreateAgent(ctx, a, req)
	case OpUpdateAgent:
		current, readErr := h.svc.ReadAgent(ctx, target)
		if readErr != nil {
			return nil, readErr, nil
		}
		current.Name = rdf.NewLiteral(step.Name)
		ev, opErr = h.svc.UpdateAgent(ctx, current, req)
	case OpCreateDiSCO:
		d, docErr := h.document(i, step)
		if docErr != nil {
			return nil, nil, docErr
		}
		ev, opErr = h.svc.CreateDiSCO(ctx, d, req)
	case OpUpdateDiSCO:
		d, docErr := h.document(i, step)
		if docErr != nil {
			return nil, nil, docErr
		}
		ev, opErr = h.svc.UpdateDiSCO(ctx, target, d, req)
	case OpInactivateDiSCO:
		ev, opErr = h.svc.InactivateDiSCO(ctx, target, req)
	case OpTombstoneDiSCO:
		ev, opErr = h.svc.TombstoneDiSCO(ctx, target, req)
	case OpDeleteDiSCO:
		ev, opErr = h.svc.DeleteDiSCO(ctx, target, req)
	default:
		return nil, nil, fmt.Errorf("unknown op %q", step.Op)
	}
	return ev, opErr, nil
}

func (h *Harness) document(i int, step Step) (*codec.DiSCO, error) {
	if step.Document == "" {
		return discodoc.Parse([]byte(step.DiSCO), fmt.Sprintf("flow[%d].disco", i))
	}
	path := step.Document
	if !filepath.IsAbs(path) {
		path = filepath.Join(h.dir, path)
	}
	return discodoc.LoadFile(path)
}

func (h *Harness) checkExpect(step Step, ev event.Event, opErr error) []string {
	var expect Expect
	if step.Expect != nil {
		expect = *step.Expect
	}

	if expect.Error == "" {
		if opErr != nil {
			return []string{fmt.Sprintf("unexpected error: %v", opErr)}
		}
		if expect.Event != "" && string(ev.Kind()) != expect.Event {
			return []string{fmt.Sprintf("expected %s event, got %s", expect.Event, ev.Kind())}
		}
		return nil
	}

	if opErr == nil {
		return []string{fmt.Sprintf("expected %s error, got %s event", expect.Error, ev.Kind())}
	}
	if got := string(versioning.CodeOf(opErr)); got != expect.Error {
		return []string{fmt.Sprintf("expected %s error, got %s: %v", expect.Error, got, opErr)}
	}
	if expect.Latest != "" {
		want, err := h.resolve(expect.Latest)
		if err != nil {
			return []string{err.Error()}
		}
		var verr *versioning.Error
		if !errors.As(opErr, &verr) || verr.Latest != want {
			return []string{fmt.Sprintf("expected latest version %s, got error %v", expect.Latest, opErr)}
		}
	}
	return nil
}

func (h *Harness) bind(name string, id rdf.IRI) {
	h.names[name] = id
	h.aliases[id] = name
}

// resolve turns "$name" into the bound id; anything else is an IRI.
func (h *Harness) resolve(ref string) (rdf.IRI, error) {
	name, ok := strings.CutPrefix(ref, "$")
	if !ok {
		return rdf.IRI(ref), nil
	}
	id, bound := h.names[name]
	if !bound {
		return "", fmt.Errorf("unknown name %q", ref)
	}
	return id, nil
}

func (h *Harness) resolveAll(refs []string) ([]rdf.IRI, error) {
	out := make([]rdf.IRI, 0, len(refs))
	for _, ref := range refs {
		id, err := h.resolve(ref)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// display renders id as "$name" when it is bound.
func (h *Harness) display(id rdf.IRI) string {
	if name, ok := h.aliases[id]; ok {
		return "$" + name
	}
	return string(id)
}

func (h *Harness) displayAll(ids []rdf.IRI) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = h.display(id)
	}
	return out
}
