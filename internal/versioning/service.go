package versioning

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/roach88/provstore/internal/event"
	"github.com/roach88/provstore/internal/metrics"
	"github.com/roach88/provstore/internal/publish"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
)

// Service applies lifecycle operations and answers version queries.
//
// Thread-safety: Service is safe for concurrent use. Mutations are
// serialized by the store's single connection.
type Service struct {
	store     *store.Store
	ids       IDSupplier
	clock     Clock
	admin     rdf.IRI
	logger    *slog.Logger
	metrics   metrics.Collector
	publisher publish.Publisher
}

// Option configures a Service.
type Option func(*Service)

// WithAdmin sets the agent allowed to tombstone and delete any DiSCO.
func WithAdmin(agent rdf.IRI) Option {
	return func(s *Service) { s.admin = agent }
}

// WithClock sets the event clock. It is wrapped in a MonotonicClock.
func WithClock(c Clock) Option {
	return func(s *Service) { s.clock = NewMonotonicClock(c) }
}

// WithLogger sets the logger (default slog.Default()).
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics collector (default no-op).
func WithMetrics(c metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// WithPublisher mirrors committed events to p (default none).
func WithPublisher(p publish.Publisher) Option {
	return func(s *Service) { s.publisher = p }
}

// New creates a Service over st. ids mints every object and event
// identifier the service creates.
func New(st *store.Store, ids IDSupplier, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("versioning: store is required")
	}
	if ids == nil {
		return nil, fmt.Errorf("versioning: id supplier is required")
	}
	s := &Service{
		store:     st,
		ids:       ids,
		clock:     NewMonotonicClock(SystemClock{}),
		logger:    slog.Default(),
		metrics:   metrics.NewNoopCollector(),
		publisher: publish.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Admin returns the configured administrator agent, or "".
func (s *Service) Admin() rdf.IRI { return s.admin }

// Store returns the underlying graph store.
func (s *Service) Store() *store.Store { return s.store }

// Request carries the caller's side of a lifecycle operation.
type Request struct {
	// Agent performs the operation. Required.
	Agent rdf.IRI

	// Description is recorded on the event (dc:description); optional.
	Description rdf.Term

	// Key identifies the API key used (prov:used); optional.
	Key rdf.IRI
}

// mutation is the body of a lifecycle operation. It reads and writes
// through tx and returns the event it recorded.
type mutation func(ctx context.Context, tx *store.Tx) (event.Event, error)

// apply runs fn in a transaction, then records metrics and publishes the
// committed event.
func (s *Service) apply(ctx context.Context, op string, id rdf.IRI, fn mutation) (event.Event, error) {
	start := time.Now()

	ev, err := s.inTx(ctx, id, fn)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		s.metrics.RecordOperation(ctx, op, "error", duration)
		s.metrics.RecordError(ctx, op, string(CodeOf(err)))
		s.logger.Debug("operation rejected", "operation", op, "id", id, "error", err)
		return nil, err
	}

	h := ev.Base()
	s.metrics.RecordOperation(ctx, op, "success", duration)
	s.metrics.RecordEvent(ctx, string(ev.Kind()), string(h.TargetType))
	s.logger.Info("event committed",
		"operation", op,
		"event", h.ID,
		"kind", ev.Kind(),
		"agent", h.AssociatedAgent,
		"duration_ms", duration)

	if n, err := s.store.CountStatements(ctx, store.Pattern{}); err == nil {
		s.metrics.SetStatementCount(ctx, int64(n))
	}
	s.publish(ctx, ev)
	return ev, nil
}

func (s *Service) inTx(ctx context.Context, id rdf.IRI, fn mutation) (event.Event, error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, wrap(id, "begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	ev, err := fn(ctx, tx)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, wrap(id, "commit", err)
	}
	return ev, nil
}

// publish mirrors ev to the configured publisher. Failures are logged; the
// event is already committed.
func (s *Service) publish(ctx context.Context, ev event.Event) {
	h := ev.Base()
	msg := publish.Message{
		EventID:           string(h.ID),
		Kind:              string(ev.Kind()),
		TargetType:        string(h.TargetType),
		Agent:             string(h.AssociatedAgent),
		LineageProgenitor: string(h.LineageProgenitor),
		StartedAt:         h.StartTime,
		EndedAt:           h.EndTime,
	}
	for _, id := range event.AffectedObjects(ev) {
		msg.Objects = append(msg.Objects, string(id))
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("failed to publish event", "event", h.ID, "kind", ev.Kind(), "error", err)
	}
}

// header opens a new event on behalf of req.
func (s *Service) header(ctx context.Context, target event.TargetType, req Request) (event.Header, error) {
	id, err := s.ids.CreateID(ctx)
	if err != nil {
		return event.Header{}, wrap("", "mint event id", err)
	}
	if id.IsZero() {
		return event.Header{}, wrap("", "mint event id", fmt.Errorf("id supplier returned an empty id"))
	}
	return event.Header{
		ID:              id,
		TargetType:      target,
		AssociatedAgent: req.Agent,
		Description:     req.Description,
		StartTime:       s.clock.Now(),
		AssociatedKey:   req.Key,
	}, nil
}

// record closes ev and writes it through g.
func (s *Service) record(ctx context.Context, g store.Graph, ev event.Event) error {
	ev.Base().Finish(s.clock.Now())
	if _, err := g.AddStatements(ctx, ev.ToStatements()); err != nil {
		return wrap(ev.Base().ID, "write event", err)
	}
	return nil
}

// mintObjectID returns id, or a fresh identifier when id is empty.
func (s *Service) mintObjectID(ctx context.Context, id rdf.IRI) (rdf.IRI, error) {
	if !id.IsZero() {
		return id, nil
	}
	minted, err := s.ids.CreateID(ctx)
	if err != nil {
		return "", wrap("", "mint object id", err)
	}
	if minted.IsZero() {
		return "", wrap("", "mint object id", fmt.Errorf("id supplier returned an empty id"))
	}
	return minted, nil
}
