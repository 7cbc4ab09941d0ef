package versioning

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/event"
	"github.com/roach88/provstore/internal/publish"
	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/store"
	"github.com/roach88/provstore/internal/testutil"
)

const (
	agentA = rdf.IRI("urn:agent:a")
	agentB = rdf.IRI("urn:agent:b")
	admin  = rdf.IRI("urn:agent:admin")

	res1 = rdf.IRI("http://example.org/res/1")
	res2 = rdf.IRI("http://example.org/res/2")
	res3 = rdf.IRI("http://example.org/res/3")

	dcTitle = rdf.IRI("http://purl.org/dc/terms/title")
)

// createTestService opens a fresh store with deterministic ids and clock,
// and registers agentA, agentB and admin as agents.
func createTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	base := []Option{
		WithAdmin(admin),
		WithClock(testutil.NewStepClock(time.Time{}, time.Second)),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	s, err := New(st, testutil.NewSequenceIDs("urn:test:"), append(base, opts...)...)
	require.NoError(t, err)

	for _, a := range []rdf.IRI{agentA, agentB, admin} {
		_, err := s.CreateAgent(context.Background(), testAgent(a, "agent "+string(a)), Request{Agent: a})
		require.NoError(t, err)
	}
	return s
}

func testAgent(id rdf.IRI, name string) *codec.Agent {
	return &codec.Agent{
		ID:               id,
		Name:             rdf.NewLiteral(name),
		IdentityProvider: rdf.IRI("https://idp.example.org"),
		AuthID:           rdf.IRI("https://idp.example.org/users/" + name),
	}
}

// testDiSCO aggregates res1 and res2 and titles res1.
func testDiSCO(id rdf.IRI, title string) *codec.DiSCO {
	return &codec.DiSCO{
		ID:          id,
		Aggregated:  []rdf.IRI{res1, res2},
		Description: rdf.NewLiteral("test disco"),
		Related: []rdf.Statement{
			{Subject: res1, Predicate: dcTitle, Object: rdf.NewLiteral(title)},
		},
	}
}

func req(agent rdf.IRI) Request {
	return Request{Agent: agent}
}

// mustCreate creates a DiSCO and returns its id.
func mustCreate(t *testing.T, s *Service, d *codec.DiSCO, agent rdf.IRI) rdf.IRI {
	t.Helper()
	ev, err := s.CreateDiSCO(context.Background(), d, req(agent))
	require.NoError(t, err)
	created := event.CreatedObjects(ev)
	require.Len(t, created, 1)
	return created[0]
}

func statementCount(t *testing.T, s *Service) int {
	t.Helper()
	n, err := s.Store().CountStatements(context.Background(), store.Pattern{})
	require.NoError(t, err)
	return n
}

// recordingPublisher keeps every message it is given.
type recordingPublisher struct {
	mu   sync.Mutex
	msgs []publish.Message
	err  error
}

func (p *recordingPublisher) Publish(ctx context.Context, msg publish.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, msg)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) messages() []publish.Message {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]publish.Message(nil), p.msgs...)
}
