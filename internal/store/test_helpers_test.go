package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/provstore/internal/rdf"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const (
	discoA = rdf.IRI("urn:test:disco-a")
	discoB = rdf.IRI("urn:test:disco-b")
	agent1 = rdf.IRI("urn:test:agent-1")
)

// createTestStatements returns a small DiSCO-shaped graph in context c.
func createTestStatements(c rdf.IRI) []rdf.Statement {
	return []rdf.Statement{
		rdf.MustStatement(c, rdf.RDFType, rdf.ClassDiSCO, c),
		rdf.MustStatement(c, rdf.OREAggregates, rdf.IRI("http://example.org/a"), c),
		rdf.MustStatement(c, rdf.DCDescription, rdf.NewLangLiteral("a description", "en"), c),
		rdf.MustStatement(rdf.IRI("http://example.org/a"), rdf.DCTermsCreator, rdf.BlankNode("b0"), c),
	}
}
