package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/roach88/provstore/internal/rdf"
)

// SequenceIDs mints predictable identifiers: <prefix>1, <prefix>2, ...
//
// This enables deterministic test execution and golden trace comparison.
// The same scenario with the same SequenceIDs produces byte-identical
// statements.
//
// Thread-safety: SequenceIDs is safe for concurrent use via internal mutex.
type SequenceIDs struct {
	mu     sync.Mutex
	prefix string
	seq    int
}

// NewSequenceIDs creates a supplier. An empty prefix means "urn:test:".
func NewSequenceIDs(prefix string) *SequenceIDs {
	if prefix == "" {
		prefix = "urn:test:"
	}
	return &SequenceIDs{prefix: prefix}
}

// CreateID returns the next identifier.
func (s *SequenceIDs) CreateID(ctx context.Context) (rdf.IRI, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	return rdf.IRI(fmt.Sprintf("%s%d", s.prefix, s.seq)), nil
}

// Issued returns how many identifiers were minted.
func (s *SequenceIDs) Issued() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seq
}

// Reset restarts the sequence at 1.
func (s *SequenceIDs) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq = 0
}
