package timegate

import (
	"fmt"
	"time"

	"github.com/roach88/provstore/internal/rdf"
)

// TimeGate picks the version that was current at a requested time.
type TimeGate struct {
	versions *ResourceVersions
}

// New creates a TimeGate over versions.
func New(versions *ResourceVersions) (*TimeGate, error) {
	g := &TimeGate{}
	if err := g.SetVersions(versions); err != nil {
		return nil, err
	}
	return g, nil
}

// FromMap builds the index and the gate in one step.
func FromMap(versions map[time.Time]rdf.IRI) (*TimeGate, error) {
	rv, err := NewResourceVersions(versions)
	if err != nil {
		return nil, err
	}
	return New(rv)
}

// SetVersions replaces the index the gate resolves against. A gate cannot
// operate without candidates, so an index with no versions is rejected.
func (g *TimeGate) SetVersions(versions *ResourceVersions) error {
	if versions.Size() == 0 {
		return fmt.Errorf("%w: time gate needs at least one version", ErrInvalidArgument)
	}
	g.versions = versions
	return nil
}

// Resolve returns the version current at date:
//
//   - zero date: the newest version
//   - a version dated exactly date: that version
//   - date before the first version: the first version
//   - otherwise: the newest version dated before date
func (g *TimeGate) Resolve(date time.Time) (rdf.IRI, error) {
	if g == nil || g.versions.Size() == 0 {
		return "", ErrNotInitialized
	}
	if date.IsZero() {
		last, err := g.versions.Last()
		return last.ID, err
	}

	exact, err := g.versions.VersionIRI(date)
	if err != nil || exact != "" {
		return exact, err
	}
	first, err := g.versions.First()
	if err != nil {
		return "", err
	}
	if date.Before(first.Date) {
		return first.ID, nil
	}
	prev, _, err := g.versions.Previous(date)
	return prev.ID, err
}
