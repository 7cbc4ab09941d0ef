package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/roach88/provstore/internal/rdf"
	"github.com/roach88/provstore/internal/timegate"
	"github.com/roach88/provstore/internal/versioning"
)

// AssertionError is returned when an assertion does not hold.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("expected %s, got %s", e.Expected, e.Actual)
}

// evaluate checks one assertion against the store. It returns an
// *AssertionError when the assertion does not hold and a plain error when
// it could not be evaluated.
func (h *Harness) evaluate(ctx context.Context, a Assertion) error {
	if a.Type == AssertRelated {
		return h.assertRelated(ctx, a)
	}

	target, err := h.resolve(a.Target)
	if err != nil {
		return err
	}

	switch a.Type {
	case AssertStatus:
		status, err := h.svc.Status(ctx, target)
		if err != nil {
			return err
		}
		return h.compare(a, a.Equals, string(status))
	case AssertType:
		typ, err := h.svc.ObjectType(ctx, target)
		if err != nil {
			return err
		}
		return h.compare(a, a.Equals, string(typ))
	case AssertCreator:
		return h.assertID(ctx, a, h.svc.Creator, target)
	case AssertLatest:
		return h.assertID(ctx, a, h.svc.LatestVersion, target)
	case AssertPrevious:
		return h.assertID(ctx, a, h.svc.PreviousVersion, target)
	case AssertNext:
		return h.assertID(ctx, a, h.svc.NextVersion, target)
	case AssertVersions:
		return h.assertList(ctx, a, h.svc.AllVersions, target)
	case AssertAgentVersions:
		return h.assertList(ctx, a, h.svc.AgentVersions, target)
	case AssertTimeGate:
		return h.assertTimeGate(ctx, a, target)
	case AssertEventCount:
		events, err := h.svc.ObjectEvents(ctx, target)
		if err != nil && !versioning.IsNotFound(err) {
			return err
		}
		if len(events) != *a.Count {
			return &AssertionError{
				Type:     a.Type,
				Expected: fmt.Sprintf("%d events for %s", *a.Count, a.Target),
				Actual:   fmt.Sprintf("%d", len(events)),
			}
		}
		return nil
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func (h *Harness) compare(a Assertion, want, got string) error {
	if want == got {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s of %s to be %q", a.Type, a.Target, want),
		Actual:   fmt.Sprintf("%q", got),
	}
}

func (h *Harness) assertID(ctx context.Context, a Assertion, get func(context.Context, rdf.IRI) (rdf.IRI, error), target rdf.IRI) error {
	got, err := get(ctx, target)
	if err != nil {
		return err
	}
	want := rdf.IRI("")
	if a.Equals != "" {
		if want, err = h.resolve(a.Equals); err != nil {
			return err
		}
	}
	if got == want {
		return nil
	}
	return h.compare(a, a.Equals, h.display(got))
}

func (h *Harness) assertList(ctx context.Context, a Assertion, get func(context.Context, rdf.IRI) ([]rdf.IRI, error), target rdf.IRI) error {
	got, err := get(ctx, target)
	if err != nil {
		return err
	}
	want, err := h.resolveAll(a.List)
	if err != nil {
		return err
	}
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("[%s]", strings.Join(a.List, " ")),
		Actual:   fmt.Sprintf("[%s]", strings.Join(h.displayAll(got), " ")),
	}
}

// assertTimeGate resolves a.At against the target's same-agent chain.
func (h *Harness) assertTimeGate(ctx context.Context, a Assertion, target rdf.IRI) error {
	versions, err := h.svc.AgentVersionsWithDates(ctx, target)
	if err != nil {
		return err
	}
	gate, err := timegate.FromMap(versions)
	if err != nil {
		return err
	}

	at, err := h.instant(a.At, versions)
	if err != nil {
		return err
	}
	got, err := gate.Resolve(at)
	if err != nil {
		return err
	}
	want, err := h.resolve(a.Equals)
	if err != nil {
		return err
	}
	if got == want {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("version at %q to be %s", a.At, a.Equals),
		Actual:   h.display(got),
	}
}

// instant parses a timegate datetime. "$name" is the date of that version.
func (h *Harness) instant(at string, versions map[time.Time]rdf.IRI) (time.Time, error) {
	if at == "" {
		return time.Time{}, nil
	}
	if strings.HasPrefix(at, "$") {
		id, err := h.resolve(at)
		if err != nil {
			return time.Time{}, err
		}
		for date, v := range versions {
			if v == id {
				return date, nil
			}
		}
		return time.Time{}, fmt.Errorf("%s is not in the version chain", at)
	}
	t, err := time.Parse(time.RFC3339, at)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid datetime %q: %w", at, err)
	}
	return t, nil
}

// assertRelated compares the objects mentioning a.Resource, in any order.
func (h *Harness) assertRelated(ctx context.Context, a Assertion) error {
	status, err := versioning.ParseStatusFilter(a.Status)
	if err != nil {
		return err
	}
	resource, err := h.resolve(a.Resource)
	if err != nil {
		return err
	}
	got, err := h.svc.ResourceRelatedObjects(ctx, resource, versioning.Filter{Status: status})
	if err != nil {
		return err
	}
	want, err := h.resolveAll(a.List)
	if err != nil {
		return err
	}

	slices.Sort(got)
	slices.Sort(want)
	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     a.Type,
		Expected: fmt.Sprintf("%s objects mentioning %s: [%s]", status, a.Resource, strings.Join(h.displayAll(want), " ")),
		Actual:   fmt.Sprintf("[%s]", strings.Join(h.displayAll(got), " ")),
	}
}
