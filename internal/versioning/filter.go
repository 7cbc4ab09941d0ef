package versioning

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/provstore/internal/queryir"
	"github.com/roach88/provstore/internal/rdf"
)

// StatusFilter selects objects by status in queries. Tombstoned objects
// are excluded under every filter; deleted objects have no statements left
// to match.
type StatusFilter string

const (
	FilterActive   StatusFilter = "ACTIVE"
	FilterInactive StatusFilter = "INACTIVE"
	FilterAll      StatusFilter = "ALL"
)

// ParseStatusFilter accepts a filter name in any case. "" means ALL.
func ParseStatusFilter(s string) (StatusFilter, error) {
	switch f := StatusFilter(strings.ToUpper(strings.TrimSpace(s))); f {
	case "":
		return FilterAll, nil
	case FilterActive, FilterInactive, FilterAll:
		return f, nil
	default:
		return "", newValidationError("", "unknown status filter %q", s)
	}
}

// Filter narrows query results.
type Filter struct {
	// Status defaults to ALL.
	Status StatusFilter

	// From and Until bound the start time of the event that generated the
	// object (or of the event itself, for event queries). Zero means
	// unbounded. Both ends are inclusive.
	From  time.Time
	Until time.Time

	// Agents restricts results to objects generated by, or events
	// performed by, one of these agents. Empty means any agent.
	Agents []rdf.IRI

	// Limit 0 means no limit.
	Limit  int
	Offset int
}

// Validate checks the filter's arguments.
func (f Filter) Validate() error {
	switch f.Status {
	case "", FilterActive, FilterInactive, FilterAll:
	default:
		return newValidationError("", "unknown status filter %q", f.Status)
	}
	if f.Limit < 0 || f.Offset < 0 {
		return newValidationError("", "limit and offset must be non-negative")
	}
	if !f.From.IsZero() && !f.Until.IsZero() && f.Until.Before(f.From) {
		return newValidationError("", "date range ends before it starts")
	}
	return nil
}

func (f Filter) hasWindow() bool {
	return !f.From.IsZero() || !f.Until.IsZero() || len(f.Agents) > 0
}

// statusPredicates compiles the status part of f for the object bound to
// obj.
func (f Filter) statusPredicates(obj queryir.Var, scope string) []queryir.Predicate {
	tomb := queryir.Var(scope + "_tomb")
	inact := queryir.Var(scope + "_inact")
	preds := []queryir.Predicate{
		queryir.NotExists{Where: []queryir.Pattern{
			{Subject: tomb, Predicate: queryir.C(rdf.RMapTombstonedObject), Object: obj, Context: tomb},
		}},
	}
	inactivated := []queryir.Pattern{
		{Subject: inact, Predicate: queryir.C(rdf.RMapInactivatedObject), Object: obj, Context: inact},
	}
	switch f.Status {
	case FilterActive:
		preds = append(preds, queryir.NotExists{Where: inactivated})
	case FilterInactive:
		preds = append(preds, queryir.Exists{Where: inactivated})
	}
	return preds
}

// windowPredicate compiles the date range and agent set against the event
// bound to ev.
func (f Filter) windowPredicate(ev queryir.Var, scope string) ([]queryir.Pattern, queryir.Predicate) {
	started := queryir.Var(scope + "_started")
	agent := queryir.Var(scope + "_agent")
	patterns := []queryir.Pattern{
		{Subject: ev, Predicate: queryir.C(rdf.PROVStartedAtTime), Object: started, Context: ev},
		{Subject: ev, Predicate: queryir.C(rdf.PROVWasAssociatedWith), Object: agent, Context: ev},
	}
	var preds []queryir.Predicate
	if !f.From.IsZero() {
		preds = append(preds, queryir.Compare{Var: started, Op: queryir.OpGE, Value: rdf.NewDateTimeLiteral(f.From)})
	}
	if !f.Until.IsZero() {
		preds = append(preds, queryir.Compare{Var: started, Op: queryir.OpLE, Value: rdf.NewDateTimeLiteral(f.Until)})
	}
	if len(f.Agents) > 0 {
		values := make([]rdf.Term, len(f.Agents))
		for i, a := range f.Agents {
			values[i] = a
		}
		preds = append(preds, queryir.In{Var: agent, Values: values})
	}
	return patterns, queryir.And{Predicates: preds}
}

// objectPredicate is the full filter for the DiSCO bound to obj: status,
// plus the date and agent window applied to the event that generated it.
func (f Filter) objectPredicate(obj queryir.Var) queryir.Predicate {
	preds := f.statusPredicates(obj, "f")
	if f.hasWindow() {
		gen := queryir.Var("f_gen")
		patterns, window := f.windowPredicate(gen, "f")
		patterns = append([]queryir.Pattern{
			{Subject: gen, Predicate: queryir.C(rdf.PROVGenerated), Object: obj, Context: gen},
		}, patterns...)
		preds = append(preds, queryir.Exists{Where: patterns, Filter: window})
	}
	return queryir.And{Predicates: preds}
}

func (f Filter) String() string {
	return fmt.Sprintf("status=%s from=%s until=%s agents=%d limit=%d offset=%d",
		f.Status, formatBound(f.From), formatBound(f.Until), len(f.Agents), f.Limit, f.Offset)
}

func formatBound(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return rdf.FormatDateTime(t)
}
