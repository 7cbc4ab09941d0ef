package queryir

import (
	"fmt"
	"regexp"

	"github.com/roach88/provstore/internal/rdf"
)

// ValidationResult describes whether a query can be compiled.
type ValidationResult struct {
	// IsValid is true when Problems is empty.
	IsValid bool

	// Problems lists every rule the query violates, in traversal order.
	Problems []string
}

// Err returns nil for a valid result, otherwise an error listing the first
// problem and the total count.
func (r ValidationResult) Err() error {
	if r.IsValid {
		return nil
	}
	if len(r.Problems) == 1 {
		return fmt.Errorf("invalid query: %s", r.Problems[0])
	}
	return fmt.Errorf("invalid query: %s (and %d more)", r.Problems[0], len(r.Problems)-1)
}

// Validate checks the structural rules a backend relies on:
//  1. Every query has at least one pattern
//  2. Variable names are identifiers
//  3. Predicate and context constants are IRIs; subject constants are
//     resources
//  4. Projected, ordered and filtered variables are bound by a pattern in
//     scope
//  5. Select has an explicit projection, and order keys are projected
//  6. Limit and Offset are non-negative
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{}
	v.validateQuery(query)
	return ValidationResult{
		IsValid:  len(v.problems) == 0,
		Problems: v.problems,
	}
}

var varName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addProblem("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	case Ask:
		v.validateAsk(query)
	case *Ask:
		v.validateAsk(*query)
	default:
		v.addProblem("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	scope := v.validatePatterns(sel.Where, nil)

	if len(sel.Project) == 0 {
		v.addProblem("select requires an explicit projection")
	}
	projected := make(map[Var]bool)
	for _, p := range sel.Project {
		projected[p] = true
		if !scope[p] {
			v.addProblem("projected variable ?%s is not bound by any pattern", p)
		}
	}
	for _, o := range sel.OrderBy {
		if !projected[o.Var] {
			v.addProblem("order variable ?%s must be projected", o.Var)
		}
	}
	if sel.Limit < 0 {
		v.addProblem("limit must be non-negative, got %d", sel.Limit)
	}
	if sel.Offset < 0 {
		v.addProblem("offset must be non-negative, got %d", sel.Offset)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter, scope)
	}
}

func (v *validator) validateAsk(ask Ask) {
	scope := v.validatePatterns(ask.Where, nil)
	if ask.Filter != nil {
		v.validatePredicate(ask.Filter, scope)
	}
}

// validatePatterns checks patterns and returns the variables in scope after
// them (outer scope included).
func (v *validator) validatePatterns(patterns []Pattern, outer map[Var]bool) map[Var]bool {
	scope := make(map[Var]bool, len(outer))
	for k := range outer {
		scope[k] = true
	}
	if len(patterns) == 0 {
		v.addProblem("at least one pattern is required")
		return scope
	}
	for i, p := range patterns {
		v.validateNode(i, "subject", p.Subject, scope)
		v.validateNode(i, "predicate", p.Predicate, scope)
		v.validateNode(i, "object", p.Object, scope)
		v.validateNode(i, "context", p.Context, scope)
	}
	return scope
}

func (v *validator) validateNode(i int, pos string, n Node, scope map[Var]bool) {
	switch node := n.(type) {
	case nil:
	case Var:
		if !varName.MatchString(string(node)) {
			v.addProblem("pattern %d %s: invalid variable name %q", i, pos, node)
			return
		}
		scope[node] = true
	case Const:
		switch pos {
		case "subject":
			if _, ok := node.Term.(rdf.Resource); !ok || rdf.IsZeroTerm(node.Term) {
				v.addProblem("pattern %d subject: constant must be an IRI or blank node", i)
			}
		case "predicate", "context":
			if iri, ok := node.Term.(rdf.IRI); !ok || iri.IsZero() {
				v.addProblem("pattern %d %s: constant must be an IRI", i, pos)
			}
		default:
			if node.Term == nil {
				v.addProblem("pattern %d %s: constant term is nil", i, pos)
			}
		}
	default:
		v.addProblem("pattern %d %s: unknown node type %T", i, pos, n)
	}
}

func (v *validator) validatePredicate(p Predicate, scope map[Var]bool) {
	switch pred := p.(type) {
	case nil:
	case Equals:
		v.requireBound(pred.Var, scope)
		if pred.Value == nil {
			v.addProblem("equals ?%s: value is nil", pred.Var)
		}
	case *Equals:
		v.validatePredicate(*pred, scope)
	case In:
		v.requireBound(pred.Var, scope)
		for _, val := range pred.Values {
			if val == nil {
				v.addProblem("in ?%s: value is nil", pred.Var)
			}
		}
	case *In:
		v.validatePredicate(*pred, scope)
	case Compare:
		v.requireBound(pred.Var, scope)
		switch pred.Op {
		case OpLT, OpLE, OpGT, OpGE:
		default:
			v.addProblem("compare ?%s: unknown operator %q", pred.Var, pred.Op)
		}
	case *Compare:
		v.validatePredicate(*pred, scope)
	case Exists:
		inner := v.validatePatterns(pred.Where, scope)
		v.validatePredicate(pred.Filter, inner)
	case *Exists:
		v.validatePredicate(*pred, scope)
	case NotExists:
		inner := v.validatePatterns(pred.Where, scope)
		v.validatePredicate(pred.Filter, inner)
	case *NotExists:
		v.validatePredicate(*pred, scope)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, scope)
		}
	case *And:
		v.validatePredicate(*pred, scope)
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub, scope)
		}
	case *Or:
		v.validatePredicate(*pred, scope)
	default:
		v.addProblem("unknown predicate type %T", p)
	}
}

func (v *validator) requireBound(name Var, scope map[Var]bool) {
	if !scope[name] {
		v.addProblem("filter variable ?%s is not bound by any pattern", name)
	}
}
