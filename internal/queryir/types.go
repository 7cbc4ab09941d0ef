package queryir

import "github.com/roach88/provstore/internal/rdf"

// Query is a sealed interface over executable queries.
//
// Query types:
//   - Select: returns one binding per solution
//   - Ask: returns whether any solution exists
type Query interface {
	queryNode()
}

// Predicate is a sealed interface over filter conditions.
//
// Predicate types:
//   - Equals: variable bound to a given term
//   - In: variable bound to one of several terms
//   - Compare: ordered comparison of a variable's lexical value
//   - Exists / NotExists: a sub-pattern does or does not match
//   - And / Or: boolean combinations
type Predicate interface {
	predicateNode()
}

// Node is one position of a quad pattern: a Var or a Const. A nil Node
// matches anything and binds nothing.
type Node interface {
	node()
}

// Var is a named variable. Names must be identifiers ([A-Za-z_][A-Za-z0-9_]*)
// and carry no leading '?'.
type Var string

func (Var) node() {}

// Const is a fixed term in a pattern position.
type Const struct {
	Term rdf.Term
}

func (Const) node() {}

// C wraps a term as a pattern constant.
func C(t rdf.Term) Const {
	return Const{Term: t}
}

// Pattern matches statements. Positions left nil are wildcards.
//
// Example (every statement in which ?disco aggregates a fixed resource):
//
//	Pattern{
//	  Subject:   Var("disco"),
//	  Predicate: C(rdf.OREAggregates),
//	  Object:    C(rdf.IRI("http://example.org/r1")),
//	  Context:   Var("disco"),
//	}
type Pattern struct {
	Subject   Node
	Predicate Node
	Object    Node
	Context   Node
}

// Vars returns the variables of p in position order (subject, predicate,
// object, context). Repeated variables appear once.
func (p Pattern) Vars() []Var {
	var out []Var
	seen := make(map[Var]bool)
	for _, n := range []Node{p.Subject, p.Predicate, p.Object, p.Context} {
		if v, ok := n.(Var); ok && !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// Order sorts solutions by a projected variable.
type Order struct {
	Var  Var
	Desc bool
}

// Select is a basic graph pattern query.
//
// Semantics:
//
//	SELECT [DISTINCT] <project> WHERE { <where> FILTER(<filter>) }
//	ORDER BY <order>, <project...> LIMIT <limit> OFFSET <offset>
//
// Patterns in Where are joined on shared variables. Project must name at
// least one variable bound by Where. Solutions are always returned in a
// deterministic order: the explicit OrderBy keys first, then every projected
// variable. Limit 0 means no limit.
type Select struct {
	Where    []Pattern
	Filter   Predicate
	Project  []Var
	Distinct bool
	OrderBy  []Order
	Limit    int
	Offset   int
}

func (Select) queryNode() {}

// Ask reports whether Where (with Filter) has at least one solution.
type Ask struct {
	Where  []Pattern
	Filter Predicate
}

func (Ask) queryNode() {}

// Equals holds when Var is bound to exactly Value (same term kind, lexical
// value, language and datatype).
type Equals struct {
	Var   Var
	Value rdf.Term
}

func (Equals) predicateNode() {}

// In holds when Var is bound to any of Values. An empty Values list never
// holds.
type In struct {
	Var    Var
	Values []rdf.Term
}

func (In) predicateNode() {}

// CompareOp is an ordered comparison operator.
type CompareOp string

const (
	OpLT CompareOp = "<"
	OpLE CompareOp = "<="
	OpGT CompareOp = ">"
	OpGE CompareOp = ">="
)

// Compare orders Var's lexical value against Value's. When Value is a
// typed literal the variable must be a literal of the same datatype.
// Comparison is bytewise, which is chronological for dateTime literals in
// rdf.DateTimeLayout.
type Compare struct {
	Var   Var
	Op    CompareOp
	Value rdf.Literal
}

func (Compare) predicateNode() {}

// Exists holds when its patterns match given the enclosing bindings.
// Variables already bound outside are correlated; new variables are local.
type Exists struct {
	Where  []Pattern
	Filter Predicate
}

func (Exists) predicateNode() {}

// NotExists holds when its patterns do not match.
type NotExists struct {
	Where  []Pattern
	Filter Predicate
}

func (NotExists) predicateNode() {}

// And holds when all Predicates hold. An empty And always holds.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or holds when any of Predicates holds. An empty Or never holds.
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Binding is one query solution: projected variable to bound term.
type Binding map[Var]rdf.Term

// IRI returns the IRI bound to v, or "" if v is unbound or not an IRI.
func (b Binding) IRI(v Var) rdf.IRI {
	if iri, ok := b[v].(rdf.IRI); ok {
		return iri
	}
	return ""
}

// Statement assembles a statement from the variables bound to the four
// positions. It fails if any of subject, predicate or object is missing.
func (b Binding) Statement(s, p, o, c Var) (rdf.Statement, error) {
	subj, _ := b[s].(rdf.Resource)
	pred, _ := b[p].(rdf.IRI)
	ctx, _ := b[c].(rdf.IRI)
	return rdf.NewStatement(subj, pred, b[o], ctx)
}
