package export

import (
	"sort"
	"strings"

	"github.com/roach88/provstore/internal/rdf"
)

type predicateObjects struct {
	predicate rdf.IRI
	objects   []rdf.Term
}

type subjectBlock struct {
	subject    rdf.Resource
	predicates []*predicateObjects
}

func turtle(stmts []rdf.Statement) string {
	triples := uniqueTriples(stmts)
	p := newPrefixer(rdf.Prefixes())

	var blocks []*subjectBlock
	for _, st := range triples {
		var blk *subjectBlock
		if n := len(blocks); n > 0 && blocks[n-1].subject == st.Subject {
			blk = blocks[n-1]
		} else {
			blk = &subjectBlock{subject: st.Subject}
			blocks = append(blocks, blk)
		}
		blk.add(st.Predicate, st.Object)
	}

	var body strings.Builder
	for i, blk := range blocks {
		if i > 0 {
			body.WriteByte('\n')
		}
		blk.sortTypeFirst()
		body.WriteString(p.term(blk.subject))
		body.WriteByte('\n')
		for j, po := range blk.predicates {
			body.WriteString("    ")
			if po.predicate == rdf.RDFType {
				body.WriteString("a")
			} else {
				body.WriteString(p.term(po.predicate))
			}
			for k, o := range po.objects {
				if k > 0 {
					body.WriteString(" ,")
				}
				body.WriteByte(' ')
				body.WriteString(p.term(o))
			}
			if j < len(blk.predicates)-1 {
				body.WriteString(" ;\n")
			} else {
				body.WriteString(" .\n")
			}
		}
	}

	var b strings.Builder
	used := p.usedPrefixes()
	for _, prefix := range used {
		b.WriteString("@prefix " + prefix + ": <" + p.namespaces[prefix] + "> .\n")
	}
	if len(used) > 0 && body.Len() > 0 {
		b.WriteByte('\n')
	}
	b.WriteString(body.String())
	return b.String()
}

func (b *subjectBlock) add(p rdf.IRI, o rdf.Term) {
	if n := len(b.predicates); n > 0 && b.predicates[n-1].predicate == p {
		b.predicates[n-1].objects = append(b.predicates[n-1].objects, o)
		return
	}
	b.predicates = append(b.predicates, &predicateObjects{predicate: p, objects: []rdf.Term{o}})
}

func (b *subjectBlock) sortTypeFirst() {
	sort.SliceStable(b.predicates, func(i, j int) bool {
		return b.predicates[i].predicate == rdf.RDFType && b.predicates[j].predicate != rdf.RDFType
	})
}

// prefixer compacts IRIs against known namespaces and remembers which
// prefixes it used.
type prefixer struct {
	namespaces map[string]string
	// byLength lists prefixes with the longest namespace first.
	byLength []string
	used     map[string]bool
}

func newPrefixer(namespaces map[string]string) *prefixer {
	p := &prefixer{namespaces: namespaces, used: make(map[string]bool)}
	for prefix := range namespaces {
		p.byLength = append(p.byLength, prefix)
	}
	sort.Slice(p.byLength, func(i, j int) bool {
		li, lj := len(namespaces[p.byLength[i]]), len(namespaces[p.byLength[j]])
		if li != lj {
			return li > lj
		}
		return p.byLength[i] < p.byLength[j]
	})
	return p
}

func (p *prefixer) term(t rdf.Term) string {
	switch v := t.(type) {
	case rdf.IRI:
		return p.iri(v)
	case rdf.Literal:
		if v.Lang == "" && v.Datatype != "" && v.Datatype != rdf.XSDString && v.Datatype != rdf.RDFLangString {
			plain := rdf.Literal{Lexical: v.Lexical}
			return plain.String() + "^^" + p.iri(v.Datatype)
		}
		return v.String()
	default:
		return t.String()
	}
}

func (p *prefixer) iri(i rdf.IRI) string {
	s := string(i)
	for _, prefix := range p.byLength {
		ns := p.namespaces[prefix]
		if local, ok := strings.CutPrefix(s, ns); ok && validLocalName(local) {
			p.used[prefix] = true
			return prefix + ":" + local
		}
	}
	return i.String()
}

func (p *prefixer) usedPrefixes() []string {
	out := make([]string, 0, len(p.used))
	for prefix := range p.used {
		out = append(out, prefix)
	}
	sort.Strings(out)
	return out
}

// validLocalName accepts the conservative subset of Turtle local names
// that needs no escaping.
func validLocalName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '_':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
