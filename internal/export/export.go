package export

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/roach88/provstore/internal/rdf"
)

// Write serializes stmts to w. Output is deterministic: statements are
// sorted and duplicates dropped. N-Triples and Turtle drop contexts, so a
// triple stored in several contexts appears once.
func Write(w io.Writer, stmts []rdf.Statement, f Format) error {
	out, err := Marshal(stmts, f)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

// Marshal returns the serialization of stmts.
func Marshal(stmts []rdf.Statement, f Format) ([]byte, error) {
	for _, st := range stmts {
		if err := st.Validate(); err != nil {
			return nil, fmt.Errorf("export: %w", err)
		}
	}
	switch f {
	case NTriples:
		return []byte(lines(stmts, false)), nil
	case NQuads:
		return []byte(lines(stmts, true)), nil
	case Turtle:
		return []byte(turtle(stmts)), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", f)
	}
}

func lines(stmts []rdf.Statement, contexts bool) string {
	seen := make(map[string]bool, len(stmts))
	out := make([]string, 0, len(stmts))
	for _, st := range stmts {
		if !contexts {
			st = st.WithContext("")
		}
		line := st.String()
		if !seen[line] {
			seen[line] = true
			out = append(out, line)
		}
	}
	sort.Strings(out)

	var b strings.Builder
	for _, line := range out {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

// uniqueTriples drops contexts and duplicates, then sorts.
func uniqueTriples(stmts []rdf.Statement) []rdf.Statement {
	seen := make(map[string]bool, len(stmts))
	out := make([]rdf.Statement, 0, len(stmts))
	for _, st := range stmts {
		st = st.WithContext("")
		key := st.String()
		if !seen[key] {
			seen[key] = true
			out = append(out, st)
		}
	}
	rdf.SortStatements(out)
	return out
}
