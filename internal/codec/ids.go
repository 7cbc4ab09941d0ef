package codec

import (
	"context"
	"errors"

	"github.com/roach88/provstore/internal/rdf"
)

// IDSupplier mints identifiers for new objects.
type IDSupplier interface {
	CreateID(ctx context.Context) (rdf.IRI, error)
}

// IDSupplierFunc adapts a function to IDSupplier.
type IDSupplierFunc func(ctx context.Context) (rdf.IRI, error)

// CreateID calls f.
func (f IDSupplierFunc) CreateID(ctx context.Context) (rdf.IRI, error) {
	return f(ctx)
}

// ErrInvalidObject is returned (wrapped) when statements do not describe a
// well-formed object.
var ErrInvalidObject = errors.New("invalid object")

func mint(ctx context.Context, ids IDSupplier) (rdf.IRI, error) {
	if ids == nil {
		return "", errors.New("no id supplier configured")
	}
	id, err := ids.CreateID(ctx)
	if err != nil {
		return "", err
	}
	if id.IsZero() {
		return "", errors.New("id supplier returned an empty id")
	}
	return id, nil
}

// rootOf returns the subject and context of the first statement typing a
// resource as class.
func rootOf(stmts []rdf.Statement, class rdf.IRI) (asserted rdf.Resource, official rdf.IRI, ok bool) {
	for _, st := range stmts {
		if st.Predicate == rdf.RDFType && st.Object == class {
			return st.Subject, st.Context, true
		}
	}
	return nil, "", false
}
