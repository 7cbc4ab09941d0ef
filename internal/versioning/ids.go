package versioning

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/roach88/provstore/internal/codec"
	"github.com/roach88/provstore/internal/rdf"
)

// IDSupplier mints identifiers for new objects and events.
type IDSupplier = codec.IDSupplier

// DefaultIDPrefix is prepended to generated UUIDs.
const DefaultIDPrefix = "urn:uuid:"

// UUIDv7Supplier mints time-sortable UUIDv7 identifiers.
//
// UUIDv7 embeds a timestamp in the most significant bits, so ids sort by
// creation time. This helps when reading raw store dumps.
//
// Thread-safety: UUIDv7Supplier is stateless and safe for concurrent use.
type UUIDv7Supplier struct {
	// Prefix defaults to DefaultIDPrefix.
	Prefix string
}

// CreateID returns a new identifier, e.g.
// "urn:uuid:01890a5d-ac96-774b-bcce-b302099a8057".
func (s UUIDv7Supplier) CreateID(ctx context.Context) (rdf.IRI, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", fmt.Errorf("generate uuid: %w", err)
	}
	prefix := s.Prefix
	if prefix == "" {
		prefix = DefaultIDPrefix
	}
	return rdf.IRI(prefix + id.String()), nil
}
