package rdf

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"

	"lukechampine.com/blake3"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for an algorithm change without colliding with stored values.
const (
	DomainStatement = "provstore/statement/v1"
	DomainGraph     = "provstore/graph/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// StatementID returns the content-addressed identity of a statement. Two
// statements have the same id exactly when they are the same quad after
// normalization, which is what the store uses to make inserts idempotent.
func StatementID(s Statement) (string, error) {
	canonical, err := MarshalCanonical(s)
	if err != nil {
		return "", fmt.Errorf("statement id: %w", err)
	}
	return hashWithDomain(DomainStatement, canonical), nil
}

// MustStatementID is like StatementID but panics on error.
func MustStatementID(s Statement) string {
	id, err := StatementID(s)
	if err != nil {
		panic(err)
	}
	return id
}

// GraphDigest returns a BLAKE3 fingerprint of a set of statements. The
// digest ignores input order and duplicates, so the digest of an object's
// graph is stable across reads and across store backends.
func GraphDigest(stmts []Statement) (string, error) {
	ids := make([]string, 0, len(stmts))
	seen := make(map[string]bool, len(stmts))
	for _, st := range stmts {
		id, err := StatementID(st)
		if err != nil {
			return "", fmt.Errorf("graph digest: %w", err)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	h := blake3.New(32, nil)
	h.Write([]byte(DomainGraph))
	h.Write([]byte{0x00})
	for _, id := range ids {
		h.Write([]byte(id))
		h.Write([]byte{'\n'})
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
