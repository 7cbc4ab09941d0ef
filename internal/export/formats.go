// Package export serializes statements as N-Triples, N-Quads or Turtle.
package export

import (
	"fmt"
	"sort"
	"strings"
)

// Format names an output serialization.
type Format string

const (
	NTriples Format = "nt"
	NQuads   Format = "nq"
	Turtle   Format = "ttl"
)

// FormatInfo describes a format.
type FormatInfo struct {
	Name      Format
	MIMEType  string
	Extension string
	// Contexts reports whether the format keeps statement contexts.
	Contexts bool
}

var registry = map[Format]FormatInfo{
	NTriples: {Name: NTriples, MIMEType: "application/n-triples", Extension: ".nt"},
	NQuads:   {Name: NQuads, MIMEType: "application/n-quads", Extension: ".nq", Contexts: true},
	Turtle:   {Name: Turtle, MIMEType: "text/turtle", Extension: ".ttl"},
}

var aliases = map[string]Format{
	"nt":        NTriples,
	"ntriples":  NTriples,
	"n-triples": NTriples,
	"nq":        NQuads,
	"nquads":    NQuads,
	"n-quads":   NQuads,
	"ttl":       Turtle,
	"turtle":    Turtle,
}

// ParseFormat accepts a format name, alias or file extension.
func ParseFormat(s string) (Format, error) {
	key := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))
	if f, ok := aliases[key]; ok {
		return f, nil
	}
	return "", fmt.Errorf("unsupported export format %q (want one of %s)", s, strings.Join(Names(), ", "))
}

// Info returns the metadata for f.
func Info(f Format) (FormatInfo, bool) {
	info, ok := registry[f]
	return info, ok
}

// Names lists the canonical format names in sorted order.
func Names() []string {
	names := make([]string, 0, len(registry))
	for f := range registry {
		names = append(names, string(f))
	}
	sort.Strings(names)
	return names
}
