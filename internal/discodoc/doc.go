// Package discodoc reads and writes DiSCOs as CUE documents.
//
// A document has a single top-level disco field:
//
//	disco: {
//		creator: "urn:uuid:0192..."
//		description: "Figures for the 2016 paper"
//		prefixes: ex: "https://example.org/"
//		aggregates: ["ex:dataset", "ex:figure1"]
//		statements: [
//			{s: "ex:dataset", p: "dc:title", o: {literal: "Dataset", lang: "en"}},
//			{s: "ex:figure1", p: "ex:derivedFrom", o: "ex:dataset"},
//			{s: "ex:figure1", p: "ex:annotation", o: "_:note"},
//		]
//	}
//
// In statement positions a string is an IRI, or a blank node when it
// starts with "_:". Literals are written as {literal, lang?, datatype?}.
// The description field is the exception: a bare string is a literal and
// an IRI is written as {iri: "..."}. A compact "prefix:local" form is
// expanded when prefix is declared in prefixes or is one of the built-in
// vocabulary prefixes.
package discodoc
