// Package timegate resolves "the version of an object as of time T".
//
// A ResourceVersions index holds the date-ordered versions of one agent
// chain, as returned by versioning.Service.AgentVersionsWithDates. A
// TimeGate answers Memento-style datetime negotiation over that index.
// Both are plain values over a caller-supplied snapshot; neither touches
// the store.
package timegate
