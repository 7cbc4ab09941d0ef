// Package queryir provides an abstract graph-pattern query representation.
//
// A query is a conjunction of quad patterns whose positions are either
// constant terms or variables, an optional filter predicate, and an explicit
// projection. Filters may nest EXISTS / NOT EXISTS sub-patterns, which is
// how status filters ("not tombstoned", "inactivated") are expressed.
//
// The IR is the boundary between the versioning service, which builds
// queries, and the store backend (internal/querysql), which compiles them.
// The service never writes SQL.
package queryir
