// Package queryir is a small query representation for reading the
// transcript tables: a single-table Select with a conjunction of column
// equalities.
//
// Queries are built by callers that take table and column names from
// outside the program (scenario files, HTTP parameters). Validate checks
// every identifier before a backend interpolates it, and values are
// always passed as parameters.
//
// Query and Predicate are sealed: only types in this package implement
// them, so backends can switch over them exhaustively.
//
//	q := queryir.Select{
//		From:   "chunks",
//		Filter: queryir.Where(map[string]any{"document_id": id, "kind": "error"}),
//	}
//
// package querysql compiles a Query to SQLite.
package queryir
