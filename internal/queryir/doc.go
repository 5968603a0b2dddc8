// Package queryir provides a small query intermediate representation for
// reading persisted check runs.
//
// The IR sits between the CLI filters and the SQL backend:
//
//	[history flags] → [Query IR] → [SQL Backend]
//
// Only a narrow fragment is supported:
//   - Select(from, filter, columns) over a single table
//   - Predicates: Equals, In, And
//   - Explicit columns (no SELECT *)
//
// Query and Predicate are sealed interfaces using the marker method
// pattern, so backends can switch over them exhaustively:
//
//	switch q := query.(type) {
//	case Select:
//	    // Handle select
//	default:
//	    // Impossible - compiler knows all Query types
//	}
//
// Table and column names are never taken from user input directly.
// Validate checks every identifier against a Schema before a backend
// interpolates it into SQL; values always travel as bound parameters.
package queryir
