package queryir

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Predicate represents a filter condition in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
//
// Predicate types:
//   - Equals: field = literal_value
//   - In: field IN (v1, v2, ...)
//   - And: all predicates must be true
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// Select represents a single-table read with filtering.
//
// Semantics:
//
//	SELECT <columns> FROM <from> WHERE <filter> ORDER BY <stable key>
//
// Example:
//
//	Select{
//	  From:    "diagnostics",
//	  Filter:  And{Predicates: []Predicate{
//	    Equals{Field: "run_id", Value: "0192..."},
//	    In{Field: "kind", Values: []any{"conflict"}},
//	  }},
//	  Columns: []string{"seq", "kind", "instance"},
//	}
//
// The ordering is owned by the backend, never by the query.
type Select struct {
	From    string    // Table name (e.g., "diagnostics")
	Filter  Predicate // WHERE conditions (nil = no filter)
	Columns []string  // Projected columns, in scan order
}

func (Select) queryNode() {}

// Equals represents a field-equals-literal predicate.
//
// Value must be a string, int, int64 or bool.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// In represents a set-membership predicate.
//
// An empty Values slice matches nothing.
type In struct {
	Field  string
	Values []any
}

func (In) predicateNode() {}

// And represents a conjunction of predicates (all must be true).
//
// Empty Predicates means "always true".
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}
