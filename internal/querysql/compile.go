package querysql

import (
	"fmt"
	"strings"

	"github.com/roach88/sitetag/internal/queryir"
)

// Table describes one queryable store table.
type Table struct {
	Columns []string
	// OrderBy is the deterministic ORDER BY applied to every read.
	OrderBy string
}

// StoreTables describes the tables of the run store.
//
// Every OrderBy ends in a unique tiebreaker so reads are stable across
// SQLite versions and insertion order.
var StoreTables = map[string]Table{
	"runs": {
		Columns: []string{
			"id", "seq", "label", "spec_hash", "placement_hash",
			"placement_count", "instance_count", "valid", "match_policy",
			"engine_version", "ir_version",
		},
		OrderBy: "seq ASC, id ASC COLLATE BINARY",
	},
	"instance_states": {
		Columns: []string{
			"run_id", "instance_kind", "instance", "instance_type", "states", "valid",
		},
		OrderBy: "run_id ASC COLLATE BINARY, instance_kind ASC COLLATE BINARY, instance ASC COLLATE BINARY",
	},
	"diagnostics": {
		Columns: []string{
			"id", "run_id", "seq", "kind", "instance_kind", "instance",
			"tag", "states", "resolved", "placements",
		},
		OrderBy: "run_id ASC COLLATE BINARY, seq ASC, id ASC",
	},
}

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: ALL queries include ORDER BY for deterministic results.
// CRITICAL: All values are parameterized (never interpolated).
type SQLCompiler struct {
	Tables map[string]Table
}

// NewSQLCompiler creates a compiler over the run store tables.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{Tables: StoreTables}
}

// Schema returns the column allowlist used to validate queries.
func (c *SQLCompiler) Schema() queryir.Schema {
	schema := make(queryir.Schema, len(c.Tables))
	for name, t := range c.Tables {
		schema[name] = t.Columns
	}
	return schema
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The query is validated against the table allowlist first, so only
// known identifiers ever reach the SQL text.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if err := queryir.Validate(q, c.Schema()).Err(); err != nil {
		return "", nil, err
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var whereClause string
	var params []any
	if q.Filter != nil {
		filterSQL, filterParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		whereClause = " WHERE " + filterSQL
		params = filterParams
	}

	sql := fmt.Sprintf("SELECT %s FROM %s%s ORDER BY %s",
		strings.Join(q.Columns, ", "),
		q.From,
		whereClause,
		c.stableOrderKey(q))

	return sql, params, nil
}

// stableOrderKey returns the ORDER BY clause for a query.
// MANDATORY: Every query MUST call this function.
func (c *SQLCompiler) stableOrderKey(q queryir.Select) string {
	if t, ok := c.Tables[q.From]; ok && t.OrderBy != "" {
		return t.OrderBy
	}
	return "rowid ASC"
}

// compilePredicate compiles a predicate to a WHERE clause fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return fmt.Sprintf("%s = ?", pred.Field), []any{toParam(pred.Value)}, nil
	case *queryir.Equals:
		return c.compilePredicate(*pred)
	case queryir.In:
		return c.compileIn(pred)
	case *queryir.In:
		return c.compileIn(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileIn(in queryir.In) (string, []any, error) {
	if len(in.Values) == 0 {
		return "1 = 0", nil, nil // Empty set matches nothing
	}
	params := make([]any, len(in.Values))
	for i, v := range in.Values {
		params[i] = toParam(v)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(params)), ", ")
	return fmt.Sprintf("%s IN (%s)", in.Field, placeholders), params, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil // Always true (vacuous truth)
	}

	var sqlParts []string
	var allParams []any
	for _, pred := range and.Predicates {
		sql, params, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		sqlParts = append(sqlParts, sql)
		allParams = append(allParams, params...)
	}

	return strings.Join(sqlParts, " AND "), allParams, nil
}

// toParam converts a literal into the form stored in SQLite.
// Booleans are stored as 0/1 integers.
func toParam(v any) any {
	switch val := v.(type) {
	case bool:
		if val {
			return int64(1)
		}
		return int64(0)
	case int:
		return int64(val)
	default:
		return val
	}
}
