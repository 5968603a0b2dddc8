package queryir

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Schema lists the queryable columns of every table a backend exposes.
type Schema map[string][]string

// HasColumn reports whether table exposes column.
func (s Schema) HasColumn(table, column string) bool {
	cols, ok := s[table]
	return ok && slices.Contains(cols, column)
}

// ValidationResult contains the problems found in a query.
type ValidationResult struct {
	// Problems lists every unknown identifier or unsupported value.
	// Empty when the query is safe to compile.
	Problems []string
}

// OK reports whether the query had no problems.
func (r ValidationResult) OK() bool {
	return len(r.Problems) == 0
}

// Err folds the problems into a single error, or nil when OK.
func (r ValidationResult) Err() error {
	if r.OK() {
		return nil
	}
	return errors.New("invalid query: " + strings.Join(r.Problems, "; "))
}

// Validate checks a query against schema.
//
// Every table and column name must be known to the schema and every
// literal must be a string, int, int64 or bool. Validate is a pure
// function with no side effects.
func Validate(query Query, schema Schema) ValidationResult {
	v := &validator{schema: schema, problems: []string{}}
	v.validateQuery(query)
	return ValidationResult{Problems: v.problems}
}

// validator accumulates problems during traversal.
type validator struct {
	schema   Schema
	table    string
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		if query == nil {
			v.addProblem("nil query")
			return
		}
		v.validateSelect(*query)
	case nil:
		v.addProblem("nil query")
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if _, ok := v.schema[sel.From]; !ok {
		v.addProblem("unknown table %q", sel.From)
		return
	}
	v.table = sel.From

	if len(sel.Columns) == 0 {
		v.addProblem("select from %q has no columns", sel.From)
	}
	for _, col := range sel.Columns {
		v.checkColumn(col)
	}

	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) checkColumn(col string) {
	if !v.schema.HasColumn(v.table, col) {
		v.addProblem("unknown column %q on table %q", col, v.table)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.checkColumn(pred.Field)
		v.checkValue(pred.Field, pred.Value)
	case *Equals:
		v.validatePredicate(*pred)
	case In:
		v.checkColumn(pred.Field)
		for _, val := range pred.Values {
			v.checkValue(pred.Field, val)
		}
	case *In:
		v.validatePredicate(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		v.validatePredicate(*pred)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) checkValue(field string, val any) {
	switch val.(type) {
	case string, int, int64, bool:
	default:
		v.addProblem("field %q compared to unsupported value %T", field, val)
	}
}
