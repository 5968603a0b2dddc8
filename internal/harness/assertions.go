package harness

import (
	"context"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s %s", event.Seq, event.Op, event.Placement)
			if event.Error != "" {
				fmt.Fprintf(&buf, " (%s)", event.Error)
			}
			buf.WriteByte('\n')
		}
	}

	return buf.String()
}

// AssertionContext provides what assertions are evaluated against.
type AssertionContext struct {
	Ctx       context.Context
	Evaluator *engine.Evaluator
	Report    *ir.Report   // batch check of the placements still applied
	Store     *store.Store // holds Report as run RunID
	RunID     string
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertState:
			err = assertState(actx.Evaluator, assertion, result.Trace)
		case AssertConflict:
			err = assertConflict(actx.Evaluator, assertion, result.Trace)
		case AssertViolation:
			err = assertViolation(actx.Evaluator, assertion, result.Trace)
		case AssertValid:
			if got := actx.Evaluator.Valid(); got != *assertion.Valid {
				err = &AssertionError{
					Type:     AssertValid,
					Expected: fmt.Sprintf("valid=%t", *assertion.Valid),
					Actual:   fmt.Sprintf("valid=%t", got),
					Trace:    result.Trace,
				}
			}
		case AssertInstances:
			err = assertInstances(actx.Evaluator, assertion)
		case AssertMatchesCheck:
			err = assertMatchesCheck(actx.Evaluator, actx.Report)
		case AssertStoredDiagnostics:
			if actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: stored_diagnostics requires a store", i)
			} else {
				err = assertStoredDiagnostics(actx, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}

	return errors
}

func assertState(ev *engine.Evaluator, a Assertion, trace []TraceEvent) error {
	key, _ := ir.ParseInstanceKey(a.Instance)
	got, ok := ev.State(key, a.Tag)
	if ok && got == a.State {
		return nil
	}

	actual := fmt.Sprintf("%s = %s", a.Tag, got)
	if !ok {
		actual = fmt.Sprintf("%s unresolved", a.Tag)
	}
	return &AssertionError{
		Type:     AssertState,
		Expected: fmt.Sprintf("%s = %s at %s", a.Tag, a.State, key),
		Actual:   actual,
		Trace:    trace,
	}
}

func assertConflict(ev *engine.Evaluator, a Assertion, trace []TraceEvent) error {
	key, _ := ir.ParseInstanceKey(a.Instance)
	res, _ := ev.Resolution(key)
	for _, c := range res.Conflicts {
		if c.Tag != a.Tag {
			continue
		}
		if len(a.States) > 0 && !sameSet(c.States, a.States) {
			return &AssertionError{
				Type:     AssertConflict,
				Expected: fmt.Sprintf("%s in conflict over {%s} at %s", a.Tag, strings.Join(a.States, ", "), key),
				Actual:   fmt.Sprintf("conflict over {%s}", strings.Join(c.States, ", ")),
				Trace:    trace,
			}
		}
		return nil
	}
	return &AssertionError{
		Type:     AssertConflict,
		Expected: fmt.Sprintf("%s in conflict at %s", a.Tag, key),
		Actual:   "no conflict",
		Trace:    trace,
	}
}

func assertViolation(ev *engine.Evaluator, a Assertion, trace []TraceEvent) error {
	key, _ := ir.ParseInstanceKey(a.Instance)
	res, _ := ev.Resolution(key)
	for _, v := range res.Violations {
		if v.Tag != a.Tag {
			continue
		}
		if a.Cell == "" || strings.HasPrefix(string(v.Placement), a.Cell+"@") {
			return nil
		}
	}

	want := fmt.Sprintf("violation on %s at %s", a.Tag, key)
	if a.Cell != "" {
		want += " by " + a.Cell
	}
	return &AssertionError{
		Type:     AssertViolation,
		Expected: want,
		Actual:   fmt.Sprintf("%d violation(s) at %s", len(res.Violations), key),
		Trace:    trace,
	}
}

func assertInstances(ev *engine.Evaluator, a Assertion) error {
	got := make([]string, 0)
	for _, key := range ev.Instances() {
		got = append(got, key.String())
	}
	want := make([]string, 0, len(a.Instances))
	for _, s := range a.Instances {
		key, _ := ir.ParseInstanceKey(s)
		want = append(want, key.String())
	}
	slices.Sort(want)
	slices.Sort(got)

	if slices.Equal(got, want) {
		return nil
	}
	return &AssertionError{
		Type:     AssertInstances,
		Expected: fmt.Sprintf("instances [%s]", strings.Join(want, ", ")),
		Actual:   fmt.Sprintf("instances [%s]", strings.Join(got, ", ")),
	}
}

// assertMatchesCheck compares the evaluator's incremental state with a batch
// check of the same placements.
func assertMatchesCheck(ev *engine.Evaluator, report *ir.Report) error {
	var keys []ir.InstanceKey
	for _, res := range report.Instances {
		keys = append(keys, res.Instance)
	}
	if !slices.Equal(keys, ev.Instances()) {
		return &AssertionError{
			Type:     AssertMatchesCheck,
			Expected: fmt.Sprintf("instances %v", keys),
			Actual:   fmt.Sprintf("instances %v", ev.Instances()),
		}
	}

	incremental := ev.Diagnostics()
	if len(incremental) == 0 && len(report.Diagnostics) == 0 {
		return nil
	}
	if !reflect.DeepEqual(incremental, report.Diagnostics) {
		return &AssertionError{
			Type:     AssertMatchesCheck,
			Expected: describeDiagnostics(report.Diagnostics),
			Actual:   describeDiagnostics(incremental),
		}
	}
	return nil
}

func assertStoredDiagnostics(actx *AssertionContext, a Assertion) error {
	filter := store.DiagnosticFilter{RunID: actx.RunID, Tag: a.Tag}
	if a.Kind != "" {
		filter.Kinds = []ir.DiagnosticKind{ir.DiagnosticKind(a.Kind)}
	}
	if a.Instance != "" {
		key, _ := ir.ParseInstanceKey(a.Instance)
		filter.Instance = &key
	}

	diags, err := actx.Store.ReadDiagnostics(actx.Ctx, filter)
	if err != nil {
		return &AssertionError{
			Type:     AssertStoredDiagnostics,
			Expected: "readable diagnostics",
			Actual:   fmt.Sprintf("query error: %v", err),
		}
	}
	if len(diags) != *a.Count {
		return &AssertionError{
			Type:     AssertStoredDiagnostics,
			Expected: fmt.Sprintf("%d stored diagnostic(s) matching kind=%q tag=%q instance=%q", *a.Count, a.Kind, a.Tag, a.Instance),
			Actual:   fmt.Sprintf("%d stored diagnostic(s)", len(diags)),
		}
	}
	return nil
}

func describeDiagnostics(diags []ir.Diagnostic) string {
	if len(diags) == 0 {
		return "no diagnostics"
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = fmt.Sprintf("[%d] %s", d.Seq, d.Message())
	}
	return strings.Join(parts, "; ")
}

func sameSet(a, b []string) bool {
	a, b = slices.Clone(a), slices.Clone(b)
	slices.Sort(a)
	slices.Sort(b)
	return slices.Equal(slices.Compact(a), slices.Compact(b))
}
