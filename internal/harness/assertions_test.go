package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/testutil"
)

func newSliceEvaluator(t *testing.T, placements ...ir.Placement) *engine.Evaluator {
	t.Helper()
	m, err := engine.NewModel(testutil.SliceSpec())
	require.NoError(t, err)
	ev := engine.NewEvaluator(m)
	for _, p := range placements {
		require.NoError(t, ev.Apply(p))
	}
	return ev
}

func intPtr(n int) *int    { return &n }
func boolPtr(b bool) *bool { return &b }

func TestAssertionErrorFormat(t *testing.T) {
	err := &AssertionError{
		Type:     AssertState,
		Expected: "FFSYNC = SYNC at site:SLICE_X1Y0",
		Actual:   "FFSYNC unresolved",
		Trace: []TraceEvent{
			{Seq: 1, Op: "apply", Placement: "ff0@SLICE_X1Y0/AFF"},
			{Seq: 2, Op: "undo", Placement: "ff1@SLICE_X1Y0/BFF", Error: "NOT_APPLIED"},
		},
	}

	assert.Equal(t, "Assertion failed: state\n"+
		"  Expected: FFSYNC = SYNC at site:SLICE_X1Y0\n"+
		"  Actual: FFSYNC unresolved\n"+
		"\nFull trace:\n"+
		"  [1] apply ff0@SLICE_X1Y0/AFF\n"+
		"  [2] undo ff1@SLICE_X1Y0/BFF (NOT_APPLIED)\n", err.Error())
}

func TestEvaluateAssertions(t *testing.T) {
	ev := newSliceEvaluator(t,
		testutil.Place("ff0", "FDRE", "SLICE_X1Y0", "SLICEL", "AFF"),
		testutil.Place("ff1", "FDCE", "SLICE_X1Y0", "SLICEL", "BFF"),
	)
	actx := &AssertionContext{Evaluator: ev, Report: &ir.Report{}}

	tests := []struct {
		name      string
		assertion Assertion
		wantErr   string
	}{
		{"conflict holds", Assertion{Type: AssertConflict, Instance: "site:SLICE_X1Y0", Tag: "FFSYNC", States: []string{"SYNC", "ASYNC"}}, ""},
		{"conflict wrong states", Assertion{Type: AssertConflict, Instance: "site:SLICE_X1Y0", Tag: "FFSYNC", States: []string{"SYNC"}}, "conflict over {ASYNC, SYNC}"},
		{"conflict absent", Assertion{Type: AssertConflict, Instance: "site:SLICE_X0Y0", Tag: "FFSYNC"}, "no conflict"},
		{"conflicted tag has no state", Assertion{Type: AssertState, Instance: "site:SLICE_X1Y0", Tag: "FFSYNC", State: "SYNC"}, "FFSYNC unresolved"},
		{"valid", Assertion{Type: AssertValid, Valid: boolPtr(false)}, ""},
		{"valid mismatch", Assertion{Type: AssertValid, Valid: boolPtr(true)}, "valid=false"},
		{"instances", Assertion{Type: AssertInstances, Instances: []string{"site:SLICE_X1Y0"}}, ""},
		{"instances mismatch", Assertion{Type: AssertInstances, Instances: []string{"SLICE_X0Y0"}}, "instances [site:SLICE_X0Y0]"},
		{"violation absent", Assertion{Type: AssertViolation, Instance: "site:SLICE_X1Y0", Tag: "FFSYNC"}, "0 violation(s)"},
		{"matches check mismatch", Assertion{Type: AssertMatchesCheck}, "Assertion failed: matches_check"},
		{"stored without store", Assertion{Type: AssertStoredDiagnostics, Count: intPtr(0)}, "requires a store"},
		{"unknown", Assertion{Type: "trace_order"}, `unknown assertion type "trace_order"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := EvaluateAssertions(NewResult(), []Assertion{tt.assertion}, actx)
			if tt.wantErr == "" {
				assert.Empty(t, errs)
				return
			}
			require.Len(t, errs, 1)
			assert.Contains(t, errs[0], tt.wantErr)
		})
	}
}

func TestAssertMatchesCheck(t *testing.T) {
	placements := []ir.Placement{
		testutil.Place("ram0", "RAMD32", "SLICE_X0Y0", "SLICEM", "H5LUT"),
		testutil.Place("ram1", "RAMD64E", "SLICE_X0Y0", "SLICEM", "H6LUT"),
		testutil.PlaceInTile("bram0", "RAMB18E1", "RAMB18_X0Y0", "RAMB18", "RAMB18E1", "BRAM_L_X6Y0", "BRAM_L"),
		testutil.PlaceInTile("bram1", "RAMB36E1", "RAMB36_X0Y0", "RAMB36", "RAMB36E1", "BRAM_L_X6Y0", "BRAM_L"),
	}
	ev := newSliceEvaluator(t, placements...)

	m, err := engine.NewModel(testutil.SliceSpec())
	require.NoError(t, err)
	report, err := engine.Check(t.Context(), m, placements)
	require.NoError(t, err)

	assert.NoError(t, assertMatchesCheck(ev, report))
}

func TestSameSet(t *testing.T) {
	assert.True(t, sameSet([]string{"B", "A"}, []string{"A", "B"}))
	assert.True(t, sameSet([]string{"A", "A"}, []string{"A"}))
	assert.False(t, sameSet([]string{"A"}, []string{"A", "B"}))
}
