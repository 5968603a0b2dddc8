package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/store"
)

// recordRuns checks each placement file into a fresh database with fixed
// run IDs run-1, run-2, ... and returns the database path.
func recordRuns(t *testing.T, label string, placements ...string) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "runs.db")
	for i, p := range placements {
		cmd := &cobra.Command{}
		cmd.SetOut(&bytes.Buffer{})
		opts := &CheckOptions{
			RootOptions: &RootOptions{Format: "text"},
			Database:    dbPath,
			Label:       label,
			RunIDs:      engine.NewFixedGenerator(fmt.Sprintf("run-%d", i+1)),
		}
		err := runCheck(opts, cueSpecDir, p, cmd)
		if err != nil {
			require.Equal(t, ExitFailure, GetExitCode(err), "unexpected check error: %v", err)
		}
	}
	return dbPath
}

func TestHistoryListsRuns(t *testing.T) {
	db := recordRuns(t, "nightly", legalPlace, illegalPlace)

	out, _, err := execute(t, "history", db)
	require.NoError(t, err)

	assert.Equal(t,
		"   1 run-1 legal placements=5 instances=2 policy=first label=nightly\n"+
			"   2 run-2 illegal placements=6 instances=5 policy=first label=nightly\n",
		out)
}

func TestHistoryLabelFilter(t *testing.T) {
	db := recordRuns(t, "nightly", legalPlace)

	out, _, err := execute(t, "history", "--label", "adhoc", db)
	require.NoError(t, err)
	assert.Equal(t, "no runs\n", out)
}

func TestHistoryLatestDiagnostics(t *testing.T) {
	db := recordRuns(t, "", legalPlace, illegalPlace)

	out, _, err := execute(t, "history", "--run", "latest", "--kind", "violation", db)
	require.NoError(t, err)

	assert.Equal(t, "run-2 [3] requirement_violation tile:BRAM_L_X6Y0: "+
		"bram1@RAMB36_X0Y0/RAMB36E1 requires BRAM_MODE in {TDP}, resolved SDP\n", out)
}

func TestHistoryDiagnosticFilters(t *testing.T) {
	db := recordRuns(t, "", illegalPlace)

	tests := []struct {
		name    string
		args    []string
		wantSeq []int64
	}{
		{"all of run", []string{"--run", "run-1"}, []int64{1, 2, 3}},
		{"conflicts", []string{"--kind", "conflict"}, []int64{1, 2}},
		{"by tag", []string{"--tag", "FFSYNC"}, []int64{2}},
		{"by instance", []string{"--instance", "site:SLICE_X0Y0"}, []int64{1}},
		{"no match", []string{"--tag", "BRAM_MODE", "--kind", "conflict"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--format", "json", "history"}, tt.args...)
			out, _, err := execute(t, append(args, db)...)
			require.NoError(t, err)

			var resp struct {
				Data HistoryResult `json:"data"`
			}
			require.NoError(t, json.Unmarshal([]byte(out), &resp))
			var seqs []int64
			for _, d := range resp.Data.Diagnostics {
				seqs = append(seqs, d.Seq)
			}
			assert.Equal(t, tt.wantSeq, seqs)
		})
	}
}

func TestHistoryRecordedStates(t *testing.T) {
	db := recordRuns(t, "", legalPlace)

	out, _, err := execute(t, "history", "--run", "latest", "--states", db)
	require.NoError(t, err)

	assert.Equal(t, "✓ site:SLICE_X0Y0 (SLICEM)\n"+
		"    FFSYNC = SYNC\n"+
		"    HLUT_STATE = RAM32\n"+
		"✓ site:SLICE_X1Y0 (SLICEL)\n"+
		"    FFSYNC = SYNC\n", out)
}

func TestHistoryErrors(t *testing.T) {
	db := recordRuns(t, "", legalPlace)

	tests := []struct {
		name     string
		args     []string
		wantCode string
	}{
		{"missing database", []string{"history", filepath.Join(t.TempDir(), "none.db")}, ErrCodeNotFound},
		{"unknown run", []string{"history", "--run", "run-9", db}, ErrCodeNotFound},
		{"states without run", []string{"history", "--states", db}, ErrCodeGeneric},
		{"bad kind", []string{"history", "--kind", "warning", db}, ErrCodeGeneric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Contains(t, err.Error(), tt.wantCode)
		})
	}
}

func TestHistoryLatestOnEmptyDatabase(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	st, err := store.Open(db)
	require.NoError(t, err)
	require.NoError(t, st.Close())

	_, _, err = execute(t, "history", "--run", "latest", db)
	require.Error(t, err)
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestParseDiagnosticKind(t *testing.T) {
	for in, want := range map[string]ir.DiagnosticKind{
		"conflict":              ir.DiagTagConflict,
		"VIOLATION":             ir.DiagRequirementViolation,
		"tag_conflict":          ir.DiagTagConflict,
		"requirement_violation": ir.DiagRequirementViolation,
	} {
		got, err := parseDiagnosticKind(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseDiagnosticKind("warning")
	assert.Error(t, err)
}
