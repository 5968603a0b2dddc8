package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sitetag/internal/engine"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/store"
)

func TestCheckLegal(t *testing.T) {
	out, _, err := execute(t, "check", cueSpecDir, legalPlace)
	require.NoError(t, err)

	assert.Equal(t, "✓ Placement legal (5 placements, 2 instances)\n", out)
}

func TestCheckIllegal(t *testing.T) {
	out, _, err := execute(t, "check", cueSpecDir, illegalPlace)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, err.Error(), "2 conflict(s), 1 violation(s)")

	g := goldie.New(t, goldie.WithFixtureDir(filepath.Join("testdata", "golden")))
	g.Assert(t, "check_illegal", []byte(out))
}

func TestCheckYAMLMatchesCUE(t *testing.T) {
	cueOut, _, cueErr := execute(t, "--format", "json", "check", cueSpecDir, illegalPlace)
	yamlOut, _, yamlErr := execute(t, "--format", "json", "check", yamlSpec, illegalPlace)
	require.Error(t, cueErr)
	require.Error(t, yamlErr)

	var fromCUE, fromYAML struct {
		Data CheckResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(cueOut), &fromCUE))
	require.NoError(t, json.Unmarshal([]byte(yamlOut), &fromYAML))

	assert.Equal(t, fromCUE.Data.Report.Diagnostics, fromYAML.Data.Report.Diagnostics)
	assert.Equal(t, fromCUE.Data.Report.PlacementHash, fromYAML.Data.Report.PlacementHash)
}

func TestCheckJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "check", cueSpecDir, illegalPlace)
	require.Error(t, err)

	var resp struct {
		Status string      `json:"status"`
		Data   CheckResult `json:"data"`
		Error  CLIError    `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeIllegal, resp.Error.Code)
	require.NotNil(t, resp.Data.Report)
	assert.False(t, resp.Data.Report.Valid)
	assert.Equal(t, 6, resp.Data.Report.Placements)
	assert.Len(t, resp.Data.Report.Instances, 5)
	assert.Len(t, resp.Data.Report.Diagnostics, 3)
	assert.Nil(t, resp.Data.Run)
}

func TestCheckFilters(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{
			name: "filtered cells remove both conflicts",
			args: []string{"--filtered-cells", "RAMD64E,FDCE"},
			want: "0 conflict(s), 1 violation(s)",
		},
		{
			name: "allowed sites keep one slice",
			args: []string{"--allowed-sites", "SLICE_X0Y0"},
			want: "1 conflict(s), 0 violation(s)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"check"}, tt.args...)
			args = append(args, cueSpecDir, illegalPlace)
			out, _, err := execute(t, args...)
			require.Error(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCheckFilterToLegal(t *testing.T) {
	out, _, err := execute(t, "check", "--allowed-sites", "SLICE_X0Y0,RAMB18_X0Y0", "--filtered-cells", "RAMD64E",
		cueSpecDir, illegalPlace)
	require.NoError(t, err)

	assert.Equal(t, "✓ Placement legal (2 placements, 3 instances)\n", out)
}

func TestCheckUnionAndWorkers(t *testing.T) {
	out, _, err := execute(t, "check", "--union", "--workers", "3", cueSpecDir, illegalPlace)
	require.Error(t, err)

	g := goldie.New(t, goldie.WithFixtureDir(filepath.Join("testdata", "golden")))
	g.Assert(t, "check_illegal", []byte(out))
}

func TestCheckDuplicatePlacement(t *testing.T) {
	out, _, err := execute(t, "check", cueSpecDir, filepath.Join("testdata", "duplicate.place"))
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeUsage)
	assert.Contains(t, out, string(engine.ErrCodeDuplicatePlacement))
}

func TestCheckParseError(t *testing.T) {
	_, _, err := execute(t, "check", cueSpecDir, filepath.Join("testdata", "broken.place"))
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeParseFailed)
}

func TestCheckInvalidSpec(t *testing.T) {
	_, _, err := execute(t, "check", filepath.Join("testdata", "invalid.yaml"), legalPlace)
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeInvalidSpec)
	assert.Contains(t, err.Error(), "2 error(s)")
}

func TestCheckLabelRequiresDB(t *testing.T) {
	_, _, err := execute(t, "check", "--label", "nightly", cueSpecDir, legalPlace)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "--label requires --db")
}

func TestCheckRecordsRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "runs.db")

	buf := &bytes.Buffer{}
	cmd := &cobra.Command{}
	cmd.SetOut(buf)
	opts := &CheckOptions{
		RootOptions: &RootOptions{Format: "text"},
		Database:    dbPath,
		Label:       "nightly",
		RunIDs:      engine.NewFixedGenerator("run-1"),
	}

	err := runCheck(opts, cueSpecDir, illegalPlace, cmd)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, buf.String(), "recorded run run-1 (seq 1)")

	st, err := store.Open(dbPath)
	require.NoError(t, err)
	defer st.Close()

	run, err := st.ReadRun(t.Context(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, "nightly", run.Label)
	assert.Equal(t, "first", run.MatchPolicy)
	assert.False(t, run.Valid)
	assert.Equal(t, 6, run.Placements)
	assert.Equal(t, 5, run.Instances)

	diags, err := st.ReadDiagnostics(t.Context(), store.DiagnosticFilter{RunID: "run-1"})
	require.NoError(t, err)
	require.Len(t, diags, 3)
	assert.Equal(t, ir.DiagRequirementViolation, diags[2].Kind)
	assert.Equal(t, ir.TileKey("BRAM_L_X6Y0"), diags[2].Instance)
}
