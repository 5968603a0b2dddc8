package cli

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var harnessScenarios = filepath.Join("..", "harness", "testdata", "scenarios")

func TestTestCommandPasses(t *testing.T) {
	out, _, err := execute(t, "test", harnessScenarios)
	require.NoError(t, err)

	assert.Contains(t, out, "✓ bram_tile_violation\n")
	assert.Contains(t, out, "✓ ff_occupancy\n")
	assert.Contains(t, out, "✓ ram_conflict\n")
	assert.Contains(t, out, "3 passed, 0 failed, 3 total")
}

func TestTestCommandFilter(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "test", "--filter", "ram_*", harnessScenarios)
	require.NoError(t, err)

	var resp struct {
		Status string     `json:"status"`
		Data   TestResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, 1, resp.Data.Total)
	require.Len(t, resp.Data.Scenarios, 1)
	assert.Equal(t, "ram_conflict", resp.Data.Scenarios[0].Name)
}

func TestTestCommandFailures(t *testing.T) {
	out, _, err := execute(t, "test", filepath.Join("..", "harness", "testdata", "invalid"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	assert.Contains(t, out, "✗ unknown_field.yaml")
	assert.Contains(t, out, "✗ wrong_state")
	assert.Contains(t, out, "0 passed, 2 failed, 2 total")
}

func TestTestCommandNoScenarios(t *testing.T) {
	out, _, err := execute(t, "test", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "No scenarios found.\n", out)
}

func TestTestCommandMissingPath(t *testing.T) {
	_, _, err := execute(t, "test", "/nonexistent/scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeNotFound)
}

func TestTestCommandGoldenUpdateAndCompare(t *testing.T) {
	dir := t.TempDir()
	spec, err := filepath.Abs(filepath.Join("testdata", "slice.yaml"))
	require.NoError(t, err)
	scenario := filepath.Join(dir, "one_flop.yaml")
	require.NoError(t, os.WriteFile(scenario, []byte(`name: one_flop
description: "a single flop"
spec: `+spec+`
steps:
  - apply: ff0 FDRE at SLICE_X1Y0:SLICEL/AFF
assertions:
  - type: matches_check
`), 0o644))

	_, _, err = execute(t, "test", "--update", dir)
	require.NoError(t, err)

	goldenPath := filepath.Join(dir, "golden", "one_flop.golden")
	golden, err := os.ReadFile(goldenPath)
	require.NoError(t, err)
	assert.Contains(t, string(golden), `"scenario_name":"one_flop"`)

	_, _, err = execute(t, "test", dir)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(goldenPath, []byte("{}"), 0o644))
	out, _, err := execute(t, "test", dir)
	require.Error(t, err)
	assert.Contains(t, out, "snapshot does not match golden file")
}
