package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sitetag/internal/ir"
)

func TestStatesGolden(t *testing.T) {
	tests := []struct {
		name      string
		placement string
	}{
		{"states_legal", legalPlace},
		{"states_illegal", illegalPlace},
	}

	g := goldie.New(t, goldie.WithFixtureDir(filepath.Join("testdata", "golden")))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, "states", cueSpecDir, tt.placement)
			require.NoError(t, err)
			g.Assert(t, tt.name, []byte(out))
		})
	}
}

func TestStatesSingleInstance(t *testing.T) {
	out, _, err := execute(t, "states", "--instance", "tile:BRAM_L_X6Y0", cueSpecDir, illegalPlace)
	require.NoError(t, err)

	assert.Equal(t, "✗ tile:BRAM_L_X6Y0 (BRAM_L)\n"+
		"    BRAM_MODE = SDP\n"+
		"    violation: bram1@RAMB36_X0Y0/RAMB36E1 requires BRAM_MODE in {TDP}\n", out)
}

func TestStatesUnknownInstance(t *testing.T) {
	out, _, err := execute(t, "states", "--instance", "site:SLICE_X9Y9", cueSpecDir, legalPlace)
	require.NoError(t, err)

	assert.Equal(t, "no instances\n", out)
}

func TestStatesBadInstanceKey(t *testing.T) {
	_, _, err := execute(t, "states", "--instance", "bel:SLICE_X0Y0", cueSpecDir, legalPlace)
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestStatesJSON(t *testing.T) {
	out, _, err := execute(t, "--format", "json", "states", cueSpecDir, legalPlace)
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   StatesResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Valid)
	require.Len(t, resp.Data.Instances, 2)
	assert.Equal(t, ir.SiteKey("SLICE_X0Y0"), resp.Data.Instances[0].Instance)
	assert.Equal(t, "RAM32", resp.Data.Instances[0].States["HLUT_STATE"])
}

func TestStatesDuplicatePlacement(t *testing.T) {
	_, _, err := execute(t, "states", cueSpecDir, filepath.Join("testdata", "duplicate.place"))
	require.Error(t, err)

	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), ErrCodeUsage)
	assert.Contains(t, err.Error(), "ALREADY_APPLIED")
}

func TestStatesFilteredCells(t *testing.T) {
	out, _, err := execute(t, "states", "--filtered-cells", "RAMD64E,FDCE,RAMB36E1", "--allowed-sites", "SLICE_X0Y0,SLICE_X1Y0",
		cueSpecDir, illegalPlace)
	require.NoError(t, err)

	assert.Equal(t, "✓ site:SLICE_X0Y0 (SLICEM)\n"+
		"    FFSYNC = SYNC\n"+
		"    HLUT_STATE = RAM32\n"+
		"✓ site:SLICE_X1Y0 (SLICEL)\n"+
		"    FFSYNC = SYNC\n", out)
}
