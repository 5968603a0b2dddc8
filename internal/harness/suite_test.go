package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindScenarioFiles(t *testing.T) {
	dir := filepath.Join("testdata", "scenarios")

	tests := []struct {
		name   string
		filter string
		want   []string
	}{
		{"all", "", []string{"bram_tile_violation.yaml", "ff_occupancy.yaml", "ram_conflict.yaml"}},
		{"glob", "*_conflict", []string{"ram_conflict.yaml"}},
		{"no match", "cart-*", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			files, err := FindScenarioFiles(dir, tt.filter)
			require.NoError(t, err)

			var names []string
			for _, f := range files {
				names = append(names, filepath.Base(f))
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestFindScenarioFilesSingleFile(t *testing.T) {
	path := filepath.Join("testdata", "scenarios", "ff_occupancy.yaml")
	files, err := FindScenarioFiles(path, "ignored")
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)
}

func TestFindScenarioFilesErrors(t *testing.T) {
	_, err := FindScenarioFiles(filepath.Join("testdata", "missing"), "")
	assert.Error(t, err)

	_, err = FindScenarioFiles(filepath.Join("testdata", "scenarios"), "[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid filter pattern")
}
