package netlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sitetag/internal/ir"
)

func newParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser()
	require.NoError(t, err)
	return p
}

func TestParseSinglePlacement(t *testing.T) {
	got, err := newParser(t).ParseString(`place ram0 RAMD32 at SLICE_X0Y0:SLICEM/H5LUT ;`)
	require.NoError(t, err)

	assert.Equal(t, []ir.Placement{{
		Cell:     "ram0",
		CellType: "RAMD32",
		Site:     "SLICE_X0Y0",
		SiteType: "SLICEM",
		BEL:      "H5LUT",
	}}, got)
}

func TestParseFile(t *testing.T) {
	got, err := newParser(t).ParseFile("testdata/slice.place")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, "lut0@SLICE_X0Y0/H6LUT", string(got[1].Key()))
	assert.Equal(t, "SLICEL", got[2].SiteType)

	bram := got[3]
	assert.Equal(t, "top/u0/bram[0]", bram.Cell, "quoted names are unquoted")
	assert.Equal(t, "BRAM_L_X6Y0", bram.Tile)
	assert.Equal(t, "BRAM_L", bram.TileType)
}

func TestParseEmpty(t *testing.T) {
	got, err := newParser(t).ParseString("# nothing placed\n")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing semicolon", `place ram0 RAMD32 at SLICE_X0Y0:SLICEM/H5LUT`},
		{"missing bel", `place ram0 RAMD32 at SLICE_X0Y0:SLICEM ;`},
		{"missing site type", `place ram0 RAMD32 at SLICE_X0Y0/H5LUT ;`},
		{"bad keyword", `put ram0 RAMD32 at SLICE_X0Y0:SLICEM/H5LUT ;`},
		{"tile without type", `place b0 RAMB18E1 at RAMB18_X0Y0:RAMB18/RAMB18E1 tile BRAM_L_X6Y0 ;`},
	}
	p := newParser(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.ParseString(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "parse error")
		})
	}
}

func TestParseFileMissing(t *testing.T) {
	_, err := newParser(t).ParseFile("testdata/does-not-exist.place")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open file")
}
