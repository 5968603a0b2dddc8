package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONFieldNaming(t *testing.T) {
	spec := ConstraintSpec{
		Tags: []TagDef{{Name: "T", Default: "A", States: []StateDef{{Name: "A"}}, SiteTypes: []string{"S"}}},
		CellConstraints: []CellConstraint{{
			Cells:     []string{"C"},
			Locations: []Location{{SiteTypes: []string{"S"}, Bel: AnyBel()}},
		}},
	}
	data, err := json.Marshal(spec)
	require.NoError(t, err)

	assert.Contains(t, string(data), `"cell_constraints"`)
	assert.Contains(t, string(data), `"site_types"`)
	assert.NotContains(t, string(data), `"cellConstraints"`)
	assert.NotContains(t, string(data), `"routed_tags"`, "empty routed tags are omitted")
}

func TestTagDefScopeKind(t *testing.T) {
	tests := []struct {
		name string
		tag  TagDef
		want ScopeKind
	}{
		{"site", TagDef{SiteTypes: []string{"SLICEM"}}, ScopeSite},
		{"tile", TagDef{TileTypes: []string{"CLBLM_L"}}, ScopeTile},
		{"none", TagDef{}, ""},
		{"ambiguous", TagDef{SiteTypes: []string{"SLICEM"}, TileTypes: []string{"CLBLM_L"}}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.tag.ScopeKind())
		})
	}
}

func TestBelPatternMatches(t *testing.T) {
	tests := []struct {
		name    string
		pattern BelPattern
		bel     string
		want    bool
	}{
		{"any", AnyBel(), "AFF", true},
		{"exact hit", ExactBel("H6LUT"), "H6LUT", true},
		{"exact miss", ExactBel("H6LUT"), "H5LUT", false},
		{"set hit", BelSetOf("H5LUT", "H6LUT"), "H5LUT", true},
		{"set miss", BelSetOf("H5LUT", "H6LUT"), "G6LUT", false},
		{"unknown kind", BelPattern{Kind: "bogus"}, "H6LUT", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pattern.Matches(tt.bel))
		})
	}
}

func TestLocationMatches(t *testing.T) {
	loc := Location{SiteTypes: []string{"SLICEM"}, Bel: ExactBel("H6LUT")}

	assert.True(t, loc.Matches("SLICEM", "H6LUT"))
	assert.False(t, loc.Matches("SLICEL", "H6LUT"), "site type must match")
	assert.False(t, loc.Matches("SLICEM", "G6LUT"), "bel must match")
}

func TestPlacementKey(t *testing.T) {
	p := Placement{Cell: "ram0", CellType: "RAMD32", Site: "SLICE_X0Y0", SiteType: "SLICEM", BEL: "H5LUT"}
	assert.Equal(t, PlacementKey("ram0@SLICE_X0Y0/H5LUT"), p.Key())
	assert.Equal(t, SiteRef{Site: "SLICE_X0Y0", SiteType: "SLICEM"}, p.SiteRef())
}

func TestParseInstanceKey(t *testing.T) {
	tests := []struct {
		in      string
		want    InstanceKey
		wantErr bool
	}{
		{in: "site:SLICE_X0Y0", want: SiteKey("SLICE_X0Y0")},
		{in: "tile:CLBLM_L_X2Y0", want: TileKey("CLBLM_L_X2Y0")},
		{in: "SLICE_X1Y1", want: SiteKey("SLICE_X1Y1")},
		{in: "bel:X", wantErr: true},
		{in: "site:", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseInstanceKey(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) InstanceKey {
	t.Helper()
	k, err := ParseInstanceKey(s)
	require.NoError(t, err)
	return k
}

func TestDiagnosticMessage(t *testing.T) {
	conflict := Diagnostic{
		Kind:       DiagTagConflict,
		Instance:   SiteKey("SLICE_X0Y0"),
		Tag:        "HLUT_STATE",
		States:     []string{"RAM32", "RAM64"},
		Placements: []PlacementKey{"a@SLICE_X0Y0/H5LUT", "b@SLICE_X0Y0/H6LUT"},
	}
	assert.Equal(t,
		"site:SLICE_X0Y0: tag HLUT_STATE implied as {RAM32, RAM64} by a@SLICE_X0Y0/H5LUT, b@SLICE_X0Y0/H6LUT",
		conflict.Message())

	violation := Diagnostic{
		Kind:       DiagRequirementViolation,
		Instance:   SiteKey("SLICE_X0Y0"),
		Tag:        "HLUT_STATE",
		States:     []string{"LUT"},
		Resolved:   "RAM32",
		Placements: []PlacementKey{"lut@SLICE_X0Y0/H6LUT"},
	}
	assert.Equal(t,
		"site:SLICE_X0Y0: lut@SLICE_X0Y0/H6LUT requires HLUT_STATE in {LUT}, resolved RAM32",
		violation.Message())
}

func TestNewRun(t *testing.T) {
	report := &Report{
		SpecHash:      "spec",
		PlacementHash: "pl",
		Placements:    3,
		Valid:         false,
		Instances:     []Resolution{{Instance: SiteKey("SLICE_X0Y0")}, {Instance: TileKey("BRAM_L_X6Y0")}},
	}

	run := NewRun("r1", "nightly", "first", report)

	assert.Equal(t, Run{
		ID:            "r1",
		Label:         "nightly",
		SpecHash:      "spec",
		PlacementHash: "pl",
		Placements:    3,
		Instances:     2,
		Valid:         false,
		MatchPolicy:   "first",
		EngineVersion: EngineVersion,
		IRVersion:     IRVersion,
	}, run)
}
