package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashFixture() *ConstraintSpec {
	return &ConstraintSpec{
		Tags: []TagDef{{
			Name:      "HLUT_STATE",
			Default:   "LUT",
			States:    []StateDef{{Name: "LUT"}, {Name: "RAM32"}},
			SiteTypes: []string{"SLICEM", "SLICEL"},
		}},
		CellConstraints: []CellConstraint{{
			Cells: []string{"RAMD32"},
			Locations: []Location{{
				SiteTypes: []string{"SLICEM"},
				Bel:       BelSetOf("H5LUT", "H6LUT"),
				Implies:   []Implies{{Tag: "HLUT_STATE", State: "RAM32"}},
			}},
		}},
	}
}

func TestSpecHashDeterminism(t *testing.T) {
	h1, err := SpecHash(hashFixture())
	require.NoError(t, err)
	h2, err := SpecHash(hashFixture())
	require.NoError(t, err)

	assert.Equal(t, h1, h2, "SpecHash must be deterministic")
	assert.Len(t, h1, 64, "SHA-256 hex is 64 characters")
}

func TestSpecHashIgnoresSetOrder(t *testing.T) {
	a := hashFixture()
	b := hashFixture()
	b.Tags[0].SiteTypes = []string{"SLICEL", "SLICEM"}
	b.CellConstraints[0].Locations[0].Bel = BelSetOf("H6LUT", "H5LUT")

	assert.Equal(t, MustSpecHash(a), MustSpecHash(b))
}

func TestSpecHashChangesWithContent(t *testing.T) {
	a := hashFixture()
	b := hashFixture()
	b.Tags[0].Default = "RAM32"

	assert.NotEqual(t, MustSpecHash(a), MustSpecHash(b))
}

func TestPlacementHashOrderIndependent(t *testing.T) {
	p1 := Placement{Cell: "ram", CellType: "RAMD32", Site: "SLICE_X0Y0", SiteType: "SLICEM", BEL: "H5LUT"}
	p2 := Placement{Cell: "lut", CellType: "LUT6", Site: "SLICE_X0Y0", SiteType: "SLICEM", BEL: "H6LUT"}

	h1, err := PlacementHash([]Placement{p1, p2})
	require.NoError(t, err)
	h2, err := PlacementHash([]Placement{p2, p1})
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	h3, err := PlacementHash([]Placement{p1})
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}
