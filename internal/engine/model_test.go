package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/sitetag/internal/compiler"
	"github.com/roach88/sitetag/internal/ir"
	"github.com/roach88/sitetag/internal/testutil"
)

func mustModel(t *testing.T, spec *ir.ConstraintSpec) *Model {
	t.Helper()
	m, err := NewModel(spec)
	require.NoError(t, err)
	return m
}

func TestNewModel_Lookups(t *testing.T) {
	m := mustModel(t, testutil.SliceSpec())

	tag, ok := m.Tag("HLUT_STATE")
	require.True(t, ok)
	assert.Equal(t, "LUT", tag.Default)

	_, ok = m.Tag("CLK_SEL")
	assert.False(t, ok, "routed tags are not plain tags")
	_, ok = m.RoutedTag("CLK_SEL")
	assert.True(t, ok)

	assert.Equal(t, []string{"HLUT_STATE", "FFSYNC"}, m.TagsForSiteType("SLICEM"))
	assert.Equal(t, []string{"FFSYNC"}, m.TagsForSiteType("SLICEL"))
	assert.Empty(t, m.TagsForSiteType("IOB33"))
	assert.Equal(t, []string{"BRAM_MODE"}, m.TagsForTileType("BRAM_L"))
	assert.Equal(t, m.TagsForTileType("BRAM_L"), m.TagsFor(ir.ScopeTile, "BRAM_L"))

	require.Len(t, m.RulesForCell("RAMD32"), 1)
	assert.Empty(t, m.RulesForCell("CARRY4"))
	assert.NotEmpty(t, m.Hash())
	assert.Same(t, m.Spec(), m.Spec())
}

func TestNewModel_TagInScope(t *testing.T) {
	m := mustModel(t, testutil.SliceSpec())

	assert.True(t, m.TagInScope("HLUT_STATE", "SLICEM", ""))
	assert.False(t, m.TagInScope("HLUT_STATE", "SLICEL", ""))
	assert.True(t, m.TagInScope("BRAM_MODE", "RAMB18", "BRAM_L"))
	assert.False(t, m.TagInScope("BRAM_MODE", "RAMB18", ""))
	assert.False(t, m.TagInScope("NOPE", "SLICEM", ""))
}

func TestNewModel_RuleSharedByCells(t *testing.T) {
	spec := testutil.SliceSpec()
	spec.CellConstraints[0].Cells = []string{"RAMD32", "RAMS32"}
	m := mustModel(t, spec)

	assert.Equal(t, m.RulesForCell("RAMD32"), m.RulesForCell("RAMS32"))
}

func TestNewModel_RejectsInvalidSpec(t *testing.T) {
	spec := testutil.SliceSpec()
	spec.Tags[0].Default = "SRL"
	spec.CellConstraints[0].Locations[0].Implies[0].Tag = "GLUT_STATE"

	m, err := NewModel(spec)
	assert.Nil(t, m)
	require.Error(t, err)

	var se *compiler.SpecError
	require.ErrorAs(t, err, &se)
	assert.Len(t, se.Errors, 2, "all problems are reported together")
}

func TestNewModel_Nil(t *testing.T) {
	_, err := NewModel(nil)
	assert.Error(t, err)
}

func TestNewModel_HashStable(t *testing.T) {
	a := mustModel(t, testutil.SliceSpec())
	b := mustModel(t, testutil.SliceSpec())
	assert.Equal(t, a.Hash(), b.Hash())

	spec := testutil.SliceSpec()
	spec.Tags[0].Default = "RAM32"
	c := mustModel(t, spec)
	assert.NotEqual(t, a.Hash(), c.Hash())
}
