// Package testutil provides shared fixtures for tests.
package testutil

import "github.com/roach88/sitetag/internal/ir"

// SliceSpec returns a small 7-series style constraint spec:
//
//   - HLUT_STATE (SLICEM): LUT | RAM32 | RAM64, default LUT
//   - FFSYNC (SLICEL, SLICEM): SYNC | ASYNC, default SYNC
//   - BRAM_MODE (tile BRAM_L): TDP | SDP, default TDP
//   - CLK_SEL: routed tag over BRAM_MODE
//
// Rules: RAMD32 at H5LUT/H6LUT implies RAM32, RAMD64E at H6LUT implies
// RAM64, LUT6 at H6LUT requires LUT, FDRE/FDCE imply SYNC/ASYNC at any BEL,
// RAMB18E1 implies SDP, RAMB36E1 requires TDP. CARRY4 is unconstrained.
//
// Each call returns a fresh copy.
func SliceSpec() *ir.ConstraintSpec {
	return &ir.ConstraintSpec{
		Tags: []ir.TagDef{
			{
				Name:        "HLUT_STATE",
				Description: "Mode of the H LUT pair",
				Default:     "LUT",
				SiteTypes:   []string{"SLICEM"},
				States: []ir.StateDef{
					{Name: "LUT", Description: "plain LUT"},
					{Name: "RAM32", Description: "32-deep distributed RAM"},
					{Name: "RAM64", Description: "64-deep distributed RAM"},
				},
			},
			{
				Name:      "FFSYNC",
				Default:   "SYNC",
				SiteTypes: []string{"SLICEL", "SLICEM"},
				States:    []ir.StateDef{{Name: "SYNC"}, {Name: "ASYNC"}},
			},
			{
				Name:      "BRAM_MODE",
				Default:   "TDP",
				TileTypes: []string{"BRAM_L"},
				States:    []ir.StateDef{{Name: "TDP"}, {Name: "SDP"}},
			},
		},
		RoutedTags: []ir.RoutedTagDef{
			{Name: "CLK_SEL", RoutingBel: "CLKMUX", BelPins: []ir.BelPin{{Pin: "I0", Tag: "BRAM_MODE"}}},
		},
		CellConstraints: []ir.CellConstraint{
			{
				Cells: []string{"RAMD32"},
				Locations: []ir.Location{{
					SiteTypes: []string{"SLICEM"},
					Bel:       ir.BelSetOf("H5LUT", "H6LUT"),
					Implies:   []ir.Implies{{Tag: "HLUT_STATE", State: "RAM32"}},
				}},
			},
			{
				Cells: []string{"RAMD64E"},
				Locations: []ir.Location{{
					SiteTypes: []string{"SLICEM"},
					Bel:       ir.ExactBel("H6LUT"),
					Implies:   []ir.Implies{{Tag: "HLUT_STATE", State: "RAM64"}},
				}},
			},
			{
				Cells: []string{"LUT6"},
				Locations: []ir.Location{{
					SiteTypes: []string{"SLICEM"},
					Bel:       ir.ExactBel("H6LUT"),
					Requires:  []ir.Requires{{Tag: "HLUT_STATE", States: []string{"LUT"}}},
				}},
			},
			{
				Cells: []string{"FDRE"},
				Locations: []ir.Location{{
					SiteTypes: []string{"SLICEL", "SLICEM"},
					Bel:       ir.AnyBel(),
					Implies:   []ir.Implies{{Tag: "FFSYNC", State: "SYNC"}},
				}},
			},
			{
				Cells: []string{"FDCE"},
				Locations: []ir.Location{{
					SiteTypes: []string{"SLICEL", "SLICEM"},
					Bel:       ir.AnyBel(),
					Implies:   []ir.Implies{{Tag: "FFSYNC", State: "ASYNC"}},
				}},
			},
			{
				Cells: []string{"RAMB18E1"},
				Locations: []ir.Location{{
					SiteTypes: []string{"RAMB18"},
					Bel:       ir.ExactBel("RAMB18E1"),
					Implies:   []ir.Implies{{Tag: "BRAM_MODE", State: "SDP"}},
				}},
			},
			{
				Cells: []string{"RAMB36E1"},
				Locations: []ir.Location{{
					SiteTypes: []string{"RAMB36"},
					Bel:       ir.ExactBel("RAMB36E1"),
					Requires: []ir.Requires{
						{Tag: "BRAM_MODE", States: []string{"TDP"}},
						{Tag: "CLK_SEL", Port: "I0", States: []string{"TDP"}},
					},
				}},
			},
		},
	}
}

// Place builds a site placement.
func Place(cell, cellType, site, siteType, bel string) ir.Placement {
	return ir.Placement{Cell: cell, CellType: cellType, Site: site, SiteType: siteType, BEL: bel}
}

// PlaceInTile builds a placement whose site sits in a tile.
func PlaceInTile(cell, cellType, site, siteType, bel, tile, tileType string) ir.Placement {
	p := Place(cell, cellType, site, siteType, bel)
	p.Tile = tile
	p.TileType = tileType
	return p
}
