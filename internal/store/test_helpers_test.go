package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/sitetag/internal/ir"
)

// createTestStore creates a new temporary store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestReport builds an illegal report: one conflicted SLICEM site,
// one clean SLICEL site and one tile with a requirement violation.
func createTestReport() *ir.Report {
	slicem := ir.SiteKey("SLICE_X0Y0")
	slicel := ir.SiteKey("SLICE_X1Y0")
	bram := ir.TileKey("BRAM_L_X6Y0")

	conflict := ir.TagConflict{
		Instance:   slicem,
		Tag:        "HLUT_STATE",
		States:     []string{"RAM32", "RAM64"},
		Placements: []ir.PlacementKey{"ram32@SLICE_X0Y0/H5LUT", "ram64@SLICE_X0Y0/H6LUT"},
	}
	violation := ir.RequirementViolation{
		Instance:  bram,
		Tag:       "BRAM_MODE",
		Placement: "bram36@RAMB36_X0Y0/RAMB36E1",
		Resolved:  "SDP",
		Required:  []string{"TDP"},
	}

	return &ir.Report{
		SpecHash:      "spec-hash",
		PlacementHash: "placement-hash",
		Placements:    5,
		Valid:         false,
		Instances: []ir.Resolution{
			{
				Instance:  slicem,
				Type:      "SLICEM",
				States:    map[string]string{"HLUT_STATE": "RAM32", "FFSYNC": "SYNC"},
				Conflicts: []ir.TagConflict{conflict},
			},
			{
				Instance: slicel,
				Type:     "SLICEL",
				States:   map[string]string{"FFSYNC": "ASYNC"},
			},
			{
				Instance:   bram,
				Type:       "BRAM_L",
				States:     map[string]string{"BRAM_MODE": "SDP"},
				Violations: []ir.RequirementViolation{violation},
			},
		},
		Diagnostics: []ir.Diagnostic{
			{
				Seq:        1,
				Kind:       ir.DiagTagConflict,
				Instance:   slicem,
				Tag:        "HLUT_STATE",
				States:     conflict.States,
				Placements: conflict.Placements,
			},
			{
				Seq:        2,
				Kind:       ir.DiagRequirementViolation,
				Instance:   bram,
				Tag:        "BRAM_MODE",
				States:     []string{"TDP"},
				Resolved:   "SDP",
				Placements: []ir.PlacementKey{violation.Placement},
			},
		},
	}
}
