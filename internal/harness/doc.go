// Package harness runs scripted apply/undo scenarios against the
// incremental evaluator.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: ram_conflict
//	description: "RAM32 and RAM64 halves conflict until one is undone"
//	spec: ../specs/slice.yaml
//	steps:
//	  - apply: ram0 RAMD32 at SLICE_X0Y0:SLICEM/H5LUT
//	    expect: { valid: true }
//	  - apply: ram1 RAMD64E at SLICE_X0Y0:SLICEM/H6LUT
//	    expect: { valid: false, conflicts: 1 }
//	  - undo: ram1
//	    expect: { valid: true }
//	assertions:
//	  - type: state
//	    instance: site:SLICE_X0Y0
//	    tag: HLUT_STATE
//	    state: RAM32
//	  - type: matches_check
//
// Apply steps use the placement file syntax without the leading "place"
// and the trailing ";". Undo steps name the cell of an earlier apply.
//
// # Assertion Types
//
//   - state: a tag resolves to a state at an instance
//   - conflict: a tag is in conflict at an instance
//   - violation: a requirement on a tag is violated at an instance
//   - valid: overall validity
//   - instances: the exact set of occupied instances
//   - matches_check: the incremental state agrees with a batch check
//   - stored_diagnostics: the run recorded in the store has N diagnostics
//
// # Determinism
//
// Steps are numbered by an engine.Clock and every scenario records into its
// own in-memory SQLite store, so snapshots are identical across runs and
// can be compared against golden files.
package harness
