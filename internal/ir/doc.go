// Package ir provides the canonical in-memory types for sitetag.
//
// This package contains type definitions only. All other internal packages
// import ir; ir imports nothing internal. This keeps the constraint model,
// placements and diagnostics as the foundational layer with no circular
// dependencies.
//
// Key design constraints:
//   - All JSON tags use snake_case
//   - Diagnostics are data, not errors: TagConflict and RequirementViolation
//     are collected into a Resolution and never returned as Go errors
//   - Every slice in a Resolution or Report has a defined sort order so that
//     serialized output is byte-identical across runs
package ir
