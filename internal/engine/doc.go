// Package engine checks cell placements against a constraint spec.
//
// The pipeline has three stages:
//
//  1. Extract turns one placement into contributions: implied tag states and
//     required state sets, each keyed to the site or tile instance that
//     carries the tag.
//  2. Resolve folds the contributions of one instance into a tag→state map,
//     reporting TagConflict and RequirementViolation records as data.
//  3. Evaluator applies and undoes placements incrementally, re-resolving
//     only the instances a placement touches. Check runs a full netlist in
//     parallel over instance buckets.
//
// DETERMINISM:
//
// Resolution does not depend on contribution order. Conflicts are sorted by
// tag, violations by (tag, placement key, required set), instances by key.
// Diagnostics are stamped with Clock sequence numbers in report order, so a
// report is identical for any worker count or input permutation.
//
// CONCURRENCY:
//
// Model is immutable after NewModel and may be shared by any number of
// goroutines. Evaluator holds no locks; use one per search worker.
package engine
