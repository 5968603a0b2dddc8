// Package store provides SQLite-backed storage for recorded check runs.
//
// A run is written once, in a single transaction, and never updated:
//   - runs: one summary row per full-netlist check
//   - instance_states: the resolved tag states of every instance
//   - diagnostics: every conflict and violation, stamped with its seq
//
// # Ordering
//
// Runs carry a store-assigned seq (logical, never a timestamp). Every
// read goes through querysql, which appends a stable ORDER BY with a
// unique tiebreaker, so the same database always reads back the same way.
//
// # Idempotency
//
// Writing a run whose ID already exists is a no-op that returns the stored
// run, so a retried write never duplicates diagnostics.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
