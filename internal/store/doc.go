// Package store provides SQLite-backed storage for staleness records.
//
// The store keeps an append-only log of analysis runs:
//   - Runs: one row per analyzed trace, keyed by a time-sortable UUIDv7
//   - Records: one row per emitted staleness record, keyed by (run_id, seq)
//
// # Patterns
//
// Logical ordering:
//   - Records are ordered by seq, the emission order within a run
//   - Wall-clock timestamps are informational only
//
// Flush atomicity:
//   - A RunSink buffers a flush batch in one transaction
//   - The batch is committed on Flush, so a crashed run never leaves a
//     partial batch behind
//
// Deterministic query results:
//   - Every query carries a total ORDER BY
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - foreign_keys=ON: Enforce referential integrity
package store
