// Package staleness implements the streaming object lifetime analysis.
//
// The analysis replays an instrumented execution and emits, for every heap
// object, one record: when it was created, when it was last used, and when
// it became unreachable. The gap between the last two is the object's
// staleness; objects held long after their last use are leak candidates.
//
// ARCHITECTURE:
//
// Single-Writer State Machine:
// One Analysis owns every table for its whole lifetime and is driven by one
// goroutine (see trace.Replay). There are no locks.
//
//   - CallStack: current synchronous call stack, snapshotted at allocation
//   - LastUseTable: per-object most recent use and unreachability
//   - LifetimeTable: allocation records, split into live and pending-unreachable
//   - DOMGraph: containment tree below declared roots; detachment stamps uses
//   - Emitter: drains pending-unreachable into a RecordSink
//
// Lifecycle:
//
//	unseen -> live -> pending-unreachable -> emitted
//
// Flushes happen only on endLastUsePhase and endExecution, never per event.
//
// INVARIANTS:
//   - An object is never both live and pending-unreachable
//   - The call stack never underflows
//   - Every containment-graph node has an allocation record
//   - The global object never enters any table
//
// Broken invariants surface as *InvariantError and abort the replay. They
// mean the trace generator violated its contract; there is no recovery.
package staleness
