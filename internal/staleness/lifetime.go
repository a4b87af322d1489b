package staleness

import (
	"log/slog"
	"slices"

	"github.com/roach88/staleness/internal/sourcemap"
)

// liveSampleSize bounds the ids listed in a LIVE_SET_NOT_EMPTY error.
const liveSampleSize = 10

// LifetimeTable owns allocation records and the creation and finalization
// transitions.
//
// Every tracked object is in exactly one of two sets:
//   - live: reachable, not yet finalized
//   - pending: reported unreachable, waiting for the next flush
type LifetimeTable struct {
	global   ObjectID
	stack    *CallStack
	usage    *LastUseTable
	observer Observer

	live    map[ObjectID]*AllocationRecord
	pending map[ObjectID]*AllocationRecord
}

// NewLifetimeTable creates an empty table. Creation context is captured from
// stack; unreachability is stamped into usage.
func NewLifetimeTable(global ObjectID, stack *CallStack, usage *LastUseTable, observer Observer) *LifetimeTable {
	if observer == nil {
		observer = nopObserver{}
	}
	return &LifetimeTable{
		global:   global,
		stack:    stack,
		usage:    usage,
		observer: observer,
		live:     make(map[ObjectID]*AllocationRecord),
		pending:  make(map[ObjectID]*AllocationRecord),
	}
}

// RecordCreation inserts a live record for id with the current call stack as
// creation context. A second creation of the same id overwrites the first;
// the instrumentation does not double-create. The global object is ignored.
func (t *LifetimeTable) RecordCreation(id ObjectID, typ ObjectType, site sourcemap.LocID, time int64) {
	if id == t.global {
		return
	}
	t.live[id] = &AllocationRecord{
		Type:          typ,
		Site:          site,
		CreationTime:  time,
		CreationStack: t.stack.Snapshot(),
	}
}

// RecordFunctionCreation inserts a FUNCTION record for id and a PROTOTYPE
// record for prototypeID. Both share site, time and one call stack snapshot.
func (t *LifetimeTable) RecordFunctionCreation(id, prototypeID ObjectID, site sourcemap.LocID, time int64) {
	snap := t.stack.Snapshot()
	if id != t.global {
		t.live[id] = &AllocationRecord{Type: TypeFunction, Site: site, CreationTime: time, CreationStack: snap}
	}
	if prototypeID != t.global {
		t.live[prototypeID] = &AllocationRecord{Type: TypePrototype, Site: site, CreationTime: time, CreationStack: snap}
	}
}

// CorrectAllocationSite replaces the allocation site of a live object and
// re-captures its creation context from the current call stack. It is used
// when the true allocation site is discovered after creation.
func (t *LifetimeTable) CorrectAllocationSite(id ObjectID, site sourcemap.LocID) error {
	rec, ok := t.live[id]
	if !ok {
		return newCorrectionNotLiveError(id)
	}
	rec.Site = site
	rec.CreationStack = t.stack.Snapshot()
	return nil
}

// MarkUnreachable records that id became unreachable at (time, site) and
// moves it to the pending set.
//
// A pending object reported again keeps its record; only the usage record
// is restamped. An object never seen before gets a placeholder DOM record,
// as some platform objects are never created by the instrumentation.
func (t *LifetimeTable) MarkUnreachable(id ObjectID, time int64, site sourcemap.LocID) {
	if id == t.global {
		return
	}

	usage := t.usage.Get(id)
	usage.UnreachableTime = time
	usage.UnreachableSite = site

	if rec, ok := t.live[id]; ok {
		delete(t.live, id)
		t.pending[id] = rec
		return
	}
	if _, ok := t.pending[id]; ok {
		return
	}

	slog.Debug("synthesizing record for unseen unreachable object", "id", id)
	t.observer.Synthesized(SynthesizedUnreachable)
	t.pending[id] = placeholderRecord()
}

// Revive moves a pending object back to the live set, keeping its original
// allocation record and clearing its unreachability stamp. It returns false
// when id is not pending.
func (t *LifetimeTable) Revive(id ObjectID) bool {
	rec, ok := t.pending[id]
	if !ok {
		return false
	}
	delete(t.pending, id)
	t.live[id] = rec

	if usage, ok := t.usage.Lookup(id); ok {
		usage.UnreachableTime = 0
		usage.UnreachableSite = sourcemap.Unknown
	}

	slog.Debug("revived pending object", "id", id)
	t.observer.Revived()
	return true
}

// EnsureLive makes id live: nothing happens if it already is, a pending
// object is revived, and an unseen object gets a placeholder DOM record.
func (t *LifetimeTable) EnsureLive(id ObjectID) {
	if id == t.global {
		return
	}
	if _, ok := t.live[id]; ok {
		return
	}
	if t.Revive(id) {
		return
	}

	slog.Debug("synthesizing record for DOM child", "id", id)
	t.observer.Synthesized(SynthesizedDOMChild)
	t.live[id] = placeholderRecord()
}

// Live returns the live record for id.
func (t *LifetimeTable) Live(id ObjectID) (*AllocationRecord, bool) {
	rec, ok := t.live[id]
	return rec, ok
}

// Pending returns the pending record for id.
func (t *LifetimeTable) Pending(id ObjectID) (*AllocationRecord, bool) {
	rec, ok := t.pending[id]
	return rec, ok
}

// LiveCount returns the number of live objects.
func (t *LifetimeTable) LiveCount() int {
	return len(t.live)
}

// PendingCount returns the number of objects awaiting a flush.
func (t *LifetimeTable) PendingCount() int {
	return len(t.pending)
}

// AssertFullyDrained checks that no object is live. Used at the end of
// execution, where a live object means the reachability analysis missed it.
func (t *LifetimeTable) AssertFullyDrained() error {
	if len(t.live) == 0 {
		return nil
	}
	return newLiveSetNotEmptyError(len(t.live), sortedIDs(t.live, liveSampleSize))
}

// pendingIDs returns the pending ids in ascending order.
func (t *LifetimeTable) pendingIDs() []ObjectID {
	return sortedIDs(t.pending, 0)
}

// finalize removes id from the pending set after its record was emitted.
func (t *LifetimeTable) finalize(id ObjectID) {
	delete(t.pending, id)
}

// sortedIDs returns the keys of m in ascending order, at most limit of them
// when limit is positive.
func sortedIDs(m map[ObjectID]*AllocationRecord, limit int) []ObjectID {
	ids := make([]ObjectID, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}
