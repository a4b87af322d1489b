package staleness

import "github.com/roach88/staleness/internal/sourcemap"

// LastUseTable maps object ids to their usage records.
//
// Lookups through Get auto-vivify: an id seen for the first time receives a
// fresh record with unknown use and unreachability. The table is shared by
// the lifetime table (unreachability) and the DOM graph (detachment stamps).
type LastUseTable struct {
	global  ObjectID
	records map[ObjectID]*UsageRecord
}

// NewLastUseTable creates an empty table that ignores global.
func NewLastUseTable(global ObjectID) *LastUseTable {
	return &LastUseTable{
		global:  global,
		records: make(map[ObjectID]*UsageRecord),
	}
}

// RecordLastUse stamps (time, site) as the most recent use of id.
// The global object is ignored.
func (t *LastUseTable) RecordLastUse(id ObjectID, site sourcemap.LocID, time int64) {
	if id == t.global {
		return
	}
	rec := t.Get(id)
	rec.MostRecentUseTime = time
	rec.MostRecentUseSite = site
}

// Get returns the record for id, creating it if absent. Get never fails.
func (t *LastUseTable) Get(id ObjectID) *UsageRecord {
	rec, ok := t.records[id]
	if !ok {
		rec = newUsageRecord()
		t.records[id] = rec
	}
	return rec
}

// Lookup returns the record for id without creating one.
func (t *LastUseTable) Lookup(id ObjectID) (*UsageRecord, bool) {
	rec, ok := t.records[id]
	return rec, ok
}

// Len returns the number of records.
func (t *LastUseTable) Len() int {
	return len(t.records)
}
