package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/staleness/internal/staleness"
)

const fixedTime = "2026-01-02T03:04:05Z"

// createTestStore creates a new store in a temp dir with fixed run ids and
// a fixed clock.
func createTestStore(t *testing.T, runIDs ...string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path,
		WithRunIDGenerator(NewFixedGenerator(runIDs...)),
		WithClock(func() string { return fixedTime }),
	)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestRecord creates a record with the given staleness window.
func createTestRecord(id staleness.ObjectID, lastUse, unreachable int64) staleness.Record {
	return staleness.Record{
		ObjectID:          id,
		Type:              staleness.TypeObject,
		AllocationSite:    "app.js:1:1:1:9",
		CreationTime:      1,
		CreationStack:     []string{"app.js:7", "<unknown>"},
		MostRecentUseTime: lastUse,
		MostRecentUseSite: "app.js:2:1:2:4",
		UnreachableTime:   unreachable,
		UnreachableSite:   "<unknown>",
	}
}
