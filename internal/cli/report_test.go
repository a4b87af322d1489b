package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/staleness/internal/store"
	"github.com/roach88/staleness/internal/testutil"
)

// analyzeInto runs analyze --db for trace and returns the run id.
func analyzeInto(t *testing.T, db string, trace *testutil.TraceBuilder) string {
	t.Helper()
	path := trace.WriteFile(t, "trace.jsonl")

	stdout, _, err := execute(t, "--format", "json", "analyze", "--db", db, path)
	require.NoError(t, err)

	var resp struct {
		Data AnalyzeResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotEmpty(t, resp.Data.RunID)
	return resp.Data.RunID
}

// staleTrace emits three records with staleness 5, 40 and 0.
func staleTrace() *testutil.TraceBuilder {
	return testutil.NewTrace().
		At(10).Create(5, testutil.Site(1, 1)).
		At(20).Create(6, testutil.Site(1, 2)).
		At(30).Create(7, testutil.Site(1, 3)).
		At(35).LastUse(5, testutil.Site(1, 4)).
		At(40).Unreachable(5, testutil.Site(1, 5)).
		At(60).Unreachable(6, testutil.Site(1, 5)).
		At(30).Unreachable(7, testutil.Site(1, 5)).
		EndLastUse().
		At(70).End()
}

func TestReport_LatestRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	runID := analyzeInto(t, db, staleTrace())

	stdout, _, err := execute(t, "report", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Run: "+runID+" (complete)")
	assert.Contains(t, stdout, "Records: 3")
	assert.Contains(t, stdout, "=== Most Stale ===")
	assert.Contains(t, stdout, "  [1] OBJECT #6 stale for 40\n")
	assert.Contains(t, stdout, "  [2] OBJECT #5 stale for 5\n")
	assert.Contains(t, stdout, "  [3] OBJECT #7 stale for 0\n")
	assert.Contains(t, stdout, "       last used:   1:4 @ 35")
}

func TestReport_JSONAndLimit(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	runID := analyzeInto(t, db, staleTrace())

	stdout, _, err := execute(t, "--format", "json", "report", "--db", db, "--run", runID, "-n", "2")
	require.NoError(t, err)

	var resp struct {
		Status string       `json:"status"`
		Data   ReportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, runID, resp.Data.Run.ID)
	assert.Equal(t, store.RunComplete, resp.Data.Run.Status)

	require.Len(t, resp.Data.Records, 2)
	assert.Equal(t, ReportRow{
		ObjectID:          6,
		Type:              "OBJECT",
		Staleness:         40,
		AllocationSite:    "1:2",
		CreationTime:      20,
		CreationStack:     []string{},
		MostRecentUseTime: 0,
		MostRecentUseSite: "<unknown>",
		UnreachableTime:   60,
		UnreachableSite:   "1:5",
	}, resp.Data.Records[0])
	assert.Equal(t, int64(5), resp.Data.Records[1].ObjectID)
}

func TestReport_AllRecords(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	analyzeInto(t, db, staleTrace())

	stdout, _, err := execute(t, "--format", "json", "report", "--db", db, "--limit", "0")
	require.NoError(t, err)

	var resp struct {
		Data ReportResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Len(t, resp.Data.Records, 3)
}

func TestReport_UnknownRun(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	analyzeInto(t, db, staleTrace())

	_, _, err := execute(t, "report", "--db", db, "--run", "no-such-run")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.ErrorIs(t, err, store.ErrRunNotFound)
}

func TestReport_UnknownRunJSON(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	analyzeInto(t, db, staleTrace())

	stdout, _, err := execute(t, "--format", "json", "report", "--db", db, "--run", "no-such-run")
	require.Error(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeNotFound, resp.Error.Code)
}

func TestReport_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "report", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "database not found")
}

func TestReport_RequiresDB(t *testing.T) {
	_, _, err := execute(t, "report")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `required flag(s) "db" not set`)
}

func TestReportResult_StringEmpty(t *testing.T) {
	r := ReportResult{Run: store.Run{ID: "r1", Status: store.RunFailed, Source: "t.jsonl"}}
	assert.Equal(t, "Run: r1 (failed)\nSource: t.jsonl\nRecords: 0\n\n=== Most Stale ===\n  (no records)", r.String())
}

func TestReportResult_StringCallStack(t *testing.T) {
	r := ReportResult{
		Run: store.Run{ID: "r1", Status: store.RunComplete, Records: 1},
		Records: []ReportRow{{
			ObjectID:          3,
			Type:              "DOM",
			Staleness:         4,
			AllocationSite:    "a.js:1",
			CreationTime:      1,
			CreationStack:     []string{"a.js:7", "a.js:9"},
			MostRecentUseSite: "<removed from DOM>",
			MostRecentUseTime: 2,
			UnreachableSite:   "a.js:3",
			UnreachableTime:   6,
		}},
	}
	assert.Contains(t, r.String(), "  [1] DOM #3 stale for 4\n")
	assert.Contains(t, r.String(), "       call stack:  a.js:7 > a.js:9")
}
