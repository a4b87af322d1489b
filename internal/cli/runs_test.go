package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/staleness/internal/store"
	"github.com/roach88/staleness/internal/testutil"
)

func TestRuns_Text(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	first := analyzeInto(t, db, staleTrace())

	// A failed run is stored with its error.
	failing := testutil.NewTrace().Create(5, testutil.Site(1, 1)).End().WriteFile(t, "live.jsonl")
	_, _, err := execute(t, "analyze", "--db", db, failing)
	require.Error(t, err)

	stdout, _, err := execute(t, "runs", "--db", db)
	require.NoError(t, err)

	assert.Contains(t, stdout, "=== Runs ===")
	assert.Contains(t, stdout, first+"  complete  3 records")
	assert.Contains(t, stdout, "failed    0 records  1 events  "+failing)
	assert.Contains(t, stdout, "error: trace line 2 (endExecution)")
}

func TestRuns_JSONOrder(t *testing.T) {
	db := filepath.Join(t.TempDir(), "runs.db")
	first := analyzeInto(t, db, staleTrace())
	second := analyzeInto(t, db, singleObjectTrace())

	stdout, _, err := execute(t, "--format", "json", "runs", "--db", db)
	require.NoError(t, err)

	var resp struct {
		Data RunsResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	require.Len(t, resp.Data.Runs, 2)
	assert.Equal(t, first, resp.Data.Runs[0].ID, "oldest first")
	assert.Equal(t, second, resp.Data.Runs[1].ID)
	assert.Equal(t, store.RunComplete, resp.Data.Runs[1].Status)
}

func TestRuns_MissingDatabase(t *testing.T) {
	_, _, err := execute(t, "runs", "--db", filepath.Join(t.TempDir(), "missing.db"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestRunsResult_StringEmpty(t *testing.T) {
	assert.Equal(t, "No runs found.", RunsResult{}.String())
}
