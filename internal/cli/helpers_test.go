package cli

import (
	"bytes"
	"testing"

	"github.com/roach88/staleness/internal/testutil"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// singleObjectTrace is a complete trace emitting one record:
// [5,"OBJECT","1:10",10,[],50,"1:11",100,"1:12"].
func singleObjectTrace() *testutil.TraceBuilder {
	return testutil.NewTrace().
		At(10).Create(5, testutil.Site(1, 10)).
		At(50).LastUse(5, testutil.Site(1, 11)).
		At(100).Unreachable(5, testutil.Site(1, 12)).
		EndLastUse().
		End()
}

const singleObjectRecord = `[5,"OBJECT","1:10",10,[],50,"1:11",100,"1:12"]`
