package harness

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// Snapshot renders the emitted records one JSON array per line, in emission
// order, followed by a flush summary line.
func Snapshot(result *Result) ([]byte, error) {
	var buf bytes.Buffer
	for _, rec := range result.Records {
		line, err := rec.MarshalJSON()
		if err != nil {
			return nil, fmt.Errorf("snapshot object %d: %w", rec.ObjectID, err)
		}
		buf.Write(line)
		buf.WriteByte('\n')
	}
	fmt.Fprintf(&buf, "# flushes %v\n", result.Flushes)
	return buf.Bytes(), nil
}

// RunWithGolden executes a scenario and compares its records against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns the result for further checks, or an error if the scenario could
// not be executed. Test failure (via goldie) occurs on a golden mismatch.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against a golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	snapshot, err := Snapshot(result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, snapshot)
	return nil
}
