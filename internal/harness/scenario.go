package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/staleness/internal/staleness"
)

// Scenario defines a conformance scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Trace is the path of the JSONL trace to replay.
	// Relative paths are resolved against the scenario file location.
	Trace string `yaml:"trace"`

	// GlobalObjectID overrides the reserved global object id. Zero keeps
	// the default.
	GlobalObjectID int64 `yaml:"global_object_id,omitempty"`

	// ExpectError is the failure code the replay must end with.
	// Empty means the replay must succeed.
	ExpectError string `yaml:"expect_error,omitempty"`

	// Assertions validate the emitted records and flushes.
	Assertions []Assertion `yaml:"assertions"`
}

// Assertion validates one property of a run.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// ObjectID selects the record (used by record, record_absent).
	ObjectID int64 `yaml:"object_id,omitempty"`

	// Expect holds expected record fields (used by record).
	// Subset match: only the listed fields are checked.
	Expect map[string]any `yaml:"expect,omitempty"`

	// Objects is the expected relative emission order (used by record_order).
	Objects []int64 `yaml:"objects,omitempty"`

	// Count is the expected number (used by record_count, flush_count,
	// flush_records).
	Count int `yaml:"count,omitempty"`

	// Flush is the 1-based flush batch (used by flush_records).
	Flush int `yaml:"flush,omitempty"`
}

// Assertion type constants.
const (
	AssertRecordCount  = "record_count"
	AssertRecord       = "record"
	AssertRecordAbsent = "record_absent"
	AssertRecordOrder  = "record_order"
	AssertFlushCount   = "flush_count"
	AssertFlushRecords = "flush_records"
)

// Expected error codes besides invariant codes.
const (
	ErrorIncomplete = staleness.FailureIncomplete
	ErrorDecode     = staleness.FailureDecode
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Trace != "" && !filepath.IsAbs(scenario.Trace) {
		scenario.Trace = filepath.Join(filepath.Dir(path), scenario.Trace)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// LoadScenarios loads every *.yaml scenario in dir, sorted by file name.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list scenarios: %w", err)
	}

	scenarios := make([]*Scenario, 0, len(paths))
	for _, path := range paths {
		s, err := LoadScenario(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Trace == "" {
		return fmt.Errorf("trace is required")
	}
	if _, err := os.Stat(s.Trace); os.IsNotExist(err) {
		return fmt.Errorf("trace file not found: %s", s.Trace)
	}

	if s.ExpectError == "" && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect_error is set")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRecordCount, AssertFlushCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for %s", index, a.Type)
		}
	case AssertRecord:
		if a.ObjectID == 0 {
			return fmt.Errorf("assertions[%d]: object_id is required for record", index)
		}
		if len(a.Expect) == 0 {
			return fmt.Errorf("assertions[%d]: expect is required for record", index)
		}
		for field := range a.Expect {
			if _, ok := recordFields[field]; !ok {
				return fmt.Errorf("assertions[%d]: unknown record field %q", index, field)
			}
		}
	case AssertRecordAbsent:
		if a.ObjectID == 0 {
			return fmt.Errorf("assertions[%d]: object_id is required for record_absent", index)
		}
	case AssertRecordOrder:
		if len(a.Objects) < 2 {
			return fmt.Errorf("assertions[%d]: at least two objects are required for record_order", index)
		}
	case AssertFlushRecords:
		if a.Flush < 1 {
			return fmt.Errorf("assertions[%d]: flush must be 1 or greater for flush_records", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for flush_records", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}
