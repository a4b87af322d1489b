package harness

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/roach88/staleness/internal/staleness"
)

// recordFields maps assertion field names to record accessors.
var recordFields = map[string]func(staleness.Record) any{
	"type":                 func(r staleness.Record) any { return r.Type.String() },
	"allocation_site":      func(r staleness.Record) any { return r.AllocationSite },
	"creation_time":        func(r staleness.Record) any { return r.CreationTime },
	"creation_stack":       func(r staleness.Record) any { return r.CreationStack },
	"most_recent_use_time": func(r staleness.Record) any { return r.MostRecentUseTime },
	"most_recent_use_site": func(r staleness.Record) any { return r.MostRecentUseSite },
	"unreachable_time":     func(r staleness.Record) any { return r.UnreachableTime },
	"unreachable_site":     func(r staleness.Record) any { return r.UnreachableSite },
	"staleness":            func(r staleness.Record) any { return r.Staleness() },
}

// AssertionError is returned when an assertion fails.
// It includes the emitted records to help debug the failure.
type AssertionError struct {
	Type     string             // Assertion type for categorization
	Expected string             // Human-readable expected outcome
	Actual   string             // Human-readable actual outcome
	Records  []staleness.Record // Emitted records for context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nEmitted records:\n")
	for i, rec := range e.Records {
		line, err := rec.MarshalJSON()
		if err != nil {
			fmt.Fprintf(&buf, "  [%d] object %d (unprintable: %v)\n", i+1, rec.ObjectID, err)
			continue
		}
		fmt.Fprintf(&buf, "  [%d] %s\n", i+1, line)
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion against result and returns the
// failure messages, in assertion order.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var failures []string
	for i, a := range assertions {
		if err := evaluateAssertion(result, a); err != nil {
			failures = append(failures, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return failures
}

func evaluateAssertion(result *Result, a Assertion) error {
	switch a.Type {
	case AssertRecordCount:
		return assertRecordCount(result, a)
	case AssertRecord:
		return assertRecord(result, a)
	case AssertRecordAbsent:
		return assertRecordAbsent(result, a)
	case AssertRecordOrder:
		return assertRecordOrder(result, a)
	case AssertFlushCount:
		return assertFlushCount(result, a)
	case AssertFlushRecords:
		return assertFlushRecords(result, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertRecordCount(result *Result, a Assertion) error {
	if len(result.Records) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertRecordCount,
		Expected: fmt.Sprintf("%d records", a.Count),
		Actual:   fmt.Sprintf("%d records", len(result.Records)),
		Records:  result.Records,
	}
}

// assertRecord checks the listed fields of the record for a.ObjectID.
// Mismatches are reported in field name order.
func assertRecord(result *Result, a Assertion) error {
	rec, ok := result.Record(staleness.ObjectID(a.ObjectID))
	if !ok {
		return &AssertionError{
			Type:     AssertRecord,
			Expected: fmt.Sprintf("record for object %d", a.ObjectID),
			Actual:   "not emitted",
			Records:  result.Records,
		}
	}

	fields := make([]string, 0, len(a.Expect))
	for field := range a.Expect {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var mismatches []string
	for _, field := range fields {
		get, ok := recordFields[field]
		if !ok {
			return fmt.Errorf("unknown record field %q", field)
		}
		want := normalize(a.Expect[field])
		got := get(rec)
		if !reflect.DeepEqual(want, got) {
			mismatches = append(mismatches, fmt.Sprintf("%s: want %v, got %v", field, want, got))
		}
	}
	if len(mismatches) == 0 {
		return nil
	}
	return &AssertionError{
		Type:     AssertRecord,
		Expected: fmt.Sprintf("object %d fields %v", a.ObjectID, a.Expect),
		Actual:   strings.Join(mismatches, "; "),
		Records:  result.Records,
	}
}

func assertRecordAbsent(result *Result, a Assertion) error {
	if _, ok := result.Record(staleness.ObjectID(a.ObjectID)); !ok {
		return nil
	}
	return &AssertionError{
		Type:     AssertRecordAbsent,
		Expected: fmt.Sprintf("no record for object %d", a.ObjectID),
		Actual:   "record emitted",
		Records:  result.Records,
	}
}

// assertRecordOrder checks that objects were emitted in the listed order.
// Records need not be consecutive.
func assertRecordOrder(result *Result, a Assertion) error {
	positions := make(map[int64]int, len(result.Records))
	for i, rec := range result.Records {
		positions[int64(rec.ObjectID)] = i + 1 // 1-indexed for readability
	}

	for _, id := range a.Objects {
		if positions[id] == 0 {
			return &AssertionError{
				Type:     AssertRecordOrder,
				Expected: fmt.Sprintf("all objects emitted: %v", a.Objects),
				Actual:   fmt.Sprintf("missing object: %d", id),
				Records:  result.Records,
			}
		}
	}

	for i := 1; i < len(a.Objects); i++ {
		prev, curr := a.Objects[i-1], a.Objects[i]
		if positions[prev] >= positions[curr] {
			return &AssertionError{
				Type:     AssertRecordOrder,
				Expected: fmt.Sprintf("objects in order: %v", a.Objects),
				Actual: fmt.Sprintf("%d (pos %d) should be before %d (pos %d)",
					prev, positions[prev], curr, positions[curr]),
				Records: result.Records,
			}
		}
	}
	return nil
}

func assertFlushCount(result *Result, a Assertion) error {
	if len(result.Flushes) == a.Count {
		return nil
	}
	return &AssertionError{
		Type:     AssertFlushCount,
		Expected: fmt.Sprintf("%d flushes", a.Count),
		Actual:   fmt.Sprintf("%d flushes %v", len(result.Flushes), result.Flushes),
		Records:  result.Records,
	}
}

func assertFlushRecords(result *Result, a Assertion) error {
	if a.Flush > len(result.Flushes) {
		return &AssertionError{
			Type:     AssertFlushRecords,
			Expected: fmt.Sprintf("flush %d", a.Flush),
			Actual:   fmt.Sprintf("only %d flushes", len(result.Flushes)),
			Records:  result.Records,
		}
	}
	if got := result.Flushes[a.Flush-1]; got != a.Count {
		return &AssertionError{
			Type:     AssertFlushRecords,
			Expected: fmt.Sprintf("flush %d with %d records", a.Flush, a.Count),
			Actual:   fmt.Sprintf("%d records", got),
			Records:  result.Records,
		}
	}
	return nil
}

// normalize converts YAML-decoded values to the types record accessors
// return: integers to int64 and sequences to []string.
func normalize(v any) any {
	switch v := v.(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case uint64:
		return int64(v)
	case []any:
		out := make([]string, len(v))
		for i, e := range v {
			out[i] = fmt.Sprint(e)
		}
		return out
	default:
		return v
	}
}
