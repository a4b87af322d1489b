// Package harness runs conformance scenarios against the staleness analysis.
//
// A scenario names a trace, the options to analyze it with, and assertions
// over the records and flush batches the analysis produces.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: dom_detach
//	description: "Detached DOM subtree is reported with the removal time"
//	trace: ../traces/dom_detach.jsonl
//	global_object_id: 1
//	expect_error: ""
//	assertions:
//	  - type: record_count
//	    count: 2
//	  - type: record
//	    object_id: 10
//	    expect: { type: DOM, most_recent_use_site: "<removed from DOM>" }
//	  - type: record_order
//	    objects: [10, 14]
//	  - type: flush_count
//	    count: 2
//
// Trace paths are relative to the scenario file.
//
// # Assertion Types
//
//   - record_count: exactly N records were emitted
//   - record: a record for object_id exists and its fields match expect
//   - record_absent: no record for object_id was emitted
//   - record_order: the listed objects were emitted in this relative order
//   - flush_count: the sink was flushed exactly N times
//   - flush_records: flush batch number flush held exactly count records
//
// # Expected Errors
//
// expect_error names the failure the replay must end with: an invariant
// code such as LIVE_SET_NOT_EMPTY, or TRACE_INCOMPLETE or DECODE_ERROR.
// Empty means the replay must succeed.
//
// # Golden Files
//
// RunWithGolden compares the emitted records, one JSON array per line,
// against testdata/golden/{name}.golden. Regenerate with:
//
//	go test ./internal/harness -update
package harness
