// Package sourcemap resolves opaque source-location identifiers emitted by the
// instrumentation into human-readable file positions.
//
// A location is identified by a (script, iid) pair. The instrumentation
// announces each script with a scriptEnter event and each instrumented
// position with a sourceMapping event; Map collects both and renders
// locations as "file:startLine:startCol:endLine:endCol".
//
// Two reserved locations never map to source text:
//   - Unknown: the allocation or use site was never observed
//   - RemovedFromTree: the use was synthesized by a DOM detachment
//
// This package contains no analysis logic. The staleness analysis depends
// only on the Formatter interface.
package sourcemap
