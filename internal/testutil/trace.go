package testutil

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/roach88/staleness/internal/sourcemap"
)

// Map keys are sorted, so built lines are byte-stable.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Site is shorthand for a source location.
func Site(script, iid int32) sourcemap.LocID {
	return sourcemap.LocID{Script: script, IID: iid}
}

// TraceBuilder assembles a JSONL trace one event per line.
//
// Timed events draw their timestamp from a logical clock. The first timed
// event gets time 1 unless At moves the clock. Not safe for concurrent use.
type TraceBuilder struct {
	lines []string
	next  int64
}

// NewTrace returns an empty builder.
func NewTrace() *TraceBuilder {
	return &TraceBuilder{next: 1}
}

// At sets the timestamp of the next timed event.
func (b *TraceBuilder) At(time int64) *TraceBuilder {
	b.next = time
	return b
}

// Now returns the timestamp the next timed event will get.
func (b *TraceBuilder) Now() int64 {
	return b.next
}

func (b *TraceBuilder) tick() int64 {
	t := b.next
	b.next++
	return t
}

// Event appends an arbitrary event. Fields are written as given.
func (b *TraceBuilder) Event(op string, fields map[string]any) *TraceBuilder {
	ev := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		ev[k] = v
	}
	ev["op"] = op
	data, err := json.Marshal(ev)
	if err != nil {
		panic("testutil: marshal event: " + err.Error())
	}
	b.lines = append(b.lines, string(data))
	return b
}

// Raw appends a line verbatim, for malformed input.
func (b *TraceBuilder) Raw(line string) *TraceBuilder {
	b.lines = append(b.lines, line)
	return b
}

// Script appends a scriptEnter naming the file of script.
func (b *TraceBuilder) Script(script int32, file string) *TraceBuilder {
	return b.Event("scriptEnter", map[string]any{"site": Site(script, 0), "file": file})
}

// Mapping appends a sourceMapping for site.
func (b *TraceBuilder) Mapping(site sourcemap.LocID, span sourcemap.Span) *TraceBuilder {
	return b.Event("sourceMapping", map[string]any{"site": site, "span": span})
}

// Create appends a create of a plain object.
func (b *TraceBuilder) Create(id int64, site sourcemap.LocID) *TraceBuilder {
	return b.Event("create", map[string]any{"site": site, "id": id, "time": b.tick()})
}

// CreateDOM appends a create of a DOM node.
func (b *TraceBuilder) CreateDOM(id int64, site sourcemap.LocID) *TraceBuilder {
	return b.Event("create", map[string]any{"site": site, "id": id, "time": b.tick(), "isDom": true})
}

// CreateFunction appends a createFunction for the pair id and prototype.
func (b *TraceBuilder) CreateFunction(id, prototype int64, site sourcemap.LocID) *TraceBuilder {
	return b.Event("createFunction", map[string]any{
		"site":        site,
		"id":          id,
		"prototypeId": prototype,
		"enterSite":   site,
		"time":        b.tick(),
	})
}

// LastUse appends a lastUse of id at site.
func (b *TraceBuilder) LastUse(id int64, site sourcemap.LocID) *TraceBuilder {
	return b.Event("lastUse", map[string]any{"id": id, "site": site, "time": b.tick()})
}

// Enter appends a functionEnter called from callSite.
func (b *TraceBuilder) Enter(funID int64, callSite sourcemap.LocID) *TraceBuilder {
	return b.Event("functionEnter", map[string]any{
		"site":     callSite,
		"funId":    funID,
		"callSite": callSite,
		"time":     b.tick(),
	})
}

// Exit appends a functionExit.
func (b *TraceBuilder) Exit() *TraceBuilder {
	return b.Event("functionExit", map[string]any{"time": b.tick()})
}

// Correct appends a correctAllocationSite moving the allocation of id to site.
func (b *TraceBuilder) Correct(id int64, site sourcemap.LocID) *TraceBuilder {
	return b.Event("correctAllocationSite", map[string]any{"id": id, "site": site})
}

// DeclareRoot appends a declareRoot.
func (b *TraceBuilder) DeclareRoot(id int64) *TraceBuilder {
	return b.Event("declareRoot", map[string]any{"id": id})
}

// AddChild appends an addDOMChild.
func (b *TraceBuilder) AddChild(parent, child int64) *TraceBuilder {
	return b.Event("addDOMChild", map[string]any{"parentId": parent, "childId": child, "time": b.tick()})
}

// RemoveChild appends a removeDOMChild.
func (b *TraceBuilder) RemoveChild(parent, child int64) *TraceBuilder {
	return b.Event("removeDOMChild", map[string]any{"parentId": parent, "childId": child, "time": b.tick()})
}

// Unreachable appends an unreachableObject for id at site.
func (b *TraceBuilder) Unreachable(id int64, site sourcemap.LocID) *TraceBuilder {
	return b.Event("unreachableObject", map[string]any{"site": site, "id": id, "time": b.tick()})
}

// EndLastUse appends an endLastUsePhase flush signal.
func (b *TraceBuilder) EndLastUse() *TraceBuilder {
	return b.Event("endLastUsePhase", nil)
}

// End appends endExecution.
func (b *TraceBuilder) End() *TraceBuilder {
	return b.Event("endExecution", map[string]any{"time": b.tick()})
}

// Len returns the number of lines built so far.
func (b *TraceBuilder) Len() int {
	return len(b.lines)
}

// String returns the trace, newline terminated.
func (b *TraceBuilder) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}

// Reader returns the trace as a reader.
func (b *TraceBuilder) Reader() io.Reader {
	return strings.NewReader(b.String())
}

// WriteFile writes the trace to name under a fresh temp dir and returns the
// path.
func (b *TraceBuilder) WriteFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatalf("write trace: %v", err)
	}
	return path
}
