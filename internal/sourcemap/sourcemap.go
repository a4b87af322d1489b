package sourcemap

import (
	"fmt"
	"sync"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/unicode/norm"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// LocID identifies a source location: an instrumented position (IID) within
// a script (Script). Values are assigned by the instrumentation and are
// opaque to the analysis.
type LocID struct {
	Script int32
	IID    int32
}

// Reserved locations. Both use negative script ids, which the
// instrumentation never assigns.
var (
	// Unknown is the site of anything whose origin was never observed.
	Unknown = LocID{Script: -1, IID: -1}

	// RemovedFromTree is the use site stamped on nodes detached from the DOM.
	RemovedFromTree = LocID{Script: -2, IID: -2}
)

const (
	unknownText         = "<unknown>"
	removedFromTreeText = "<removed from DOM>"
)

// IsReserved reports whether l is one of the reserved locations.
func (l LocID) IsReserved() bool {
	return l == Unknown || l == RemovedFromTree
}

// String renders the raw identifier without consulting any map.
func (l LocID) String() string {
	switch l {
	case Unknown:
		return unknownText
	case RemovedFromTree:
		return removedFromTreeText
	}
	return fmt.Sprintf("%d:%d", l.Script, l.IID)
}

// MarshalJSON encodes the location as a [script, iid] pair.
func (l LocID) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int32{l.Script, l.IID})
}

// UnmarshalJSON decodes a [script, iid] pair.
func (l *LocID) UnmarshalJSON(data []byte) error {
	var pair []int32
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode location: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("decode location: want [script, iid], got %d elements", len(pair))
	}
	l.Script, l.IID = pair[0], pair[1]
	return nil
}

// Formatter renders locations as text for emitted records.
type Formatter interface {
	Format(id LocID) string
}

// FormatterFunc adapts a plain function to Formatter.
type FormatterFunc func(id LocID) string

// Format calls f(id).
func (f FormatterFunc) Format(id LocID) string {
	return f(id)
}

// Raw renders every location with LocID.String.
var Raw Formatter = FormatterFunc(LocID.String)

// Span is the source range of an instrumented position, 1-based.
type Span struct {
	StartLine int `json:"startLine"`
	StartCol  int `json:"startCol"`
	EndLine   int `json:"endLine"`
	EndCol    int `json:"endCol"`
}

// Map accumulates script file names and position spans.
//
// Map is safe for concurrent use; in practice the trace driver fills it while
// the emitter reads from it on the same goroutine.
type Map struct {
	mu    sync.RWMutex
	files map[int32]string
	spans map[LocID]Span
}

// New creates an empty Map.
func New() *Map {
	return &Map{
		files: make(map[int32]string),
		spans: make(map[LocID]Span),
	}
}

// AddScript records the file name of a script. File names are NFC
// normalized so equivalent paths render identically.
func (m *Map) AddScript(script int32, file string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[script] = norm.NFC.String(file)
}

// AddMapping records the span of an instrumented position.
func (m *Map) AddMapping(id LocID, span Span) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.spans[id] = span
}

// File returns the file name registered for script.
func (m *Map) File(script int32) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.files[script]
	return f, ok
}

// Len returns the number of mapped positions.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.spans)
}

// Format renders id as "file:startLine:startCol:endLine:endCol".
//
// Reserved locations render as fixed markers. A location whose script is
// known but whose position is not renders as "file:iid"; a location with
// neither renders as LocID.String.
func (m *Map) Format(id LocID) string {
	if id.IsReserved() {
		return id.String()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	file, hasFile := m.files[id.Script]
	span, hasSpan := m.spans[id]
	switch {
	case hasFile && hasSpan:
		return fmt.Sprintf("%s:%d:%d:%d:%d", file, span.StartLine, span.StartCol, span.EndLine, span.EndCol)
	case hasFile:
		return fmt.Sprintf("%s:%d", file, id.IID)
	default:
		return id.String()
	}
}
