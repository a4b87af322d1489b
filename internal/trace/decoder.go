package trace

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// maxLineSize bounds a single trace line. closureNames lists can be long.
const maxLineSize = 16 * 1024 * 1024

// DecodeError reports a malformed trace line.
type DecodeError struct {
	Line int
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("trace line %d: %v", e.Line, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Decoder reads events from a JSON Lines trace.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
}

// NewDecoder creates a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &Decoder{scanner: scanner}
}

// Line returns the 1-based number of the last line read.
func (d *Decoder) Line() int {
	return d.line
}

// Next returns the next event, or io.EOF when the trace is exhausted.
// Malformed lines yield a *DecodeError.
func (d *Decoder) Next() (Event, error) {
	for d.scanner.Scan() {
		d.line++
		raw := bytes.TrimSpace(d.scanner.Bytes())
		if len(raw) == 0 || raw[0] == '#' {
			continue
		}

		ev := newEvent()
		if err := json.Unmarshal(raw, &ev); err != nil {
			return Event{}, &DecodeError{Line: d.line, Err: err}
		}
		if ev.Op == "" {
			return Event{}, &DecodeError{Line: d.line, Err: fmt.Errorf("missing op")}
		}
		if !ev.Op.Valid() {
			return Event{}, &DecodeError{Line: d.line, Err: fmt.Errorf("unknown op %q", ev.Op)}
		}
		if ev.Op == OpSourceMapping && ev.Span == nil {
			return Event{}, &DecodeError{Line: d.line, Err: fmt.Errorf("sourceMapping without span")}
		}
		return ev, nil
	}

	if err := d.scanner.Err(); err != nil {
		return Event{}, &DecodeError{Line: d.line + 1, Err: err}
	}
	return Event{}, io.EOF
}
