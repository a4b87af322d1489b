package trace

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/staleness/internal/sourcemap"
)

// ErrIncomplete is returned when a trace ends without an endExecution event.
var ErrIncomplete = errors.New("trace ended without endExecution")

// Stats summarizes a replay.
type Stats struct {
	// Events is the number of events dispatched, source-map events included.
	Events int

	// ByOp counts dispatched events per op.
	ByOp map[Op]int

	// Lines is the number of input lines consumed.
	Lines int
}

// ReplayOption configures Replay.
type ReplayOption func(*replayConfig)

type replayConfig struct {
	sourceMap *sourcemap.Map
	observe   func(Op)
}

// WithSourceMap records scriptEnter and sourceMapping events into m before
// dispatching them.
func WithSourceMap(m *sourcemap.Map) ReplayOption {
	return func(c *replayConfig) {
		c.sourceMap = m
	}
}

// WithObserver calls fn with the op of every event after it is dispatched.
func WithObserver(fn func(Op)) ReplayOption {
	return func(c *replayConfig) {
		c.observe = fn
	}
}

// Replay decodes the trace in r and dispatches every event to h, in order,
// on the calling goroutine.
//
// Replay stops at the first decode or handler error and returns it wrapped
// with the offending line. It returns after dispatching endExecution; any
// lines after it are not read. A trace without endExecution yields
// ErrIncomplete. Cancellation is checked between events.
func Replay(ctx context.Context, r io.Reader, h Handler, opts ...ReplayOption) (Stats, error) {
	cfg := &replayConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	stats := Stats{ByOp: make(map[Op]int)}
	dec := NewDecoder(r)

	slog.Debug("replay starting")

	for {
		if err := ctx.Err(); err != nil {
			stats.Lines = dec.Line()
			return stats, err
		}

		ev, err := dec.Next()
		if err == io.EOF {
			stats.Lines = dec.Line()
			return stats, ErrIncomplete
		}
		if err != nil {
			stats.Lines = dec.Line()
			return stats, err
		}

		if cfg.sourceMap != nil {
			recordSourceMap(cfg.sourceMap, ev)
		}

		if err := Dispatch(ctx, h, ev); err != nil {
			stats.Lines = dec.Line()
			return stats, fmt.Errorf("trace line %d (%s): %w", dec.Line(), ev.Op, err)
		}

		stats.Events++
		stats.ByOp[ev.Op]++
		if cfg.observe != nil {
			cfg.observe(ev.Op)
		}

		if ev.Op == OpEndExecution {
			stats.Lines = dec.Line()
			slog.Debug("replay finished", "events", stats.Events, "lines", stats.Lines)
			return stats, nil
		}
	}
}

func recordSourceMap(m *sourcemap.Map, ev Event) {
	switch ev.Op {
	case OpScriptEnter:
		m.AddScript(ev.Site.Script, ev.File)
	case OpSourceMapping:
		m.AddMapping(ev.Site, *ev.Span)
	}
}
