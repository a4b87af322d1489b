package staleness

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/staleness/internal/sourcemap"
	"github.com/roach88/staleness/internal/trace"
)

// memorySink keeps records in memory and counts flushes.
type memorySink struct {
	records []Record
	flushes int
	failOn  int // fail the write of the n-th record (1-based) when > 0
}

func (s *memorySink) WriteRecord(_ context.Context, r Record) error {
	if s.failOn > 0 && len(s.records)+1 == s.failOn {
		return errors.New("disk full")
	}
	s.records = append(s.records, r)
	return nil
}

func (s *memorySink) Flush(context.Context) error {
	s.flushes++
	return nil
}

func (s *memorySink) byID(id ObjectID) (Record, bool) {
	for _, r := range s.records {
		if r.ObjectID == id {
			return r, true
		}
	}
	return Record{}, false
}

// countingObserver tallies observer notifications.
type countingObserver struct {
	synthesized map[SynthesisReason]int
	revived     int
	emitted     map[ObjectType]int
	flushes     []Sizes
}

func newCountingObserver() *countingObserver {
	return &countingObserver{
		synthesized: make(map[SynthesisReason]int),
		emitted:     make(map[ObjectType]int),
	}
}

func (o *countingObserver) Synthesized(r SynthesisReason) { o.synthesized[r]++ }
func (o *countingObserver) Revived() { o.revived++ }
func (o *countingObserver) Emitted(t ObjectType) { o.emitted[t]++ }
func (o *countingObserver) Flushed(_ int, s Sizes) { o.flushes = append(o.flushes, s) }

func loc(script, iid int32) sourcemap.LocID {
	return sourcemap.LocID{Script: script, IID: iid}
}

func replay(t *testing.T, a *Analysis, input string, opts ...trace.ReplayOption) error {
	t.Helper()
	_, err := trace.Replay(context.Background(), strings.NewReader(input), a, opts...)
	return err
}

func mustReplay(t *testing.T, a *Analysis, input string, opts ...trace.ReplayOption) {
	t.Helper()
	require.NoError(t, replay(t, a, input, opts...))
}

// feed replays a trace prefix that deliberately stops before endExecution.
func feed(t *testing.T, a *Analysis, input string) {
	t.Helper()
	_, err := trace.Replay(context.Background(), strings.NewReader(input), a)
	require.ErrorIs(t, err, trace.ErrIncomplete)
}
