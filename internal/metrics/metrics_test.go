package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/staleness/internal/staleness"
	"github.com/roach88/staleness/internal/trace"
)

func TestCollector_Counters(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.ObserveEvent(trace.OpCreate)
	c.ObserveEvent(trace.OpCreate)
	c.ObserveEvent(trace.OpLastUse)
	c.Synthesized(staleness.SynthesizedDOMChild)
	c.Revived()
	c.Emitted(staleness.TypeDOM)
	c.Emitted(staleness.TypeDOM)
	c.Emitted(staleness.TypeFunction)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.events.WithLabelValues("create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.events.WithLabelValues("lastUse")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.synthesized.WithLabelValues("dom_child")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.revivals))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.emitted.WithLabelValues("DOM")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.emitted.WithLabelValues("FUNCTION")))
	assert.Equal(t, 2, testutil.CollectAndCount(c.emitted))
}

func TestCollector_FlushedSetsGauges(t *testing.T) {
	c := New(prometheus.NewRegistry())

	c.Flushed(3, staleness.Sizes{Live: 4, Pending: 0, DOMNodes: 2, Usage: 9})
	c.Flushed(0, staleness.Sizes{Live: 1, Pending: 0, DOMNodes: 1})

	assert.Equal(t, 2.0, testutil.ToFloat64(c.flushes))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.live))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.pending))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.domNodes))
}

func TestCollector_WithAnalysis(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	a := staleness.New(nopSink{}, staleness.WithObserver(c))

	input := `{"op":"declareRoot","id":2}
{"op":"addDOMChild","parentId":2,"childId":10,"time":1}
{"op":"removeDOMChild","parentId":2,"childId":10,"time":2}
{"op":"unreachableObject","id":10,"time":3}
{"op":"endExecution","time":4}
`
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	_, err := trace.Replay(ctx, strings.NewReader(input), a, trace.WithObserver(c.ObserveEvent))
	require.NoError(t, err)

	expected := `
# HELP staleness_records_emitted_total staleness records emitted, by object type
# TYPE staleness_records_emitted_total counter
staleness_records_emitted_total{type="DOM"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "staleness_records_emitted_total"))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.synthesized.WithLabelValues("dom_child")))
	assert.Equal(t, 5, testutil.CollectAndCount(c.events))
}

func TestWriteTextfile(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)
	c.Flushed(1, staleness.Sizes{Live: 7})

	path := filepath.Join(t.TempDir(), "staleness.prom")
	require.NoError(t, WriteTextfile(path, reg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "staleness_live_objects 7")
	assert.Contains(t, string(data), "staleness_flushes_total 1")
}

type nopSink struct{}

func (nopSink) WriteRecord(context.Context, staleness.Record) error { return nil }
func (nopSink) Flush(context.Context) error { return nil }
