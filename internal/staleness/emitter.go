package staleness

import (
	"context"
	"fmt"

	"github.com/roach88/staleness/internal/sourcemap"
)

// RecordSink receives emitted records.
//
// WriteRecord may buffer. Flush is called once per flush signal, after the
// last record of the batch, and must make the batch durable.
type RecordSink interface {
	WriteRecord(ctx context.Context, r Record) error
	Flush(ctx context.Context) error
}

// Emitter drains the pending-unreachable set into a RecordSink.
type Emitter struct {
	lifetime  *LifetimeTable
	usage     *LastUseTable
	formatter sourcemap.Formatter
	sink      RecordSink
	observer  Observer
}

// NewEmitter creates an emitter. A nil formatter renders raw location ids.
func NewEmitter(lifetime *LifetimeTable, usage *LastUseTable, formatter sourcemap.Formatter, sink RecordSink, observer Observer) *Emitter {
	if formatter == nil {
		formatter = sourcemap.Raw
	}
	if observer == nil {
		observer = nopObserver{}
	}
	return &Emitter{
		lifetime:  lifetime,
		usage:     usage,
		formatter: formatter,
		sink:      sink,
		observer:  observer,
	}
}

// Flush writes one record per pending object, removes each from the pending
// set once written, then flushes the sink. It returns the number of records
// written. An empty pending set writes nothing.
//
// Records are written in ascending id order. Consumers must not rely on any
// order.
func (e *Emitter) Flush(ctx context.Context) (int, error) {
	written := 0
	for _, id := range e.lifetime.pendingIDs() {
		alloc, _ := e.lifetime.Pending(id)
		usage, ok := e.usage.Lookup(id)
		if !ok {
			usage = newUsageRecord()
		}

		rec := e.buildRecord(id, alloc, usage)
		if err := e.sink.WriteRecord(ctx, rec); err != nil {
			return written, fmt.Errorf("write record for object %d: %w", id, err)
		}
		e.lifetime.finalize(id)
		e.observer.Emitted(alloc.Type)
		written++
	}

	if err := e.sink.Flush(ctx); err != nil {
		return written, fmt.Errorf("flush records: %w", err)
	}
	return written, nil
}

func (e *Emitter) buildRecord(id ObjectID, alloc *AllocationRecord, usage *UsageRecord) Record {
	stack := make([]string, len(alloc.CreationStack))
	for i, site := range alloc.CreationStack {
		stack[i] = e.formatter.Format(site)
	}
	return Record{
		ObjectID:          id,
		Type:              alloc.Type,
		AllocationSite:    e.formatter.Format(alloc.Site),
		CreationTime:      alloc.CreationTime,
		CreationStack:     stack,
		MostRecentUseTime: usage.MostRecentUseTime,
		MostRecentUseSite: e.formatter.Format(usage.MostRecentUseSite),
		UnreachableTime:   usage.UnreachableTime,
		UnreachableSite:   e.formatter.Format(usage.UnreachableSite),
	}
}
