package testutil

import (
	"context"

	"github.com/roach88/staleness/internal/staleness"
)

// RecordingSink keeps emitted records in memory along with the size of
// every flush batch.
type RecordingSink struct {
	Records []staleness.Record
	Flushes []int

	pending int
}

var _ staleness.RecordSink = (*RecordingSink)(nil)

// NewRecordingSink returns an empty sink. Records and Flushes are non-nil.
func NewRecordingSink() *RecordingSink {
	return &RecordingSink{Records: []staleness.Record{}, Flushes: []int{}}
}

func (s *RecordingSink) WriteRecord(_ context.Context, r staleness.Record) error {
	s.Records = append(s.Records, r)
	s.pending++
	return nil
}

func (s *RecordingSink) Flush(context.Context) error {
	s.Flushes = append(s.Flushes, s.pending)
	s.pending = 0
	return nil
}

// Pending returns the number of records written since the last flush.
func (s *RecordingSink) Pending() int {
	return s.pending
}
