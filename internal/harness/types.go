package harness

import (
	"github.com/roach88/staleness/internal/staleness"
	"github.com/roach88/staleness/internal/trace"
)

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when the expected error matched and every assertion held.
	Pass bool `json:"pass"`

	// Records are the emitted records in emission order.
	Records []staleness.Record `json:"records"`

	// Flushes holds the number of records written in each flush batch.
	Flushes []int `json:"flushes"`

	// Stats is the replay summary.
	Stats trace.Stats `json:"stats"`

	// Err is the error the replay ended with, if any.
	Err error `json:"-"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:    true,
		Records: []staleness.Record{},
		Flushes: []int{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Record returns the record emitted for id.
func (r *Result) Record(id staleness.ObjectID) (staleness.Record, bool) {
	for _, rec := range r.Records {
		if rec.ObjectID == id {
			return rec, true
		}
	}
	return staleness.Record{}, false
}
