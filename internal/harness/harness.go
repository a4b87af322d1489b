package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/roach88/staleness/internal/sourcemap"
	"github.com/roach88/staleness/internal/staleness"
	"github.com/roach88/staleness/internal/testutil"
	"github.com/roach88/staleness/internal/trace"
)

// Harness replays scenarios. The zero value is not usable; call New.
type Harness struct {
	logger *slog.Logger
}

// New returns a Harness that logs to logger. A nil logger discards logs.
func New(logger *slog.Logger) *Harness {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Harness{logger: logger}
}

// Run executes a scenario with a silent logger.
func Run(scenario *Scenario) (*Result, error) {
	return New(nil).Run(context.Background(), scenario)
}

// Run replays the scenario trace through a fresh analysis and evaluates its
// expectations.
//
// The returned error covers failures to execute the scenario at all, such
// as an unreadable trace. Replay failures are part of the result: they pass
// when they match ExpectError.
func (h *Harness) Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	f, err := os.Open(scenario.Trace)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}
	defer f.Close()

	result := NewResult()
	sink := testutil.NewRecordingSink()
	src := sourcemap.New()

	opts := []staleness.AnalysisOption{staleness.WithFormatter(src)}
	if scenario.GlobalObjectID != 0 {
		opts = append(opts, staleness.WithGlobalObjectID(staleness.ObjectID(scenario.GlobalObjectID)))
	}
	a := staleness.New(sink, opts...)

	result.Stats, result.Err = trace.Replay(ctx, f, a, trace.WithSourceMap(src))
	result.Records, result.Flushes = sink.Records, sink.Flushes

	h.logger.Info("scenario replayed",
		"scenario", scenario.Name,
		"events", result.Stats.Events,
		"records", len(result.Records),
		"error", result.Err,
	)

	if msg := checkError(scenario.ExpectError, result.Err); msg != "" {
		result.AddError(msg)
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}

	return result, nil
}

func checkError(expected string, err error) string {
	got := staleness.FailureCode(err)
	if err != nil && got == "" {
		got = err.Error()
	}
	if got == expected {
		return ""
	}
	if expected == "" {
		return fmt.Sprintf("expected success, got %s: %v", got, err)
	}
	if err == nil {
		return fmt.Sprintf("expected error %s, got success", expected)
	}
	return fmt.Sprintf("expected error %s, got %s: %v", expected, got, err)
}
