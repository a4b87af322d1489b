package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/staleness/internal/staleness"
)

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	RunFailed   RunStatus = "failed"
)

// ErrRunFinished is returned when a finished RunSink is written to.
var ErrRunFinished = errors.New("run already finished")

// BeginRun inserts a new run for the trace named by source and returns a
// sink that appends its records.
func (s *Store) BeginRun(ctx context.Context, source string) (*RunSink, error) {
	id := s.ids.Generate()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, source, started_at, status)
		VALUES (?, ?, ?, ?)
	`, id, source, s.clock(), string(RunRunning))
	if err != nil {
		return nil, fmt.Errorf("begin run: %w", err)
	}

	slog.Debug("run started", "run", id, "source", source)
	return &RunSink{store: s, id: id}, nil
}

// RunSink writes the records of one run. It implements
// staleness.RecordSink.
//
// Records of a flush batch share one transaction, opened by the first
// WriteRecord and committed by Flush. A RunSink is not safe for concurrent
// use.
type RunSink struct {
	store *Store
	id    string

	tx       *sql.Tx
	insert   *sql.Stmt
	seq      int64
	flush    int64
	written  int64
	finished bool
}

var _ staleness.RecordSink = (*RunSink)(nil)

// ID returns the run id.
func (r *RunSink) ID() string {
	return r.id
}

// Written returns the number of committed records.
func (r *RunSink) Written() int64 {
	return r.written
}

// WriteRecord appends rec to the current batch.
func (r *RunSink) WriteRecord(ctx context.Context, rec staleness.Record) error {
	if r.finished {
		return ErrRunFinished
	}
	if r.tx == nil {
		if err := r.begin(ctx); err != nil {
			return err
		}
	}

	stack, err := marshalStack(rec.CreationStack)
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}

	r.seq++
	_, err = r.insert.ExecContext(ctx,
		r.id,
		r.seq,
		r.flush,
		int64(rec.ObjectID),
		rec.Type.String(),
		rec.AllocationSite,
		rec.CreationTime,
		stack,
		rec.MostRecentUseTime,
		rec.MostRecentUseSite,
		rec.UnreachableTime,
		rec.UnreachableSite,
		rec.Staleness(),
	)
	if err != nil {
		r.seq--
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Flush commits the current batch. A flush with no records commits nothing.
func (r *RunSink) Flush(_ context.Context) error {
	if r.finished {
		return ErrRunFinished
	}
	defer func() { r.flush++ }()

	if r.tx == nil {
		return nil
	}

	r.insert.Close()
	err := r.tx.Commit()
	r.tx, r.insert = nil, nil
	if err != nil {
		return fmt.Errorf("commit records: %w", err)
	}

	r.written = r.seq
	return nil
}

// Finish closes the run. An uncommitted batch is rolled back. The run is
// marked failed when runErr is non-nil, complete otherwise.
func (r *RunSink) Finish(ctx context.Context, events int, runErr error) error {
	if r.finished {
		return ErrRunFinished
	}
	r.finished = true

	if r.tx != nil {
		r.insert.Close()
		if err := r.tx.Rollback(); err != nil {
			slog.Warn("rollback uncommitted records", "run", r.id, "error", err)
		}
		r.tx, r.insert = nil, nil
		r.seq = r.written
	}

	status, message := RunComplete, ""
	if runErr != nil {
		status, message = RunFailed, runErr.Error()
	}

	_, err := r.store.db.ExecContext(ctx, `
		UPDATE runs
		SET finished_at = ?, status = ?, records = ?, events = ?, error = ?
		WHERE id = ?
	`, r.store.clock(), string(status), r.written, events, message, r.id)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}

	slog.Debug("run finished", "run", r.id, "status", status, "records", r.written)
	return nil
}

func (r *RunSink) begin(ctx context.Context) error {
	tx, err := r.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write record: begin tx: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records
		(run_id, seq, flush, object_id, type, allocation_site, creation_time, creation_stack,
		 last_use_time, last_use_site, unreachable_time, unreachable_site, staleness)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("write record: prepare: %w", err)
	}

	r.tx, r.insert = tx, stmt
	return nil
}
