package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/staleness/internal/staleness"
)

// ErrRunNotFound is returned when a run id does not exist.
var ErrRunNotFound = errors.New("run not found")

// Run is one analysis run.
type Run struct {
	ID         string    `json:"id"`
	Source     string    `json:"source"`
	StartedAt  string    `json:"started_at"`
	FinishedAt string    `json:"finished_at,omitempty"`
	Status     RunStatus `json:"status"`
	Records    int64     `json:"records"`
	Events     int64     `json:"events"`
	Error      string    `json:"error,omitempty"`
}

const runColumns = `id, source, started_at, COALESCE(finished_at, ''), status, records, events, error`

// ListRuns returns all runs, oldest first.
//
// Returns an empty slice (not nil) if there are no runs.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given id, or ErrRunNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LatestRun returns the most recently started run, or ErrRunNotFound when
// the store is empty.
func (s *Store) LatestRun(ctx context.Context) (Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+`
		FROM runs
		ORDER BY id COLLATE BINARY DESC
		LIMIT 1
	`)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}

// ReadRecords returns the committed records of a run, most stale first.
// Ties are broken by emission order. A limit of zero or less returns every
// record.
//
// Returns an empty slice (not nil) if the run has no records.
func (s *Store) ReadRecords(ctx context.Context, runID string, limit int) ([]staleness.Record, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT object_id, type, allocation_site, creation_time, creation_stack,
		       last_use_time, last_use_site, unreachable_time, unreachable_site
		FROM records
		WHERE run_id = ?
		ORDER BY staleness DESC, seq ASC
		LIMIT ?
	`, runID, limit)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	records := []staleness.Record{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return records, nil
}

// CountRecords returns the number of committed records of a run.
func (s *Store) CountRecords(ctx context.Context, runID string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records WHERE run_id = ?`, runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count records: %w", err)
	}
	return n, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var run Run
	var status string
	err := sc.Scan(&run.ID, &run.Source, &run.StartedAt, &run.FinishedAt, &status, &run.Records, &run.Events, &run.Error)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, err
	}
	if err != nil {
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	run.Status = RunStatus(status)
	return run, nil
}

func scanRecord(sc scanner) (staleness.Record, error) {
	var rec staleness.Record
	var id int64
	var typ, stack string
	err := sc.Scan(
		&id,
		&typ,
		&rec.AllocationSite,
		&rec.CreationTime,
		&stack,
		&rec.MostRecentUseTime,
		&rec.MostRecentUseSite,
		&rec.UnreachableTime,
		&rec.UnreachableSite,
	)
	if err != nil {
		return staleness.Record{}, fmt.Errorf("scan record: %w", err)
	}

	rec.ObjectID = staleness.ObjectID(id)
	if rec.Type, err = staleness.ParseObjectType(typ); err != nil {
		return staleness.Record{}, fmt.Errorf("scan record: %w", err)
	}
	if rec.CreationStack, err = unmarshalStack(stack); err != nil {
		return staleness.Record{}, fmt.Errorf("scan record: %w", err)
	}
	return rec, nil
}
