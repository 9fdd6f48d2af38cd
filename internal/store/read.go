package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested sweep does not exist.
var ErrNotFound = errors.New("not found")

const sweepColumns = `id, name, definition_path, definition_hash, seq, started_at, finished_at, report_path, report_hash, succeeded, failed`

const runColumns = `sweep_id, seq, design, combination_index, run_id, tag, parameters, status, skipped, fingerprint, reason, duration_ms`

type scanner interface {
	Scan(dest ...any) error
}

func scanSweep(row scanner) (SweepRecord, error) {
	var (
		sw                SweepRecord
		started, finished string
	)
	err := row.Scan(&sw.ID, &sw.Name, &sw.DefinitionPath, &sw.DefinitionHash, &sw.Seq,
		&started, &finished, &sw.ReportPath, &sw.ReportHash, &sw.Succeeded, &sw.Failed)
	if err != nil {
		return SweepRecord{}, err
	}
	if sw.StartedAt, err = parseTime(started); err != nil {
		return SweepRecord{}, fmt.Errorf("sweep %s: started_at: %w", sw.ID, err)
	}
	if sw.FinishedAt, err = parseTime(finished); err != nil {
		return SweepRecord{}, fmt.Errorf("sweep %s: finished_at: %w", sw.ID, err)
	}
	return sw, nil
}

func scanRun(row scanner) (RunRecord, error) {
	var (
		r        RunRecord
		params   string
		skipped  int
		duration int64
	)
	err := row.Scan(&r.SweepID, &r.Seq, &r.Design, &r.Index, &r.RunID, &r.Tag,
		&params, &r.Status, &skipped, &r.Fingerprint, &r.Reason, &duration)
	if err != nil {
		return RunRecord{}, fmt.Errorf("scan run: %w", err)
	}
	if r.Parameters, err = unmarshalParameters(params); err != nil {
		return RunRecord{}, err
	}
	r.Skipped = skipped != 0
	r.Duration = time.Duration(duration) * time.Millisecond
	return r, nil
}

// ReadSweep returns one sweep by ID.
func (s *Store) ReadSweep(ctx context.Context, id string) (SweepRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sweepColumns+` FROM sweeps WHERE id = ?`, id)
	sw, err := scanSweep(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SweepRecord{}, fmt.Errorf("sweep %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return SweepRecord{}, fmt.Errorf("read sweep: %w", err)
	}
	return sw, nil
}

// LatestSweeps returns up to limit sweeps, newest first.
func (s *Store) LatestSweeps(ctx context.Context, limit int) ([]SweepRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+sweepColumns+`
		FROM sweeps
		ORDER BY started_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sweeps: %w", err)
	}
	defer rows.Close()

	sweeps := []SweepRecord{}
	for rows.Next() {
		sw, err := scanSweep(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sweep: %w", err)
		}
		sweeps = append(sweeps, sw)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sweeps: %w", err)
	}
	return sweeps, nil
}

// ReadSweepRuns returns the runs of a sweep in the order they were written.
// Returns an empty slice (not nil) when the sweep has no runs.
func (s *Store) ReadSweepRuns(ctx context.Context, sweepID string) ([]RunRecord, error) {
	return s.queryRuns(ctx, `
		SELECT `+runColumns+`
		FROM runs
		WHERE sweep_id = ?
		ORDER BY seq ASC, run_id COLLATE BINARY ASC
	`, sweepID)
}

// RunHistory returns every ledger entry for one run ID across sweeps,
// oldest first.
func (s *Store) RunHistory(ctx context.Context, runID string) ([]RunRecord, error) {
	return s.queryRuns(ctx, `
		SELECT r.sweep_id, r.seq, r.design, r.combination_index, r.run_id, r.tag, r.parameters,
		       r.status, r.skipped, r.fingerprint, r.reason, r.duration_ms
		FROM runs r
		JOIN sweeps s ON r.sweep_id = s.id
		WHERE r.run_id = ?
		ORDER BY s.started_at ASC, s.id ASC, r.seq ASC
	`, runID)
}

func (s *Store) queryRuns(ctx context.Context, query string, args ...any) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []RunRecord{}
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// MaxSeq returns the highest seq recorded in the ledger, or 0 when empty.
// The runner resumes its logical clock from here.
func (s *Store) MaxSeq(ctx context.Context) (int64, error) {
	var seq sql.NullInt64
	err := s.db.QueryRowContext(ctx, `
		SELECT MAX(seq) FROM (SELECT seq FROM sweeps UNION ALL SELECT seq FROM runs)
	`).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("max seq: %w", err)
	}
	return seq.Int64, nil
}
