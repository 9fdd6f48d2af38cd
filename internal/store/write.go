package store

import (
	"context"
	"fmt"
)

// WriteSweep inserts a sweep row. Duplicate IDs are ignored.
func (s *Store) WriteSweep(ctx context.Context, sw SweepRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweeps
		(id, name, definition_path, definition_hash, seq, started_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING
	`,
		sw.ID,
		sw.Name,
		sw.DefinitionPath,
		sw.DefinitionHash,
		sw.Seq,
		formatTime(sw.StartedAt),
	)
	if err != nil {
		return fmt.Errorf("write sweep: %w", err)
	}
	return nil
}

// FinishSweep records the sweep outcome.
func (s *Store) FinishSweep(ctx context.Context, id string, sum SweepSummary) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE sweeps
		SET finished_at = ?, report_path = ?, report_hash = ?, succeeded = ?, failed = ?
		WHERE id = ?
	`,
		formatTime(sum.FinishedAt),
		sum.ReportPath,
		sum.ReportHash,
		sum.Succeeded,
		sum.Failed,
		id,
	)
	if err != nil {
		return fmt.Errorf("finish sweep: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("finish sweep: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("finish sweep: unknown sweep %q", id)
	}
	return nil
}

// WriteRun inserts a run row. A second write for the same sweep and run ID
// is ignored; the referenced sweep must exist.
func (s *Store) WriteRun(ctx context.Context, r RunRecord) error {
	params, err := marshalParameters(r.Parameters)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	skipped := 0
	if r.Skipped {
		skipped = 1
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs
		(sweep_id, seq, design, combination_index, run_id, tag, parameters, status, skipped, fingerprint, reason, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(sweep_id, run_id) DO NOTHING
	`,
		r.SweepID,
		r.Seq,
		r.Design,
		r.Index,
		r.RunID,
		r.Tag,
		params,
		r.Status,
		skipped,
		r.Fingerprint,
		r.Reason,
		r.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}
