package runner

import (
	"context"

	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/store"
)

// Ledger records sweeps and their runs. *store.Store implements it.
type Ledger interface {
	WriteSweep(ctx context.Context, sw store.SweepRecord) error
	WriteRun(ctx context.Context, r store.RunRecord) error
	FinishSweep(ctx context.Context, id string, sum store.SweepSummary) error
}

func runRecord(sweepID string, seq int64, run *flow.Run) store.RunRecord {
	rec := store.RunRecord{
		SweepID:     sweepID,
		Seq:         seq,
		Design:      run.Design,
		Index:       run.Combination.Index,
		RunID:       run.RunID,
		Tag:         run.Tag,
		Parameters:  run.Combination.Assignments(),
		Status:      string(run.Status),
		Skipped:     run.Skipped,
		Fingerprint: run.Fingerprint,
		Duration:    run.Duration,
	}
	if run.Err != nil {
		rec.Reason = run.Err.Reason
	}
	return rec
}
