package flow

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/roach88/synthsweep/internal/sweep"
)

// Invoker maps combinations to engine invocations.
type Invoker struct {
	Engine      Engine
	Layout      Layout
	ProcessTech string

	// Overwrite forces re-invocation even when a matching successful run exists.
	Overwrite bool

	// Timeout bounds a single engine call. Zero means no limit.
	Timeout time.Duration

	Logger *slog.Logger
}

func (iv *Invoker) logger() *slog.Logger {
	if iv.Logger != nil {
		return iv.Logger
	}
	return slog.Default()
}

// Prepare builds and validates the engine configuration for a combination
// without invoking anything.
func (iv *Invoker) Prepare(spec sweep.DesignSpec, combo sweep.Combination) (EngineConfig, error) {
	return BuildConfig(spec, combo, iv.ProcessTech)
}

// Invoke runs one combination and returns its terminal Run. It never
// returns an error: every failure is recorded on the Run.
func (iv *Invoker) Invoke(ctx context.Context, spec sweep.DesignSpec, combo sweep.Combination) (run *Run) {
	tag := combo.Tag()
	runID := sweep.RunID(spec.Top, tag)
	run = &Run{
		Design:      spec.Top,
		Combination: combo,
		Tag:         tag,
		RunID:       runID,
		OutputDir:   iv.Layout.RunDir(runID),
		StageDir:    iv.Layout.StageDir(runID),
		Status:      StatusPending,
	}
	logger := iv.logger().With("design", spec.Top, "run_id", runID)
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			iv.fail(run, "engine panicked", fmt.Errorf("%v", r), "")
		}
		run.Duration = time.Since(start)
		if run.Status == StatusFailed {
			logger.Warn("run failed", "reason", run.Err.Reason)
		}
	}()

	cfg, err := iv.Prepare(spec, combo)
	if err != nil {
		iv.fail(run, "invalid engine configuration", err, "")
		return run
	}
	fp, err := cfg.Fingerprint()
	if err != nil {
		iv.fail(run, "fingerprint engine configuration", err, "")
		return run
	}
	run.Fingerprint = fp

	if !iv.Overwrite && iv.completed(runID, fp, logger) {
		run.Status = StatusSucceeded
		run.Skipped = true
		logger.Info("run already succeeded, skipping")
		return run
	}

	// Output of an earlier invocation must not count as this one's.
	if err := iv.clearStage(runID); err != nil {
		iv.fail(run, "clear previous stage output", err, "")
		return run
	}

	data, err := cfg.MarshalCanonical()
	if err != nil {
		iv.fail(run, "serialize engine configuration", err, "")
		return run
	}
	configPath := iv.Layout.ConfigPath(runID)
	if err := writeFileAtomic(configPath, append(data, '\n')); err != nil {
		iv.fail(run, "write engine configuration", err, "")
		return run
	}

	inv := Invocation{
		RunID:      runID,
		DesignDir:  iv.Layout.DesignDir,
		RunDir:     run.OutputDir,
		ConfigPath: configPath,
		LogPath:    iv.Layout.LogPath(runID),
		Config:     cfg,
	}

	runCtx := ctx
	if iv.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, iv.Timeout)
		defer cancel()
	}

	logger.Info("invoking engine", "parameters", cfg.Parameters)
	res := iv.Engine.Run(runCtx, inv)
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) && iv.Timeout > 0 {
		iv.fail(run, fmt.Sprintf("engine timed out after %s", iv.Timeout), nil, res.Diagnostics)
		return run
	}
	if !res.OK() {
		iv.fail(run, res.Reason, nil, res.Diagnostics)
		return run
	}
	if _, err := os.Stat(iv.Layout.StatePath(runID)); err != nil {
		iv.fail(run, "engine produced no completed stage output", err, res.Diagnostics)
		return run
	}

	run.Status = StatusSucceeded
	if err := WriteMarker(iv.Layout.MarkerPath(runID), Marker{RunID: runID, Status: StatusSucceeded, Fingerprint: fp}); err != nil {
		logger.Warn("could not persist run marker", "error", err)
	}
	logger.Info("run succeeded")
	return run
}

// completed reports whether a previous run with the same fingerprint
// succeeded and its stage output is still present.
func (iv *Invoker) completed(runID, fingerprint string, logger *slog.Logger) bool {
	m, err := ReadMarker(iv.Layout.MarkerPath(runID))
	if err != nil {
		logger.Warn("ignoring unreadable run marker", "error", err)
		return false
	}
	if m == nil || m.Status != StatusSucceeded {
		return false
	}
	if m.Fingerprint != fingerprint {
		logger.Info("configuration changed since last run, re-running")
		return false
	}
	if _, err := os.Stat(iv.Layout.StatePath(runID)); err != nil {
		return false
	}
	return true
}

// clearStage removes the stage directory and marker left by a previous
// invocation of runID.
func (iv *Invoker) clearStage(runID string) error {
	if err := os.RemoveAll(iv.Layout.StageDir(runID)); err != nil {
		return err
	}
	if err := os.Remove(iv.Layout.MarkerPath(runID)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

func (iv *Invoker) fail(run *Run, reason string, err error, diagnostics string) {
	run.Status = StatusFailed
	run.Err = &FlowExecutionError{
		RunID:       run.RunID,
		Reason:      reason,
		Diagnostics: diagnostics,
		Err:         err,
	}
	marker := Marker{RunID: run.RunID, Status: StatusFailed, Fingerprint: run.Fingerprint, Reason: reason}
	if werr := WriteMarker(iv.Layout.MarkerPath(run.RunID), marker); werr != nil {
		iv.logger().Debug("could not persist failure marker", "run_id", run.RunID, "error", werr)
	}
}
