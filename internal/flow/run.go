package flow

import (
	"time"

	"github.com/roach88/synthsweep/internal/sweep"
)

// Status is the lifecycle state of a run.
type Status string

const (
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Terminal reports whether s is succeeded or failed.
func (s Status) Terminal() bool {
	return s == StatusSucceeded || s == StatusFailed
}

// Run is the record of one combination's engine invocation. It is created
// and mutated only by the Invoker and is read-only afterwards.
type Run struct {
	Design      string
	Combination sweep.Combination
	Tag         string
	RunID       string

	// OutputDir is the engine's working tree for this run.
	OutputDir string

	// StageDir is the stage subdirectory holding the artifacts. It is set
	// for every run; it only resolves when Status is StatusSucceeded.
	StageDir string

	Status Status

	// Skipped is true when a previous successful run was reused.
	Skipped bool

	Fingerprint string
	Duration    time.Duration

	// Err is set when Status is StatusFailed.
	Err *FlowExecutionError
}

// Succeeded reports whether the run completed successfully.
func (r *Run) Succeeded() bool {
	return r.Status == StatusSucceeded
}
