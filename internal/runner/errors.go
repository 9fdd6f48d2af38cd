package runner

import (
	"errors"
	"fmt"
)

// SweepAbortedError is returned when the abort policy stops a sweep after a
// failed run. No report is rendered for an aborted sweep.
type SweepAbortedError struct {
	SweepID string

	// RunID is the run that triggered the abort. Empty when the sweep was
	// cancelled from outside.
	RunID  string
	Reason string
	Err    error
}

func (e *SweepAbortedError) Error() string {
	if e.RunID == "" {
		return fmt.Sprintf("sweep %s aborted: %s", e.SweepID, e.Reason)
	}
	return fmt.Sprintf("sweep %s aborted: run %s failed: %s", e.SweepID, e.RunID, e.Reason)
}

func (e *SweepAbortedError) Unwrap() error {
	return e.Err
}

// IsSweepAborted reports whether err wraps a SweepAbortedError.
func IsSweepAborted(err error) bool {
	var ae *SweepAbortedError
	return errors.As(err, &ae)
}
