package flow

import (
	"errors"
	"fmt"
)

// ConfigError reports a malformed engine configuration. It is detected when
// the configuration is built, before anything is invoked.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("engine config: %s: %s", e.Field, e.Message)
}

// FlowExecutionError records why a single run failed. It is recoverable at
// combination granularity: the run is marked failed and the sweep moves on.
type FlowExecutionError struct {
	RunID  string
	Reason string

	// Diagnostics is the tail of the engine output, if any.
	Diagnostics string

	Err error
}

func (e *FlowExecutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("run %s failed: %s: %v", e.RunID, e.Reason, e.Err)
	}
	return fmt.Sprintf("run %s failed: %s", e.RunID, e.Reason)
}

func (e *FlowExecutionError) Unwrap() error {
	return e.Err
}

// IsFlowExecutionError reports whether err wraps a FlowExecutionError.
func IsFlowExecutionError(err error) bool {
	var fe *FlowExecutionError
	return errors.As(err, &fe)
}
