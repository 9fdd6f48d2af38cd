package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/synthsweep/internal/definition"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/report"
	"github.com/roach88/synthsweep/internal/runner"
	"github.com/roach88/synthsweep/internal/sweep"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Sweep completed and the report was written, even with failed combinations
	ExitFailure      = 1 // Report not written or sweep aborted
	ExitCommandError = 2 // Invalid definition, settings or arguments
)

// ExitError carries the process exit code for an error.
type ExitError struct {
	Code    int
	Message string
	Err     error

	// Reported is set once the error has been written to the command output.
	Reported bool
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates an ExitError without a cause.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps err with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure (1) if the error is not an ExitError.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

// errorCode maps a domain error to the code shown to users and its exit code.
func errorCode(err error) (string, int) {
	var (
		ce *sweep.ConfigurationError
		le *definition.LoadError
		fe *flow.ConfigError
	)
	switch {
	case errors.As(err, &ce):
		return string(ce.Code), ExitCommandError
	case errors.As(err, &le):
		return le.Code, ExitCommandError
	case errors.As(err, &fe):
		return "INVALID_ENGINE_CONFIG", ExitCommandError
	case report.IsRenderError(err):
		return "RENDER_FAILED", ExitFailure
	case runner.IsSweepAborted(err):
		return "SWEEP_ABORTED", ExitFailure
	}
	return "E001", GetExitCode(err)
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // diagnostics; defaults to Writer
	Verbose   bool
}

// CLIResponse is the JSON envelope of every command.
type CLIResponse struct {
	Status string    `json:"status"`
	Data   any       `json:"data,omitempty"`
	Error  *CLIError `json:"error,omitempty"`
}

// CLIError is the error part of a CLIResponse.
type CLIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Success outputs data in the configured format. Text output uses the
// value's String method when it has one.
func (f *OutputFormatter) Success(data any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{Status: "ok", Data: data})
	}
	_, err := fmt.Fprintln(f.Writer, data)
	return err
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.Format == "json" {
		return json.NewEncoder(f.Writer).Encode(CLIResponse{
			Status: "error",
			Error:  &CLIError{Code: code, Message: message, Details: details},
		})
	}
	fmt.Fprintf(f.Writer, "Error [%s]: %s\n", code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as an ExitError.
func (f *OutputFormatter) Fail(message string, err error) error {
	code, exit := errorCode(err)
	_ = f.Error(code, err.Error(), nil)
	e := WrapExitError(exit, message, err)
	e.Reported = true
	return e
}

// VerboseLog writes a diagnostic line when verbose mode is enabled.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// GetErrWriter returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}
