package toolrun

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// DefaultTailLines is how many trailing output lines are kept as diagnostics.
const DefaultTailLines = 40

// waitDelay bounds how long Run waits for grandchildren holding the output
// pipe after the tool itself was killed.
const waitDelay = 5 * time.Second

// Command describes one external process invocation.
type Command struct {
	Binary string
	Args   []string

	// Dir is the working directory. Empty means the current directory.
	Dir string

	// Env is appended to the inherited environment.
	Env []string

	// Timeout bounds the call. Zero means no limit beyond ctx.
	Timeout time.Duration
}

func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Outcome is the raw process result.
type Outcome struct {
	ExitCode int
	Output   []byte
	Duration time.Duration
	TimedOut bool
}

// Runner executes commands. The process implementation is Exec; tests swap in
// fakes.
type Runner interface {
	Run(ctx context.Context, cmd Command) (Outcome, error)
}

// RunnerFunc adapts a function to Runner.
type RunnerFunc func(ctx context.Context, cmd Command) (Outcome, error)

// Run calls f.
func (f RunnerFunc) Run(ctx context.Context, cmd Command) (Outcome, error) {
	return f(ctx, cmd)
}

// Exec runs commands as child processes and captures combined output.
type Exec struct{}

// Run blocks until the process exits, the timeout fires or ctx is cancelled.
// A non-zero exit is reported through Outcome.ExitCode, not as an error; the
// error is reserved for processes that could not be started or were killed.
func (Exec) Run(ctx context.Context, cmd Command) (Outcome, error) {
	if strings.TrimSpace(cmd.Binary) == "" {
		return Outcome{}, errors.New("binary is required")
	}
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	c := exec.CommandContext(ctx, cmd.Binary, cmd.Args...)
	c.Dir = cmd.Dir
	c.WaitDelay = waitDelay
	if len(cmd.Env) > 0 {
		c.Env = append(c.Environ(), cmd.Env...)
	}
	var out bytes.Buffer
	c.Stdout = &out
	c.Stderr = &out

	start := time.Now()
	err := c.Run()
	outcome := Outcome{Output: out.Bytes(), Duration: time.Since(start)}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		outcome.TimedOut = true
		outcome.ExitCode = -1
		return outcome, fmt.Errorf("%s: timed out after %s", cmd.Binary, cmd.Timeout)
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		outcome.ExitCode = exitErr.ExitCode()
		return outcome, nil
	}
	if err != nil {
		outcome.ExitCode = -1
		return outcome, fmt.Errorf("%s: %w", cmd.Binary, err)
	}
	return outcome, nil
}

// Tail returns the last n non-empty lines of output.
func Tail(output []byte, n int) string {
	text := strings.TrimRight(string(output), "\n")
	if text == "" || n <= 0 {
		return ""
	}
	lines := strings.Split(text, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
