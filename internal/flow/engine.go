package flow

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/roach88/synthsweep/internal/toolrun"
)

// Invocation is everything an Engine needs to execute one run.
type Invocation struct {
	RunID      string
	DesignDir  string
	RunDir     string
	ConfigPath string
	LogPath    string
	Config     EngineConfig
}

// Engine executes the synthesis flow for one invocation and blocks until it
// completes. On success the result path is the run directory.
type Engine interface {
	Run(ctx context.Context, inv Invocation) toolrun.Result
}

// EngineFunc adapts a function to Engine.
type EngineFunc func(ctx context.Context, inv Invocation) toolrun.Result

// Run calls f.
func (f EngineFunc) Run(ctx context.Context, inv Invocation) toolrun.Result {
	return f(ctx, inv)
}

// DefaultEngineBinary is the synthesis flow executable.
const DefaultEngineBinary = "openlane"

// DefaultEngineArgs run only the synthesis stage under the given run tag.
var DefaultEngineArgs = []string{
	"--design-dir", "{design_dir}",
	"--run-tag", "{run_id}",
	"--overwrite",
	"--to", "Yosys.Synthesis",
	"{config}",
}

// ProcessEngine runs the flow as an external process.
//
// Args may contain placeholders: {config}, {run_id}, {design_dir},
// {run_dir}, {pdk} and {top}.
type ProcessEngine struct {
	Runner toolrun.Runner
	Binary string
	Args   []string

	// TailLines bounds the diagnostics kept from the output.
	TailLines int

	Logger *slog.Logger
}

// NewProcessEngine returns an engine using the default binary and arguments
// when binary or args are empty.
func NewProcessEngine(binary string, args []string) *ProcessEngine {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultEngineBinary
	}
	if len(args) == 0 {
		args = DefaultEngineArgs
	}
	return &ProcessEngine{
		Runner:    toolrun.Exec{},
		Binary:    binary,
		Args:      append([]string(nil), args...),
		TailLines: toolrun.DefaultTailLines,
	}
}

func (e *ProcessEngine) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}

// Command returns the process invocation for inv.
func (e *ProcessEngine) Command(inv Invocation) toolrun.Command {
	r := strings.NewReplacer(
		"{config}", inv.ConfigPath,
		"{run_id}", inv.RunID,
		"{design_dir}", inv.DesignDir,
		"{run_dir}", inv.RunDir,
		"{pdk}", inv.Config.ProcessTech,
		"{top}", inv.Config.Top,
	)
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		args[i] = r.Replace(a)
	}
	return toolrun.Command{Binary: e.Binary, Args: args, Dir: inv.DesignDir}
}

// Run executes the engine. A non-zero exit, a start failure or a timeout all
// produce a failed result carrying the tail of the output.
func (e *ProcessEngine) Run(ctx context.Context, inv Invocation) toolrun.Result {
	runner := e.Runner
	if runner == nil {
		runner = toolrun.Exec{}
	}
	cmd := e.Command(inv)
	out, err := runner.Run(ctx, cmd)

	if inv.LogPath != "" {
		if werr := writeLog(inv.LogPath, out.Output); werr != nil {
			e.logger().Warn("could not write engine log", "run_id", inv.RunID, "path", inv.LogPath, "error", werr)
		}
	}

	diag := toolrun.Tail(out.Output, e.TailLines)
	if err != nil {
		return toolrun.Fail("%v", err).WithDiagnostics(diag)
	}
	if out.ExitCode != 0 {
		return toolrun.Fail("%s exited with status %d", e.Binary, out.ExitCode).WithDiagnostics(diag)
	}
	return toolrun.Ok(inv.RunDir).WithDiagnostics(diag)
}

func writeLog(path string, output []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, output, 0o644)
}

var _ Engine = (*ProcessEngine)(nil)
