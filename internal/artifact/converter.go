package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/roach88/synthsweep/internal/toolrun"
)

// Converter renders one graph description into an image next to it.
type Converter interface {
	// Output is the image path Convert would produce for src.
	Output(src string) string
	Convert(ctx context.Context, src string) toolrun.Result
}

// Default converter settings.
const (
	DefaultConverterBinary = "dot"
	DefaultImageFormat     = "svg"
)

// DotConverter invokes Graphviz.
type DotConverter struct {
	Runner  toolrun.Runner
	Binary  string
	Format  string
	Timeout time.Duration
}

// NewDotConverter returns a converter with defaults for empty settings.
func NewDotConverter(binary, format string) *DotConverter {
	if strings.TrimSpace(binary) == "" {
		binary = DefaultConverterBinary
	}
	if strings.TrimSpace(format) == "" {
		format = DefaultImageFormat
	}
	return &DotConverter{Runner: toolrun.Exec{}, Binary: binary, Format: format}
}

// Output swaps the source extension for the image format.
func (c *DotConverter) Output(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + "." + c.Format
}

// Convert runs "dot -T<format> -o <out> <src>" and checks the output exists.
func (c *DotConverter) Convert(ctx context.Context, src string) toolrun.Result {
	out := c.Output(src)
	runner := c.Runner
	if runner == nil {
		runner = toolrun.Exec{}
	}
	res, err := runner.Run(ctx, toolrun.Command{
		Binary:  c.Binary,
		Args:    []string{"-T" + c.Format, "-o", out, src},
		Timeout: c.Timeout,
	})
	diag := toolrun.Tail(res.Output, toolrun.DefaultTailLines)
	if err != nil {
		return toolrun.Fail("%v", err).WithDiagnostics(diag)
	}
	if res.ExitCode != 0 {
		return toolrun.Fail("%s exited with status %d", c.Binary, res.ExitCode).WithDiagnostics(diag)
	}
	if info, statErr := os.Stat(out); statErr != nil || info.Size() == 0 {
		return toolrun.Fail("%s produced no output at %s", c.Binary, out).WithDiagnostics(diag)
	}
	return toolrun.Ok(out)
}

// ConversionError describes a failed conversion. It is logged and the
// artifact is reported as absent.
type ConversionError struct {
	Kind   string
	Source string
	Reason string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("convert %s (%s): %s", e.Kind, e.Source, e.Reason)
}
