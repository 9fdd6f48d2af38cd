package testutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/roach88/synthsweep/internal/toolrun"
)

// FakeConverter writes a placeholder image next to each source.
type FakeConverter struct {
	Format string

	// Fail lists source base names whose conversion fails.
	Fail map[string]bool

	// Lie lists source base names reported as converted without writing output.
	Lie map[string]bool

	mu    sync.Mutex
	calls []string
}

// NewFakeConverter returns a converter producing svg files.
func NewFakeConverter() *FakeConverter {
	return &FakeConverter{Format: "svg"}
}

// Output implements artifact.Converter.
func (c *FakeConverter) Output(src string) string {
	return strings.TrimSuffix(src, filepath.Ext(src)) + "." + c.Format
}

// Convert implements artifact.Converter.
func (c *FakeConverter) Convert(_ context.Context, src string) toolrun.Result {
	c.mu.Lock()
	c.calls = append(c.calls, src)
	c.mu.Unlock()

	base := filepath.Base(src)
	if c.Fail[base] {
		return toolrun.Fail("syntax error in %s", base).WithDiagnostics("Error: syntax error in line 1")
	}
	out := c.Output(src)
	if c.Lie[base] {
		return toolrun.Ok(out)
	}
	if err := os.WriteFile(out, []byte("<svg/>\n"), 0o644); err != nil {
		return toolrun.Fail("%v", err)
	}
	return toolrun.Ok(out)
}

// Calls returns converted sources in call order.
func (c *FakeConverter) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}
