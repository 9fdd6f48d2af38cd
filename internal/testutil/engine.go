package testutil

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/toolrun"
)

// FakeEngine stands in for the synthesis engine. It lays out a run directory
// the way the real engine does: stage directory, completion state file and
// the configured artifact files.
type FakeEngine struct {
	// Stage defaults to flow.DefaultStage.
	Stage string

	// Artifacts are stage-relative file names; "{top}" is replaced.
	Artifacts []string

	// Fail maps run IDs to a failure reason.
	Fail map[string]string

	// NoState lists run IDs that exit cleanly without writing the state file.
	NoState map[string]bool

	// Panic lists run IDs for which Run panics.
	Panic map[string]bool

	// Block makes Run wait for context cancellation.
	Block bool

	mu      sync.Mutex
	calls   []string
	configs map[string][]byte
}

// NewFakeEngine returns an engine that produces the given artifacts.
func NewFakeEngine(artifacts ...string) *FakeEngine {
	return &FakeEngine{Artifacts: artifacts}
}

// Run implements flow.Engine.
func (f *FakeEngine) Run(ctx context.Context, inv flow.Invocation) toolrun.Result {
	cfg, _ := os.ReadFile(inv.ConfigPath)
	f.mu.Lock()
	f.calls = append(f.calls, inv.RunID)
	if f.configs == nil {
		f.configs = make(map[string][]byte)
	}
	f.configs[inv.RunID] = cfg
	f.mu.Unlock()

	if f.Panic[inv.RunID] {
		panic("fake engine: " + inv.RunID)
	}
	if f.Block {
		<-ctx.Done()
		return toolrun.Fail("interrupted: %v", ctx.Err())
	}
	if reason, ok := f.Fail[inv.RunID]; ok {
		return toolrun.Fail("%s", reason).WithDiagnostics("ERROR: " + reason)
	}

	stage := f.Stage
	if stage == "" {
		stage = flow.DefaultStage
	}
	stageDir := filepath.Join(inv.RunDir, stage)
	if err := os.MkdirAll(stageDir, 0o755); err != nil {
		return toolrun.Fail("%v", err)
	}
	for _, name := range f.Artifacts {
		name = strings.ReplaceAll(name, "{top}", inv.Config.Top)
		body := fmt.Sprintf("// %s for %s\n", name, inv.RunID)
		if err := os.WriteFile(filepath.Join(stageDir, name), []byte(body), 0o644); err != nil {
			return toolrun.Fail("%v", err)
		}
	}
	if !f.NoState[inv.RunID] {
		if err := os.WriteFile(filepath.Join(stageDir, flow.DefaultStateFile), []byte("{}\n"), 0o644); err != nil {
			return toolrun.Fail("%v", err)
		}
	}
	return toolrun.Ok(inv.RunDir).WithDiagnostics("synthesis complete")
}

// Calls returns invoked run IDs in call order.
func (f *FakeEngine) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// SortedCalls returns invoked run IDs sorted, for concurrent sweeps.
func (f *FakeEngine) SortedCalls() []string {
	calls := f.Calls()
	sort.Strings(calls)
	return calls
}

// Config returns the configuration file contents seen for runID.
func (f *FakeEngine) Config(runID string) []byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.configs[runID]
}
