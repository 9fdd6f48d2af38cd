package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthsweep/internal/publish"
	"github.com/roach88/synthsweep/internal/testutil"
)

const muxesDefinition = `
name: muxes
pdk: sky130A
sources: [src/common.sv]
designs:
  - top: mux_bin_base
    parameters:
      - name: IMPLEMENTATION
        values: [0, 1]
      - name: WIDTH
        values: [8, 16]
  - top: eql_cmp
    clock_port: clk
`

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// workspace returns a directory holding the muxes definition and an empty
// settings file.
func workspace(t *testing.T) (dir, definition, settings string) {
	t.Helper()
	dir = t.TempDir()
	definition = writeFile(t, filepath.Join(dir, "muxes.yaml"), muxesDefinition)
	settings = writeFile(t, filepath.Join(dir, "synthsweep.yaml"), "jobs: 1\n")
	return dir, definition, settings
}

func newRootOptions(settings, format string) *RootOptions {
	return &RootOptions{Format: format, ConfigFile: settings, Viper: viper.New()}
}

func newEngine() *testutil.FakeEngine {
	return testutil.NewFakeEngine("hierarchy.dot", "primitive_techmap.dot", "{top}.nl.v")
}

func newTestRunOptions(settings, format string, engine *testutil.FakeEngine) *RunOptions {
	return &RunOptions{
		RootOptions: newRootOptions(settings, format),
		Engine:      engine,
		Converter:   testutil.NewFakeConverter(),
		IDs:         testutil.NewFixedIDGenerator(""),
	}
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, string, error) {
	t.Helper()
	out, errOut := &bytes.Buffer{}, &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

type memObjects struct {
	mu   sync.Mutex
	keys []string
}

func (m *memObjects) Put(_ context.Context, _, key string, body io.Reader, _ int64, _ string) error {
	if _, err := io.Copy(io.Discard, body); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return nil
}

var _ publish.ObjectStore = (*memObjects)(nil)
