package artifact_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthsweep/internal/artifact"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/testutil"
	"github.com/roach88/synthsweep/internal/toolrun"
)

func succeededRun(t *testing.T, files ...string) *flow.Run {
	t.Helper()
	stage := filepath.Join(t.TempDir(), "runs", "top_W_1", flow.DefaultStage)
	require.NoError(t, os.MkdirAll(stage, 0o755))
	for _, f := range files {
		require.NoError(t, os.WriteFile(filepath.Join(stage, f), []byte("digraph {}\n"), 0o644))
	}
	return &flow.Run{Design: "top", RunID: "top_W_1", StageDir: stage, Status: flow.StatusSucceeded}
}

func TestResolver_FixedOrderAndPresence(t *testing.T) {
	run := succeededRun(t, "hierarchy.dot", "top.nl.v")

	set := artifact.NewResolver(nil).Resolve(run)

	require.Len(t, set, 3)
	assert.Equal(t, []string{"hierarchy", "primitive_techmap", "netlist"},
		[]string{set[0].Kind.Name, set[1].Kind.Name, set[2].Kind.Name})
	assert.Equal(t, filepath.Join(run.StageDir, "hierarchy.dot"), set[0].Path)
	assert.False(t, set[1].Present())
	assert.Equal(t, filepath.Join(run.StageDir, "top.nl.v"), set[2].Path)

	e, ok := set.Lookup("netlist")
	assert.True(t, ok)
	assert.True(t, e.Present())
	_, ok = set.Lookup("timing")
	assert.False(t, ok)
}

func TestResolver_FailedRunIsAllAbsent(t *testing.T) {
	run := succeededRun(t, "hierarchy.dot", "primitive_techmap.dot", "top.nl.v")
	run.Status = flow.StatusFailed

	for _, e := range artifact.NewResolver(nil).Resolve(run) {
		assert.False(t, e.Present(), e.Kind.Name)
	}
	for _, e := range artifact.NewResolver(nil).Resolve(nil) {
		assert.False(t, e.Present(), e.Kind.Name)
	}
}

func TestResolver_DirectoryIsNotAnArtifact(t *testing.T) {
	run := succeededRun(t)
	require.NoError(t, os.Mkdir(filepath.Join(run.StageDir, "hierarchy.dot"), 0o755))

	set := artifact.NewResolver(nil).Resolve(run)
	assert.False(t, set[0].Present())
}

func TestValidateKinds(t *testing.T) {
	require.NoError(t, artifact.ValidateKinds(artifact.DefaultKinds))

	assert.Error(t, artifact.ValidateKinds([]artifact.Kind{{Name: "Bad", File: "x"}}))
	assert.Error(t, artifact.ValidateKinds([]artifact.Kind{{Name: "a", File: "x"}, {Name: "a", File: "y"}}))
	assert.Error(t, artifact.ValidateKinds([]artifact.Kind{{Name: "a", File: " "}}))
	assert.Error(t, artifact.ValidateKinds([]artifact.Kind{{Name: "a", File: "../x"}}))
}

func TestDiagrams_ConvertsGraphKinds(t *testing.T) {
	run := succeededRun(t, "hierarchy.dot", "primitive_techmap.dot", "top.nl.v")
	conv := testutil.NewFakeConverter()
	d := &artifact.Diagrams{Converter: conv}

	links := d.Render(context.Background(), artifact.NewResolver(nil).Resolve(run))

	require.Len(t, links, 3)
	assert.Equal(t, filepath.Join(run.StageDir, "hierarchy.svg"), links[0].Path)
	assert.Equal(t, filepath.Join(run.StageDir, "primitive_techmap.svg"), links[1].Path)
	assert.Equal(t, filepath.Join(run.StageDir, "top.nl.v"), links[2].Path)
	for _, l := range links {
		assert.FileExists(t, l.Path)
	}
	assert.Len(t, conv.Calls(), 2)
}

func TestDiagrams_SkipsExistingImagesUnlessOverwrite(t *testing.T) {
	run := succeededRun(t, "hierarchy.dot", "hierarchy.svg")
	conv := testutil.NewFakeConverter()
	set := artifact.NewResolver(nil).Resolve(run)

	links := (&artifact.Diagrams{Converter: conv}).Render(context.Background(), set)
	assert.True(t, links[0].Present())
	assert.Empty(t, conv.Calls())

	(&artifact.Diagrams{Converter: conv, Overwrite: true}).Render(context.Background(), set)
	assert.Len(t, conv.Calls(), 1)
}

func TestDiagrams_ReconvertsWhenSourceIsNewer(t *testing.T) {
	run := succeededRun(t, "hierarchy.dot", "hierarchy.svg")
	img := filepath.Join(run.StageDir, "hierarchy.svg")
	old := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(img, old, old))
	conv := testutil.NewFakeConverter()

	links := (&artifact.Diagrams{Converter: conv}).Render(context.Background(), artifact.NewResolver(nil).Resolve(run))

	assert.True(t, links[0].Present())
	require.Len(t, conv.Calls(), 1)
	assert.Equal(t, "hierarchy.dot", filepath.Base(conv.Calls()[0]))
}

func TestDiagrams_ConversionFailureDegradesToAbsent(t *testing.T) {
	run := succeededRun(t, "hierarchy.dot", "primitive_techmap.dot")
	conv := testutil.NewFakeConverter()
	conv.Fail = map[string]bool{"hierarchy.dot": true}
	conv.Lie = map[string]bool{"primitive_techmap.dot": true}

	links := (&artifact.Diagrams{Converter: conv}).Render(context.Background(), artifact.NewResolver(nil).Resolve(run))

	assert.False(t, links[0].Present())
	assert.False(t, links[1].Present())
	assert.False(t, links[2].Present())
}

func TestDiagrams_NoConverterLeavesGraphsAbsent(t *testing.T) {
	run := succeededRun(t, "hierarchy.dot", "top.nl.v")

	links := (&artifact.Diagrams{}).Render(context.Background(), artifact.NewResolver(nil).Resolve(run))

	assert.False(t, links[0].Present())
	assert.True(t, links[2].Present())
}

func TestDotConverter_Command(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hierarchy.dot")
	var got toolrun.Command
	conv := artifact.NewDotConverter("", "png")
	conv.Runner = toolrun.RunnerFunc(func(_ context.Context, cmd toolrun.Command) (toolrun.Outcome, error) {
		got = cmd
		return toolrun.Outcome{}, os.WriteFile(filepath.Join(dir, "hierarchy.png"), []byte("png"), 0o644)
	})

	res := conv.Convert(context.Background(), src)

	require.True(t, res.OK(), res.Reason)
	assert.Equal(t, filepath.Join(dir, "hierarchy.png"), res.Path)
	assert.Equal(t, "dot", got.Binary)
	assert.Equal(t, []string{"-Tpng", "-o", filepath.Join(dir, "hierarchy.png"), src}, got.Args)
}

func TestDotConverter_Failures(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "hierarchy.dot")

	exitErr := artifact.NewDotConverter("", "")
	exitErr.Runner = toolrun.RunnerFunc(func(context.Context, toolrun.Command) (toolrun.Outcome, error) {
		return toolrun.Outcome{ExitCode: 1, Output: []byte("Error: syntax error\n")}, nil
	})
	res := exitErr.Convert(context.Background(), src)
	assert.False(t, res.OK())
	assert.Equal(t, "dot exited with status 1", res.Reason)
	assert.Contains(t, res.Diagnostics, "syntax error")

	noOutput := artifact.NewDotConverter("", "")
	noOutput.Runner = toolrun.RunnerFunc(func(context.Context, toolrun.Command) (toolrun.Outcome, error) {
		return toolrun.Outcome{}, nil
	})
	res = noOutput.Convert(context.Background(), src)
	assert.False(t, res.OK())
	assert.Contains(t, res.Reason, "produced no output")
}
