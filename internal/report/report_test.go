package report_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/synthsweep/internal/artifact"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/report"
	"github.com/roach88/synthsweep/internal/sweep"
)

const (
	reportDir = "/work/reports"
	designDir = "/work/design"
)

func spec(t *testing.T, top string, domains ...sweep.ParameterDomain) sweep.DesignSpec {
	t.Helper()
	s, err := sweep.NewDesignSpec(top, domains, []string{"/src/" + top + ".sv"}, "", nil)
	require.NoError(t, err)
	return s
}

func domain(t *testing.T, name string, vals ...any) sweep.ParameterDomain {
	t.Helper()
	d, err := sweep.NewDomain(name, vals...)
	require.NoError(t, err)
	return d
}

func runFor(t *testing.T, s sweep.DesignSpec, idx int, status flow.Status) *flow.Run {
	t.Helper()
	combos, err := sweep.Generate(s)
	require.NoError(t, err)
	c := combos[idx]
	layout := flow.NewLayout(designDir)
	runID := sweep.RunID(s.Top, c.Tag())
	run := &flow.Run{
		Design:      s.Top,
		Combination: c,
		Tag:         c.Tag(),
		RunID:       runID,
		OutputDir:   layout.RunDir(runID),
		StageDir:    layout.StageDir(runID),
		Status:      status,
	}
	if status == flow.StatusFailed {
		run.Err = &flow.FlowExecutionError{RunID: runID, Reason: "openlane exited with status 1", Diagnostics: "[ERROR] yosys failed"}
	}
	return run
}

func links(run *flow.Run, names map[string]string) []artifact.Link {
	var out []artifact.Link
	for _, k := range artifact.DefaultKinds {
		l := artifact.Link{Kind: k.Name}
		if file, ok := names[k.Name]; ok {
			l.Path = filepath.Join(run.StageDir, file)
		}
		out = append(out, l)
	}
	return out
}

// demoContext builds a two-design context: one combination fails, the
// second design has no parameters.
func demoContext(t *testing.T) report.Context {
	t.Helper()
	mux := spec(t, "mux_bin_base", domain(t, "IMPLEMENTATION", 0, 1), domain(t, "WIDTH", 8))
	eql := spec(t, "eql_cmp")

	agg := report.NewAggregator("Synthesis sweep: demo", nil, reportDir)
	agg.AddDesign(mux)

	failed := runFor(t, mux, 0, flow.StatusFailed)
	require.NoError(t, agg.AddRun(failed, links(failed, map[string]string{"hierarchy": "hierarchy.svg"})))

	ok := runFor(t, mux, 1, flow.StatusSucceeded)
	require.NoError(t, agg.AddRun(ok, links(ok, map[string]string{
		"hierarchy": "hierarchy.svg",
		"netlist":   "mux_bin_base.nl.v",
	})))

	agg.AddDesign(eql)
	single := runFor(t, eql, 0, flow.StatusSucceeded)
	require.NoError(t, agg.AddRun(single, links(single, map[string]string{"netlist": "eql_cmp.nl.v"})))

	return agg.Context()
}

func TestAggregator_FailedRunHasAllArtifactsAbsent(t *testing.T) {
	ctx := demoContext(t)

	require.Len(t, ctx.Designs, 2)
	mux := ctx.Designs[0]
	assert.Equal(t, []string{"IMPLEMENTATION", "WIDTH"}, mux.ParameterNames)
	assert.Equal(t, 1, mux.Succeeded)
	assert.Equal(t, 1, mux.Failed)

	row := mux.Combinations[0]
	assert.Equal(t, "failed", row.Status)
	assert.Equal(t, []string{"0", "8"}, []string{row.Values[0].Text(), row.Values[1].Text()})
	for _, a := range row.Artifacts {
		assert.False(t, a.Present(), a.Kind)
	}
	assert.Equal(t, []report.Failure{{RunID: "mux_bin_base_IMPLEMENTATION_0_WIDTH_8", Reason: "openlane exited with status 1"}}, mux.Failures())

	linked := mux.Combinations[1].Artifacts
	assert.Equal(t, "../design/runs/mux_bin_base_IMPLEMENTATION_1_WIDTH_8/01-yosys-synthesis/hierarchy.svg", linked[0].Link)
	assert.False(t, linked[1].Present())

	s, f := ctx.Totals()
	assert.Equal(t, 2, s)
	assert.Equal(t, 1, f)
}

func TestAggregator_RejectsOutOfOrderRuns(t *testing.T) {
	mux := spec(t, "mux_bin_base", domain(t, "WIDTH", 8, 16))
	agg := report.NewAggregator("x", nil, reportDir)

	run0 := runFor(t, mux, 0, flow.StatusSucceeded)
	assert.Error(t, agg.AddRun(run0, nil), "run before design")

	agg.AddDesign(mux)
	assert.Error(t, agg.AddRun(runFor(t, mux, 1, flow.StatusSucceeded), nil), "skipped index 0")
	require.NoError(t, agg.AddRun(run0, nil))

	pending := runFor(t, mux, 1, flow.StatusPending)
	assert.Error(t, agg.AddRun(pending, nil))

	other := runFor(t, spec(t, "eql_cmp"), 0, flow.StatusSucceeded)
	assert.Error(t, agg.AddRun(other, nil))
}

func TestRenderer_Golden(t *testing.T) {
	r := &report.Renderer{}
	out, err := r.Render(demoContext(t))
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "report_markdown", out)
}

func TestRenderer_Deterministic(t *testing.T) {
	r := &report.Renderer{}
	a, err := r.Render(demoContext(t))
	require.NoError(t, err)
	b, err := r.Render(demoContext(t))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestRenderer_MarkdownCellsAreEscaped(t *testing.T) {
	ctx := demoContext(t)
	ctx.Designs[0].Combinations[0].Values[1] = sweep.StringValue("a|b")

	out, err := (&report.Renderer{}).Render(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(out), `| 0 | a\|b | failed |`)
}

func TestRenderer_HTMLEscapes(t *testing.T) {
	ctx := demoContext(t)
	ctx.Title = "<sweep>"
	out, err := (&report.Renderer{Template: "report.html.tmpl"}).Render(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<h1>&lt;sweep&gt;</h1>")
	assert.Contains(t, string(out), `<a href="../design/runs/eql_cmp/01-yosys-synthesis/eql_cmp.nl.v">netlist</a>`)
}

func TestRenderer_SearchPathOverridesBuiltin(t *testing.T) {
	first := t.TempDir()
	second := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(second, report.DefaultTemplate), []byte("second {{ len .Designs }}"), 0o644))

	r := &report.Renderer{SearchPath: []string{first, second}}
	out, err := r.Render(demoContext(t))
	require.NoError(t, err)
	assert.Equal(t, "second 2", string(out))

	require.NoError(t, os.WriteFile(filepath.Join(first, report.DefaultTemplate), []byte("first"), 0o644))
	out, err = r.Render(demoContext(t))
	require.NoError(t, err)
	assert.Equal(t, "first", string(out))
}

func TestRenderer_MissingTemplateWritesNothing(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.md")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	r := &report.Renderer{Template: "nope.tmpl", SearchPath: []string{dir}}
	err := r.WriteFile(path, demoContext(t))

	require.Error(t, err)
	assert.True(t, report.IsRenderError(err))
	assert.ErrorIs(t, err, report.ErrTemplateNotFound)
	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Equal(t, "previous", string(data))
}

func TestRenderer_ExecutionFaultWritesNothing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.tmpl"), []byte("{{ .NoSuchField }}"), 0o644))
	path := filepath.Join(dir, "out", "report.md")

	r := &report.Renderer{Template: "bad.tmpl", SearchPath: []string{dir}}
	err := r.WriteFile(path, demoContext(t))

	assert.True(t, report.IsRenderError(err))
	assert.NoFileExists(t, path)
}

func TestRenderer_WriteFileOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "report.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	require.NoError(t, (&report.Renderer{}).WriteFile(path, demoContext(t)))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "# Synthesis sweep: demo\n"))
}

func TestWriteJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, report.WriteJSON(path, demoContext(t)))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	s := string(data)
	assert.True(t, strings.HasPrefix(s, `{"artifact_kinds":["hierarchy","primitive_techmap","netlist"],"designs":[`))
	assert.Contains(t, s, `"values":[0,8]`)
	assert.Contains(t, s, `"artifacts":{"hierarchy":false,"netlist":false,"primitive_techmap":false}`)
	assert.True(t, strings.HasSuffix(s, "\"title\":\"Synthesis sweep: demo\"}\n"))

	fp1, err := demoContext(t).Fingerprint()
	require.NoError(t, err)
	fp2, err := demoContext(t).Fingerprint()
	require.NoError(t, err)
	assert.Equal(t, fp1, fp2)
}
