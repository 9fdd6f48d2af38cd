package report

import (
	"fmt"
	"path/filepath"

	"github.com/roach88/synthsweep/internal/artifact"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/sweep"
)

// Aggregator builds a Context. It has a single owner and must be fed in
// canonical order: AddDesign, then AddRun for each of that design's
// combinations in generation order.
type Aggregator struct {
	baseDir string
	ctx     Context
	current *DesignRecord
	expect  int
}

// NewAggregator returns an aggregator whose links are relative to baseDir,
// normally the directory of the report file.
func NewAggregator(title string, kinds []artifact.Kind, baseDir string) *Aggregator {
	if len(kinds) == 0 {
		kinds = artifact.DefaultKinds
	}
	return &Aggregator{
		baseDir: baseDir,
		ctx: Context{
			Title:         title,
			ArtifactKinds: artifact.Names(kinds),
		},
	}
}

// AddDesign starts the section for spec.
func (a *Aggregator) AddDesign(spec sweep.DesignSpec) {
	a.ctx.Designs = append(a.ctx.Designs, DesignRecord{
		Top:            spec.Top,
		ParameterNames: spec.ParameterNames(),
	})
	a.current = &a.ctx.Designs[len(a.ctx.Designs)-1]
	a.expect = 0
}

// AddRun appends one combination row. Links for a failed run are ignored:
// a failed combination is always reported with every artifact absent.
func (a *Aggregator) AddRun(run *flow.Run, links []artifact.Link) error {
	if a.current == nil {
		return fmt.Errorf("report: run %s added before its design", run.RunID)
	}
	if run.Design != a.current.Top {
		return fmt.Errorf("report: run %s belongs to %s, not %s", run.RunID, run.Design, a.current.Top)
	}
	if run.Combination.Index != a.expect {
		return fmt.Errorf("report: run %s has index %d, want %d", run.RunID, run.Combination.Index, a.expect)
	}
	if !run.Status.Terminal() {
		return fmt.Errorf("report: run %s is still %s", run.RunID, run.Status)
	}
	a.expect++

	byKind := make(map[string]string, len(links))
	if run.Succeeded() {
		for _, l := range links {
			if l.Present() {
				byKind[l.Kind] = a.relative(l.Path)
			}
		}
	}
	rec := CombinationRecord{
		Index:     run.Combination.Index,
		Values:    run.Combination.Values(),
		Tag:       run.Tag,
		RunID:     run.RunID,
		Status:    string(run.Status),
		Artifacts: make([]ArtifactLink, len(a.ctx.ArtifactKinds)),
	}
	for i, k := range a.ctx.ArtifactKinds {
		rec.Artifacts[i] = ArtifactLink{Kind: k, Link: byKind[k]}
	}
	if run.Err != nil {
		rec.Reason = run.Err.Reason
		rec.Diagnostics = run.Err.Diagnostics
	}
	if run.Succeeded() {
		a.current.Succeeded++
	} else {
		a.current.Failed++
	}
	a.current.Combinations = append(a.current.Combinations, rec)
	return nil
}

// Context returns the aggregated context.
func (a *Aggregator) Context() Context {
	return a.ctx
}

// relative turns path into a forward-slash link relative to the report.
func (a *Aggregator) relative(path string) string {
	if a.baseDir != "" {
		if abs, err := filepath.Abs(path); err == nil {
			if base, err := filepath.Abs(a.baseDir); err == nil {
				if rel, err := filepath.Rel(base, abs); err == nil {
					return filepath.ToSlash(rel)
				}
			}
		}
	}
	return filepath.ToSlash(path)
}
