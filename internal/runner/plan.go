package runner

import (
	"fmt"

	"github.com/roach88/synthsweep/internal/definition"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/sweep"
)

// PlannedRun is one combination with its validated engine configuration.
type PlannedRun struct {
	Combination sweep.Combination
	RunID       string
	Config      flow.EngineConfig
}

// PlannedDesign groups the planned runs of one design in generation order.
type PlannedDesign struct {
	Spec sweep.DesignSpec
	Runs []PlannedRun
}

// Plan is the fully validated work of a sweep.
type Plan struct {
	Definition *definition.SweepDefinition
	Designs    []PlannedDesign
}

// Total returns the number of planned runs.
func (p *Plan) Total() int {
	n := 0
	for _, d := range p.Designs {
		n += len(d.Runs)
	}
	return n
}

// BuildPlan expands def and validates every engine configuration. It
// invokes nothing; any error is a configuration error for the whole sweep.
func BuildPlan(def *definition.SweepDefinition) (*Plan, error) {
	if def == nil || len(def.Designs) == 0 {
		return nil, fmt.Errorf("sweep definition has no designs")
	}
	combos := make([][]sweep.Combination, len(def.Designs))
	for i, spec := range def.Designs {
		cs, err := sweep.Generate(spec)
		if err != nil {
			return nil, err
		}
		combos[i] = cs
	}
	if err := sweep.CheckRunIDs(def.Designs, combos); err != nil {
		return nil, err
	}

	plan := &Plan{Definition: def, Designs: make([]PlannedDesign, len(def.Designs))}
	for i, spec := range def.Designs {
		pd := PlannedDesign{Spec: spec, Runs: make([]PlannedRun, len(combos[i]))}
		for j, c := range combos[i] {
			cfg, err := flow.BuildConfig(spec, c, def.ProcessTech)
			if err != nil {
				return nil, err
			}
			pd.Runs[j] = PlannedRun{Combination: c, RunID: sweep.RunID(spec.Top, c.Tag()), Config: cfg}
		}
		plan.Designs[i] = pd
	}
	return plan, nil
}
