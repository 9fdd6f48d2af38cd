package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// PlanOutput lists every run a sweep would perform.
type PlanOutput struct {
	Name    string       `json:"name"`
	Designs []PlanDesign `json:"designs"`
}

// PlanDesign lists the runs of one design.
type PlanDesign struct {
	Top  string    `json:"top"`
	Runs []PlanRun `json:"runs"`
}

// PlanRun is one planned engine invocation.
type PlanRun struct {
	Index      int      `json:"index"`
	RunID      string   `json:"run_id"`
	Parameters []string `json:"parameters"`
}

func (p PlanOutput) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "sweep %s", p.Name)
	for _, d := range p.Designs {
		fmt.Fprintf(&b, "\n%s", d.Top)
		for _, r := range d.Runs {
			fmt.Fprintf(&b, "\n  %3d  %s", r.Index, r.RunID)
			if len(r.Parameters) > 0 {
				fmt.Fprintf(&b, "  %s", strings.Join(r.Parameters, " "))
			}
		}
	}
	return b.String()
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "plan <definition>",
		Short: "List the runs a sweep would perform",
		Long: `Print every combination of every design in execution order, with the
run ID that names its output directory and its name=value parameters.

Example:
  synthsweep plan sweeps/muxes.yaml --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.validateFlags(); err != nil {
				return err
			}
			return runPlan(rootOpts.formatter(cmd), args[0])
		},
	}
}

func runPlan(f *OutputFormatter, path string) error {
	def, plan, err := loadPlan(path)
	if err != nil {
		return f.Fail("invalid sweep definition", err)
	}
	out := PlanOutput{Name: def.Name}
	for _, pd := range plan.Designs {
		d := PlanDesign{Top: pd.Spec.Top, Runs: make([]PlanRun, len(pd.Runs))}
		for i, pr := range pd.Runs {
			d.Runs[i] = PlanRun{Index: pr.Combination.Index, RunID: pr.RunID, Parameters: pr.Config.Parameters}
		}
		out.Designs = append(out.Designs, d)
	}
	return f.Success(out)
}
