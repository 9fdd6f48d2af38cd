package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/synthsweep/internal/definition"
	"github.com/roach88/synthsweep/internal/runner"
)

// ValidationResult summarizes a valid definition.
type ValidationResult struct {
	Valid        bool            `json:"valid"`
	Name         string          `json:"name"`
	Path         string          `json:"path"`
	ProcessTech  string          `json:"pdk"`
	Hash         string          `json:"hash"`
	Designs      []DesignSummary `json:"designs"`
	Combinations int             `json:"combinations"`
}

// DesignSummary is one design in command output.
type DesignSummary struct {
	Top          string   `json:"top"`
	Parameters   []string `json:"parameters,omitempty"`
	Combinations int      `json:"combinations,omitempty"`
	Succeeded    int      `json:"succeeded,omitempty"`
	Failed       int      `json:"failed,omitempty"`
}

func (r ValidationResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s is valid: %d designs, %d combinations (pdk %s)", r.Path, len(r.Designs), r.Combinations, r.ProcessTech)
	for _, d := range r.Designs {
		params := "no parameters"
		if len(d.Parameters) > 0 {
			params = strings.Join(d.Parameters, ", ")
		}
		fmt.Fprintf(&b, "\n  %s: %d combinations (%s)", d.Top, d.Combinations, params)
	}
	return b.String()
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <definition>",
		Short: "Check a sweep definition without running anything",
		Long: `Load a sweep definition (.cue, .yaml or .hcl), expand every design into
its combinations and validate each engine configuration. Nothing is invoked.

Example:
  synthsweep validate sweeps/muxes.cue`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := rootOpts.validateFlags(); err != nil {
				return err
			}
			return runValidate(rootOpts.formatter(cmd), args[0])
		},
	}
}

func runValidate(f *OutputFormatter, path string) error {
	def, plan, err := loadPlan(path)
	if err != nil {
		return f.Fail("invalid sweep definition", err)
	}
	res := ValidationResult{
		Valid:        true,
		Name:         def.Name,
		Path:         def.Path,
		ProcessTech:  def.ProcessTech,
		Hash:         def.Hash,
		Combinations: plan.Total(),
	}
	for _, pd := range plan.Designs {
		res.Designs = append(res.Designs, DesignSummary{
			Top:          pd.Spec.Top,
			Parameters:   pd.Spec.ParameterNames(),
			Combinations: len(pd.Runs),
		})
	}
	return f.Success(res)
}

func loadPlan(path string) (*definition.SweepDefinition, *runner.Plan, error) {
	def, err := definition.Load(path)
	if err != nil {
		return nil, nil, err
	}
	plan, err := runner.BuildPlan(def)
	if err != nil {
		return nil, nil, err
	}
	return def, plan, nil
}
