package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/synthsweep/internal/artifact"
	"github.com/roach88/synthsweep/internal/config"
	"github.com/roach88/synthsweep/internal/definition"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/publish"
	"github.com/roach88/synthsweep/internal/report"
	"github.com/roach88/synthsweep/internal/runner"
	"github.com/roach88/synthsweep/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Output      string
	JSONContext string
	Overwrite   bool
	FailFast    bool

	// Engine, Converter, IDs and Publisher override the configured
	// implementations (for testing).
	Engine    flow.Engine
	Converter artifact.Converter
	IDs       runner.IDGenerator
	Publisher *publish.Publisher
}

// RunSummary is the output of a completed sweep.
type RunSummary struct {
	SweepID   string          `json:"sweep_id"`
	Report    string          `json:"report"`
	JSON      string          `json:"json_context,omitempty"`
	Succeeded int             `json:"succeeded"`
	Failed    int             `json:"failed"`
	Designs   []DesignSummary `json:"designs"`
	Published []string        `json:"published,omitempty"`
}

func (s RunSummary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Sweep %s: %d succeeded, %d failed", s.SweepID, s.Succeeded, s.Failed)
	for _, d := range s.Designs {
		fmt.Fprintf(&b, "\n  %s: %d succeeded, %d failed", d.Top, d.Succeeded, d.Failed)
	}
	fmt.Fprintf(&b, "\nReport written to %s", s.Report)
	if s.JSON != "" {
		fmt.Fprintf(&b, "\nContext written to %s", s.JSON)
	}
	if len(s.Published) > 0 {
		fmt.Fprintf(&b, "\nPublished %d objects", len(s.Published))
	}
	return b.String()
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <definition>",
		Short: "Run a sweep and render its report",
		Long: `Run the synthesis flow for every combination in a sweep definition,
convert the resulting graphs and write the comparison report.

Runs that already succeeded with the same configuration are reused unless
--overwrite is given. A failed combination is shown in the report and does
not change the exit code; only an invalid definition, an aborted sweep or a
report that cannot be written does.

Example:
  synthsweep run sweeps/muxes.cue -o reports/muxes.md
  synthsweep run sweeps/muxes.yaml -o report.html --template report.html.tmpl --jobs 4`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSweep(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "report.md", "report file")
	cmd.Flags().StringVar(&opts.JSONContext, "json-context", "", "also write the report context as canonical JSON")
	cmd.Flags().BoolVar(&opts.Overwrite, "overwrite", false, "re-run combinations that already succeeded")
	cmd.Flags().BoolVar(&opts.FailFast, "fail-fast", false, "abort the sweep on the first failed combination")
	cmd.Flags().Int("jobs", 1, "concurrent engine invocations")
	cmd.Flags().Duration("timeout", 0, "per-run engine timeout (0 disables)")
	cmd.Flags().String("template", report.DefaultTemplate, "report template name or path")
	cmd.Flags().StringSlice("template-dir", nil, "directories searched for the template before the built-ins")
	cmd.Flags().String("db", "", "record the sweep in this SQLite ledger")
	cmd.Flags().Bool("publish", false, "upload the report and artifacts to the configured object store")

	return cmd
}

var runBindings = map[string]string{
	"jobs":                 "jobs",
	"engine.timeout":       "timeout",
	"report.template":      "template",
	"report.template_dirs": "template-dir",
	"db":                   "db",
	"publish.enabled":      "publish",
}

func runSweep(cmd *cobra.Command, opts *RunOptions, path string) error {
	settings, logger, err := opts.setup(cmd, runBindings)
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)

	def, err := definition.Load(path)
	if err != nil {
		return f.Fail("invalid sweep definition", err)
	}
	f.VerboseLog("definition %s: %d designs, %d combinations", def.Path, len(def.Designs), def.TotalCombinations())

	ropts := []runner.Option{
		runner.WithJobs(settings.Jobs),
		runner.WithTimeout(settings.Engine.Timeout),
		runner.WithFailFast(opts.FailFast),
		runner.WithOverwrite(opts.Overwrite),
		runner.WithLayout(settings.Layout("")),
		runner.WithArtifactKinds(settings.ArtifactKinds()),
		runner.WithConverter(opts.converter(settings)),
		runner.WithRenderer(&report.Renderer{
			Template:   settings.Report.Template,
			SearchPath: settings.Report.TemplateDirs,
			Logger:     logger,
		}),
		runner.WithLogger(logger),
	}
	if opts.IDs != nil {
		ropts = append(ropts, runner.WithIDGenerator(opts.IDs))
	}

	if settings.DB != "" {
		st, err := store.Open(settings.DB)
		if err != nil {
			return f.Fail("failed to open ledger", WrapExitError(ExitCommandError, "open ledger", err))
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing ledger", "error", closeErr)
			}
		}()
		seq, err := st.MaxSeq(commandContext(cmd))
		if err != nil {
			logger.Warn("could not read ledger position", "error", err)
		}
		ropts = append(ropts, runner.WithLedger(st), runner.WithClock(runner.NewClockAt(seq)))
	}

	var pub *publish.Publisher
	if settings.Publish.Enabled {
		pub, err = opts.publisher(commandContext(cmd), settings, logger)
		if err != nil {
			return f.Fail("failed to connect to object store", WrapExitError(ExitCommandError, "publish", err))
		}
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	target := runner.Target{Report: opts.Output, JSON: opts.JSONContext}
	res, err := runner.New(opts.engine(settings, logger), ropts...).Run(ctx, def, target)
	if err != nil {
		return f.Fail("sweep did not produce a report", err)
	}

	reportPath, _ := filepath.Abs(opts.Output)
	summary := RunSummary{
		SweepID:   res.SweepID,
		Report:    reportPath,
		JSON:      res.JSON,
		Succeeded: res.Succeeded,
		Failed:    res.Failed,
	}
	for _, d := range res.Context.Designs {
		summary.Designs = append(summary.Designs, DesignSummary{
			Top:          d.Top,
			Combinations: len(d.Combinations),
			Succeeded:    d.Succeeded,
			Failed:       d.Failed,
		})
	}

	if pub != nil {
		var extra []string
		if res.JSON != "" {
			extra = append(extra, res.JSON)
		}
		objects, err := pub.Publish(ctx, res.SweepID, reportPath, res.Context, extra...)
		if err != nil {
			logger.Error("publication failed", "error", err)
			return f.Fail("report written but not published", WrapExitError(ExitFailure, "publish", err))
		}
		for _, o := range objects {
			summary.Published = append(summary.Published, o.Key)
		}
	}

	return f.Success(summary)
}

func (o *RunOptions) engine(s *config.Settings, logger *slog.Logger) flow.Engine {
	if o.Engine != nil {
		return o.Engine
	}
	e := flow.NewProcessEngine(s.Engine.Binary, s.Engine.Args)
	e.Logger = logger
	return e
}

func (o *RunOptions) converter(s *config.Settings) artifact.Converter {
	if o.Converter != nil {
		return o.Converter
	}
	c := artifact.NewDotConverter(s.Converter.Binary, s.Converter.Format)
	c.Timeout = s.Converter.Timeout
	return c
}

func (o *RunOptions) publisher(ctx context.Context, s *config.Settings, logger *slog.Logger) (*publish.Publisher, error) {
	if o.Publisher != nil {
		return o.Publisher, nil
	}
	p, err := publish.New(ctx, s.PublishConfig())
	if err != nil {
		return nil, err
	}
	p.Logger = logger
	return p, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
