package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/synthsweep/internal/artifact"
	"github.com/roach88/synthsweep/internal/definition"
	"github.com/roach88/synthsweep/internal/flow"
	"github.com/roach88/synthsweep/internal/report"
	"github.com/roach88/synthsweep/internal/store"
)

// Runner executes sweeps. Configure it with options; the zero option set
// runs one combination at a time, continues past failures, converts graphs
// with Graphviz and renders the built-in Markdown report.
type Runner struct {
	engine    flow.Engine
	layout    flow.Layout
	kinds     []artifact.Kind
	converter artifact.Converter
	renderer  *report.Renderer
	ledger    Ledger
	ids       IDGenerator
	clock     *Clock
	now       func() time.Time
	logger    *slog.Logger

	jobs      int
	failFast  bool
	overwrite bool
	timeout   time.Duration
}

// Option configures a Runner.
type Option func(*Runner)

// WithJobs bounds the number of concurrent engine invocations.
func WithJobs(n int) Option {
	return func(r *Runner) { r.jobs = n }
}

// WithFailFast aborts the sweep on the first failed run.
func WithFailFast(on bool) Option {
	return func(r *Runner) { r.failFast = on }
}

// WithOverwrite re-invokes runs that already succeeded and re-converts
// existing diagrams.
func WithOverwrite(on bool) Option {
	return func(r *Runner) { r.overwrite = on }
}

// WithTimeout bounds each engine invocation.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) { r.timeout = d }
}

// WithLayout sets the engine's stage, state and marker names. The design
// directory is taken from the sweep definition.
func WithLayout(l flow.Layout) Option {
	return func(r *Runner) { r.layout = l }
}

// WithArtifactKinds sets the artifact columns of the report.
func WithArtifactKinds(kinds []artifact.Kind) Option {
	return func(r *Runner) { r.kinds = kinds }
}

// WithConverter sets the diagram converter.
func WithConverter(c artifact.Converter) Option {
	return func(r *Runner) { r.converter = c }
}

// WithRenderer sets the report renderer.
func WithRenderer(rd *report.Renderer) Option {
	return func(r *Runner) { r.renderer = rd }
}

// WithLedger records the sweep in l.
func WithLedger(l Ledger) Option {
	return func(r *Runner) { r.ledger = l }
}

// WithIDGenerator sets the sweep ID source.
func WithIDGenerator(g IDGenerator) Option {
	return func(r *Runner) { r.ids = g }
}

// WithClock sets the logical clock, for resuming after existing ledger rows.
func WithClock(c *Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithNow sets the wall clock used for ledger timestamps.
func WithNow(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New returns a runner invoking engine.
func New(engine flow.Engine, opts ...Option) *Runner {
	r := &Runner{
		engine: engine,
		jobs:   1,
		layout: flow.NewLayout(""),
		kinds:  artifact.DefaultKinds,
		ids:    UUIDv7Generator{},
		clock:  NewClock(),
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.jobs < 1 {
		r.jobs = 1
	}
	if r.converter == nil {
		r.converter = artifact.NewDotConverter("", "")
	}
	if r.renderer == nil {
		r.renderer = &report.Renderer{}
	}
	if r.renderer.Logger == nil {
		r.renderer.Logger = r.logger
	}
	return r
}

// Target names the files a sweep writes.
type Target struct {
	// Report is the rendered report path. Artifact links are relative to
	// its directory.
	Report string

	// JSON optionally receives the canonical JSON report context.
	JSON string
}

// Result summarizes a finished sweep.
type Result struct {
	SweepID string

	// Runs holds every run in canonical order.
	Runs []*flow.Run

	Context   report.Context
	Succeeded int
	Failed    int

	// JSON is the path of the exported context, empty when none was written.
	JSON string
}

// Run plans, executes and reports a sweep. Failed combinations do not make
// Run fail; it returns an error only for an invalid definition, an aborted
// sweep or a report that could not be written. The Result is non-nil
// whenever execution started.
func (r *Runner) Run(ctx context.Context, def *definition.SweepDefinition, target Target) (*Result, error) {
	plan, err := BuildPlan(def)
	if err != nil {
		return nil, err
	}
	if target.Report == "" {
		return nil, errors.New("report path is required")
	}
	reportPath, err := filepath.Abs(target.Report)
	if err != nil {
		return nil, fmt.Errorf("report path: %w", err)
	}

	sweepID := r.ids.Generate()
	logger := r.logger.With("sweep_id", sweepID, "sweep", def.Name)
	logger.Info("sweep started", "designs", len(plan.Designs), "runs", plan.Total(), "jobs", r.jobs)
	r.record(ctx, logger, func(ctx context.Context, l Ledger) error {
		return l.WriteSweep(ctx, store.SweepRecord{
			ID:             sweepID,
			Name:           def.Name,
			DefinitionPath: def.Path,
			DefinitionHash: def.Hash,
			Seq:            r.clock.Next(),
			StartedAt:      r.now(),
		})
	})

	runs, execErr := r.execute(ctx, plan, sweepID, logger)
	res := &Result{SweepID: sweepID}
	for _, d := range runs {
		for _, run := range d {
			if run == nil {
				continue
			}
			res.Runs = append(res.Runs, run)
			if run.Succeeded() {
				res.Succeeded++
			} else {
				res.Failed++
			}
		}
	}

	if execErr != nil {
		for _, run := range res.Runs {
			r.writeRun(ctx, logger, sweepID, run)
		}
		r.finish(ctx, logger, sweepID, res, "", "")
		logger.Error("sweep aborted", "error", execErr)
		return res, execErr
	}

	agg := report.NewAggregator(def.Name, r.kinds, filepath.Dir(reportPath))
	resolver := artifact.NewResolver(r.kinds)
	diagrams := &artifact.Diagrams{Converter: r.converter, Overwrite: r.overwrite, Logger: logger}
	for i, pd := range plan.Designs {
		agg.AddDesign(pd.Spec)
		for _, run := range runs[i] {
			links := diagrams.Render(ctx, resolver.Resolve(run))
			if err := agg.AddRun(run, links); err != nil {
				return res, err
			}
			r.writeRun(ctx, logger, sweepID, run)
		}
	}
	res.Context = agg.Context()

	if err := r.renderer.WriteFile(reportPath, res.Context); err != nil {
		r.finish(ctx, logger, sweepID, res, "", "")
		logger.Error("report not written", "path", reportPath, "error", err)
		return res, err
	}
	if target.JSON != "" {
		if err := report.WriteJSON(target.JSON, res.Context); err != nil {
			logger.Warn("report context not exported", "path", target.JSON, "error", err)
		} else {
			res.JSON = target.JSON
		}
	}
	hash, err := res.Context.Fingerprint()
	if err != nil {
		logger.Warn("could not fingerprint report", "error", err)
	}
	r.finish(ctx, logger, sweepID, res, reportPath, hash)
	logger.Info("sweep finished", "succeeded", res.Succeeded, "failed", res.Failed, "report", reportPath)
	return res, nil
}

// execute invokes every planned run and returns them indexed by design and
// combination. Slots of runs never started are nil.
func (r *Runner) execute(ctx context.Context, plan *Plan, sweepID string, logger *slog.Logger) ([][]*flow.Run, error) {
	layout := r.layout
	layout.DesignDir = plan.Definition.DesignDir
	invoker := &flow.Invoker{
		Engine:      r.engine,
		Layout:      layout,
		ProcessTech: plan.Definition.ProcessTech,
		Overwrite:   r.overwrite,
		Timeout:     r.timeout,
		Logger:      logger,
	}

	runs := make([][]*flow.Run, len(plan.Designs))
	for i, pd := range plan.Designs {
		runs[i] = make([]*flow.Run, len(pd.Runs))
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.jobs)
schedule:
	for i, pd := range plan.Designs {
		for j, pr := range pd.Runs {
			if gctx.Err() != nil {
				break schedule
			}
			i, j := i, j
			spec, combo := pd.Spec, pr.Combination
			g.Go(func() error {
				if gctx.Err() != nil {
					return nil
				}
				run := invoker.Invoke(gctx, spec, combo)
				runs[i][j] = run
				if r.failFast && run.Status == flow.StatusFailed {
					return &SweepAbortedError{SweepID: sweepID, RunID: run.RunID, Reason: run.Err.Reason, Err: run.Err}
				}
				return nil
			})
		}
	}
	if err := g.Wait(); err != nil {
		return runs, err
	}
	if err := ctx.Err(); err != nil {
		return runs, &SweepAbortedError{SweepID: sweepID, Reason: "cancelled", Err: err}
	}
	return runs, nil
}

func (r *Runner) writeRun(ctx context.Context, logger *slog.Logger, sweepID string, run *flow.Run) {
	r.record(ctx, logger, func(ctx context.Context, l Ledger) error {
		return l.WriteRun(ctx, runRecord(sweepID, r.clock.Next(), run))
	})
}

func (r *Runner) finish(ctx context.Context, logger *slog.Logger, sweepID string, res *Result, reportPath, hash string) {
	r.record(ctx, logger, func(ctx context.Context, l Ledger) error {
		return l.FinishSweep(ctx, sweepID, store.SweepSummary{
			FinishedAt: r.now(),
			ReportPath: reportPath,
			ReportHash: hash,
			Succeeded:  res.Succeeded,
			Failed:     res.Failed,
		})
	})
}

// record applies fn to the ledger. Ledger failures never fail the sweep, and
// a cancelled sweep is still recorded.
func (r *Runner) record(ctx context.Context, logger *slog.Logger, fn func(context.Context, Ledger) error) {
	if r.ledger == nil {
		return
	}
	if err := fn(context.WithoutCancel(ctx), r.ledger); err != nil {
		logger.Warn("ledger write failed", "error", err)
	}
}
