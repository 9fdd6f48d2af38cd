package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/synthsweep/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
	Sweep string
}

// SweepEntry is one sweep in history output.
type SweepEntry struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Definition string `json:"definition"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
	Report     string `json:"report,omitempty"`
	Succeeded  int    `json:"succeeded"`
	Failed     int    `json:"failed"`
}

// RunEntry is one ledger row in history output.
type RunEntry struct {
	SweepID    string   `json:"sweep_id"`
	Design     string   `json:"design"`
	RunID      string   `json:"run_id"`
	Parameters []string `json:"parameters"`
	Status     string   `json:"status"`
	Skipped    bool     `json:"skipped"`
	Reason     string   `json:"reason,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// HistoryOutput lists sweeps, the runs of one sweep, or the history of one run.
type HistoryOutput struct {
	Sweeps []SweepEntry `json:"sweeps,omitempty"`
	Runs   []RunEntry   `json:"runs,omitempty"`
}

func (h HistoryOutput) String() string {
	if len(h.Sweeps) == 0 && len(h.Runs) == 0 {
		return "No entries."
	}
	var lines []string
	for _, s := range h.Sweeps {
		state := "unfinished"
		if s.FinishedAt != "" {
			state = fmt.Sprintf("%d succeeded, %d failed", s.Succeeded, s.Failed)
		}
		lines = append(lines, fmt.Sprintf("%s  %s  %s  %s", s.StartedAt, s.ID, s.Name, state))
	}
	for _, r := range h.Runs {
		line := fmt.Sprintf("%s  %s  %s  %s", r.SweepID, r.RunID, r.Status, strings.Join(r.Parameters, " "))
		if r.Skipped {
			line += "  (reused)"
		}
		if r.Reason != "" {
			line += "  " + r.Reason
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded sweeps from the run ledger",
		Long: `List the most recent sweeps recorded in the run ledger. With --sweep, list
the runs of one sweep in the order they were recorded. Given a run ID, list
every recorded outcome of that run across sweeps.

Example:
  synthsweep history --db sweeps.db
  synthsweep history --db sweeps.db --sweep 0190c6d2-7b1e-7c3a-9f00-5a1d2c3b4e5f
  synthsweep history --db sweeps.db mux_bin_base_IMPLEMENTATION_0_WIDTH_8`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd, opts, args)
		},
	}

	cmd.Flags().String("db", "", "path to the SQLite ledger")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 10, "number of sweeps to list")
	cmd.Flags().StringVar(&opts.Sweep, "sweep", "", "list the runs of one sweep")

	return cmd
}

func runHistory(cmd *cobra.Command, opts *HistoryOptions, args []string) error {
	settings, _, err := opts.setup(cmd, map[string]string{"db": "db"})
	if err != nil {
		return err
	}
	f := opts.formatter(cmd)
	if settings.DB == "" {
		return f.Fail("no ledger", NewExitError(ExitCommandError, "no ledger configured: pass --db or set db in the settings file"))
	}

	st, err := store.Open(settings.DB)
	if err != nil {
		return f.Fail("failed to open ledger", WrapExitError(ExitCommandError, "open ledger", err))
	}
	defer st.Close()
	ctx := commandContext(cmd)

	var out HistoryOutput
	switch {
	case len(args) == 1 && opts.Sweep != "":
		return f.Fail("invalid arguments", NewExitError(ExitCommandError, "--sweep and a run ID are mutually exclusive"))
	case opts.Sweep != "":
		if _, err := st.ReadSweep(ctx, opts.Sweep); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return f.Fail("unknown sweep", WrapExitError(ExitCommandError, "unknown sweep "+opts.Sweep, err))
			}
			return f.Fail("failed to read ledger", err)
		}
		runs, err := st.ReadSweepRuns(ctx, opts.Sweep)
		if err != nil {
			return f.Fail("failed to read ledger", err)
		}
		out.Runs = runEntries(runs)
		return f.Success(out)
	case len(args) == 1:
		runs, err := st.RunHistory(ctx, args[0])
		if err != nil {
			return f.Fail("failed to read ledger", err)
		}
		out.Runs = runEntries(runs)
		return f.Success(out)
	}

	sweeps, err := st.LatestSweeps(ctx, opts.Limit)
	if err != nil {
		return f.Fail("failed to read ledger", err)
	}
	for _, s := range sweeps {
		out.Sweeps = append(out.Sweeps, SweepEntry{
			ID:         s.ID,
			Name:       s.Name,
			Definition: s.DefinitionPath,
			StartedAt:  formatTimestamp(s.StartedAt),
			FinishedAt: formatTimestamp(s.FinishedAt),
			Report:     s.ReportPath,
			Succeeded:  s.Succeeded,
			Failed:     s.Failed,
		})
	}
	return f.Success(out)
}

func runEntries(runs []store.RunRecord) []RunEntry {
	entries := make([]RunEntry, 0, len(runs))
	for _, r := range runs {
		entries = append(entries, RunEntry{
			SweepID:    r.SweepID,
			Design:     r.Design,
			RunID:      r.RunID,
			Parameters: r.Parameters,
			Status:     r.Status,
			Skipped:    r.Skipped,
			Reason:     r.Reason,
			DurationMS: r.Duration.Milliseconds(),
		})
	}
	return entries
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
