// Package cli implements the synthsweep command line.
package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/roach88/synthsweep/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	LogFormat  string // "text" | "json"
	ConfigFile string

	// Viper collects settings from the settings file, the environment and
	// the flags each command binds.
	Viper *viper.Viper

	settings *config.Settings
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the synthsweep CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{Viper: viper.New()}

	cmd := &cobra.Command{
		Use:   "synthsweep",
		Short: "Design-space exploration for hardware synthesis",
		Long: `synthsweep runs a synthesis flow once per combination of design
parameters, collects the intermediate artifacts of every run and renders
them into a single comparison report.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.validateFlags()
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format on stderr (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "settings file (default: ./synthsweep.yaml or ~/.config/synthsweep/synthsweep.yaml)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

func (o *RootOptions) validateFlags() error {
	if !slices.Contains(ValidFormats, o.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", o.Format, ValidFormats))
	}
	if o.LogFormat != "" && !slices.Contains(ValidFormats, o.LogFormat) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid log format %q: must be one of %v", o.LogFormat, ValidFormats))
	}
	return nil
}

// setup validates global flags, installs the logger on cmd's error stream
// and loads settings. bindings maps settings keys to flag names of cmd.
func (o *RootOptions) setup(cmd *cobra.Command, bindings map[string]string) (*config.Settings, *slog.Logger, error) {
	if err := o.validateFlags(); err != nil {
		return nil, nil, err
	}
	logger := newLogger(cmd.ErrOrStderr(), o.LogFormat, o.Verbose)
	slog.SetDefault(logger)

	if o.settings != nil {
		return o.settings, logger, nil
	}
	if o.Viper == nil {
		o.Viper = viper.New()
	}
	for key, name := range bindings {
		if f := cmd.Flags().Lookup(name); f != nil {
			if err := o.Viper.BindPFlag(key, f); err != nil {
				return nil, nil, WrapExitError(ExitCommandError, "bind flag "+name, err)
			}
		}
	}
	s, err := config.Load(o.Viper, o.ConfigFile)
	if err != nil {
		return nil, nil, WrapExitError(ExitCommandError, "invalid settings", err)
	}
	if s.File != "" {
		logger.Debug("settings loaded", "file", s.File)
	}
	o.settings = s
	return s, logger, nil
}

func newLogger(w io.Writer, format string, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	hopts := &slog.HandlerOptions{Level: level}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, hopts))
	}
	return slog.New(slog.NewTextHandler(w, hopts))
}

func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
