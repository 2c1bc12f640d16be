package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"semcheck/internal/config"
	"semcheck/internal/slogutil"
	"semcheck/internal/version"
)

// Exit codes of the check command
const (
	exitSuccess = 0
	exitFailure = 1
	exitError   = 2
)

var (
	// verbosity is the count of -v flags
	verbosity int
	// quiet suppresses all logging
	quiet bool
	// configDir is where .semcheck/config.json is looked up
	configDir string
)

var rootCmd = &cobra.Command{
	Use:   "semcheck",
	Short: "semcheck - semver breaking-change checker",
	Long: `semcheck compares two interface snapshots of a library and decides whether
the new version can break code written against the old one, which semantic
version bump that requires, and why.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("semcheck version {{.Version}}\n")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Suppress all logging")
	rootCmd.PersistentFlags().StringVar(&configDir, "config-dir", ".", "Directory containing .semcheck/config.json")
}

// newLogger creates the stderr logger. Verbosity flags win over the
// configured level.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	level := slogutil.LevelFromString(cfg.Logging.Level)
	if verbosity > 0 || quiet {
		level = slogutil.LevelFromVerbosity(verbosity, quiet)
	}
	return slogutil.NewFormatLogger(w, level, cfg.Logging.Format, cfg.Output.Color)
}

// loadConfig loads and validates the tool configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
