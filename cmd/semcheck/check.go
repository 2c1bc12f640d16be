package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"semcheck/internal/breaking"
	"semcheck/internal/config"
	semerrors "semcheck/internal/errors"
	"semcheck/internal/lintconfig"
	"semcheck/internal/rules"
	"semcheck/internal/snapshot"
)

// checkOptions holds the check command flags
type checkOptions struct {
	Baseline          string
	Current           string
	Manifest          string
	WorkspaceManifest string
	BaselineVersion   string
	CurrentVersion    string
	Format            string
	NoWitness         bool
	NoColor           bool
	Workers           int
	RuleTimeout       time.Duration
}

var checkOpts checkOptions

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check a release for semver violations",
	Long: `Compare a baseline and a current interface snapshot and report every
breaking change, the version bump it requires, and whether the current
version number satisfies it.

Lint levels are read from the current version's manifest only.

Exit codes:
  0  the release satisfies every finding
  1  a finding requires a larger bump, or a rule failed
  2  the run could not complete (unreadable snapshot, bad configuration)

Examples:
  semcheck check --baseline old.json --current new.json
  semcheck check --baseline old.yaml.zst --current new.yaml --manifest Cargo.toml
  semcheck check --baseline old.json --current new.json --current-version 2.0.0
  semcheck check --baseline old.json --current new.json --format sarif`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		os.Exit(runCheck(cmd.Context(), checkOpts, cmd.Flags().Changed, os.Stdout, os.Stderr))
	},
}

func init() {
	checkCmd.Flags().StringVar(&checkOpts.Baseline, "baseline", "", "Baseline snapshot file (json, yaml, msgpack, optionally .zst)")
	checkCmd.Flags().StringVar(&checkOpts.Current, "current", "", "Current snapshot file")
	checkCmd.Flags().StringVar(&checkOpts.Manifest, "manifest", "", "Current version's Cargo.toml with lint levels")
	checkCmd.Flags().StringVar(&checkOpts.WorkspaceManifest, "workspace-manifest", "", "Current version's workspace root Cargo.toml")
	checkCmd.Flags().StringVar(&checkOpts.BaselineVersion, "baseline-version", "", "Override the baseline snapshot's version")
	checkCmd.Flags().StringVar(&checkOpts.CurrentVersion, "current-version", "", "Override the current snapshot's version")
	checkCmd.Flags().StringVar(&checkOpts.Format, "format", "human", "Output format (human, json, sarif)")
	checkCmd.Flags().BoolVar(&checkOpts.NoWitness, "no-witness", false, "Skip witness generation")
	checkCmd.Flags().BoolVar(&checkOpts.NoColor, "no-color", false, "Disable colored output")
	checkCmd.Flags().IntVar(&checkOpts.Workers, "workers", 0, "Rule worker pool size (0 uses all CPUs)")
	checkCmd.Flags().DurationVar(&checkOpts.RuleTimeout, "rule-timeout", 30*time.Second, "Time budget per rule")
	_ = checkCmd.MarkFlagRequired("baseline")
	_ = checkCmd.MarkFlagRequired("current")

	rootCmd.AddCommand(checkCmd)
}

// runCheck performs a check and returns the process exit code.
func runCheck(ctx context.Context, opts checkOptions, changed func(string) bool, stdout, stderr io.Writer) int {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig()
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	logger := newLogger(cfg, stderr)
	evalOpts, format, color := checkSettings(cfg, opts, changed)

	pair, err := snapshot.LoadPair(opts.Baseline, opts.Current)
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	if opts.BaselineVersion != "" {
		pair.Baseline.Version = opts.BaselineVersion
	}
	if opts.CurrentVersion != "" {
		pair.Current.Version = opts.CurrentVersion
	}

	overrides, err := loadOverrides(opts)
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	logger.Debug("Loaded lint overrides", "count", len(overrides))

	analyzer := breaking.NewAnalyzer(rules.Default(), logger, evalOpts)
	report, err := analyzer.Evaluate(ctx, pair, overrides)
	if err != nil {
		printError(stderr, err)
		return exitError
	}

	output, err := FormatReport(report, OutputFormat(format), color)
	if err != nil {
		printError(stderr, err)
		return exitError
	}
	fmt.Fprintln(stdout, output)

	if !report.Success {
		return exitFailure
	}
	return exitSuccess
}

// checkSettings merges the tool configuration with explicitly set flags.
func checkSettings(cfg *config.Config, opts checkOptions, changed func(string) bool) (breaking.Options, string, bool) {
	evalOpts := breaking.Options{
		Workers:        cfg.Evaluation.Workers,
		RuleTimeout:    cfg.RuleTimeout(),
		Witnesses:      cfg.Witness.Enabled,
		WitnessWorkers: cfg.Witness.Workers,
		CheckSyntax:    cfg.Witness.CheckSyntax,
	}
	format := cfg.Output.Format
	color := cfg.Output.Color

	if changed("workers") {
		evalOpts.Workers = opts.Workers
	}
	if changed("rule-timeout") {
		evalOpts.RuleTimeout = opts.RuleTimeout
	}
	if opts.NoWitness {
		evalOpts.Witnesses = false
	}
	if changed("format") {
		format = opts.Format
	}
	if opts.NoColor {
		color = false
	}
	return evalOpts, strings.ToLower(format), color
}

// loadOverrides reads lint levels from the current version's manifests.
func loadOverrides(opts checkOptions) ([]lintconfig.Override, error) {
	var pkg, workspace *lintconfig.Manifest
	var err error
	if opts.Manifest != "" {
		if pkg, err = lintconfig.LoadManifest(opts.Manifest); err != nil {
			return nil, err
		}
	}
	if opts.WorkspaceManifest != "" {
		if workspace, err = lintconfig.LoadManifest(opts.WorkspaceManifest); err != nil {
			return nil, err
		}
	}
	return lintconfig.Collect(pkg, workspace), nil
}

// printError writes an error with its code, details and suggested fixes.
func printError(w io.Writer, err error) {
	var se *semerrors.SemcheckError
	if !errors.As(err, &se) {
		fmt.Fprintf(w, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(w, "Error: %v\n", se)
	if details, ok := se.Details.(map[string]string); ok {
		for _, k := range sortedKeys(details) {
			fmt.Fprintf(w, "  %s: %s\n", k, details[k])
		}
	}
	for _, fix := range se.SuggestedFixes {
		switch fix.Type {
		case semerrors.RunCommand:
			fmt.Fprintf(w, "  hint: %s (%s)\n", fix.Description, fix.Command)
		default:
			fmt.Fprintf(w, "  hint: %s\n", fix.Description)
		}
	}
}
