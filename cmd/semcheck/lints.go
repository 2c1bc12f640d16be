package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"semcheck/internal/lintconfig"
	"semcheck/internal/rules"
)

var (
	lintsFormat   string
	lintsManifest string
)

var lintsCmd = &cobra.Command{
	Use:   "lints",
	Short: "List the rule catalog",
	Long: `List every rule with its group and effective level and bump.

With --manifest, levels are resolved against the manifest's lint tables.

Examples:
  semcheck lints
  semcheck lints --manifest Cargo.toml
  semcheck lints --format json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLints(cmd.OutOrStdout(), lintsManifest, OutputFormat(lintsFormat))
	},
}

func init() {
	lintsCmd.Flags().StringVar(&lintsFormat, "format", "human", "Output format (human, json)")
	lintsCmd.Flags().StringVar(&lintsManifest, "manifest", "", "Resolve levels against this Cargo.toml")
	rootCmd.AddCommand(lintsCmd)
}

// LintCLI is one catalog entry with its effective configuration
type LintCLI struct {
	ID          string `json:"id"`
	Group       string `json:"group"`
	Category    string `json:"category"`
	Description string `json:"description"`
	Level       string `json:"level"`
	Bump        string `json:"requiredBump"`
	Source      string `json:"source"`
	Witness     string `json:"witness,omitempty"`
}

func runLints(w io.Writer, manifest string, format OutputFormat) error {
	catalog := rules.Default()
	var overrides []lintconfig.Override
	if manifest != "" {
		m, err := lintconfig.LoadManifest(manifest)
		if err != nil {
			return err
		}
		overrides = m.Overrides
	}
	cfg, err := lintconfig.Resolve(catalog, overrides)
	if err != nil {
		return err
	}

	var lints []LintCLI
	for _, r := range catalog.Rules() {
		m := r.Meta()
		eff, _ := cfg.For(m.ID)
		lints = append(lints, LintCLI{
			ID:          m.ID,
			Group:       string(m.Group),
			Category:    m.Category,
			Description: m.Description,
			Level:       string(eff.Level),
			Bump:        eff.Bump.String(),
			Source:      eff.LevelSource,
			Witness:     m.Witness,
		})
	}

	switch format {
	case FormatJSON:
		out, err := formatJSON(lints)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
		return nil
	case FormatHuman:
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "RULE\tGROUP\tLEVEL\tBUMP\tSOURCE")
		for _, l := range lints {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.ID, l.Group, l.Level, l.Bump, l.Source)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}
