package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"semcheck/internal/rules"
	"semcheck/internal/witness"
)

var explainCmd = &cobra.Command{
	Use:   "explain RULE",
	Short: "Show a rule's metadata and witness template",
	Long: `Show what a rule detects, its default level and required bump, its
group, and the witness template used to prove its findings.

Examples:
  semcheck explain enum_variant_added
  semcheck explain function_parameter_type_changed`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExplain(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	rootCmd.AddCommand(explainCmd)
}

func runExplain(w io.Writer, id string) error {
	catalog := rules.Default()
	r, ok := catalog.Lookup(id)
	if !ok {
		return fmt.Errorf("unknown rule %q; run 'semcheck lints' for the list", id)
	}
	m := r.Meta()

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s\n", m.ID))
	sb.WriteString(strings.Repeat("━", len(m.ID)) + "\n\n")
	sb.WriteString(fmt.Sprintf("%s\n\n", m.Description))
	sb.WriteString(fmt.Sprintf("  Category:      %s\n", m.Category))
	sb.WriteString(fmt.Sprintf("  Group:         %s\n", m.Group))
	sb.WriteString(fmt.Sprintf("  Default level: %s\n", m.Level))
	sb.WriteString(fmt.Sprintf("  Required bump: %s\n", m.Bump))
	if g, ok := catalog.Group(m.Group); ok && (g.Level != "" || g.Bump != 0) {
		sb.WriteString(fmt.Sprintf("  Group default: level=%s bump=%s\n", orDash(string(g.Level)), g.Bump))
	}

	if m.Witness == "" {
		sb.WriteString("\nNo witness template.\n")
		fmt.Fprint(w, sb.String())
		return nil
	}
	t, ok := witness.DefaultCatalog().Lookup(m.Witness)
	if !ok {
		return fmt.Errorf("rule %s names unknown witness template %q", m.ID, m.Witness)
	}
	sb.WriteString(fmt.Sprintf("\nWitness template: %s\n", t.ID))
	sb.WriteString(fmt.Sprintf("  %s\n", t.Description))
	if len(t.Requires) > 0 {
		sb.WriteString(fmt.Sprintf("  Requires facts: %s\n", strings.Join(t.Requires, ", ")))
	}
	if t.Stub != "" {
		sb.WriteString(fmt.Sprintf("  Not rendered: %s\n", t.Stub))
	} else {
		sb.WriteString("\n")
		for _, line := range strings.Split(strings.TrimRight(t.Source, "\n"), "\n") {
			sb.WriteString("    " + line + "\n")
		}
	}
	fmt.Fprint(w, sb.String())
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
