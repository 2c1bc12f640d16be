package main

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/fatih/color"

	"semcheck/internal/breaking"
	"semcheck/internal/release"
	"semcheck/internal/rules"
	"semcheck/internal/version"
)

// OutputFormat represents the output format type
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatHuman OutputFormat = "human"
	FormatSARIF OutputFormat = "sarif"
)

// FormatReport formats a report according to the specified format
func FormatReport(report *breaking.Report, format OutputFormat, colored bool) (string, error) {
	switch format {
	case FormatJSON:
		return formatJSON(report)
	case FormatHuman:
		return formatReportHuman(report, newPalette(colored)), nil
	case FormatSARIF:
		return FormatReportAsSARIF(report, version.Version)
	default:
		return "", fmt.Errorf("unsupported format: %s", format)
	}
}

// formatJSON formats any value as indented JSON
func formatJSON(v interface{}) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return string(data), nil
}

// palette holds the colors of the human format
type palette struct {
	deny, warn, ok, dim, heading *color.Color
}

func newPalette(enabled bool) palette {
	p := palette{
		deny:    color.New(color.FgRed, color.Bold),
		warn:    color.New(color.FgYellow, color.Bold),
		ok:      color.New(color.FgGreen, color.Bold),
		dim:     color.New(color.Faint),
		heading: color.New(color.Bold),
	}
	if !enabled {
		for _, c := range []*color.Color{p.deny, p.warn, p.ok, p.dim, p.heading} {
			c.DisableColor()
		}
	}
	return p
}

func (p palette) level(l rules.Level) *color.Color {
	if l == rules.Deny {
		return p.deny
	}
	return p.warn
}

// formatReportHuman formats a report for human reading
func formatReportHuman(r *breaking.Report, p palette) string {
	var sb strings.Builder

	sb.WriteString(p.heading.Sprintf("Semver check: %s %s → %s", r.Crate, r.BaselineVersion, r.CurrentVersion))
	sb.WriteString("\n━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	if len(r.Rules) == 0 {
		sb.WriteString("No breaking changes detected.\n\n")
	}

	for _, rr := range r.Rules {
		if len(rr.Findings) == 0 {
			continue
		}
		mark := "✗"
		if rr.Level == rules.Warn {
			mark = "⚠"
		}
		sb.WriteString(p.level(rr.Level).Sprintf("%s %s", mark, rr.ID))
		sb.WriteString(fmt.Sprintf(" (%s, requires %s)\n", rr.Level, rr.RequiredBump))
		sb.WriteString(p.dim.Sprintf("  %s", rr.Description))
		sb.WriteString("\n")
		for _, f := range rr.Findings {
			sb.WriteString(fmt.Sprintf("  - %s\n", f.Message))
			if f.Location != nil && f.Location.File != "" {
				if f.Location.Line > 0 {
					sb.WriteString(fmt.Sprintf("    Location: %s:%d\n", f.Location.File, f.Location.Line))
				} else {
					sb.WriteString(fmt.Sprintf("    Location: %s\n", f.Location.File))
				}
			}
			if f.Witness == nil {
				continue
			}
			if f.Witness.OK() {
				sb.WriteString("    Witness:\n")
				for _, line := range strings.Split(strings.TrimRight(f.Witness.Text, "\n"), "\n") {
					sb.WriteString("      " + line + "\n")
				}
			} else {
				sb.WriteString(p.dim.Sprintf("    No witness: %s", f.Witness.Reason))
				sb.WriteString("\n")
			}
		}
		sb.WriteString("\n")
	}

	if len(r.Errors) > 0 {
		sb.WriteString(p.deny.Sprintf("Rule errors (%d):", len(r.Errors)))
		sb.WriteString("\n")
		for _, e := range r.Errors {
			sb.WriteString(fmt.Sprintf("  ! %s [%s] %s\n", e.RuleID, e.Code, e.Message))
		}
		sb.WriteString("\n")
	}

	s := r.Summary
	sb.WriteString("Summary:\n")
	sb.WriteString("━━━━━━━\n")
	sb.WriteString(fmt.Sprintf("  Rules evaluated: %d (%d skipped)\n", s.RulesEvaluated, s.RulesSkipped))
	sb.WriteString(fmt.Sprintf("  Findings: %d (%d deny, %d warn)\n", s.Findings, s.Denied, s.Warned))
	if s.Witnesses+s.WitnessFailures > 0 {
		sb.WriteString(fmt.Sprintf("  Witnesses: %d rendered, %d failed\n", s.Witnesses, s.WitnessFailures))
	}
	sb.WriteString(fmt.Sprintf("  Required bump: %s\n", r.RequiredBump))
	sb.WriteString(fmt.Sprintf("  Detected bump: %s\n\n", r.DetectedBump))

	switch {
	case r.Success:
		sb.WriteString(p.ok.Sprint("PASS"))
		sb.WriteString(fmt.Sprintf(": %s is a valid %s release\n", r.CurrentVersion, bumpName(r.DetectedBump)))
	case len(r.Errors) > 0:
		sb.WriteString(p.deny.Sprint("FAIL"))
		sb.WriteString(": some rules could not be evaluated\n")
	default:
		sb.WriteString(p.deny.Sprint("FAIL"))
		sb.WriteString(fmt.Sprintf(": a %s bump is required but %s is a %s release\n",
			r.RequiredBump, r.CurrentVersion, bumpName(r.DetectedBump)))
	}
	return sb.String()
}

func bumpName(t release.Type) string {
	if t == release.NotChanged {
		return "same-version"
	}
	return t.String()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
