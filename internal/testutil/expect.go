package testutil

import (
	"os"
	"sort"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

// Expectation describes what a scenario must and must not report.
type Expectation struct {
	// Fires lists rule ids that must produce at least one finding.
	Fires []string `yaml:"fires"`

	// Quiet lists rule ids that must produce no findings.
	Quiet []string `yaml:"quiet"`

	// RequiredBump is checked when non-empty.
	RequiredBump string `yaml:"requiredBump"`

	// Items maps a rule id to the item paths its findings must name exactly.
	Items map[string][]string `yaml:"items"`
}

// LoadExpectation reads the scenario's expected.yaml, failing the test when
// it is missing or malformed.
func (f *FixtureContext) LoadExpectation(t *testing.T) *Expectation {
	t.Helper()

	data, err := os.ReadFile(f.ExpectedPath)
	if err != nil {
		t.Fatalf("Failed to read expectation: %v", err)
	}
	var exp Expectation
	if err := yaml.Unmarshal(data, &exp); err != nil {
		t.Fatalf("Malformed expectation %s: %v", f.ExpectedPath, err)
	}
	return &exp
}

// Check compares fired (rule id to finding item paths) against the
// expectation and reports every mismatch.
func (e *Expectation) Check(t *testing.T, fired map[string][]string) {
	t.Helper()

	for _, id := range e.Fires {
		if len(fired[id]) == 0 {
			t.Errorf("rule %s did not fire; fired: %s", id, firedIDs(fired))
		}
	}
	for _, id := range e.Quiet {
		if items := fired[id]; len(items) > 0 {
			t.Errorf("rule %s fired unexpectedly on %v", id, items)
		}
	}
	for id, want := range e.Items {
		got := append([]string(nil), fired[id]...)
		want = append([]string(nil), want...)
		sort.Strings(got)
		sort.Strings(want)
		if strings.Join(got, "\n") != strings.Join(want, "\n") {
			t.Errorf("rule %s items = %v, want %v", id, got, want)
		}
	}
}

func firedIDs(fired map[string][]string) string {
	ids := make([]string, 0, len(fired))
	for id, items := range fired {
		if len(items) > 0 {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	if len(ids) == 0 {
		return "(none)"
	}
	return strings.Join(ids, ", ")
}
