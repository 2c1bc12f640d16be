package breaking

import (
	"context"
	"testing"

	"semcheck/internal/release"
	"semcheck/internal/rules"
	"semcheck/internal/slogutil"
	"semcheck/internal/snapshot"
	"semcheck/internal/testutil"
)

func TestFixtureCorpus(t *testing.T) {
	opts := DefaultOptions()
	opts.Witnesses = false
	a := NewAnalyzer(rules.Default(), slogutil.NewDiscardLogger(), opts)

	testutil.ForEachFixture(t, func(t *testing.T, fx *testutil.FixtureContext) {
		pair, err := snapshot.LoadPair(fx.BaselinePath, fx.CurrentPath)
		if err != nil {
			t.Fatalf("LoadPair() error = %v", err)
		}
		report, err := a.Evaluate(context.Background(), pair, nil)
		if err != nil {
			t.Fatalf("Evaluate() error = %v", err)
		}
		if len(report.Errors) > 0 {
			t.Fatalf("rule errors: %+v", report.Errors)
		}

		fired := make(map[string][]string)
		for _, f := range report.Findings() {
			fired[f.RuleID] = append(fired[f.RuleID], f.Item)
		}

		exp := fx.LoadExpectation(t)
		exp.Check(t, fired)
		if exp.RequiredBump != "" {
			want, err := release.Parse(exp.RequiredBump)
			if err != nil {
				t.Fatalf("bad requiredBump in expectation: %v", err)
			}
			if report.RequiredBump != want {
				t.Errorf("RequiredBump = %s, want %s", report.RequiredBump, want)
			}
		}
	})
}
