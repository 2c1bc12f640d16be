package rules

import (
	"context"
	"sort"
	"testing"

	st "semcheck/internal/snapshot/snapshottest"
)

// run evaluates one rule of the default catalog.
func run(t *testing.T, id string, base, cur *st.Builder) []Finding {
	t.Helper()
	r, ok := Default().Lookup(id)
	if !ok {
		t.Fatalf("rule %s not in catalog", id)
	}
	findings, err := r.Match(context.Background(), NewInput(st.Pair(base, cur)))
	if err != nil {
		t.Fatalf("%s.Match() error = %v", id, err)
	}
	return findings
}

// runAll evaluates the whole default catalog and returns the ids of the
// rules that fired, one entry per finding, sorted.
func runAll(t *testing.T, base, cur *st.Builder) []string {
	t.Helper()
	in := NewInput(st.Pair(base, cur))
	var fired []string
	for _, r := range Default().Rules() {
		findings, err := r.Match(context.Background(), in)
		if err != nil {
			t.Fatalf("%s.Match() error = %v", r.Meta().ID, err)
		}
		for range findings {
			fired = append(fired, r.Meta().ID)
		}
	}
	sort.Strings(fired)
	return fired
}

func pair() (*st.Builder, *st.Builder) {
	return st.New("krate", "1.0.0"), st.New("krate", "2.0.0")
}

func wantFired(t *testing.T, got []string, want ...string) {
	t.Helper()
	sort.Strings(want)
	if len(got) != len(want) {
		t.Fatalf("fired = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("fired = %v, want %v", got, want)
		}
	}
}

func wantCount(t *testing.T, findings []Finding, n int) {
	t.Helper()
	if len(findings) != n {
		var msgs []string
		for _, f := range findings {
			msgs = append(msgs, f.Message)
		}
		t.Fatalf("got %d findings %q, want %d", len(findings), msgs, n)
	}
}
