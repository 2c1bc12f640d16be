// Package testutil loads snapshot-pair scenarios for corpus tests.
package testutil

import (
	"flag"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"testing"
)

// fixtureFilter restricts which scenarios run.
// Use: go test ./internal/breaking -run TestFixtureCorpus -fixture=enum_variant_added,unchanged
var fixtureFilter = flag.String("fixture", "", "filter scenarios (comma-separated directory names)")

// FixtureContext holds information about a loaded scenario.
type FixtureContext struct {
	// Name is the scenario directory name
	Name string

	// Root is the absolute path to the scenario directory
	Root string

	// BaselinePath and CurrentPath are the two snapshots of the pair
	BaselinePath string
	CurrentPath  string

	// ExpectedPath is the expectation file; it may be absent
	ExpectedPath string
}

// LoadFixture loads a scenario, failing the test when either snapshot is missing.
func LoadFixture(t *testing.T, name string) *FixtureContext {
	t.Helper()

	dir := filepath.Join(getFixturesRoot(t), name)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		t.Fatalf("Fixture directory not found: %s", dir)
	}

	fx := &FixtureContext{
		Name:         name,
		Root:         dir,
		BaselinePath: filepath.Join(dir, "baseline.yaml"),
		CurrentPath:  filepath.Join(dir, "current.yaml"),
		ExpectedPath: filepath.Join(dir, "expected.yaml"),
	}
	for _, p := range []string{fx.BaselinePath, fx.CurrentPath} {
		if _, err := os.Stat(p); err != nil {
			t.Fatalf("Fixture %s is incomplete: %v", name, err)
		}
	}
	return fx
}

// AvailableFixtures returns the sorted scenario names that have both snapshots.
func AvailableFixtures(t *testing.T) []string {
	t.Helper()

	root := getFixturesRoot(t)
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("Failed to read fixtures directory: %v", err)
	}

	var names []string
	for _, entry := range entries {
		if !entry.IsDir() || isHiddenDir(entry.Name()) {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "baseline.yaml")); err != nil {
			continue
		}
		if _, err := os.Stat(filepath.Join(root, entry.Name(), "current.yaml")); err != nil {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names
}

// ForEachFixture runs fn as a subtest for every selected scenario.
func ForEachFixture(t *testing.T, fn func(t *testing.T, fx *FixtureContext)) {
	t.Helper()

	names := AvailableFixtures(t)
	if len(names) == 0 {
		t.Fatal("no fixtures found")
	}
	for _, name := range names {
		if !ShouldRun(name) {
			continue
		}
		t.Run(name, func(t *testing.T) {
			fn(t, LoadFixture(t, name))
		})
	}
}

// ShouldRun reports whether the -fixture filter selects name.
func ShouldRun(name string) bool {
	if *fixtureFilter == "" {
		return true
	}
	for _, n := range strings.Split(*fixtureFilter, ",") {
		if strings.TrimSpace(n) == name {
			return true
		}
	}
	return false
}

// getFixturesRoot returns the absolute path to testdata/fixtures/.
func getFixturesRoot(t *testing.T) string {
	t.Helper()

	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("Failed to get caller information")
	}

	// Navigate from internal/testutil to project root
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))
	fixturesRoot := filepath.Join(projectRoot, "testdata", "fixtures")

	if _, err := os.Stat(fixturesRoot); os.IsNotExist(err) {
		t.Fatalf("Fixtures root not found: %s", fixturesRoot)
	}

	return fixturesRoot
}

func isHiddenDir(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
