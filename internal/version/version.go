// Package version holds build metadata for semcheck.
package version

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/Masterminds/semver"
)

// Overridden at build time:
// go build -ldflags "-X semcheck/internal/version.Version=1.0.0 -X semcheck/internal/version.Commit=abc123"
var (
	Version   = "0.4.0"
	Commit    = "unknown"
	BuildDate = "unknown"
)

// Info returns the version with the short commit when one is known.
func Info() string {
	if Commit != "unknown" && len(Commit) > 7 {
		return Version + " (" + Commit[:7] + ")"
	}
	return Version
}

// Full returns the multi-line output of `semcheck version`.
func Full() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "semcheck version %s\n", Version)
	fmt.Fprintf(&sb, "Commit: %s\n", Commit)
	fmt.Fprintf(&sb, "Built: %s\n", BuildDate)
	fmt.Fprintf(&sb, "Go: %s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return sb.String()
}

// Semantic returns Version as a semantic version. The SARIF driver
// reports it only when it parses.
func Semantic() (string, bool) {
	v, err := semver.NewVersion(strings.TrimPrefix(Version, "v"))
	if err != nil {
		return "", false
	}
	return v.String(), true
}
